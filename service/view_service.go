package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"blockbase/domain"
	"blockbase/query"
)

// ─────────────────────────────────────────────────────────────
// Views — presentation configurations bound to one database
// ─────────────────────────────────────────────────────────────

// CreateViewParams are the inputs for a new view.
type CreateViewParams struct {
	DatabaseID string
	Name       string
	Type       domain.ViewType
	Filter     *domain.FilterNode
	Sort       []domain.SortKey
	Config     domain.ViewConfig
}

// CreateView validates the config against the database's current properties
// and persists the view.
func (s *DatabaseService) CreateView(ctx context.Context, p CreateViewParams) (*domain.View, error) {
	db, err := s.getDatabaseStrict(ctx, p.DatabaseID)
	if err != nil {
		return nil, err
	}
	if err := validateViewConfig(db.Properties, p.Type, p.Config); err != nil {
		return nil, err
	}
	v := &domain.View{
		ID:         uuid.New().String(),
		DatabaseID: p.DatabaseID,
		Name:       p.Name,
		Type:       p.Type,
		Filter:     p.Filter,
		Sort:       p.Sort,
		Config:     p.Config,
	}
	if err := s.views.CreateView(ctx, v); err != nil {
		return nil, fmt.Errorf("create view: %w", err)
	}
	return v, nil
}

// GetView returns one view by id.
func (s *DatabaseService) GetView(ctx context.Context, id string) (*domain.View, error) {
	return s.views.GetView(ctx, id)
}

// GetViews returns all views of a database.
func (s *DatabaseService) GetViews(ctx context.Context, databaseID string) ([]*domain.View, error) {
	return s.views.ListViews(ctx, databaseID)
}

// UpdateViewParams carry the view fields to merge; nil fields stay untouched.
type UpdateViewParams struct {
	Name   *string
	Type   *domain.ViewType
	Filter *domain.FilterNode
	Sort   []domain.SortKey
	Config *domain.ViewConfig
}

// UpdateView merges the supplied fields, re-validates the effective config,
// and refreshes the view's UpdatedAt stamp.
func (s *DatabaseService) UpdateView(ctx context.Context, id string, p UpdateViewParams) (*domain.View, error) {
	v, err := s.views.GetView(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil {
		v.Name = *p.Name
	}
	if p.Type != nil {
		v.Type = *p.Type
	}
	if p.Filter != nil {
		v.Filter = p.Filter
	}
	if p.Sort != nil {
		v.Sort = p.Sort
	}
	if p.Config != nil {
		v.Config = *p.Config
	}

	db, err := s.getDatabaseStrict(ctx, v.DatabaseID)
	if err != nil {
		return nil, err
	}
	if err := validateViewConfig(db.Properties, v.Type, v.Config); err != nil {
		return nil, err
	}
	if err := s.views.UpdateView(ctx, v); err != nil {
		return nil, fmt.Errorf("update view: %w", err)
	}
	return v, nil
}

// DeleteView removes one view.
func (s *DatabaseService) DeleteView(ctx context.Context, id string) error {
	return s.views.DeleteView(ctx, id)
}

// QueryView runs the view's stored query shape, overlaid with any
// caller-supplied options. Board views group by their grouping property
// unless the caller overrides it.
func (s *DatabaseService) QueryView(ctx context.Context, viewID string, extra *query.Options) (*query.Result, error) {
	v, err := s.views.GetView(ctx, viewID)
	if err != nil {
		return nil, err
	}

	opts := query.Options{Filter: v.Filter, Sort: v.Sort}
	if v.Type == domain.ViewTypeBoard && v.Config.GroupByPropertyID != "" {
		opts.GroupBy = v.Config.GroupByPropertyID
	}
	if extra != nil {
		if extra.Filter != nil {
			opts.Filter = extra.Filter
		}
		if extra.Sort != nil {
			opts.Sort = extra.Sort
		}
		if extra.GroupBy != "" {
			opts.GroupBy = extra.GroupBy
		}
		if extra.Aggregations != nil {
			opts.Aggregations = extra.Aggregations
		}
		if extra.Limit > 0 {
			opts.Limit = extra.Limit
		}
		if extra.Offset > 0 {
			opts.Offset = extra.Offset
		}
	}
	return s.QueryRows(ctx, v.DatabaseID, opts)
}

// ── View config validation ─────────────────────────────────

func validateViewConfig(props []domain.Property, vt domain.ViewType, cfg domain.ViewConfig) error {
	byID := make(map[string]domain.Property, len(props))
	for _, p := range props {
		byID[p.ID] = p
	}

	var errs []domain.FieldError
	requireProp := func(field, propID string) *domain.Property {
		if propID == "" {
			errs = append(errs, domain.FieldError{
				Field:   field,
				Message: field + " is required for " + string(vt) + " views",
				Code:    domain.CodeRequiredField,
			})
			return nil
		}
		p, ok := byID[propID]
		if !ok {
			errs = append(errs, domain.FieldError{
				Field:   field,
				Message: fmt.Sprintf("%s references unknown property %q", field, propID),
				Code:    domain.CodeInvalidFormat,
			})
			return nil
		}
		return &p
	}
	checkCardProps := func(field string, ids []string) {
		for _, id := range ids {
			if _, ok := byID[id]; !ok {
				errs = append(errs, domain.FieldError{
					Field:   field,
					Message: fmt.Sprintf("%s references unknown property %q", field, id),
					Code:    domain.CodeInvalidFormat,
				})
			}
		}
	}

	switch vt {
	case domain.ViewTypeTable:
		if cfg.RowHeight != "" && cfg.RowHeight != "compact" && cfg.RowHeight != "normal" && cfg.RowHeight != "tall" {
			errs = append(errs, domain.FieldError{
				Field:   "rowHeight",
				Message: "rowHeight must be one of compact, normal, tall",
				Code:    domain.CodeInvalidEnum,
			})
		}
	case domain.ViewTypeBoard:
		if p := requireProp("groupByPropertyId", cfg.GroupByPropertyID); p != nil && p.Type != domain.PropSelect {
			errs = append(errs, domain.FieldError{
				Field:   "groupByPropertyId",
				Message: fmt.Sprintf("board grouping needs a select property, %q is %s", p.ID, p.Type),
				Code:    domain.CodeInvalidType,
			})
		}
		checkCardProps("cardPropertyIds", cfg.CardPropertyIDs)
	case domain.ViewTypeCalendar:
		if p := requireProp("datePropertyId", cfg.DatePropertyID); p != nil && p.Type != domain.PropDate && p.Type != domain.PropDatetime {
			errs = append(errs, domain.FieldError{
				Field:   "datePropertyId",
				Message: fmt.Sprintf("calendar needs a date property, %q is %s", p.ID, p.Type),
				Code:    domain.CodeInvalidType,
			})
		}
	case domain.ViewTypeGallery:
		if cfg.CardSize != "" && cfg.CardSize != "small" && cfg.CardSize != "medium" && cfg.CardSize != "large" {
			errs = append(errs, domain.FieldError{
				Field:   "cardSize",
				Message: "cardSize must be one of small, medium, large",
				Code:    domain.CodeInvalidEnum,
			})
		}
		checkCardProps("cardPropertyIds", cfg.CardPropertyIDs)
	case domain.ViewTypeTimeline:
		if p := requireProp("startPropertyId", cfg.StartPropertyID); p != nil && p.Type != domain.PropDate && p.Type != domain.PropDatetime {
			errs = append(errs, domain.FieldError{
				Field:   "startPropertyId",
				Message: fmt.Sprintf("timeline needs date properties, %q is %s", p.ID, p.Type),
				Code:    domain.CodeInvalidType,
			})
		}
		if p := requireProp("endPropertyId", cfg.EndPropertyID); p != nil && p.Type != domain.PropDate && p.Type != domain.PropDatetime {
			errs = append(errs, domain.FieldError{
				Field:   "endPropertyId",
				Message: fmt.Sprintf("timeline needs date properties, %q is %s", p.ID, p.Type),
				Code:    domain.CodeInvalidType,
			})
		}
	default:
		errs = append(errs, domain.FieldError{
			Field:   "type",
			Message: fmt.Sprintf("unknown view type %q", vt),
			Code:    domain.CodeInvalidEnum,
		})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}
