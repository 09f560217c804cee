package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"blockbase/domain"
)

// ─────────────────────────────────────────────────────────────
// MongoDB adapter — blocks and views as documents
// ─────────────────────────────────────────────────────────────

// Mongo implements domain.Adapter and domain.ViewStore over two collections.
type Mongo struct {
	client *mongo.Client
	blocks *mongo.Collection
	views  *mongo.Collection
}

// NewMongo connects to uri and uses dbName's "blocks" and "views" collections.
func NewMongo(ctx context.Context, uri, dbName string) (*Mongo, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	db := client.Database(dbName)
	return &Mongo{
		client: client,
		blocks: db.Collection("blocks"),
		views:  db.Collection("views"),
	}, nil
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

type mongoBlock struct {
	ID        string          `bson:"_id"`
	Type      string          `bson:"type"`
	ParentID  string          `bson:"parentId"`
	Data      map[string]any  `bson:"data"`
	Children  []string        `bson:"children"`
	Metadata  domain.Metadata `bson:"metadata"`
	Version   int64           `bson:"version"`
	CreatedAt time.Time       `bson:"createdAt"`
	UpdatedAt time.Time       `bson:"updatedAt"`
}

func (d mongoBlock) toDomain() *domain.Block {
	return &domain.Block{
		ID:        d.ID,
		Type:      domain.BlockType(d.Type),
		Data:      d.Data,
		ParentID:  d.ParentID,
		Children:  d.Children,
		Metadata:  d.Metadata,
		Version:   d.Version,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (m *Mongo) CreateBlock(ctx context.Context, typ domain.BlockType, data map[string]any, parentID string, metadata domain.Metadata) (*domain.Block, error) {
	if parentID != "" {
		if _, err := m.fetch(ctx, parentID); err != nil {
			return nil, err
		}
	}
	if data == nil {
		data = map[string]any{}
	}
	now := time.Now().UTC()
	doc := mongoBlock{
		ID:        uuid.New().String(),
		Type:      string(typ),
		ParentID:  parentID,
		Data:      data,
		Children:  []string{},
		Metadata:  metadata,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := m.blocks.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("mongo insert block: %w", err)
	}
	if parentID != "" {
		_, err := m.blocks.UpdateOne(ctx, bson.M{"_id": parentID}, bson.M{
			"$push": bson.M{"children": doc.ID},
			"$inc":  bson.M{"version": 1},
			"$set":  bson.M{"updatedAt": now},
		})
		if err != nil {
			return nil, fmt.Errorf("mongo append child: %w", err)
		}
	}
	return doc.toDomain(), nil
}

func (m *Mongo) GetBlock(ctx context.Context, id string) (*domain.Block, error) {
	doc, err := m.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (m *Mongo) UpdateBlock(ctx context.Context, id string, partial map[string]any) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range partial {
		set["data."+k] = v
	}
	res, err := m.blocks.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	})
	if err != nil {
		return fmt.Errorf("mongo update block: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("block", id)
	}
	return nil
}

func (m *Mongo) DeleteBlock(ctx context.Context, id string, deleteChildren bool) error {
	doc, err := m.fetch(ctx, id)
	if err != nil {
		return err
	}

	if doc.ParentID != "" {
		_, err := m.blocks.UpdateOne(ctx, bson.M{"_id": doc.ParentID}, bson.M{
			"$pull": bson.M{"children": id},
			"$inc":  bson.M{"version": 1},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		})
		if err != nil {
			return fmt.Errorf("mongo remove child: %w", err)
		}
	}

	if deleteChildren {
		ids := []string{id}
		stack := append([]string(nil), doc.Children...)
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			child, err := m.fetch(ctx, cur)
			if err != nil {
				if domain.IsNotFound(err) {
					continue
				}
				return err
			}
			ids = append(ids, cur)
			stack = append(stack, child.Children...)
		}
		if _, err := m.blocks.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
			return fmt.Errorf("mongo delete subtree: %w", err)
		}
		return nil
	}

	_, err = m.blocks.UpdateMany(ctx, bson.M{"parentId": id}, bson.M{
		"$set": bson.M{"parentId": "", "updatedAt": time.Now().UTC()},
		"$inc": bson.M{"version": 1},
	})
	if err != nil {
		return fmt.Errorf("mongo orphan children: %w", err)
	}
	if _, err := m.blocks.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("mongo delete block: %w", err)
	}
	return nil
}

func (m *Mongo) GetChildren(ctx context.Context, id string) ([]*domain.Block, error) {
	parent, err := m.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(parent.Children) == 0 {
		return nil, nil
	}

	cur, err := m.blocks.Find(ctx, bson.M{"parentId": id})
	if err != nil {
		return nil, fmt.Errorf("mongo list children: %w", err)
	}
	defer cur.Close(ctx)

	byID := make(map[string]*domain.Block)
	for cur.Next(ctx) {
		var doc mongoBlock
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo decode block: %w", err)
		}
		byID[doc.ID] = doc.toDomain()
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	out := make([]*domain.Block, 0, len(parent.Children))
	for _, childID := range parent.Children {
		if b, ok := byID[childID]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *Mongo) fetch(ctx context.Context, id string) (*mongoBlock, error) {
	var doc mongoBlock
	err := m.blocks.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFound("block", id)
	}
	if err != nil {
		return nil, fmt.Errorf("mongo get block: %w", err)
	}
	return &doc, nil
}

// ── View store ─────────────────────────────────────────────

type mongoView struct {
	ID         string             `bson:"_id"`
	DatabaseID string             `bson:"databaseId"`
	Name       string             `bson:"name"`
	Type       string             `bson:"type"`
	Filter     *domain.FilterNode `bson:"filter,omitempty"`
	Sort       []domain.SortKey   `bson:"sort,omitempty"`
	Config     domain.ViewConfig  `bson:"config"`
	CreatedAt  time.Time          `bson:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt"`
}

func (d mongoView) toDomain() *domain.View {
	return &domain.View{
		ID:         d.ID,
		DatabaseID: d.DatabaseID,
		Name:       d.Name,
		Type:       domain.ViewType(d.Type),
		Filter:     d.Filter,
		Sort:       d.Sort,
		Config:     d.Config,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func (m *Mongo) CreateView(ctx context.Context, v *domain.View) error {
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	doc := mongoView{
		ID:         v.ID,
		DatabaseID: v.DatabaseID,
		Name:       v.Name,
		Type:       string(v.Type),
		Filter:     v.Filter,
		Sort:       v.Sort,
		Config:     v.Config,
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
	if _, err := m.views.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo insert view: %w", err)
	}
	return nil
}

func (m *Mongo) GetView(ctx context.Context, id string) (*domain.View, error) {
	var doc mongoView
	err := m.views.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.NotFound("view", id)
	}
	if err != nil {
		return nil, fmt.Errorf("mongo get view: %w", err)
	}
	return doc.toDomain(), nil
}

func (m *Mongo) ListViews(ctx context.Context, databaseID string) ([]*domain.View, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := m.views.Find(ctx, bson.M{"databaseId": databaseID}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list views: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.View
	for cur.Next(ctx) {
		var doc mongoView
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo decode view: %w", err)
		}
		out = append(out, doc.toDomain())
	}
	return out, cur.Err()
}

func (m *Mongo) UpdateView(ctx context.Context, v *domain.View) error {
	v.UpdatedAt = time.Now().UTC()
	res, err := m.views.UpdateOne(ctx, bson.M{"_id": v.ID}, bson.M{"$set": bson.M{
		"name":      v.Name,
		"type":      string(v.Type),
		"filter":    v.Filter,
		"sort":      v.Sort,
		"config":    v.Config,
		"updatedAt": v.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("mongo update view: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("view", v.ID)
	}
	return nil
}

func (m *Mongo) DeleteView(ctx context.Context, id string) error {
	res, err := m.views.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo delete view: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.NotFound("view", id)
	}
	return nil
}

func (m *Mongo) DeleteViewsByDatabase(ctx context.Context, databaseID string) error {
	if _, err := m.views.DeleteMany(ctx, bson.M{"databaseId": databaseID}); err != nil {
		return fmt.Errorf("mongo delete views: %w", err)
	}
	return nil
}

var (
	_ domain.Adapter   = (*Mongo)(nil)
	_ domain.ViewStore = (*Mongo)(nil)
)
