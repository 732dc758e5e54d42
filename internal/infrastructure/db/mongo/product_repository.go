package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/storefront/catalog-api/internal/core/domain"
)

const collectionProducts = "products"

type ProductRepository struct {
	col *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{col: db.Collection(collectionProducts)}
}

type productDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	SKU         string             `bson:"sku"`
	Quantity    int                `bson:"quantity"`
	Price       float64            `bson:"price"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Images      []string           `bson:"images"`
	MainImage   string             `bson:"main_image"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
	Score       float64            `bson:"score,omitempty"`
}

func toProductDoc(p *domain.Product, id primitive.ObjectID) productDoc {
	return productDoc{
		ID:          id,
		SKU:         p.SKU,
		Quantity:    p.Quantity,
		Price:       p.Price,
		Name:        p.Name,
		Description: p.Description,
		Images:      p.Images,
		MainImage:   p.MainImage,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (d *productDoc) toDomain() *domain.Product {
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return &domain.Product{
		ID:          d.ID.Hex(),
		SKU:         d.SKU,
		Quantity:    d.Quantity,
		Price:       d.Price,
		Name:        d.Name,
		Description: d.Description,
		Images:      images,
		MainImage:   d.MainImage,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		Score:       d.Score,
	}
}

// Create inserts p and sets p.ID.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id := primitive.NewObjectID()
	if _, err := r.col.InsertOne(ctx, toProductDoc(p, id)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateSku
		}
		return fmt.Errorf("insert product: %w", err)
	}
	p.ID = id.Hex()
	return nil
}

// FindByID returns domain.ErrProductNotFound for unknown and malformed ids alike.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrProductNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc productDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.D{}, opts)
}

// Update replaces the stored document. A concurrent SKU change that collides
// with another product yields domain.ErrDuplicateSku.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	oid, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		return domain.ErrProductNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": oid}, toProductDoc(p, oid))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateSku
		}
		return fmt.Errorf("replace product: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrProductNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// Search uses the text index and sorts by textScore.
func (r *ProductRepository) Search(ctx context.Context, query string) ([]*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	score := bson.M{"$meta": "textScore"}
	opts := options.Find().
		SetProjection(bson.M{"score": score}).
		SetSort(bson.D{{Key: "score", Value: score}})
	return r.find(ctx, bson.M{"$text": bson.M{"$search": query}}, opts)
}

// ReferencedImages collects the distinct values of images and main_image.
func (r *ProductRepository) ReferencedImages(ctx context.Context) (map[string]struct{}, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	held := make(map[string]struct{})
	for _, field := range []string{"images", "main_image"} {
		values, err := r.col.Distinct(ctx, field, bson.D{})
		if err != nil {
			return nil, fmt.Errorf("distinct %s: %w", field, err)
		}
		for _, v := range values {
			if ref, ok := v.(string); ok && ref != "" {
				held[ref] = struct{}{}
			}
		}
	}
	return held, nil
}

func (r *ProductRepository) find(ctx context.Context, filter any, opts *options.FindOptions) ([]*domain.Product, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cur.Close(ctx)

	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}

	out := make([]*domain.Product, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// EnsureIndexes creates the unique sku index and the text index used by Search.
func (r *ProductRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "sku", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("sku_unique"),
		},
		{
			Keys: bson.D{
				{Key: "name", Value: "text"},
				{Key: "description", Value: "text"},
				{Key: "sku", Value: "text"},
			},
			Options: options.Index().SetName("product_text"),
		},
		{Keys: bson.D{{Key: "images", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
