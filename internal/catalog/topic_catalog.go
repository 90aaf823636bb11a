package catalog

import (
	"context"
	"fmt"
	"time"

	"mentalmath/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoTopicCatalog implements domain.TopicCatalog against a MongoDB
// collection keyed by slug.
type mongoTopicCatalog struct {
	collection *mongo.Collection
}

// NewMongoTopicCatalog creates a topic catalog backed by MongoDB.
func NewMongoTopicCatalog(client *mongo.Client, database string) domain.TopicCatalog {
	return &mongoTopicCatalog{
		collection: client.Database(database).Collection(topicCollection),
	}
}

func (c *mongoTopicCatalog) GetBySlug(ctx context.Context, slug string) (*domain.Topic, error) {
	var doc topicDoc
	err := c.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find topic %s: %w", slug, err)
	}
	return toDomainTopic(&doc), nil
}

// FindSlugs returns the subset of the given slugs that exist in the
// catalog. Order follows the store, not the input.
func (c *mongoTopicCatalog) FindSlugs(ctx context.Context, slugs []string) ([]string, error) {
	if len(slugs) == 0 {
		return []string{}, nil
	}

	opts := options.Find().SetProjection(bson.M{"slug": 1})
	cursor, err := c.collection.Find(ctx, bson.M{"slug": bson.M{"$in": slugs}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find topic slugs: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []topicDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode topic slugs: %w", err)
	}

	found := make([]string, 0, len(docs))
	for i := range docs {
		found = append(found, docs[i].Slug)
	}
	return found, nil
}

func (c *mongoTopicCatalog) Create(ctx context.Context, topic *domain.Topic) error {
	doc := fromDomainTopic(topic)
	if doc.ID == "" {
		doc.ID = primitive.NewObjectID().Hex()
		topic.ID = doc.ID
	}
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := c.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert topic: %w", err)
	}
	return nil
}

func (c *mongoTopicCatalog) List(ctx context.Context) ([]domain.Topic, error) {
	opts := options.Find().SetSort(bson.D{{Key: "slug", Value: 1}})

	cursor, err := c.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []topicDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode topics: %w", err)
	}

	topics := make([]domain.Topic, 0, len(docs))
	for i := range docs {
		topics = append(topics, *toDomainTopic(&docs[i]))
	}
	return topics, nil
}
