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

// mongoQuestionCatalog implements domain.QuestionCatalog against a MongoDB
// collection. Ids are ObjectID hex strings; lookups return (nil, nil) on
// miss because sessions may carry ids of since-deleted questions.
type mongoQuestionCatalog struct {
	collection *mongo.Collection
}

// NewMongoQuestionCatalog creates a question catalog backed by MongoDB.
func NewMongoQuestionCatalog(client *mongo.Client, database string) domain.QuestionCatalog {
	return &mongoQuestionCatalog{
		collection: client.Database(database).Collection(questionCollection),
	}
}

func (c *mongoQuestionCatalog) GetByID(ctx context.Context, id string) (*domain.Question, error) {
	var doc questionDoc
	err := c.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find question: %w", err)
	}
	return toDomainQuestion(&doc), nil
}

// EasiestByTopic returns a question for the topic with the lowest
// difficulty. Ties break in store order.
func (c *mongoQuestionCatalog) EasiestByTopic(ctx context.Context, topicSlug string) (*domain.Question, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "difficulty", Value: 1}})

	var doc questionDoc
	err := c.collection.FindOne(ctx, bson.M{"topic": topicSlug}, opts).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find easiest question for topic %s: %w", topicSlug, err)
	}
	return toDomainQuestion(&doc), nil
}

// RandomByTopic samples one question uniformly from the topic.
func (c *mongoQuestionCatalog) RandomByTopic(ctx context.Context, topicSlug string) (*domain.Question, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"topic": topicSlug}}},
		{{Key: "$sample", Value: bson.M{"size": 1}}},
	}

	cursor, err := c.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to sample question for topic %s: %w", topicSlug, err)
	}
	defer cursor.Close(ctx)

	var docs []questionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode sampled question: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return toDomainQuestion(&docs[0]), nil
}

func (c *mongoQuestionCatalog) Create(ctx context.Context, question *domain.Question) error {
	doc := fromDomainQuestion(question)
	if doc.ID == "" {
		doc.ID = primitive.NewObjectID().Hex()
		question.ID = doc.ID
	}
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := c.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}
	return nil
}

func (c *mongoQuestionCatalog) ListByTopic(ctx context.Context, topicSlug string) ([]domain.Question, error) {
	opts := options.Find().SetSort(bson.D{{Key: "difficulty", Value: 1}})

	cursor, err := c.collection.Find(ctx, bson.M{"topic": topicSlug}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions for topic %s: %w", topicSlug, err)
	}
	defer cursor.Close(ctx)

	var docs []questionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}

	questions := make([]domain.Question, 0, len(docs))
	for i := range docs {
		questions = append(questions, *toDomainQuestion(&docs[i]))
	}
	return questions, nil
}
