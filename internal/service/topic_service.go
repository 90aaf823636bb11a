package service

import (
	"context"
	"fmt"

	"mentalmath/internal/domain"
	"mentalmath/internal/dto"
	"mentalmath/internal/logger"

	"go.uber.org/zap"
)

// TopicService manages the topic catalog.
type TopicService interface {
	CreateTopic(ctx context.Context, userID string, req *dto.CreateTopicRequest) (*dto.TopicResponse, error)
	GetTopic(ctx context.Context, slug string) (*dto.TopicResponse, error)
	ListTopics(ctx context.Context) ([]dto.TopicResponse, error)
}

type topicServiceImpl struct {
	topicCatalog domain.TopicCatalog
}

// NewTopicService creates a new instance of TopicService.
func NewTopicService(topicCatalog domain.TopicCatalog) TopicService {
	return &topicServiceImpl{topicCatalog: topicCatalog}
}

func toTopicResponse(t *domain.Topic) *dto.TopicResponse {
	return &dto.TopicResponse{
		Slug:                  t.Slug,
		Title:                 t.Title,
		Description:           t.Description,
		Subtopics:             t.Subtopics,
		CanonicalMentalSkills: t.CanonicalMentalSkills,
		MinDifficulty:         t.MinDifficulty,
		MaxDifficulty:         t.MaxDifficulty,
		Tags:                  t.Tags,
	}
}

// CreateTopic adds a topic. Slugs are immutable identities, so an existing
// slug is a conflict rather than an upsert.
func (s *topicServiceImpl) CreateTopic(ctx context.Context, userID string, req *dto.CreateTopicRequest) (*dto.TopicResponse, error) {
	existing, err := s.topicCatalog.GetBySlug(ctx, req.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing topic: %w", err)
	}
	if existing != nil {
		return nil, domain.NewConflictError(fmt.Sprintf("Topic with slug %s already exists", req.Slug))
	}

	topic := &domain.Topic{
		Slug:                  req.Slug,
		Title:                 req.Title,
		Description:           req.Description,
		Subtopics:             req.Subtopics,
		CanonicalMentalSkills: req.CanonicalMentalSkills,
		MinDifficulty:         req.MinDifficulty,
		MaxDifficulty:         req.MaxDifficulty,
		Tags:                  req.Tags,
		CreatedBy:             userID,
		UpdatedBy:             userID,
	}
	if err := topic.Validate(); err != nil {
		return nil, err
	}
	if err := s.topicCatalog.Create(ctx, topic); err != nil {
		return nil, fmt.Errorf("failed to create topic: %w", err)
	}

	logger.Get().Info("Topic created", zap.String("slug", topic.Slug), zap.String("createdBy", userID))
	return toTopicResponse(topic), nil
}

func (s *topicServiceImpl) GetTopic(ctx context.Context, slug string) (*dto.TopicResponse, error) {
	topic, err := s.topicCatalog.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch topic: %w", err)
	}
	if topic == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf("Topic with slug %s not found", slug))
	}
	return toTopicResponse(topic), nil
}

func (s *topicServiceImpl) ListTopics(ctx context.Context) ([]dto.TopicResponse, error) {
	topics, err := s.topicCatalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	responses := make([]dto.TopicResponse, 0, len(topics))
	for i := range topics {
		responses = append(responses, *toTopicResponse(&topics[i]))
	}
	return responses, nil
}
