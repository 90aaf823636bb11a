package service

import (
	"context"
	"fmt"

	"mentalmath/internal/domain"
	"mentalmath/internal/dto"
	"mentalmath/internal/logger"

	"go.uber.org/zap"
)

// QuestionService manages the question catalog.
type QuestionService interface {
	CreateQuestion(ctx context.Context, userID string, req *dto.CreateQuestionRequest) (*dto.QuestionView, error)
	ListQuestionsByTopic(ctx context.Context, topicSlug string) ([]dto.QuestionView, error)
	GetQuestion(ctx context.Context, id string) (*dto.QuestionView, error)
	GetRandomQuestion(ctx context.Context, topicSlug string) (*dto.QuestionView, error)
}

type questionServiceImpl struct {
	questionCatalog domain.QuestionCatalog
	topicCatalog    domain.TopicCatalog
}

// NewQuestionService creates a new instance of QuestionService.
func NewQuestionService(questionCatalog domain.QuestionCatalog, topicCatalog domain.TopicCatalog) QuestionService {
	return &questionServiceImpl{
		questionCatalog: questionCatalog,
		topicCatalog:    topicCatalog,
	}
}

// CreateQuestion adds a curated question under an existing topic.
func (s *questionServiceImpl) CreateQuestion(ctx context.Context, userID string, req *dto.CreateQuestionRequest) (*dto.QuestionView, error) {
	topic, err := s.topicCatalog.GetBySlug(ctx, req.Topic)
	if err != nil {
		return nil, fmt.Errorf("failed to check topic: %w", err)
	}
	if topic == nil {
		return nil, domain.NewTopicsNotFoundError([]string{req.Topic})
	}

	questionType := domain.QuestionType(req.Type)
	if req.Type == "" {
		questionType = domain.QuestionFreeText
	}

	question := &domain.Question{
		Text:           req.Text,
		Topic:          req.Topic,
		SubTopic:       req.SubTopic,
		Difficulty:     req.Difficulty,
		Type:           questionType,
		Options:        req.Options,
		CorrectAnswer:  req.CorrectAnswer,
		AnswerVariants: req.AnswerVariants,
		Tags:           req.Tags,
		MentalSkills:   req.MentalSkills,
		Hints:          req.Hints,
		StrategyTip:    req.StrategyTip,
		EstimatedTime:  req.EstimatedTime,
		Provenance:     domain.ProvenanceCurated,
		AddedByID:      userID,
	}
	if err := question.Validate(); err != nil {
		return nil, err
	}
	if err := s.questionCatalog.Create(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	logger.Get().Info("Question created",
		zap.String("questionID", question.ID),
		zap.String("topic", question.Topic),
		zap.String("addedBy", userID))
	return toQuestionView(question), nil
}

func (s *questionServiceImpl) ListQuestionsByTopic(ctx context.Context, topicSlug string) ([]dto.QuestionView, error) {
	questions, err := s.questionCatalog.ListByTopic(ctx, topicSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	views := make([]dto.QuestionView, 0, len(questions))
	for i := range questions {
		views = append(views, *toQuestionView(&questions[i]))
	}
	return views, nil
}

func (s *questionServiceImpl) GetQuestion(ctx context.Context, id string) (*dto.QuestionView, error) {
	question, err := s.questionCatalog.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if question == nil {
		return nil, domain.NewQuestionNotFoundError(id)
	}
	return toQuestionView(question), nil
}

// GetRandomQuestion samples one question from the topic for ad-hoc practice.
func (s *questionServiceImpl) GetRandomQuestion(ctx context.Context, topicSlug string) (*dto.QuestionView, error) {
	topic, err := s.topicCatalog.GetBySlug(ctx, topicSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to check topic: %w", err)
	}
	if topic == nil {
		return nil, domain.NewTopicsNotFoundError([]string{topicSlug})
	}

	question, err := s.questionCatalog.RandomByTopic(ctx, topicSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to sample question: %w", err)
	}
	if question == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf("no questions available for topic '%s'", topicSlug))
	}
	return toQuestionView(question), nil
}
