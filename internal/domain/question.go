package domain

import (
	"context"
	"time"
)

// QuestionType enumerates the supported answer formats.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionFreeText       QuestionType = "free_text"
	QuestionNumeric        QuestionType = "numeric"
	QuestionTrueFalse      QuestionType = "true_false"
)

// QuestionProvenance records how a question entered the catalog.
type QuestionProvenance string

const (
	ProvenanceProgrammatic QuestionProvenance = "programmatic"
	ProvenanceCurated      QuestionProvenance = "curated"
	ProvenanceLLMAssisted  QuestionProvenance = "llm_assisted"
)

// Question is a catalog document. It lives in the document store with a
// lifecycle independent from sessions; sessions reference it by opaque id.
type Question struct {
	ID             string
	Text           string
	Topic          string // topic slug
	SubTopic       string
	Difficulty     int // 1..5
	Type           QuestionType
	Options        []string // multiple choice only
	CorrectAnswer  string
	AnswerVariants []string
	Tags           []string
	MentalSkills   []string
	Hints          []string
	StrategyTip    string
	EstimatedTime  int // seconds
	Provenance     QuestionProvenance
	AddedByID      string
	AddedByName    string
	LastModifiedByID string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate validates the question
func (q *Question) Validate() error {
	if q.Text == "" {
		return NewInvalidInputError("question text is required")
	}
	if q.Topic == "" {
		return NewInvalidInputError("topic is required")
	}
	if q.Difficulty < 1 || q.Difficulty > 5 {
		return NewInvalidInputError("difficulty must be between 1 and 5")
	}
	return nil
}

// IsCorrect reports whether the submitted response matches the canonical
// answer. Comparison is exact string equality: no trimming, no case
// folding, no numeric equivalence.
func (q *Question) IsCorrect(response string) bool {
	return response == q.CorrectAnswer
}

// Topic is a catalog document describing a subject area. The slug is the
// immutable identity other records reference.
type Topic struct {
	ID                   string
	Slug                 string
	Title                string
	Description          string
	Subtopics            []string
	CanonicalMentalSkills []string
	MinDifficulty        int
	MaxDifficulty        int
	Tags                 []string
	CreatedBy            string
	UpdatedBy            string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Validate validates the topic
func (t *Topic) Validate() error {
	if t.Slug == "" {
		return NewInvalidInputError("slug is required")
	}
	if t.Title == "" {
		return NewInvalidInputError("title is required")
	}
	return nil
}

// QuestionCatalog defines lookups against the question document store.
// Lookups return (nil, nil) on miss; the stores are not transactionally
// linked and stale ids are expected.
type QuestionCatalog interface {
	GetByID(ctx context.Context, id string) (*Question, error)
	// EasiestByTopic returns a question for the topic preferring the lowest
	// difficulty. Ties are broken in store order; not deterministic.
	EasiestByTopic(ctx context.Context, topicSlug string) (*Question, error)
	RandomByTopic(ctx context.Context, topicSlug string) (*Question, error)
	Create(ctx context.Context, question *Question) error
	ListByTopic(ctx context.Context, topicSlug string) ([]Question, error)
}

// TopicCatalog defines lookups against the topic document store.
type TopicCatalog interface {
	GetBySlug(ctx context.Context, slug string) (*Topic, error)
	// FindSlugs returns which of the given slugs exist in the catalog.
	FindSlugs(ctx context.Context, slugs []string) ([]string, error)
	Create(ctx context.Context, topic *Topic) error
	List(ctx context.Context) ([]Topic, error)
}
