package catalog

import (
	"time"

	"mentalmath/internal/domain"
)

// questionDoc is the MongoDB shape of a catalog question.
type questionDoc struct {
	ID               string    `bson:"_id,omitempty"`
	Text             string    `bson:"text"`
	Topic            string    `bson:"topic"`
	SubTopic         string    `bson:"subTopic,omitempty"`
	Difficulty       int       `bson:"difficulty"`
	Type             string    `bson:"type"`
	Options          []string  `bson:"options,omitempty"`
	CorrectAnswer    string    `bson:"correctAnswer"`
	AnswerVariants   []string  `bson:"answerVariants,omitempty"`
	Tags             []string  `bson:"tags,omitempty"`
	MentalSkills     []string  `bson:"mentalSkills,omitempty"`
	Hints            []string  `bson:"hints,omitempty"`
	StrategyTip      string    `bson:"strategyTip,omitempty"`
	EstimatedTime    int       `bson:"estimatedTime"`
	Provenance       string    `bson:"provenance,omitempty"`
	AddedByID        string    `bson:"addedById,omitempty"`
	AddedByName      string    `bson:"addedByName,omitempty"`
	LastModifiedByID string    `bson:"lastModifiedById,omitempty"`
	CreatedAt        time.Time `bson:"createdAt"`
	UpdatedAt        time.Time `bson:"updatedAt"`
}

func toDomainQuestion(d *questionDoc) *domain.Question {
	if d == nil {
		return nil
	}
	return &domain.Question{
		ID:               d.ID,
		Text:             d.Text,
		Topic:            d.Topic,
		SubTopic:         d.SubTopic,
		Difficulty:       d.Difficulty,
		Type:             domain.QuestionType(d.Type),
		Options:          d.Options,
		CorrectAnswer:    d.CorrectAnswer,
		AnswerVariants:   d.AnswerVariants,
		Tags:             d.Tags,
		MentalSkills:     d.MentalSkills,
		Hints:            d.Hints,
		StrategyTip:      d.StrategyTip,
		EstimatedTime:    d.EstimatedTime,
		Provenance:       domain.QuestionProvenance(d.Provenance),
		AddedByID:        d.AddedByID,
		AddedByName:      d.AddedByName,
		LastModifiedByID: d.LastModifiedByID,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func fromDomainQuestion(q *domain.Question) *questionDoc {
	if q == nil {
		return nil
	}
	return &questionDoc{
		ID:               q.ID,
		Text:             q.Text,
		Topic:            q.Topic,
		SubTopic:         q.SubTopic,
		Difficulty:       q.Difficulty,
		Type:             string(q.Type),
		Options:          q.Options,
		CorrectAnswer:    q.CorrectAnswer,
		AnswerVariants:   q.AnswerVariants,
		Tags:             q.Tags,
		MentalSkills:     q.MentalSkills,
		Hints:            q.Hints,
		StrategyTip:      q.StrategyTip,
		EstimatedTime:    q.EstimatedTime,
		Provenance:       string(q.Provenance),
		AddedByID:        q.AddedByID,
		AddedByName:      q.AddedByName,
		LastModifiedByID: q.LastModifiedByID,
		CreatedAt:        q.CreatedAt,
		UpdatedAt:        q.UpdatedAt,
	}
}

// topicDoc is the MongoDB shape of a catalog topic.
type topicDoc struct {
	ID                    string    `bson:"_id,omitempty"`
	Slug                  string    `bson:"slug"`
	Title                 string    `bson:"title"`
	Description           string    `bson:"description,omitempty"`
	Subtopics             []string  `bson:"subtopics,omitempty"`
	CanonicalMentalSkills []string  `bson:"canonicalMentalSkills,omitempty"`
	MinDifficulty         int       `bson:"minDifficulty"`
	MaxDifficulty         int       `bson:"maxDifficulty"`
	Tags                  []string  `bson:"tags,omitempty"`
	CreatedBy             string    `bson:"createdBy,omitempty"`
	UpdatedBy             string    `bson:"updatedBy,omitempty"`
	CreatedAt             time.Time `bson:"createdAt"`
	UpdatedAt             time.Time `bson:"updatedAt"`
}

func toDomainTopic(d *topicDoc) *domain.Topic {
	if d == nil {
		return nil
	}
	return &domain.Topic{
		ID:                    d.ID,
		Slug:                  d.Slug,
		Title:                 d.Title,
		Description:           d.Description,
		Subtopics:             d.Subtopics,
		CanonicalMentalSkills: d.CanonicalMentalSkills,
		MinDifficulty:         d.MinDifficulty,
		MaxDifficulty:         d.MaxDifficulty,
		Tags:                  d.Tags,
		CreatedBy:             d.CreatedBy,
		UpdatedBy:             d.UpdatedBy,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
}

func fromDomainTopic(t *domain.Topic) *topicDoc {
	if t == nil {
		return nil
	}
	return &topicDoc{
		ID:                    t.ID,
		Slug:                  t.Slug,
		Title:                 t.Title,
		Description:           t.Description,
		Subtopics:             t.Subtopics,
		CanonicalMentalSkills: t.CanonicalMentalSkills,
		MinDifficulty:         t.MinDifficulty,
		MaxDifficulty:         t.MaxDifficulty,
		Tags:                  t.Tags,
		CreatedBy:             t.CreatedBy,
		UpdatedBy:             t.UpdatedBy,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
	}
}
