package dto

// CreateTopicRequest adds a topic to the catalog.
type CreateTopicRequest struct {
	Slug                  string   `json:"slug" validate:"required"`
	Title                 string   `json:"title" validate:"required"`
	Description           string   `json:"description"`
	Subtopics             []string `json:"subtopics"`
	CanonicalMentalSkills []string `json:"canonicalMentalSkills"`
	MinDifficulty         int      `json:"minDifficulty"`
	MaxDifficulty         int      `json:"maxDifficulty"`
	Tags                  []string `json:"tags"`
}

// TopicResponse is a catalog topic in API responses.
type TopicResponse struct {
	Slug                  string   `json:"slug"`
	Title                 string   `json:"title"`
	Description           string   `json:"description,omitempty"`
	Subtopics             []string `json:"subtopics"`
	CanonicalMentalSkills []string `json:"canonical_mental_skills"`
	MinDifficulty         int      `json:"min_difficulty"`
	MaxDifficulty         int      `json:"max_difficulty"`
	Tags                  []string `json:"tags,omitempty"`
}

// CreateQuestionRequest adds a question to the catalog.
type CreateQuestionRequest struct {
	Text           string   `json:"text" validate:"required"`
	Topic          string   `json:"topic" validate:"required"`
	SubTopic       string   `json:"subTopic"`
	Difficulty     int      `json:"difficulty" validate:"required,min=1,max=5"`
	Type           string   `json:"type"`
	Options        []string `json:"options"`
	CorrectAnswer  string   `json:"correctAnswer"`
	AnswerVariants []string `json:"answerVariants"`
	Tags           []string `json:"tags"`
	MentalSkills   []string `json:"mentalSkills"`
	Hints          []string `json:"hints"`
	StrategyTip    string   `json:"strategyTip"`
	EstimatedTime  int      `json:"estimatedTime"`
}
