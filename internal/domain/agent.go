package domain

import "context"

// AgentAnswerEvent describes the question the learner just answered. It is
// the payload sent to the remote next-question agent.
type AgentAnswerEvent struct {
	QuestionID    string `json:"questionId"`
	Topic         string `json:"topic"`
	SubTopic      string `json:"subTopic,omitempty"`
	Difficulty    int    `json:"difficulty"`
	WasCorrect    bool   `json:"wasCorrect"`
	TimeTaken     int    `json:"timeTaken"`
	EstimatedTime int    `json:"estimatedTime"`
	Answer        string `json:"answer"`
	SessionID     string `json:"sessionId"`
	UserID        string `json:"userId"`
}

// AgentSuggestion is the agent's verdict: the next question to serve plus
// optional coaching text. RawTrace preserves the request and response bytes
// for the AgentDecision audit row.
type AgentSuggestion struct {
	NextQuestionID   string  `json:"nextQuestionId"`
	NextDifficulty   int     `json:"nextDifficulty,omitempty"`
	Mastery          float64 `json:"mastery,omitempty"`
	Reason           string  `json:"reason,omitempty"`
	StrategyTip      string  `json:"strategyTip,omitempty"`
	Message          string  `json:"message,omitempty"`
	ReflectionPrompt string  `json:"reflectionPrompt,omitempty"`

	RawTrace []byte `json:"-"`
}

// AgentClient is the outbound port to the remote scoring/selection service.
// A call either yields a suggestion or fails the enclosing request; there
// is no retry and no caching.
type AgentClient interface {
	SuggestNext(ctx context.Context, event *AgentAnswerEvent) (*AgentSuggestion, error)
}
