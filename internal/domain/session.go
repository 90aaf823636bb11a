package domain

import (
	"context"
	"encoding/json"
	"time"
)

// SessionDuration is the soft deadline applied to every practice run.
const SessionDuration = time.Hour

// Session is one learner's timed practice run across an ordered set of
// topics. Its QuestionSession children form an append-only attempt log;
// the last-appended entry is the current (active) question.
type Session struct {
	ID         string
	UserID     string
	TopicOrder []string
	StartTime  time.Time
	EndTime    time.Time
	Questions  []QuestionSession

	// Optional rollups, filled when a session is summarized.
	TotalScore     *int
	TotalCorrect   *int
	TotalQuestions *int

	// Opaque agent payloads. Schema is owned by the agent; stored verbatim.
	AgentSummary       json.RawMessage
	AdaptiveDifficulty json.RawMessage
	SessionMeta        json.RawMessage

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession creates a Session starting now with the fixed one-hour deadline.
func NewSession(userID string, topicOrder []string) *Session {
	now := time.Now()
	return &Session{
		UserID:     userID,
		TopicOrder: topicOrder,
		StartTime:  now,
		EndTime:    now.Add(SessionDuration),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// CurrentQuestion returns the active attempt record: the last-appended
// QuestionSession. Returns nil when the session has no attempts.
func (s *Session) CurrentQuestion() *QuestionSession {
	if len(s.Questions) == 0 {
		return nil
	}
	return &s.Questions[len(s.Questions)-1]
}

// Validate validates the session
func (s *Session) Validate() error {
	if s.UserID == "" {
		return NewInvalidInputError("user id is required")
	}
	if len(s.TopicOrder) == 0 {
		return NewInvalidInputError("topic order must not be empty")
	}
	return nil
}

// QuestionSession is one attempt record within a Session: one question,
// one answer. QuestionID references the document-store Question by value
// only; the lookup may miss and callers must tolerate that.
type QuestionSession struct {
	ID            string
	SessionID     string
	QuestionID    string
	Response      string
	Correct       bool
	TimeTaken     int // seconds
	Timestamp     time.Time
	AttemptNumber *int
	AgentFeedback json.RawMessage
	StrategyTip   string
	AnswerVariants []string
	ExtraData     json.RawMessage
	CreatedAt     time.Time
}

// NewQuestionSession creates an unanswered attempt record for a question.
func NewQuestionSession(sessionID, questionID string) *QuestionSession {
	now := time.Now()
	return &QuestionSession{
		SessionID:  sessionID,
		QuestionID: questionID,
		Response:   "",
		Correct:    false,
		TimeTaken:  0,
		Timestamp:  now,
		CreatedAt:  now,
	}
}

// Answered reports whether the learner has submitted a response.
func (q *QuestionSession) Answered() bool {
	return q.Response != ""
}

// AgentDecision is the write-once audit record of one agent invocation:
// which question the agent chose next and why.
type AgentDecision struct {
	ID             int64
	SessionID      string
	PrevQuestionID string
	NextQuestionID string
	NextDifficulty int
	Mastery        float64
	Reason         string
	Trace          json.RawMessage
	CreatedAt      time.Time
}

// SessionRepository defines the interface for session aggregate persistence.
// Question sessions are returned in append (creation) order.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSessionByID(ctx context.Context, sessionID string) (*Session, error)
	GetSessionsByUserID(ctx context.Context, userID string) ([]Session, error)
	// GetRecentSessionsByUserID returns the user's most recent sessions by
	// start time descending, children eager-loaded. topic filters sessions
	// whose topic order contains the slug; empty topic means no filter.
	GetRecentSessionsByUserID(ctx context.Context, userID string, topic string, limit int) ([]Session, error)
	UpdateSession(ctx context.Context, session *Session) error
	DeleteSession(ctx context.Context, sessionID string) error

	AppendQuestionSession(ctx context.Context, qs *QuestionSession) error
	UpdateQuestionSession(ctx context.Context, qs *QuestionSession) error

	CreateAgentDecision(ctx context.Context, decision *AgentDecision) error
	// GetLatestDecisionForQuestion returns the most recent decision that
	// selected the given question for the session, or nil when the question
	// was not agent-chosen (e.g. a session's very first question).
	GetLatestDecisionForQuestion(ctx context.Context, sessionID, nextQuestionID string) (*AgentDecision, error)
}

// TransactionManager runs a function within a database transaction.
// The transactional executor travels in the context.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
