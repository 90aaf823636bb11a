package dto

import (
	"encoding/json"
	"time"
)

// CreateSessionRequest starts a new practice session over an ordered list
// of topic slugs.
// @Description Request body for starting a session
type CreateSessionRequest struct {
	TopicOrder []string `json:"topicOrder" validate:"required,min=1"`
}

// AnswerCurrentQuestionRequest submits the learner's answer to the current
// question of a session.
// @Description Request body for answering the current question
type AnswerCurrentQuestionRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
	Response  string `json:"response" validate:"required"`
	TimeTaken int    `json:"timeTaken"`
}

// UpdateSessionRequest patches session rollup fields.
type UpdateSessionRequest struct {
	TotalScore     *int            `json:"totalScore,omitempty"`
	TotalCorrect   *int            `json:"totalCorrect,omitempty"`
	TotalQuestions *int            `json:"totalQuestions,omitempty"`
	AgentSummary   json.RawMessage `json:"agentSummary,omitempty"`
	SessionMeta    json.RawMessage `json:"sessionMeta,omitempty"`
}

// QuestionView is the catalog question as rendered to the learner. The
// canonical answer is deliberately absent.
type QuestionView struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Topic         string   `json:"topic"`
	SubTopic      string   `json:"sub_topic,omitempty"`
	Difficulty    int      `json:"difficulty"`
	Type          string   `json:"type"`
	Options       []string `json:"options,omitempty"`
	Hints         []string `json:"hints,omitempty"`
	StrategyTip   string   `json:"strategy_tip,omitempty"`
	EstimatedTime int      `json:"estimated_time"`
}

// QuestionSessionView is one attempt record in API responses.
type QuestionSessionView struct {
	ID          string    `json:"id"`
	QuestionID  string    `json:"question_id"`
	Response    string    `json:"response"`
	Correct     bool      `json:"correct"`
	TimeTaken   int       `json:"time_taken"`
	Timestamp   time.Time `json:"timestamp"`
	StrategyTip string    `json:"strategy_tip,omitempty"`
}

// SessionResponse is the session aggregate in API responses.
type SessionResponse struct {
	ID             string                `json:"id"`
	User           *UserSummary          `json:"user,omitempty"`
	TopicOrder     []string              `json:"topic_order"`
	StartTime      time.Time             `json:"start_time"`
	EndTime        time.Time             `json:"end_time"`
	Questions      []QuestionSessionView `json:"questions"`
	TotalScore     *int                  `json:"total_score,omitempty"`
	TotalCorrect   *int                  `json:"total_correct,omitempty"`
	TotalQuestions *int                  `json:"total_questions,omitempty"`
}

// AgentReflection reconstructs "why was I given this question" from the
// latest matching agent decision.
type AgentReflection struct {
	Mastery        float64         `json:"mastery"`
	Reason         string          `json:"reason"`
	NextDifficulty int             `json:"next_difficulty"`
	Trace          json.RawMessage `json:"trace,omitempty"`
}

// CurrentQuestionResponse serves the current question of a session together
// with its attempt record and optional agent enrichment. Question is null
// when the catalog no longer has the referenced document.
type CurrentQuestionResponse struct {
	Session                *SessionResponse     `json:"session"`
	CurrentQuestionSession *QuestionSessionView `json:"current_question_session"`
	CurrentQuestion        *QuestionView        `json:"current_question"`
	AgentReflection        *AgentReflection     `json:"agent_reflection,omitempty"`
}

// AnswerResultResponse is the outcome of answering the current question.
// NextQuestion is null when the answer was incorrect (no progression) or
// when the agent-selected question is missing from the catalog.
type AnswerResultResponse struct {
	Session                *SessionResponse     `json:"session"`
	CurrentQuestionSession *QuestionSessionView `json:"current_question_session"`
	NextQuestion           *QuestionView        `json:"next_question"`
	Message                string               `json:"message,omitempty"`
	ReflectionPrompt       string               `json:"reflection_prompt,omitempty"`
	StrategyTip            string               `json:"strategy_tip,omitempty"`
}

// SessionStats summarizes one historical session for the dashboard.
type SessionStats struct {
	SessionID      string    `json:"session_id"`
	StartTime      time.Time `json:"start_time"`
	TotalQuestions int       `json:"total_questions"`
	TotalCorrect   int       `json:"total_correct"`
	AccuracyPct    int       `json:"accuracy_pct"`
	AvgTimeSec     int       `json:"avg_time_sec"`
	DurationMin    int       `json:"duration_min"`
}

// DashboardStats aggregates across all fetched sessions.
type DashboardStats struct {
	TotalSessions  int `json:"total_sessions"`
	TotalQuestions int `json:"total_questions"`
	TotalCorrect   int `json:"total_correct"`
	AccuracyPct    int `json:"accuracy_pct"`
	AvgTimeSec     int `json:"avg_time_sec"`
}

// ChartData holds per-session time series, oldest to newest, suitable for
// charting on the dashboard.
type ChartData struct {
	Labels   []string `json:"labels"`
	Accuracy []int    `json:"accuracy"`
	AvgTime  []int    `json:"avg_time"`
}

// DashboardResponse is the dashboard payload. NoData signals an explicit
// empty state: the learner has no sessions matching the filter.
type DashboardResponse struct {
	Stats  DashboardStats `json:"stats"`
	Recent []SessionStats `json:"recent"`
	Chart  ChartData      `json:"chart"`
	NoData bool           `json:"no_data"`
}
