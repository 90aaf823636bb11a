package models

import (
	"database/sql"
	"time"
)

// Session represents a session row. Question sessions live in their own
// table and are loaded separately in append order.
type Session struct {
	ID                 string        `db:"id"`          // ULID
	UserID             string        `db:"user_id"`     // FK to users
	TopicOrder         StringSlice   `db:"topic_order"` // Ordered topic slugs for this run
	StartTime          time.Time     `db:"start_time"`
	EndTime            time.Time     `db:"end_time"` // start + 1h soft deadline
	TotalScore         sql.NullInt64 `db:"total_score"`
	TotalCorrect       sql.NullInt64 `db:"total_correct"`
	TotalQuestions     sql.NullInt64 `db:"total_questions"`
	AgentSummary       RawJSON       `db:"agent_summary"`
	AdaptiveDifficulty RawJSON       `db:"adaptive_difficulty"`
	SessionMeta        RawJSON       `db:"session_meta"`
	CreatedAt          time.Time     `db:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at"`
}

// QuestionSession represents one attempt row. Append-only; question_id is a
// value copy of a document-store id with no referential integrity.
type QuestionSession struct {
	ID             string         `db:"id"`          // ULID
	SessionID      string         `db:"session_id"`  // FK to sessions
	QuestionID     string         `db:"question_id"` // Opaque catalog id
	Response       string         `db:"response"`
	Correct        bool           `db:"correct"`
	TimeTaken      int            `db:"time_taken"` // seconds
	Timestamp      time.Time      `db:"timestamp"`
	AttemptNumber  sql.NullInt64  `db:"attempt_number"`
	AgentFeedback  RawJSON        `db:"agent_feedback"`
	StrategyTip    sql.NullString `db:"strategy_tip"`
	AnswerVariants StringSlice    `db:"answer_variants"`
	ExtraData      RawJSON        `db:"extra_data"`
	CreatedAt      time.Time      `db:"created_at"`
}

// AgentDecision represents a write-once audit row of one agent call.
type AgentDecision struct {
	ID             int64          `db:"id"`
	SessionID      string         `db:"session_id"`
	PrevQuestionID sql.NullString `db:"prev_question_id"`
	NextQuestionID sql.NullString `db:"next_question_id"`
	NextDifficulty int            `db:"next_difficulty"`
	Mastery        float64        `db:"mastery"`
	Reason         string         `db:"reason"`
	Trace          RawJSON        `db:"trace"`
	CreatedAt      time.Time      `db:"created_at"`
}
