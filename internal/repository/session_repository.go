package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mentalmath/internal/domain"
	"mentalmath/internal/repository/models"
	"mentalmath/internal/util"

	"github.com/jmoiron/sqlx"
)

// sqlxSessionRepository implements domain.SessionRepository using sqlx.
// Question sessions are kept in append order (created_at, id); agent
// decisions are write-once audit rows.
type sqlxSessionRepository struct {
	db *sqlx.DB
}

// NewSQLXSessionRepository creates a new instance of sqlxSessionRepository.
func NewSQLXSessionRepository(db *sqlx.DB) domain.SessionRepository {
	return &sqlxSessionRepository{db: db}
}

func toDomainSession(m *models.Session) *domain.Session {
	if m == nil {
		return nil
	}
	topicOrder := []string(m.TopicOrder)
	if topicOrder == nil {
		topicOrder = []string{}
	}
	return &domain.Session{
		ID:                 m.ID,
		UserID:             m.UserID,
		TopicOrder:         topicOrder,
		StartTime:          m.StartTime,
		EndTime:            m.EndTime,
		TotalScore:         util.NullInt64ToIntPtr(m.TotalScore),
		TotalCorrect:       util.NullInt64ToIntPtr(m.TotalCorrect),
		TotalQuestions:     util.NullInt64ToIntPtr(m.TotalQuestions),
		AgentSummary:       json.RawMessage(m.AgentSummary),
		AdaptiveDifficulty: json.RawMessage(m.AdaptiveDifficulty),
		SessionMeta:        json.RawMessage(m.SessionMeta),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func fromDomainSession(s *domain.Session) *models.Session {
	if s == nil {
		return nil
	}
	return &models.Session{
		ID:                 s.ID,
		UserID:             s.UserID,
		TopicOrder:         models.StringSlice(s.TopicOrder),
		StartTime:          s.StartTime,
		EndTime:            s.EndTime,
		TotalScore:         util.IntPtrToNullInt64(s.TotalScore),
		TotalCorrect:       util.IntPtrToNullInt64(s.TotalCorrect),
		TotalQuestions:     util.IntPtrToNullInt64(s.TotalQuestions),
		AgentSummary:       models.RawJSON(s.AgentSummary),
		AdaptiveDifficulty: models.RawJSON(s.AdaptiveDifficulty),
		SessionMeta:        models.RawJSON(s.SessionMeta),
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func toDomainQuestionSession(m *models.QuestionSession) *domain.QuestionSession {
	if m == nil {
		return nil
	}
	return &domain.QuestionSession{
		ID:             m.ID,
		SessionID:      m.SessionID,
		QuestionID:     m.QuestionID,
		Response:       m.Response,
		Correct:        m.Correct,
		TimeTaken:      m.TimeTaken,
		Timestamp:      m.Timestamp,
		AttemptNumber:  util.NullInt64ToIntPtr(m.AttemptNumber),
		AgentFeedback:  json.RawMessage(m.AgentFeedback),
		StrategyTip:    m.StrategyTip.String,
		AnswerVariants: []string(m.AnswerVariants),
		ExtraData:      json.RawMessage(m.ExtraData),
		CreatedAt:      m.CreatedAt,
	}
}

func fromDomainQuestionSession(q *domain.QuestionSession) *models.QuestionSession {
	if q == nil {
		return nil
	}
	return &models.QuestionSession{
		ID:             q.ID,
		SessionID:      q.SessionID,
		QuestionID:     q.QuestionID,
		Response:       q.Response,
		Correct:        q.Correct,
		TimeTaken:      q.TimeTaken,
		Timestamp:      q.Timestamp,
		AttemptNumber:  util.IntPtrToNullInt64(q.AttemptNumber),
		AgentFeedback:  models.RawJSON(q.AgentFeedback),
		StrategyTip:    util.StringToNullString(q.StrategyTip),
		AnswerVariants: models.StringSlice(q.AnswerVariants),
		ExtraData:      models.RawJSON(q.ExtraData),
		CreatedAt:      q.CreatedAt,
	}
}

func toDomainAgentDecision(m *models.AgentDecision) *domain.AgentDecision {
	if m == nil {
		return nil
	}
	return &domain.AgentDecision{
		ID:             m.ID,
		SessionID:      m.SessionID,
		PrevQuestionID: m.PrevQuestionID.String,
		NextQuestionID: m.NextQuestionID.String,
		NextDifficulty: m.NextDifficulty,
		Mastery:        m.Mastery,
		Reason:         m.Reason,
		Trace:          json.RawMessage(m.Trace),
		CreatedAt:      m.CreatedAt,
	}
}

// CreateSession inserts a session row together with any question-session
// children already attached to it. Callers wanting atomicity run this
// inside TransactionManager.WithTransaction.
func (r *sqlxSessionRepository) CreateSession(ctx context.Context, session *domain.Session) error {
	m := fromDomainSession(session)
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now

	query := `INSERT INTO sessions (id, user_id, topic_order, start_time, end_time, total_score, total_correct, total_questions, agent_summary, adaptive_difficulty, session_meta, created_at, updated_at)
	          VALUES (:id, :user_id, :topic_order, :start_time, :end_time, :total_score, :total_correct, :total_questions, :agent_summary, :adaptive_difficulty, :session_meta, :created_at, :updated_at)`

	exec := GetExecutor(ctx, r.db)
	if _, err := exec.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	for i := range session.Questions {
		qs := &session.Questions[i]
		qs.SessionID = session.ID
		if err := r.AppendQuestionSession(ctx, qs); err != nil {
			return err
		}
	}
	return nil
}

func (r *sqlxSessionRepository) loadQuestionSessions(ctx context.Context, exec DBTX, sessionIDs []string) (map[string][]domain.QuestionSession, error) {
	byID := make(map[string][]domain.QuestionSession, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return byID, nil
	}

	query, args, err := sqlx.In(
		`SELECT * FROM question_sessions WHERE session_id IN (?) ORDER BY created_at ASC, id ASC`, sessionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build question_sessions query: %w", err)
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	var rows []models.QuestionSession
	if err := exec.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load question sessions: %w", err)
	}

	for i := range rows {
		qs := toDomainQuestionSession(&rows[i])
		byID[qs.SessionID] = append(byID[qs.SessionID], *qs)
	}
	return byID, nil
}

// GetSessionByID loads a session with its ordered children. Returns
// (nil, nil) when the session does not exist.
func (r *sqlxSessionRepository) GetSessionByID(ctx context.Context, sessionID string) (*domain.Session, error) {
	var m models.Session
	query := `SELECT * FROM sessions WHERE id = $1`

	exec := GetExecutor(ctx, r.db)
	err := exec.GetContext(ctx, &m, query, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	session := toDomainSession(&m)
	children, err := r.loadQuestionSessions(ctx, exec, []string{sessionID})
	if err != nil {
		return nil, err
	}
	session.Questions = children[sessionID]
	return session, nil
}

// GetSessionsByUserID returns all sessions for a user, newest first,
// children eager-loaded.
func (r *sqlxSessionRepository) GetSessionsByUserID(ctx context.Context, userID string) ([]domain.Session, error) {
	return r.selectSessions(ctx,
		`SELECT * FROM sessions WHERE user_id = $1 ORDER BY start_time DESC`, userID)
}

// GetRecentSessionsByUserID returns the user's most recent sessions by
// start time descending. A non-empty topic restricts to sessions whose
// topic order contains that slug.
func (r *sqlxSessionRepository) GetRecentSessionsByUserID(ctx context.Context, userID string, topic string, limit int) ([]domain.Session, error) {
	if topic != "" {
		topicJSON, err := json.Marshal([]string{topic})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal topic filter: %w", err)
		}
		return r.selectSessions(ctx,
			`SELECT * FROM sessions WHERE user_id = $1 AND topic_order @> $2 ORDER BY start_time DESC LIMIT $3`,
			userID, string(topicJSON), limit)
	}
	return r.selectSessions(ctx,
		`SELECT * FROM sessions WHERE user_id = $1 ORDER BY start_time DESC LIMIT $2`, userID, limit)
}

func (r *sqlxSessionRepository) selectSessions(ctx context.Context, query string, args ...interface{}) ([]domain.Session, error) {
	exec := GetExecutor(ctx, r.db)

	var rows []models.Session
	if err := exec.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select sessions: %w", err)
	}

	sessions := make([]domain.Session, 0, len(rows))
	ids := make([]string, 0, len(rows))
	for i := range rows {
		sessions = append(sessions, *toDomainSession(&rows[i]))
		ids = append(ids, rows[i].ID)
	}

	children, err := r.loadQuestionSessions(ctx, exec, ids)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		sessions[i].Questions = children[sessions[i].ID]
	}
	return sessions, nil
}

// UpdateSession updates session rollup fields and timestamps. Children are
// never touched here; they are append-only through AppendQuestionSession.
func (r *sqlxSessionRepository) UpdateSession(ctx context.Context, session *domain.Session) error {
	m := fromDomainSession(session)
	m.UpdatedAt = time.Now()

	query := `UPDATE sessions SET
				end_time = :end_time,
				total_score = :total_score,
				total_correct = :total_correct,
				total_questions = :total_questions,
				agent_summary = :agent_summary,
				adaptive_difficulty = :adaptive_difficulty,
				session_meta = :session_meta,
				updated_at = :updated_at
	          WHERE id = :id`

	exec := GetExecutor(ctx, r.db)
	result, err := exec.NamedExecContext(ctx, query, m)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteSession removes a session and its children. Explicit deletion is
// the only path that shrinks a question-session list.
func (r *sqlxSessionRepository) DeleteSession(ctx context.Context, sessionID string) error {
	exec := GetExecutor(ctx, r.db)

	if _, err := exec.ExecContext(ctx, `DELETE FROM agent_decisions WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete agent decisions: %w", err)
	}
	if _, err := exec.ExecContext(ctx, `DELETE FROM question_sessions WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete question sessions: %w", err)
	}
	result, err := exec.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AppendQuestionSession inserts a new attempt row at the end of the
// session's log.
func (r *sqlxSessionRepository) AppendQuestionSession(ctx context.Context, qs *domain.QuestionSession) error {
	m := fromDomainQuestionSession(qs)
	if m.ID == "" {
		m.ID = util.NewULID()
		qs.ID = m.ID
	}
	m.CreatedAt = time.Now()

	query := `INSERT INTO question_sessions (id, session_id, question_id, response, correct, time_taken, timestamp, attempt_number, agent_feedback, strategy_tip, answer_variants, extra_data, created_at)
	          VALUES (:id, :session_id, :question_id, :response, :correct, :time_taken, :timestamp, :attempt_number, :agent_feedback, :strategy_tip, :answer_variants, :extra_data, :created_at)`

	exec := GetExecutor(ctx, r.db)
	if _, err := exec.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("failed to append question session: %w", err)
	}
	return nil
}

// UpdateQuestionSession persists the answer fields of an existing attempt
// row. This is the only in-place mutation history allows: recording the
// answer to the current question.
func (r *sqlxSessionRepository) UpdateQuestionSession(ctx context.Context, qs *domain.QuestionSession) error {
	m := fromDomainQuestionSession(qs)

	query := `UPDATE question_sessions SET
				response = :response,
				correct = :correct,
				time_taken = :time_taken,
				timestamp = :timestamp,
				agent_feedback = :agent_feedback,
				strategy_tip = :strategy_tip,
				extra_data = :extra_data
	          WHERE id = :id`

	exec := GetExecutor(ctx, r.db)
	result, err := exec.NamedExecContext(ctx, query, m)
	if err != nil {
		return fmt.Errorf("failed to update question session: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateAgentDecision inserts a write-once audit row for one agent call.
func (r *sqlxSessionRepository) CreateAgentDecision(ctx context.Context, decision *domain.AgentDecision) error {
	m := &models.AgentDecision{
		SessionID:      decision.SessionID,
		PrevQuestionID: util.StringToNullString(decision.PrevQuestionID),
		NextQuestionID: util.StringToNullString(decision.NextQuestionID),
		NextDifficulty: decision.NextDifficulty,
		Mastery:        decision.Mastery,
		Reason:         decision.Reason,
		Trace:          models.RawJSON(decision.Trace),
		CreatedAt:      time.Now(),
	}

	query := `INSERT INTO agent_decisions (session_id, prev_question_id, next_question_id, next_difficulty, mastery, reason, trace, created_at)
	          VALUES (:session_id, :prev_question_id, :next_question_id, :next_difficulty, :mastery, :reason, :trace, :created_at)`

	exec := GetExecutor(ctx, r.db)
	if _, err := exec.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("failed to create agent decision: %w", err)
	}
	return nil
}

// GetLatestDecisionForQuestion returns the most recent decision that chose
// the given question for the session. Returns (nil, nil) when the question
// was not agent-chosen, e.g. a session's very first question.
func (r *sqlxSessionRepository) GetLatestDecisionForQuestion(ctx context.Context, sessionID, nextQuestionID string) (*domain.AgentDecision, error) {
	var m models.AgentDecision
	query := `SELECT * FROM agent_decisions WHERE session_id = $1 AND next_question_id = $2 ORDER BY created_at DESC LIMIT 1`

	exec := GetExecutor(ctx, r.db)
	err := exec.GetContext(ctx, &m, query, sessionID, nextQuestionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get agent decision: %w", err)
	}
	return toDomainAgentDecision(&m), nil
}
