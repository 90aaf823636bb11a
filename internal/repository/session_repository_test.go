package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"mentalmath/internal/domain"
	"mentalmath/internal/repository/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionColumns() []string {
	return []string{"id", "user_id", "topic_order", "start_time", "end_time", "total_score", "total_correct", "total_questions", "agent_summary", "adaptive_difficulty", "session_meta", "created_at", "updated_at"}
}

func questionSessionColumns() []string {
	return []string{"id", "session_id", "question_id", "response", "correct", "time_taken", "timestamp", "attempt_number", "agent_feedback", "strategy_tip", "answer_variants", "extra_data", "created_at"}
}

func agentDecisionColumns() []string {
	return []string{"id", "session_id", "prev_question_id", "next_question_id", "next_difficulty", "mastery", "reason", "trace", "created_at"}
}

// --- Tests for Converter Functions ---

func TestToDomainSession(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	score := int64(80)
	m := &models.Session{
		ID:           "s1",
		UserID:       "u1",
		TopicOrder:   models.StringSlice{"addition", "fractions"},
		StartTime:    now,
		EndTime:      now.Add(time.Hour),
		TotalScore:   sql.NullInt64{Int64: score, Valid: true},
		AgentSummary: models.RawJSON(`{"mastery":0.5}`),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s := toDomainSession(m)
	require.NotNil(t, s)
	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, []string{"addition", "fractions"}, s.TopicOrder)
	require.NotNil(t, s.TotalScore)
	assert.Equal(t, 80, *s.TotalScore)
	assert.Nil(t, s.TotalCorrect)
	assert.JSONEq(t, `{"mastery":0.5}`, string(s.AgentSummary))

	assert.Nil(t, toDomainSession(nil))
}

func TestToDomainQuestionSession(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	m := &models.QuestionSession{
		ID:          "qs1",
		SessionID:   "s1",
		QuestionID:  "q1",
		Response:    "75",
		Correct:     true,
		TimeTaken:   12,
		Timestamp:   now,
		StrategyTip: sql.NullString{String: "decompose by place value", Valid: true},
		CreatedAt:   now,
	}

	qs := toDomainQuestionSession(m)
	require.NotNil(t, qs)
	assert.Equal(t, "q1", qs.QuestionID)
	assert.True(t, qs.Correct)
	assert.Equal(t, "decompose by place value", qs.StrategyTip)
	assert.True(t, qs.Answered())

	assert.Nil(t, toDomainQuestionSession(nil))
}

// --- Tests for Repository Methods ---

func TestSQLXSessionRepository_GetSessionByID(t *testing.T) {
	t.Run("SuccessWithOrderedChildren", func(t *testing.T) {
		db, mock := setupTestDB(t)
		defer db.Close()
		repo := NewSQLXSessionRepository(db)

		sessionID := "01HXSESSION000000000000SES"
		now := time.Now()

		sessionRows := sqlmock.NewRows(sessionColumns()).
			AddRow(sessionID, "u1", []byte(`["addition"]`), now, now.Add(time.Hour), nil, nil, nil, nil, nil, nil, now, now)
		mock.ExpectQuery(`SELECT \* FROM sessions WHERE id = \$1`).
			WithArgs(sessionID).
			WillReturnRows(sessionRows)

		childRows := sqlmock.NewRows(questionSessionColumns()).
			AddRow("qs1", sessionID, "q1", "75", true, 12, now, nil, nil, nil, []byte(`[]`), nil, now).
			AddRow("qs2", sessionID, "q2", "", false, 0, now, nil, nil, nil, []byte(`[]`), nil, now)
		mock.ExpectQuery(`SELECT \* FROM question_sessions WHERE session_id IN \(\$1\) ORDER BY created_at ASC, id ASC`).
			WithArgs(sessionID).
			WillReturnRows(childRows)

		session, err := repo.GetSessionByID(context.Background(), sessionID)

		assert.NoError(t, err)
		require.NotNil(t, session)
		require.Len(t, session.Questions, 2)
		assert.Equal(t, "q1", session.Questions[0].QuestionID)
		assert.Equal(t, "q2", session.Questions[1].QuestionID)

		// The last-appended attempt is the current question.
		current := session.CurrentQuestion()
		require.NotNil(t, current)
		assert.Equal(t, "q2", current.QuestionID)
		assert.False(t, current.Answered())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock := setupTestDB(t)
		defer db.Close()
		repo := NewSQLXSessionRepository(db)

		mock.ExpectQuery(`SELECT \* FROM sessions WHERE id = \$1`).
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)

		session, err := repo.GetSessionByID(context.Background(), "ghost")

		assert.NoError(t, err)
		assert.Nil(t, session)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSQLXSessionRepository_GetRecentSessionsByUserID(t *testing.T) {
	t.Run("TopicFilter", func(t *testing.T) {
		db, mock := setupTestDB(t)
		defer db.Close()
		repo := NewSQLXSessionRepository(db)

		now := time.Now()
		sessionRows := sqlmock.NewRows(sessionColumns()).
			AddRow("s1", "u1", []byte(`["fractions"]`), now, now.Add(time.Hour), nil, nil, nil, nil, nil, nil, now, now)

		mock.ExpectQuery(`SELECT \* FROM sessions WHERE user_id = \$1 AND topic_order @> \$2 ORDER BY start_time DESC LIMIT \$3`).
			WithArgs("u1", `["fractions"]`, 20).
			WillReturnRows(sessionRows)
		mock.ExpectQuery(`SELECT \* FROM question_sessions WHERE session_id IN \(\$1\)`).
			WithArgs("s1").
			WillReturnRows(sqlmock.NewRows(questionSessionColumns()))

		sessions, err := repo.GetRecentSessionsByUserID(context.Background(), "u1", "fractions", 20)

		assert.NoError(t, err)
		require.Len(t, sessions, 1)
		assert.Equal(t, []string{"fractions"}, sessions[0].TopicOrder)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NoFilter", func(t *testing.T) {
		db, mock := setupTestDB(t)
		defer db.Close()
		repo := NewSQLXSessionRepository(db)

		mock.ExpectQuery(`SELECT \* FROM sessions WHERE user_id = \$1 ORDER BY start_time DESC LIMIT \$2`).
			WithArgs("u1", 20).
			WillReturnRows(sqlmock.NewRows(sessionColumns()))

		sessions, err := repo.GetRecentSessionsByUserID(context.Background(), "u1", "", 20)

		assert.NoError(t, err)
		assert.Empty(t, sessions)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSQLXSessionRepository_CreateSession(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()
	repo := NewSQLXSessionRepository(db)

	session := domain.NewSession("u1", []string{"addition"})
	session.ID = "01HXSESSION000000000000SES"
	first := domain.NewQuestionSession(session.ID, "q1")
	session.Questions = []domain.QuestionSession{*first}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO sessions`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO question_sessions`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreateSession(context.Background(), session)

	assert.NoError(t, err)
	// The child insert generated an id for the attempt row.
	assert.NotEmpty(t, session.Questions[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXSessionRepository_AppendQuestionSession(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()
	repo := NewSQLXSessionRepository(db)

	qs := domain.NewQuestionSession("s1", "q2")

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO question_sessions`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AppendQuestionSession(context.Background(), qs)

	assert.NoError(t, err)
	assert.NotEmpty(t, qs.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXSessionRepository_UpdateQuestionSession_NotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()
	repo := NewSQLXSessionRepository(db)

	qs := domain.NewQuestionSession("s1", "q1")
	qs.ID = "ghost"

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE question_sessions SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateQuestionSession(context.Background(), qs)

	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXSessionRepository_DeleteSession(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()
	repo := NewSQLXSessionRepository(db)

	// Children and audit rows go first, then the session row.
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM agent_decisions WHERE session_id = $1`)).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM question_sessions WHERE session_id = $1`)).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sessions WHERE id = $1`)).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.DeleteSession(context.Background(), "s1")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXSessionRepository_CreateAgentDecision(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()
	repo := NewSQLXSessionRepository(db)

	decision := &domain.AgentDecision{
		SessionID:      "s1",
		PrevQuestionID: "q1",
		NextQuestionID: "q2",
		NextDifficulty: 2,
		Mastery:        0.6,
		Reason:         "correct and fast",
		Trace:          []byte(`{"request":{},"response":{}}`),
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO agent_decisions`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.CreateAgentDecision(context.Background(), decision)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXSessionRepository_GetLatestDecisionForQuestion(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := setupTestDB(t)
		defer db.Close()
		repo := NewSQLXSessionRepository(db)

		now := time.Now()
		rows := sqlmock.NewRows(agentDecisionColumns()).
			AddRow(int64(7), "s1", "q1", "q2", 2, 0.6, "correct and fast", []byte(`{}`), now)

		mock.ExpectQuery(`SELECT \* FROM agent_decisions WHERE session_id = \$1 AND next_question_id = \$2 ORDER BY created_at DESC LIMIT 1`).
			WithArgs("s1", "q2").
			WillReturnRows(rows)

		decision, err := repo.GetLatestDecisionForQuestion(context.Background(), "s1", "q2")

		assert.NoError(t, err)
		require.NotNil(t, decision)
		assert.Equal(t, "q1", decision.PrevQuestionID)
		assert.Equal(t, 0.6, decision.Mastery)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotAgentChosen", func(t *testing.T) {
		db, mock := setupTestDB(t)
		defer db.Close()
		repo := NewSQLXSessionRepository(db)

		mock.ExpectQuery(`SELECT \* FROM agent_decisions WHERE session_id = \$1 AND next_question_id = \$2`).
			WithArgs("s1", "q-first").
			WillReturnError(sql.ErrNoRows)

		decision, err := repo.GetLatestDecisionForQuestion(context.Background(), "s1", "q-first")

		assert.NoError(t, err)
		assert.Nil(t, decision)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
