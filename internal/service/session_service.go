package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mentalmath/internal/cache"
	"mentalmath/internal/domain"
	"mentalmath/internal/dto"
	"mentalmath/internal/logger"
	"mentalmath/internal/util"

	"go.uber.org/zap"
)

const (
	dashboardCacheTTL     = 5 * time.Minute
	dashboardSessionLimit = 10
	chartLabelFormat      = "Jan 2"
)

// SessionService orchestrates practice sessions: creation, answering the
// current question, and dashboard aggregation.
type SessionService interface {
	CreateSession(ctx context.Context, userID string, req *dto.CreateSessionRequest) (*dto.CurrentQuestionResponse, error)
	GetSession(ctx context.Context, sessionID string) (*dto.SessionResponse, error)
	GetSessionsByUser(ctx context.Context, userID string) ([]dto.SessionResponse, error)
	GetSessionWithCurrentQuestion(ctx context.Context, sessionID string) (*dto.CurrentQuestionResponse, error)
	AnswerCurrentQuestion(ctx context.Context, req *dto.AnswerCurrentQuestionRequest) (*dto.AnswerResultResponse, error)
	UpdateSession(ctx context.Context, sessionID string, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error)
	DeleteSession(ctx context.Context, sessionID string) error
	Dashboard(ctx context.Context, userID string, topic string) (*dto.DashboardResponse, error)
}

type sessionServiceImpl struct {
	sessionRepo     domain.SessionRepository
	userRepo        domain.UserRepository
	questionCatalog domain.QuestionCatalog
	topicCatalog    domain.TopicCatalog
	agentClient     domain.AgentClient
	txManager       domain.TransactionManager
	cache           domain.Cache
	locks           *sessionLocks
}

// NewSessionService creates a new instance of SessionService.
func NewSessionService(
	sessionRepo domain.SessionRepository,
	userRepo domain.UserRepository,
	questionCatalog domain.QuestionCatalog,
	topicCatalog domain.TopicCatalog,
	agentClient domain.AgentClient,
	txManager domain.TransactionManager,
	cacheAdapter domain.Cache,
) SessionService {
	return &sessionServiceImpl{
		sessionRepo:     sessionRepo,
		userRepo:        userRepo,
		questionCatalog: questionCatalog,
		topicCatalog:    topicCatalog,
		agentClient:     agentClient,
		txManager:       txManager,
		cache:           cacheAdapter,
		locks:           newSessionLocks(),
	}
}

// CreateSession validates the learner and topic order, then opens a session
// seeded with the easiest question of the first topic. The session row, its
// first attempt record and the topics-history append commit atomically.
func (s *sessionServiceImpl) CreateSession(ctx context.Context, userID string, req *dto.CreateSessionRequest) (*dto.CurrentQuestionResponse, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if user == nil {
		return nil, domain.NewUserNotFoundError(userID)
	}

	found, err := s.topicCatalog.FindSlugs(ctx, req.TopicOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to look up topics: %w", err)
	}
	if missing := missingSlugs(req.TopicOrder, found); len(missing) > 0 {
		return nil, domain.NewTopicsNotFoundError(missing)
	}

	firstTopic := req.TopicOrder[0]
	question, err := s.questionCatalog.EasiestByTopic(ctx, firstTopic)
	if err != nil {
		return nil, fmt.Errorf("failed to pick initial question: %w", err)
	}
	if question == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf("No questions found for topic %s", firstTopic))
	}

	session := domain.NewSession(userID, req.TopicOrder)
	session.ID = util.NewULID()
	first := domain.NewQuestionSession(session.ID, question.ID)
	first.ID = util.NewULID()
	session.Questions = []domain.QuestionSession{*first}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.sessionRepo.CreateSession(txCtx, session); err != nil {
			return err
		}
		return s.userRepo.AppendTopicsHistory(txCtx, userID, req.TopicOrder)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateDashboard(ctx, userID, session.TopicOrder)
	logger.Get().Info("Session created",
		zap.String("sessionID", session.ID),
		zap.String("userID", userID),
		zap.Strings("topicOrder", req.TopicOrder))

	return &dto.CurrentQuestionResponse{
		Session:                toSessionResponse(session, user),
		CurrentQuestionSession: toQuestionSessionView(session.CurrentQuestion()),
		CurrentQuestion:        toQuestionView(question),
	}, nil
}

func (s *sessionServiceImpl) GetSession(ctx context.Context, sessionID string) (*dto.SessionResponse, error) {
	session, user, err := s.loadSessionWithUser(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session, user), nil
}

func (s *sessionServiceImpl) GetSessionsByUser(ctx context.Context, userID string) ([]dto.SessionResponse, error) {
	sessions, err := s.sessionRepo.GetSessionsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	responses := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		responses = append(responses, *toSessionResponse(&sessions[i], nil))
	}
	return responses, nil
}

// GetSessionWithCurrentQuestion serves the session's active question: the
// last-appended attempt record plus the catalog document it references.
// The question view is null when the catalog no longer has the document;
// the attempt record itself is always served.
func (s *sessionServiceImpl) GetSessionWithCurrentQuestion(ctx context.Context, sessionID string) (*dto.CurrentQuestionResponse, error) {
	session, user, err := s.loadSessionWithUser(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	resp := &dto.CurrentQuestionResponse{
		Session: toSessionResponse(session, user),
	}
	current := session.CurrentQuestion()
	if current == nil {
		return resp, nil
	}
	resp.CurrentQuestionSession = toQuestionSessionView(current)

	question, err := s.questionCatalog.GetByID(ctx, current.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current question: %w", err)
	}
	if question != nil {
		resp.CurrentQuestion = toQuestionView(question)
	} else {
		logger.Get().Warn("Current question missing from catalog",
			zap.String("sessionID", sessionID),
			zap.String("questionID", current.QuestionID))
	}

	decision, err := s.sessionRepo.GetLatestDecisionForQuestion(ctx, sessionID, current.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agent decision: %w", err)
	}
	if decision != nil {
		resp.AgentReflection = &dto.AgentReflection{
			Mastery:        decision.Mastery,
			Reason:         decision.Reason,
			NextDifficulty: decision.NextDifficulty,
			Trace:          decision.Trace,
		}
	}
	return resp, nil
}

// AnswerCurrentQuestion grades the submitted response against the current
// question. An incorrect answer is recorded in place and the session does
// not advance. A correct answer is recorded, the agent chooses the next
// question, and a fresh unanswered attempt record is appended; all three
// writes commit atomically. Submissions for the same session serialize.
func (s *sessionServiceImpl) AnswerCurrentQuestion(ctx context.Context, req *dto.AnswerCurrentQuestionRequest) (*dto.AnswerResultResponse, error) {
	lock := s.locks.acquire(req.SessionID)
	lock.Lock()
	defer lock.Unlock()

	session, user, err := s.loadSessionWithUser(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	current := session.CurrentQuestion()
	if current == nil {
		return nil, domain.NewInvalidInputError("session has no active question")
	}

	question, err := s.questionCatalog.GetByID(ctx, current.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch question: %w", err)
	}
	if question == nil {
		return nil, domain.NewQuestionNotFoundError(current.QuestionID)
	}

	correct := question.IsCorrect(req.Response)
	current.Response = req.Response
	current.Correct = correct
	current.TimeTaken = req.TimeTaken
	current.Timestamp = time.Now()

	if !correct {
		if err := s.sessionRepo.UpdateQuestionSession(ctx, current); err != nil {
			return nil, fmt.Errorf("failed to record answer: %w", err)
		}
		s.invalidateDashboard(ctx, session.UserID, session.TopicOrder)
		logger.Get().Info("Incorrect answer recorded",
			zap.String("sessionID", session.ID),
			zap.String("questionID", current.QuestionID))
		return &dto.AnswerResultResponse{
			Session:                toSessionResponse(session, user),
			CurrentQuestionSession: toQuestionSessionView(current),
		}, nil
	}

	event := &domain.AgentAnswerEvent{
		QuestionID:    question.ID,
		Topic:         question.Topic,
		SubTopic:      question.SubTopic,
		Difficulty:    question.Difficulty,
		WasCorrect:    true,
		TimeTaken:     req.TimeTaken,
		EstimatedTime: question.EstimatedTime,
		Answer:        req.Response,
		SessionID:     session.ID,
		UserID:        session.UserID,
	}
	suggestion, err := s.agentClient.SuggestNext(ctx, event)
	if err != nil {
		return nil, err
	}

	current.StrategyTip = suggestion.StrategyTip
	next := domain.NewQuestionSession(session.ID, suggestion.NextQuestionID)
	next.ID = util.NewULID()
	decision := &domain.AgentDecision{
		SessionID:      session.ID,
		PrevQuestionID: current.QuestionID,
		NextQuestionID: suggestion.NextQuestionID,
		NextDifficulty: suggestion.NextDifficulty,
		Mastery:        suggestion.Mastery,
		Reason:         suggestion.Reason,
		Trace:          suggestion.RawTrace,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.sessionRepo.UpdateQuestionSession(txCtx, current); err != nil {
			return err
		}
		if err := s.sessionRepo.AppendQuestionSession(txCtx, next); err != nil {
			return err
		}
		return s.sessionRepo.CreateAgentDecision(txCtx, decision)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to advance session: %w", err)
	}
	session.Questions = append(session.Questions, *next)

	s.invalidateDashboard(ctx, session.UserID, session.TopicOrder)
	logger.Get().Info("Correct answer recorded, session advanced",
		zap.String("sessionID", session.ID),
		zap.String("questionID", current.QuestionID),
		zap.String("nextQuestionID", suggestion.NextQuestionID))

	// The agent may suggest a question that has since left the catalog.
	// The attempt record is appended regardless; the view is just null.
	nextQuestion, err := s.questionCatalog.GetByID(ctx, suggestion.NextQuestionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch next question: %w", err)
	}

	return &dto.AnswerResultResponse{
		Session:                toSessionResponse(session, user),
		CurrentQuestionSession: toQuestionSessionView(current),
		NextQuestion:           toQuestionView(nextQuestion),
		Message:                suggestion.Message,
		ReflectionPrompt:       suggestion.ReflectionPrompt,
		StrategyTip:            suggestion.StrategyTip,
	}, nil
}

func (s *sessionServiceImpl) UpdateSession(ctx context.Context, sessionID string, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error) {
	session, user, err := s.loadSessionWithUser(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if req.TotalScore != nil {
		session.TotalScore = req.TotalScore
	}
	if req.TotalCorrect != nil {
		session.TotalCorrect = req.TotalCorrect
	}
	if req.TotalQuestions != nil {
		session.TotalQuestions = req.TotalQuestions
	}
	if req.AgentSummary != nil {
		session.AgentSummary = req.AgentSummary
	}
	if req.SessionMeta != nil {
		session.SessionMeta = req.SessionMeta
	}

	if err := s.sessionRepo.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	s.invalidateDashboard(ctx, session.UserID, session.TopicOrder)
	return toSessionResponse(session, user), nil
}

func (s *sessionServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	session, err := s.sessionRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to fetch session: %w", err)
	}
	if session == nil {
		return domain.NewSessionNotFoundError(sessionID)
	}
	if err := s.sessionRepo.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.invalidateDashboard(ctx, session.UserID, session.TopicOrder)
	logger.Get().Info("Session deleted", zap.String("sessionID", sessionID))
	return nil
}

// Dashboard aggregates the learner's recent sessions into stats, a recent
// list (newest first) and a chart series (oldest first). An empty history
// is an explicit NoData payload, not an error. Results are cached per
// (user, topic) and invalidated on any session mutation.
func (s *sessionServiceImpl) Dashboard(ctx context.Context, userID string, topic string) (*dto.DashboardResponse, error) {
	key := dashboardCacheKey(userID, topic)
	if cached, err := s.cache.Get(ctx, key); err == nil {
		var resp dto.DashboardResponse
		if err := json.Unmarshal([]byte(cached), &resp); err == nil {
			return &resp, nil
		}
		logger.Get().Warn("Failed to decode cached dashboard, recomputing", zap.String("key", key))
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		logger.Get().Warn("Dashboard cache read failed", zap.String("key", key), zap.Error(err))
	}

	sessions, err := s.sessionRepo.GetRecentSessionsByUserID(ctx, userID, topic, dashboardSessionLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent sessions: %w", err)
	}

	resp := buildDashboard(sessions)

	if payload, err := json.Marshal(resp); err == nil {
		if err := s.cache.Set(ctx, key, string(payload), dashboardCacheTTL); err != nil {
			logger.Get().Warn("Dashboard cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return resp, nil
}

func (s *sessionServiceImpl) loadSessionWithUser(ctx context.Context, sessionID string) (*domain.Session, *domain.User, error) {
	session, err := s.sessionRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch session: %w", err)
	}
	if session == nil {
		return nil, nil, domain.NewSessionNotFoundError(sessionID)
	}
	user, err := s.userRepo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch session user: %w", err)
	}
	return session, user, nil
}

func (s *sessionServiceImpl) invalidateDashboard(ctx context.Context, userID string, topics []string) {
	keys := []string{dashboardCacheKey(userID, "")}
	for _, t := range topics {
		keys = append(keys, dashboardCacheKey(userID, t))
	}
	for _, key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil {
			logger.Get().Warn("Dashboard cache invalidation failed",
				zap.String("key", key), zap.Error(err))
		}
	}
}

func dashboardCacheKey(userID, topic string) string {
	if topic == "" {
		return cache.GenerateCacheKey("session", "dashboard", userID)
	}
	return cache.GenerateCacheKey("session", "dashboard", userID, topic)
}

// missingSlugs returns the requested slugs absent from found, preserving
// request order.
func missingSlugs(requested, found []string) []string {
	foundSet := make(map[string]struct{}, len(found))
	for _, slug := range found {
		foundSet[slug] = struct{}{}
	}
	var missing []string
	for _, slug := range requested {
		if _, ok := foundSet[slug]; !ok {
			missing = append(missing, slug)
		}
	}
	return missing
}

func buildDashboard(sessions []domain.Session) *dto.DashboardResponse {
	resp := &dto.DashboardResponse{
		Recent: []dto.SessionStats{},
		Chart: dto.ChartData{
			Labels:   []string{},
			Accuracy: []int{},
			AvgTime:  []int{},
		},
	}
	if len(sessions) == 0 {
		resp.NoData = true
		return resp
	}

	var totalQuestions, totalCorrect, totalTime int
	for i := range sessions {
		stats := sessionStats(&sessions[i])
		resp.Recent = append(resp.Recent, stats)
		totalQuestions += stats.TotalQuestions
		totalCorrect += stats.TotalCorrect
		totalTime += stats.AvgTimeSec * stats.TotalQuestions
	}

	// Sessions arrive newest first; the chart reads oldest to newest.
	for i := len(resp.Recent) - 1; i >= 0; i-- {
		stats := resp.Recent[i]
		resp.Chart.Labels = append(resp.Chart.Labels, stats.StartTime.Format(chartLabelFormat))
		resp.Chart.Accuracy = append(resp.Chart.Accuracy, stats.AccuracyPct)
		resp.Chart.AvgTime = append(resp.Chart.AvgTime, stats.AvgTimeSec)
	}

	resp.Stats = dto.DashboardStats{
		TotalSessions:  len(sessions),
		TotalQuestions: totalQuestions,
		TotalCorrect:   totalCorrect,
		AccuracyPct:    util.RoundPercent(totalCorrect, totalQuestions),
		AvgTimeSec:     util.RoundAverage(totalTime, totalQuestions),
	}
	return resp
}

// sessionStats summarizes one session over its answered attempts. The
// trailing unanswered attempt of an in-flight session is excluded so it
// does not drag accuracy down.
func sessionStats(session *domain.Session) dto.SessionStats {
	var answered, correct, totalTime int
	lastActivity := session.StartTime
	for i := range session.Questions {
		qs := &session.Questions[i]
		if !qs.Answered() {
			continue
		}
		answered++
		totalTime += qs.TimeTaken
		if qs.Correct {
			correct++
		}
		if qs.Timestamp.After(lastActivity) {
			lastActivity = qs.Timestamp
		}
	}
	return dto.SessionStats{
		SessionID:      session.ID,
		StartTime:      session.StartTime,
		TotalQuestions: answered,
		TotalCorrect:   correct,
		AccuracyPct:    util.RoundPercent(correct, answered),
		AvgTimeSec:     util.RoundAverage(totalTime, answered),
		DurationMin:    int(lastActivity.Sub(session.StartTime).Minutes()),
	}
}

func toSessionResponse(session *domain.Session, user *domain.User) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		ID:             session.ID,
		TopicOrder:     session.TopicOrder,
		StartTime:      session.StartTime,
		EndTime:        session.EndTime,
		Questions:      make([]dto.QuestionSessionView, 0, len(session.Questions)),
		TotalScore:     session.TotalScore,
		TotalCorrect:   session.TotalCorrect,
		TotalQuestions: session.TotalQuestions,
	}
	for i := range session.Questions {
		resp.Questions = append(resp.Questions, *toQuestionSessionView(&session.Questions[i]))
	}
	if user != nil {
		resp.User = &dto.UserSummary{
			ID:       user.ID,
			FullName: user.FullName,
			Email:    user.Email,
			Role:     string(user.Role),
		}
	}
	return resp
}

func toQuestionSessionView(qs *domain.QuestionSession) *dto.QuestionSessionView {
	if qs == nil {
		return nil
	}
	return &dto.QuestionSessionView{
		ID:          qs.ID,
		QuestionID:  qs.QuestionID,
		Response:    qs.Response,
		Correct:     qs.Correct,
		TimeTaken:   qs.TimeTaken,
		Timestamp:   qs.Timestamp,
		StrategyTip: qs.StrategyTip,
	}
}

func toQuestionView(q *domain.Question) *dto.QuestionView {
	if q == nil {
		return nil
	}
	return &dto.QuestionView{
		ID:            q.ID,
		Text:          q.Text,
		Topic:         q.Topic,
		SubTopic:      q.SubTopic,
		Difficulty:    q.Difficulty,
		Type:          string(q.Type),
		Options:       q.Options,
		Hints:         q.Hints,
		StrategyTip:   q.StrategyTip,
		EstimatedTime: q.EstimatedTime,
	}
}
