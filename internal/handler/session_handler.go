package handler

import (
	"mentalmath/internal/domain"
	"mentalmath/internal/dto"
	"mentalmath/internal/logger"
	"mentalmath/internal/middleware"
	"mentalmath/internal/service"
	"mentalmath/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type SessionHandler struct {
	sessionService service.SessionService
	validator      *validation.Validator
}

func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		validator:      validation.NewValidator(),
	}
}

func authenticatedUserID(c *fiber.Ctx) (string, error) {
	userID, ok := c.Locals(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		logger.Get().Warn("User ID not found in context", zap.String("path", c.Path()))
		return "", domain.NewUnauthorizedError("User ID not found in context")
	}
	return userID, nil
}

// CreateSession starts a new practice session.
// @Summary Create Session
// @Description Starts a session over an ordered list of topic slugs, seeded with the easiest question of the first topic.
// @Tags sessions
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateSessionRequest true "Session payload"
// @Success 201 {object} dto.CurrentQuestionResponse
// @Failure 400 {object} middleware.ErrorResponse "Unknown topic slugs"
// @Failure 404 {object} middleware.ErrorResponse "User not found"
// @Router /sessions [post]
func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	userID, err := authenticatedUserID(c)
	if err != nil {
		return err
	}

	var req dto.CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	if errs := h.validator.ValidateCreateSessionRequest(&req); len(errs) > 0 {
		return errs
	}

	resp, err := h.sessionService.CreateSession(c.Context(), userID, &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetMySessions lists the authenticated user's sessions.
// @Summary List My Sessions
// @Tags sessions
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {array} dto.SessionResponse
// @Router /sessions [get]
func (h *SessionHandler) GetMySessions(c *fiber.Ctx) error {
	userID, err := authenticatedUserID(c)
	if err != nil {
		return err
	}

	sessions, err := h.sessionService.GetSessionsByUser(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(sessions)
}

// Dashboard aggregates the user's recent sessions.
// @Summary Dashboard
// @Description Returns stats, recent sessions and chart series. An empty history yields an explicit no_data payload.
// @Tags sessions
// @Security ApiKeyAuth
// @Produce json
// @Param topic query string false "Restrict to sessions containing this topic slug"
// @Success 200 {object} dto.DashboardResponse
// @Router /sessions/dashboard [get]
func (h *SessionHandler) Dashboard(c *fiber.Ctx) error {
	userID, err := authenticatedUserID(c)
	if err != nil {
		return err
	}

	resp, err := h.sessionService.Dashboard(c.Context(), userID, c.Query("topic"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetCurrentQuestion serves the session's active question.
// @Summary Get Current Question
// @Description Returns the session, its last attempt record, the referenced catalog question (null when gone) and the agent's reasoning when available.
// @Tags sessions
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} dto.CurrentQuestionResponse
// @Failure 404 {object} middleware.ErrorResponse "Session not found"
// @Router /sessions/current-session-question/{id} [get]
func (h *SessionHandler) GetCurrentQuestion(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	if sessionID == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("id")}
	}

	resp, err := h.sessionService.GetSessionWithCurrentQuestion(c.Context(), sessionID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// AnswerCurrentQuestion submits an answer to the session's current question.
// @Summary Answer Current Question
// @Description Grades the response. Incorrect answers are recorded without advancing; correct answers advance the session via the next-question agent.
// @Tags sessions
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param request body dto.AnswerCurrentQuestionRequest true "Answer payload"
// @Success 200 {object} dto.AnswerResultResponse
// @Failure 404 {object} middleware.ErrorResponse "Session or question not found"
// @Failure 502 {object} middleware.ErrorResponse "Next-question agent unavailable"
// @Router /sessions/answer-current-session-question [post]
func (h *SessionHandler) AnswerCurrentQuestion(c *fiber.Ctx) error {
	if _, err := authenticatedUserID(c); err != nil {
		return err
	}

	var req dto.AnswerCurrentQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	if errs := h.validator.ValidateAnswerRequest(&req); len(errs) > 0 {
		return errs
	}

	resp, err := h.sessionService.AnswerCurrentQuestion(c.Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetSession retrieves one session aggregate.
// @Summary Get Session
// @Tags sessions
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} middleware.ErrorResponse "Session not found"
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	if sessionID == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("id")}
	}

	resp, err := h.sessionService.GetSession(c.Context(), sessionID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// UpdateSession patches session rollup fields.
// @Summary Update Session
// @Tags sessions
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.UpdateSessionRequest true "Session patch"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} middleware.ErrorResponse "Session not found"
// @Router /sessions/{id} [patch]
func (h *SessionHandler) UpdateSession(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	if sessionID == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("id")}
	}

	var req dto.UpdateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}

	resp, err := h.sessionService.UpdateSession(c.Context(), sessionID, &req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// DeleteSession removes a session and its attempt log.
// @Summary Delete Session
// @Tags sessions
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} middleware.ErrorResponse "Session not found"
// @Router /sessions/{id} [delete]
func (h *SessionHandler) DeleteSession(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	if sessionID == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("id")}
	}

	if err := h.sessionService.DeleteSession(c.Context(), sessionID); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Session deleted"})
}
