package handler

import (
	"mentalmath/internal/domain"
	"mentalmath/internal/dto"
	"mentalmath/internal/middleware"
	"mentalmath/internal/service"

	"github.com/gofiber/fiber/v2"
)

type QuestionHandler struct {
	questionService service.QuestionService
}

func NewQuestionHandler(questionService service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// ListQuestions lists catalog questions for a topic.
// @Summary List Questions
// @Tags questions
// @Produce json
// @Param topic query string true "Topic slug"
// @Success 200 {array} dto.QuestionView
// @Router /questions [get]
func (h *QuestionHandler) ListQuestions(c *fiber.Ctx) error {
	topic := c.Query("topic")
	if topic == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("topic")}
	}

	questions, err := h.questionService.ListQuestionsByTopic(c.Context(), topic)
	if err != nil {
		return err
	}
	return c.JSON(questions)
}

// GetRandomQuestion serves a randomly sampled question from a topic.
// @Summary Random Question
// @Tags questions
// @Produce json
// @Param topic query string true "Topic slug"
// @Success 200 {object} dto.QuestionView
// @Failure 400 {object} middleware.ErrorResponse "Unknown topic"
// @Router /questions/random [get]
func (h *QuestionHandler) GetRandomQuestion(c *fiber.Ctx) error {
	topic := c.Query("topic")
	if topic == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("topic")}
	}

	question, err := h.questionService.GetRandomQuestion(c.Context(), topic)
	if err != nil {
		return err
	}
	return c.JSON(question)
}

// GetQuestion serves a single question by id.
// @Summary Get Question
// @Tags questions
// @Produce json
// @Param id path string true "Question ID"
// @Success 200 {object} dto.QuestionView
// @Failure 404 {object} middleware.ErrorResponse "Question not found"
// @Router /questions/{id} [get]
func (h *QuestionHandler) GetQuestion(c *fiber.Ctx) error {
	question, err := h.questionService.GetQuestion(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(question)
}

// CreateQuestion adds a question to the catalog. Teacher role or above.
// @Summary Create Question
// @Tags questions
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateQuestionRequest true "Question payload"
// @Success 201 {object} dto.QuestionView
// @Failure 400 {object} middleware.ErrorResponse "Unknown topic"
// @Failure 403 {object} middleware.ErrorResponse "Forbidden"
// @Router /questions [post]
func (h *QuestionHandler) CreateQuestion(c *fiber.Ctx) error {
	userID, _ := c.Locals(middleware.UserIDKey).(string)

	var req dto.CreateQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}

	question, err := h.questionService.CreateQuestion(c.Context(), userID, &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(question)
}
