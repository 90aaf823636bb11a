package handler

import (
	"mentalmath/internal/domain"
	"mentalmath/internal/dto"
	"mentalmath/internal/middleware"
	"mentalmath/internal/service"

	"github.com/gofiber/fiber/v2"
)

type TopicHandler struct {
	topicService service.TopicService
}

func NewTopicHandler(topicService service.TopicService) *TopicHandler {
	return &TopicHandler{topicService: topicService}
}

// ListTopics lists all catalog topics.
// @Summary List Topics
// @Tags topics
// @Produce json
// @Success 200 {array} dto.TopicResponse
// @Router /topics [get]
func (h *TopicHandler) ListTopics(c *fiber.Ctx) error {
	topics, err := h.topicService.ListTopics(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(topics)
}

// GetTopic retrieves one topic by slug.
// @Summary Get Topic
// @Tags topics
// @Produce json
// @Param slug path string true "Topic slug"
// @Success 200 {object} dto.TopicResponse
// @Failure 404 {object} middleware.ErrorResponse "Topic not found"
// @Router /topics/{slug} [get]
func (h *TopicHandler) GetTopic(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("slug")}
	}

	topic, err := h.topicService.GetTopic(c.Context(), slug)
	if err != nil {
		return err
	}
	return c.JSON(topic)
}

// CreateTopic adds a topic to the catalog. Teacher role or above.
// @Summary Create Topic
// @Tags topics
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateTopicRequest true "Topic payload"
// @Success 201 {object} dto.TopicResponse
// @Failure 403 {object} middleware.ErrorResponse "Forbidden"
// @Failure 409 {object} middleware.ErrorResponse "Slug already exists"
// @Router /topics [post]
func (h *TopicHandler) CreateTopic(c *fiber.Ctx) error {
	userID, _ := c.Locals(middleware.UserIDKey).(string)

	var req dto.CreateTopicRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("invalid request body")
	}
	if req.Slug == "" || req.Title == "" {
		var errs domain.ValidationErrors
		if req.Slug == "" {
			errs = append(errs, domain.NewMissingFieldError("slug"))
		}
		if req.Title == "" {
			errs = append(errs, domain.NewMissingFieldError("title"))
		}
		return errs
	}

	topic, err := h.topicService.CreateTopic(c.Context(), userID, &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(topic)
}
