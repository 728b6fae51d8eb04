package controller

import (
	"sponsor-advisor-be/internal/dto"
	"sponsor-advisor-be/internal/pkg/serverutils"
	"sponsor-advisor-be/internal/service"
	"sponsor-advisor-be/pkg/advisor"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAdvisorController interface {
	RegisterRoutes(r fiber.Router)
	Turn(ctx *fiber.Ctx) error
	CreateConversation(ctx *fiber.Ctx) error
	ListConversations(ctx *fiber.Ctx) error
	GetActiveConversation(ctx *fiber.Ctx) error
	GetConversation(ctx *fiber.Ctx) error
	SetActiveConversation(ctx *fiber.Ctx) error
	UpdatePreferences(ctx *fiber.Ctx) error
	DeleteConversation(ctx *fiber.Ctx) error
	SearchRecommendations(ctx *fiber.Ctx) error
}

type advisorController struct {
	service   service.IAdvisorService
	jwtSecret string
}

func NewAdvisorController(service service.IAdvisorService, jwtSecret string) IAdvisorController {
	return &advisorController{service: service, jwtSecret: jwtSecret}
}

func (c *advisorController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/advisor")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Post("/turn", c.Turn)
	h.Post("/conversations", c.CreateConversation)
	h.Get("/conversations", c.ListConversations)
	h.Get("/conversations/active", c.GetActiveConversation)
	h.Get("/conversations/:id", c.GetConversation)
	h.Put("/conversations/:id/active", c.SetActiveConversation)
	h.Put("/conversations/:id/preferences", c.UpdatePreferences)
	h.Delete("/conversations/:id", c.DeleteConversation)
	h.Get("/recommendations/search", c.SearchRecommendations)
}

func (c *advisorController) Turn(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.AdvisorTurnRequest
	if err := ctx.BodyParser(&req); err != nil {
		return advisor.NewError(advisor.ErrInput, "Invalid request body.", err)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.HandleTurn(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

func (c *advisorController) CreateConversation(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateConversationRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return advisor.NewError(advisor.ErrInput, "Invalid request body.", err)
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateConversation(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create conversation", res))
}

func (c *advisorController) ListConversations(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.ListConversations(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all conversations", res))
}

func (c *advisorController) GetActiveConversation(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetActiveConversation(ctx.UserContext(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get active conversation", res))
}

func (c *advisorController) GetConversation(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	id, err := conversationIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetConversation(ctx.UserContext(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get conversation", res))
}

func (c *advisorController) SetActiveConversation(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	id, err := conversationIdParam(ctx)
	if err != nil {
		return err
	}

	if err := c.service.SetActiveConversation(ctx.UserContext(), userId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success set active conversation", nil))
}

func (c *advisorController) UpdatePreferences(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	id, err := conversationIdParam(ctx)
	if err != nil {
		return err
	}

	var req dto.PreferencesDTO
	if err := ctx.BodyParser(&req); err != nil {
		return advisor.NewError(advisor.ErrInput, "Invalid request body.", err)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.UpdatePreferences(ctx.UserContext(), userId, id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update preferences", res))
}

func (c *advisorController) DeleteConversation(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	id, err := conversationIdParam(ctx)
	if err != nil {
		return err
	}

	if err := c.service.DeleteConversation(ctx.UserContext(), userId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete conversation", nil))
}

func (c *advisorController) SearchRecommendations(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.SearchRecommendationsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return advisor.NewError(advisor.ErrInput, "Invalid query parameters.", err)
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SearchRecommendations(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search recommendations", res))
}

func conversationIdParam(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, advisor.NewError(advisor.ErrNotFound, "Conversation not found.", err)
	}
	return id, nil
}
