package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/promoit/shortlink/internal/app/model"
	"github.com/promoit/shortlink/internal/app/service"
	infraprom "github.com/promoit/shortlink/internal/infra/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// UserIDHeader carries the caller's ownership token. When absent on create,
// a fresh identity is minted and returned in the response.
const UserIDHeader = "X-User-ID"

// APIDeps groups dependencies required by the management API handlers.
type APIDeps struct {
	Logger   *zap.Logger
	Links    service.LinkService
	Users    service.UserService
	Postgres *pgxpool.Pool
	Redis    *redis.Client
}

// APIHandler implements link creation, mutation, deletion and listing.
type APIHandler struct {
	logger   *zap.Logger
	links    service.LinkService
	users    service.UserService
	postgres *pgxpool.Pool
	redis    *redis.Client
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger:   logger,
		links:    deps.Links,
		users:    deps.Users,
		postgres: deps.Postgres,
		redis:    deps.Redis,
	}
}

// Register wires the management routes onto the provided router. The routes
// mirror the public shape of the service: shorten, delete, re-limit, list.
func (h *APIHandler) Register(router fiber.Router) {
	router.Get("/health", h.Health)
	router.Post("/shorten", h.CreateLink)
	router.Delete("/:code", h.DeleteLink)
	router.Put("/:code/limit", h.UpdateClickLimit)
	router.Get("/user/links", h.ListUserLinks)
}

// Health reports service status and pings the backing stores.
func (h *APIHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := fiber.Map{
		"service": "shortlink",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	}

	if h.postgres != nil {
		if err := h.postgres.Ping(ctx); err != nil {
			h.logger.Warn("postgres ping failed", zap.Error(err))
			status["status"] = "degraded"
			status["postgres"] = "down"
		}
	}
	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			h.logger.Warn("redis ping failed", zap.Error(err))
			status["status"] = "degraded"
			status["redis"] = "down"
		}
	}

	return c.JSON(status)
}

// CreateLinkRequest represents the request body for creating a short link.
type CreateLinkRequest struct {
	URL        string `json:"url"`
	ClickLimit *int   `json:"clickLimit,omitempty"`
}

// CreateLinkResponse represents the response for a created short link.
type CreateLinkResponse struct {
	ShortURL   string     `json:"shortUrl"`
	ShortCode  string     `json:"shortCode"`
	UserID     string     `json:"userId"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	ClickLimit *int       `json:"clickLimit"`
}

// CreateLink handles POST /shorten.
func (h *APIHandler) CreateLink(c *fiber.Ctx) error {
	var req CreateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "url is required",
		})
	}
	// The engine trusts its input; the scheme gate lives here at the boundary.
	if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "url must start with http:// or https://",
		})
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	user, err := h.users.GetOrCreate(ctx, c.Get(UserIDHeader))
	if err != nil {
		h.logger.Error("failed to resolve user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to resolve user",
		})
	}

	link, err := h.links.CreateLink(ctx, service.CreateLinkInput{
		TargetURL:  req.URL,
		OwnerID:    user.ID,
		ClickLimit: req.ClickLimit,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidClickLimit) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		h.logger.Error("failed to create link", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create link",
		})
	}

	infraprom.LinksCreatedTotal.Inc()

	return c.Status(fiber.StatusCreated).JSON(CreateLinkResponse{
		ShortURL:   h.links.BuildPublicURL(link.Code),
		ShortCode:  link.Code,
		UserID:     user.ID,
		ExpiresAt:  link.ExpiresAt,
		ClickLimit: link.ClickLimit,
	})
}

// DeleteLink handles DELETE /:code. Missing links and foreign links answer
// identically so the endpoint cannot be used to probe code existence.
func (h *APIHandler) DeleteLink(c *fiber.Ctx) error {
	code := c.Params("code")
	userID := c.Get(UserIDHeader)
	if code == "" || userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "code and " + UserIDHeader + " header are required",
		})
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	ok, err := h.links.DeleteLink(ctx, code, userID)
	if err != nil {
		h.logger.Error("failed to delete link", zap.Error(err), zap.String("code", code))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete link",
		})
	}
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Link not found or access denied",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Link deleted successfully",
	})
}

// UpdateClickLimitRequest represents the request body for changing a quota.
// A null newLimit lifts the quota entirely.
type UpdateClickLimitRequest struct {
	NewLimit *int `json:"newLimit"`
}

// UpdateClickLimit handles PUT /:code/limit.
func (h *APIHandler) UpdateClickLimit(c *fiber.Ctx) error {
	code := c.Params("code")
	userID := c.Get(UserIDHeader)
	if code == "" || userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "code and " + UserIDHeader + " header are required",
		})
	}

	var req UpdateClickLimitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.NewLimit != nil && *req.NewLimit <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "newLimit must be positive or null for unlimited",
		})
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	link, err := h.links.UpdateClickLimit(ctx, code, userID, req.NewLimit)
	if err != nil {
		if errors.Is(err, service.ErrPermissionDenied) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		h.logger.Error("failed to update click limit", zap.Error(err), zap.String("code", code))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update click limit",
		})
	}

	return c.JSON(link)
}

// ListUserLinks handles GET /user/links.
func (h *APIHandler) ListUserLinks(c *fiber.Ctx) error {
	userID := c.Get(UserIDHeader)
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": UserIDHeader + " header is required",
		})
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := h.users.GetByID(ctx, userID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	links, err := h.links.ListUserLinks(ctx, userID)
	if err != nil {
		h.logger.Error("failed to list links", zap.Error(err), zap.String("user_id", userID))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list links",
		})
	}
	if links == nil {
		links = []model.Link{}
	}

	return c.JSON(fiber.Map{
		"links": links,
		"count": len(links),
	})
}
