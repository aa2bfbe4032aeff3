package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/promoit/shortlink/internal/app/repository"
	"github.com/promoit/shortlink/internal/app/service"
	"github.com/promoit/shortlink/internal/http/view"
	infraprom "github.com/promoit/shortlink/internal/infra/prometheus"
	"go.uber.org/zap"
)

// RedirectDeps groups dependencies required by the redirect handler.
type RedirectDeps struct {
	Logger *zap.Logger
	Links  service.LinkService
}

// RedirectHandler resolves short codes into redirects.
type RedirectHandler struct {
	logger *zap.Logger
	links  service.LinkService
}

// NewRedirectHandler creates a redirect handler with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger: logger,
		links:  deps.Links,
	}
}

// Register wires redirect routes onto the provided router.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/:code", h.Resolve)
}

// Resolve handles GET /:code. A successful resolution charges exactly one
// click; an unavailable link renders a 410 page and charges nothing.
func (h *RedirectHandler) Resolve(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing link code",
		})
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	link, err := h.links.AccessLink(ctx, code)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrLinkNotFound):
			infraprom.RedirectsTotal.WithLabelValues(infraprom.OutcomeNotFound).Inc()
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "short link not found",
			})
		case errors.Is(err, service.ErrLinkUnavailable):
			infraprom.RedirectsTotal.WithLabelValues(infraprom.OutcomeUnavailable).Inc()
			return h.renderGone(c, code)
		default:
			infraprom.RedirectsTotal.WithLabelValues(infraprom.OutcomeError).Inc()
			h.logger.Error("failed to resolve link", zap.Error(err), zap.String("code", code))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal server error",
			})
		}
	}

	infraprom.RedirectsTotal.WithLabelValues(infraprom.OutcomeRedirected).Inc()
	h.logger.Debug("redirecting short link",
		zap.String("code", code),
		zap.String("target", link.TargetURL),
		zap.Int("click_count", link.ClickCount))
	return c.Redirect(link.TargetURL, fiber.StatusFound)
}

func (h *RedirectHandler) renderGone(c *fiber.Ctx, code string) error {
	html, err := view.RenderUnavailablePage(view.UnavailablePageData{
		Code:    code,
		Message: "The short link has expired or reached its click limit.",
	})
	if err != nil {
		h.logger.Error("failed to render unavailable page", zap.Error(err))
		return c.Status(fiber.StatusGone).JSON(fiber.Map{
			"error": "link is expired or reached click limit",
		})
	}

	return c.Status(fiber.StatusGone).
		Type("html", "utf-8").
		SendString(html)
}
