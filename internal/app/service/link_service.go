package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/promoit/shortlink/internal/app/codegen"
	"github.com/promoit/shortlink/internal/app/model"
	"github.com/promoit/shortlink/internal/app/repository"
	"go.uber.org/zap"
)

var (
	// ErrLinkUnavailable signals that the link exists but has expired or
	// exhausted its click quota. Distinct from repository.ErrLinkNotFound so
	// callers can render a different message.
	ErrLinkUnavailable = errors.New("link is expired or reached click limit")
	// ErrPermissionDenied deliberately conflates "no such link" with "not the
	// owner" so mutation attempts cannot probe code existence.
	ErrPermissionDenied = errors.New("link not found or access denied")
	// ErrInvalidClickLimit rejects zero or negative quotas at creation.
	ErrInvalidClickLimit = errors.New("click limit must be a positive number")
	// ErrCodeSpaceExhausted is returned once insert retries run out of fresh codes.
	ErrCodeSpaceExhausted = errors.New("could not allocate a unique short code")
)

const (
	createRetries = 3
	accessRetries = 5
)

// LinkService owns the link lifecycle: issuance, the access decision with
// atomic click accounting, ownership-gated mutation, and the expiry sweep.
type LinkService interface {
	CreateLink(ctx context.Context, input CreateLinkInput) (*model.Link, error)
	AccessLink(ctx context.Context, code string) (*model.Link, error)
	DeleteLink(ctx context.Context, code, requesterID string) (bool, error)
	UpdateClickLimit(ctx context.Context, code, requesterID string, newLimit *int) (*model.Link, error)
	ListUserLinks(ctx context.Context, ownerID string) ([]model.Link, error)
	BuildPublicURL(code string) string
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// LinkServiceConfig carries the scalar settings the engine needs.
type LinkServiceConfig struct {
	BaseURL    string
	DefaultTTL time.Duration
	CodeLength int
}

type linkService struct {
	repo   repository.LinkRepository
	gen    codegen.Generator
	sink   NotificationSink
	filter *CodeFilter
	logger *zap.Logger
	cfg    LinkServiceConfig
}

// NewLinkService returns the engine implementation backed by the given
// repository. The sink and filter are optional; a nil sink drops notices and
// a nil filter skips the fast not-found path.
func NewLinkService(repo repository.LinkRepository, gen codegen.Generator, sink NotificationSink, filter *CodeFilter, logger *zap.Logger, cfg LinkServiceConfig) LinkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 24 * time.Hour
	}
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = codegen.DefaultLength
	}
	return &linkService{
		repo:   repo,
		gen:    gen,
		sink:   sink,
		filter: filter,
		logger: logger,
		cfg:    cfg,
	}
}

// CreateLinkInput captures data required to create a link.
type CreateLinkInput struct {
	TargetURL  string
	OwnerID    string
	ClickLimit *int
}

func (s *linkService) CreateLink(ctx context.Context, input CreateLinkInput) (*model.Link, error) {
	if input.ClickLimit != nil && *input.ClickLimit <= 0 {
		return nil, ErrInvalidClickLimit
	}

	now := time.Now()
	expiresAt := now.Add(s.cfg.DefaultTTL)

	// Collisions at realistic code lengths are astronomically rare, so we let
	// the primary-key constraint arbitrate and retry a few times.
	for attempt := 0; attempt < createRetries; attempt++ {
		code, err := s.gen.Generate(s.cfg.CodeLength)
		if err != nil {
			return nil, fmt.Errorf("create link: %w", err)
		}

		link := &model.Link{
			Code:       code,
			TargetURL:  input.TargetURL,
			OwnerID:    input.OwnerID,
			ClickLimit: input.ClickLimit,
			CreatedAt:  now,
			ExpiresAt:  &expiresAt,
		}

		err = s.repo.Create(ctx, link)
		if err == nil {
			s.filter.Add(code)
			return link, nil
		}
		if errors.Is(err, repository.ErrCodeTaken) {
			s.logger.Warn("short code collision, retrying",
				zap.String("code", code),
				zap.Int("attempt", attempt+1))
			continue
		}
		return nil, fmt.Errorf("create link: %w", err)
	}

	return nil, ErrCodeSpaceExhausted
}

func (s *linkService) BuildPublicURL(code string) string {
	return strings.TrimSuffix(s.cfg.BaseURL, "/") + "/" + code
}

// AccessLink resolves a code to its link, charging exactly one click on
// success. The read-check-increment sequence is serialized per code through a
// conditional UPDATE; losing a race means re-reading and deciding again, so a
// link with one remaining click admits exactly one of N concurrent callers.
func (s *linkService) AccessLink(ctx context.Context, code string) (*model.Link, error) {
	if !s.filter.MightContain(code) {
		return nil, repository.ErrLinkNotFound
	}

	for attempt := 0; attempt < accessRetries; attempt++ {
		link, err := s.repo.GetByCode(ctx, code)
		if err != nil {
			return nil, err
		}

		if !link.CanBeAccessed(time.Now()) {
			s.notify(link, "Link is no longer available")
			return nil, ErrLinkUnavailable
		}

		err = s.repo.IncrementClickCount(ctx, code, link.ClickCount)
		if err == nil {
			link.ClickCount++
			return link, nil
		}
		if errors.Is(err, repository.ErrStaleLink) {
			continue
		}
		return nil, fmt.Errorf("access link: %w", err)
	}

	return nil, fmt.Errorf("access link %s: %w", code, repository.ErrStaleLink)
}

func (s *linkService) DeleteLink(ctx context.Context, code, requesterID string) (bool, error) {
	link, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			// Indistinguishable from "not the owner" on purpose.
			return false, nil
		}
		return false, fmt.Errorf("delete link: %w", err)
	}
	if link.OwnerID != requesterID {
		return false, nil
	}

	if err := s.repo.Delete(ctx, link); err != nil {
		return false, fmt.Errorf("delete link: %w", err)
	}
	return true, nil
}

func (s *linkService) UpdateClickLimit(ctx context.Context, code, requesterID string, newLimit *int) (*model.Link, error) {
	link, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrPermissionDenied
		}
		return nil, fmt.Errorf("update click limit: %w", err)
	}
	if link.OwnerID != requesterID {
		return nil, ErrPermissionDenied
	}

	if err := s.repo.SetClickLimit(ctx, code, newLimit); err != nil {
		return nil, fmt.Errorf("update click limit: %w", err)
	}

	link.ClickLimit = newLimit
	return link, nil
}

func (s *linkService) ListUserLinks(ctx context.Context, ownerID string) ([]model.Link, error) {
	links, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list user links: %w", err)
	}
	return links, nil
}

// Sweep removes every link whose expiry lies before now, telling the sink
// about each one first. Returns the number removed.
func (s *linkService) Sweep(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.repo.FindExpiredBefore(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("sweep: find expired: %w", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	for i := range expired {
		link := &expired[i]
		s.logger.Info("removing expired link",
			zap.String("code", link.Code),
			zap.String("owner_id", link.OwnerID),
			zap.Timep("expired_at", link.ExpiresAt))
		s.notify(link, "Link expired automatically")
	}

	if err := s.repo.DeleteBatch(ctx, expired); err != nil {
		return 0, fmt.Errorf("sweep: delete batch: %w", err)
	}
	return len(expired), nil
}

// notify is best-effort: sink implementations never block meaningfully and
// their failures must not surface into the triggering operation.
func (s *linkService) notify(link *model.Link, reason string) {
	if s.sink == nil {
		return
	}
	s.sink.Notify(link, reason)
}
