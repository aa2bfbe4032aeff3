package repository

import (
	"context"
	"errors"
	"time"

	"github.com/promoit/shortlink/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrLinkNotFound signals that the requested short link does not exist.
	ErrLinkNotFound = errors.New("link not found")
	// ErrCodeTaken signals a primary-key collision on insert.
	ErrCodeTaken = errors.New("short code already taken")
	// ErrStaleLink signals that a compare-and-swap write lost a race and the
	// caller should re-read before deciding anything.
	ErrStaleLink = errors.New("link modified concurrently")
)

// LinkRepository defines the data access contract for short links.
type LinkRepository interface {
	Create(ctx context.Context, link *model.Link) error
	GetByCode(ctx context.Context, code string) (*model.Link, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Link, error)
	// IncrementClickCount bumps click_count by one iff the stored value still
	// equals expected. Returns ErrStaleLink when another writer got there first.
	IncrementClickCount(ctx context.Context, code string, expected int) error
	SetClickLimit(ctx context.Context, code string, limit *int) error
	Delete(ctx context.Context, link *model.Link) error
	DeleteBatch(ctx context.Context, links []model.Link) error
	FindExpiredBefore(ctx context.Context, cutoff time.Time) ([]model.Link, error)
	AllCodes(ctx context.Context) ([]string, error)
}

type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository returns a GORM-backed LinkRepository.
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, link *model.Link) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrCodeTaken
		}
		return err
	}
	return nil
}

func (r *linkRepository) GetByCode(ctx context.Context, code string) (*model.Link, error) {
	var link model.Link
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *linkRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Link, error) {
	var result []model.Link
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *linkRepository) IncrementClickCount(ctx context.Context, code string, expected int) error {
	result := r.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("code = ? AND click_count = ?", code, expected).
		Update("click_count", gorm.Expr("click_count + 1"))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Either the row vanished or the count moved under us. The caller
		// re-reads to tell the two apart.
		return ErrStaleLink
	}
	return nil
}

func (r *linkRepository) SetClickLimit(ctx context.Context, code string, limit *int) error {
	result := r.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("code = ?", code).
		Update("click_limit", limit)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLinkNotFound
	}
	return nil
}

func (r *linkRepository) Delete(ctx context.Context, link *model.Link) error {
	return r.db.WithContext(ctx).Delete(link).Error
}

func (r *linkRepository) DeleteBatch(ctx context.Context, links []model.Link) error {
	if len(links) == 0 {
		return nil
	}
	codes := make([]string, len(links))
	for i, link := range links {
		codes[i] = link.Code
	}
	return r.db.WithContext(ctx).Where("code IN ?", codes).Delete(&model.Link{}).Error
}

func (r *linkRepository) FindExpiredBefore(ctx context.Context, cutoff time.Time) ([]model.Link, error) {
	var result []model.Link
	if err := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", cutoff).
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *linkRepository) AllCodes(ctx context.Context) ([]string, error) {
	var codes []string
	if err := r.db.WithContext(ctx).
		Model(&model.Link{}).
		Pluck("code", &codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}
