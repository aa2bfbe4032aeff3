package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/promoit/shortlink/internal/app/codegen"
	"github.com/promoit/shortlink/internal/app/model"
	"github.com/promoit/shortlink/internal/app/repository"
)

type mockLinkRepository struct {
	createFn      func(ctx context.Context, link *model.Link) error
	getFn         func(ctx context.Context, code string) (*model.Link, error)
	listFn        func(ctx context.Context, ownerID string) ([]model.Link, error)
	incrFn        func(ctx context.Context, code string, expected int) error
	setLimitFn    func(ctx context.Context, code string, limit *int) error
	deleteFn      func(ctx context.Context, link *model.Link) error
	deleteBatchFn func(ctx context.Context, links []model.Link) error
	expiredFn     func(ctx context.Context, cutoff time.Time) ([]model.Link, error)
}

func (m *mockLinkRepository) Create(ctx context.Context, link *model.Link) error {
	if m.createFn != nil {
		return m.createFn(ctx, link)
	}
	return nil
}

func (m *mockLinkRepository) GetByCode(ctx context.Context, code string) (*model.Link, error) {
	if m.getFn != nil {
		return m.getFn(ctx, code)
	}
	return nil, repository.ErrLinkNotFound
}

func (m *mockLinkRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Link, error) {
	if m.listFn != nil {
		return m.listFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockLinkRepository) IncrementClickCount(ctx context.Context, code string, expected int) error {
	if m.incrFn != nil {
		return m.incrFn(ctx, code, expected)
	}
	return nil
}

func (m *mockLinkRepository) SetClickLimit(ctx context.Context, code string, limit *int) error {
	if m.setLimitFn != nil {
		return m.setLimitFn(ctx, code, limit)
	}
	return nil
}

func (m *mockLinkRepository) Delete(ctx context.Context, link *model.Link) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, link)
	}
	return nil
}

func (m *mockLinkRepository) DeleteBatch(ctx context.Context, links []model.Link) error {
	if m.deleteBatchFn != nil {
		return m.deleteBatchFn(ctx, links)
	}
	return nil
}

func (m *mockLinkRepository) FindExpiredBefore(ctx context.Context, cutoff time.Time) ([]model.Link, error) {
	if m.expiredFn != nil {
		return m.expiredFn(ctx, cutoff)
	}
	return nil, nil
}

func (m *mockLinkRepository) AllCodes(ctx context.Context) ([]string, error) {
	return nil, nil
}

// memoryLinkRepo implements the repository with the same per-code CAS
// semantics a real store provides, for exercising concurrent accesses.
type memoryLinkRepo struct {
	mu    sync.Mutex
	links map[string]*model.Link
}

func newMemoryLinkRepo() *memoryLinkRepo {
	return &memoryLinkRepo{links: make(map[string]*model.Link)}
}

func (r *memoryLinkRepo) Create(ctx context.Context, link *model.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.links[link.Code]; ok {
		return repository.ErrCodeTaken
	}
	cp := *link
	r.links[link.Code] = &cp
	return nil
}

func (r *memoryLinkRepo) GetByCode(ctx context.Context, code string) (*model.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	link, ok := r.links[code]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	cp := *link
	return &cp, nil
}

func (r *memoryLinkRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.Link
	for _, link := range r.links {
		if link.OwnerID == ownerID {
			result = append(result, *link)
		}
	}
	return result, nil
}

func (r *memoryLinkRepo) IncrementClickCount(ctx context.Context, code string, expected int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	link, ok := r.links[code]
	if !ok || link.ClickCount != expected {
		return repository.ErrStaleLink
	}
	link.ClickCount++
	return nil
}

func (r *memoryLinkRepo) SetClickLimit(ctx context.Context, code string, limit *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	link, ok := r.links[code]
	if !ok {
		return repository.ErrLinkNotFound
	}
	link.ClickLimit = limit
	return nil
}

func (r *memoryLinkRepo) Delete(ctx context.Context, link *model.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.links, link.Code)
	return nil
}

func (r *memoryLinkRepo) DeleteBatch(ctx context.Context, links []model.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, link := range links {
		delete(r.links, link.Code)
	}
	return nil
}

func (r *memoryLinkRepo) FindExpiredBefore(ctx context.Context, cutoff time.Time) ([]model.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.Link
	for _, link := range r.links {
		if link.ExpiresAt != nil && link.ExpiresAt.Before(cutoff) {
			result = append(result, *link)
		}
	}
	return result, nil
}

func (r *memoryLinkRepo) AllCodes(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	codes := make([]string, 0, len(r.links))
	for code := range r.links {
		codes = append(codes, code)
	}
	return codes, nil
}

// countingSink records every notice it receives.
type countingSink struct {
	mu      sync.Mutex
	notices []string
}

func (s *countingSink) Notify(link *model.Link, reason string) {
	s.mu.Lock()
	s.notices = append(s.notices, link.Code+": "+reason)
	s.mu.Unlock()
}

func (s *countingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notices)
}

func newTestService(repo repository.LinkRepository, sink NotificationSink) LinkService {
	return NewLinkService(repo, codegen.NewSecure(), sink, nil, nil, LinkServiceConfig{
		BaseURL:    "http://localhost:8080",
		DefaultTTL: 24 * time.Hour,
		CodeLength: 9,
	})
}

func intPtr(v int) *int { return &v }

func TestCreateLink_RoundTrip(t *testing.T) {
	repo := newMemoryLinkRepo()
	svc := newTestService(repo, nil)

	before := time.Now()
	link, err := svc.CreateLink(context.Background(), CreateLinkInput{
		TargetURL:  "https://example.com/long",
		OwnerID:    "owner-1",
		ClickLimit: intPtr(5),
	})
	if err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}
	if len(link.Code) != 9 {
		t.Fatalf("expected 9-char code, got %q", link.Code)
	}

	stored, err := repo.GetByCode(context.Background(), link.Code)
	if err != nil {
		t.Fatalf("GetByCode after create: %v", err)
	}
	if stored.TargetURL != "https://example.com/long" || stored.OwnerID != "owner-1" {
		t.Fatalf("stored link does not match input: %+v", stored)
	}
	if stored.ClickLimit == nil || *stored.ClickLimit != 5 {
		t.Fatalf("expected click limit 5, got %v", stored.ClickLimit)
	}
	if stored.ExpiresAt == nil {
		t.Fatal("expected an expiry to be set")
	}
	gotTTL := stored.ExpiresAt.Sub(stored.CreatedAt)
	if gotTTL != 24*time.Hour {
		t.Fatalf("expected expiry 24h after creation, got %v", gotTTL)
	}
	if stored.CreatedAt.Before(before.Add(-time.Second)) {
		t.Fatalf("createdAt looks wrong: %v", stored.CreatedAt)
	}
	if stored.ClickCount != 0 {
		t.Fatalf("expected zero clicks on a fresh link, got %d", stored.ClickCount)
	}
}

func TestCreateLink_RejectsNonPositiveLimit(t *testing.T) {
	svc := newTestService(newMemoryLinkRepo(), nil)

	for _, limit := range []int{0, -3} {
		_, err := svc.CreateLink(context.Background(), CreateLinkInput{
			TargetURL:  "https://example.com",
			OwnerID:    "owner-1",
			ClickLimit: intPtr(limit),
		})
		if !errors.Is(err, ErrInvalidClickLimit) {
			t.Fatalf("limit %d: expected ErrInvalidClickLimit, got %v", limit, err)
		}
	}
}

func TestCreateLink_RetriesThenGivesUp(t *testing.T) {
	attempts := 0
	repo := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			attempts++
			return repository.ErrCodeTaken
		},
	}
	svc := newTestService(repo, nil)

	_, err := svc.CreateLink(context.Background(), CreateLinkInput{
		TargetURL: "https://example.com",
		OwnerID:   "owner-1",
	})
	if !errors.Is(err, ErrCodeSpaceExhausted) {
		t.Fatalf("expected ErrCodeSpaceExhausted, got %v", err)
	}
	if attempts != createRetries {
		t.Fatalf("expected %d insert attempts, got %d", createRetries, attempts)
	}
}

func TestAccessLink_NotFound(t *testing.T) {
	sink := &countingSink{}
	svc := newTestService(newMemoryLinkRepo(), sink)

	_, err := svc.AccessLink(context.Background(), "missing99")
	if !errors.Is(err, repository.ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
	if sink.count() != 0 {
		t.Fatalf("not-found must not notify, got %d notices", sink.count())
	}
}

func TestAccessLink_ExpiredNotifiesOncePerCall(t *testing.T) {
	repo := newMemoryLinkRepo()
	past := time.Now().Add(-time.Hour)
	repo.links["expired01"] = &model.Link{
		Code:      "expired01",
		TargetURL: "https://example.com",
		OwnerID:   "owner-1",
		ExpiresAt: &past,
	}
	sink := &countingSink{}
	svc := newTestService(repo, sink)

	for i := 1; i <= 3; i++ {
		_, err := svc.AccessLink(context.Background(), "expired01")
		if !errors.Is(err, ErrLinkUnavailable) {
			t.Fatalf("call %d: expected ErrLinkUnavailable, got %v", i, err)
		}
		if sink.count() != i {
			t.Fatalf("call %d: expected %d notices, got %d", i, i, sink.count())
		}
	}

	stored, _ := repo.GetByCode(context.Background(), "expired01")
	if stored.ClickCount != 0 {
		t.Fatalf("unavailable access must not increment, got %d", stored.ClickCount)
	}
}

func TestAccessLink_QuotaExhausted(t *testing.T) {
	repo := newMemoryLinkRepo()
	future := time.Now().Add(time.Hour)
	repo.links["limited01"] = &model.Link{
		Code:       "limited01",
		TargetURL:  "https://example.com",
		OwnerID:    "owner-1",
		ClickLimit: intPtr(2),
		ExpiresAt:  &future,
	}
	sink := &countingSink{}
	svc := newTestService(repo, sink)

	for i := 0; i < 2; i++ {
		if _, err := svc.AccessLink(context.Background(), "limited01"); err != nil {
			t.Fatalf("access %d returned error: %v", i+1, err)
		}
	}

	_, err := svc.AccessLink(context.Background(), "limited01")
	if !errors.Is(err, ErrLinkUnavailable) {
		t.Fatalf("expected ErrLinkUnavailable past the quota, got %v", err)
	}
	if sink.count() != 1 {
		t.Fatalf("expected exactly one notice, got %d", sink.count())
	}

	stored, _ := repo.GetByCode(context.Background(), "limited01")
	if stored.ClickCount != 2 {
		t.Fatalf("expected count pinned at 2, got %d", stored.ClickCount)
	}
}

func TestAccessLink_UnlimitedNeverExhausts(t *testing.T) {
	repo := newMemoryLinkRepo()
	future := time.Now().Add(time.Hour)
	repo.links["open01"] = &model.Link{
		Code:       "open01",
		TargetURL:  "https://example.com",
		OwnerID:    "owner-1",
		ClickCount: 10_000,
		ExpiresAt:  &future,
	}
	svc := newTestService(repo, nil)

	link, err := svc.AccessLink(context.Background(), "open01")
	if err != nil {
		t.Fatalf("unlimited link refused access: %v", err)
	}
	if link.ClickCount != 10_001 {
		t.Fatalf("expected count 10001, got %d", link.ClickCount)
	}
}

func TestAccessLink_ConcurrentLastClick(t *testing.T) {
	repo := newMemoryLinkRepo()
	future := time.Now().Add(time.Hour)
	repo.links["contest01"] = &model.Link{
		Code:       "contest01",
		TargetURL:  "https://example.com",
		OwnerID:    "owner-1",
		ClickLimit: intPtr(3),
		ClickCount: 2, // one click left
		ExpiresAt:  &future,
	}
	svc := newTestService(repo, &countingSink{})

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AccessLink(context.Background(), "contest01")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, rejections int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrLinkUnavailable):
			rejections++
		default:
			t.Fatalf("unexpected error under contention: %v", err)
		}
	}
	if wins != 1 || rejections != callers-1 {
		t.Fatalf("expected exactly 1 winner and %d rejections, got %d/%d", callers-1, wins, rejections)
	}

	stored, _ := repo.GetByCode(context.Background(), "contest01")
	if stored.ClickCount != 3 {
		t.Fatalf("expected final count 3, got %d", stored.ClickCount)
	}
}

func TestDeleteLink_OwnershipGate(t *testing.T) {
	repo := newMemoryLinkRepo()
	repo.links["owned0001"] = &model.Link{
		Code:      "owned0001",
		TargetURL: "https://example.com",
		OwnerID:   "owner-a",
	}
	svc := newTestService(repo, nil)

	ok, err := svc.DeleteLink(context.Background(), "owned0001", "owner-b")
	if err != nil {
		t.Fatalf("DeleteLink returned error: %v", err)
	}
	if ok {
		t.Fatal("non-owner must not be able to delete")
	}
	if _, err := repo.GetByCode(context.Background(), "owned0001"); err != nil {
		t.Fatalf("link should survive a denied delete: %v", err)
	}

	ok, err = svc.DeleteLink(context.Background(), "owned0001", "owner-a")
	if err != nil || !ok {
		t.Fatalf("owner delete failed: ok=%v err=%v", ok, err)
	}
	if _, err := repo.GetByCode(context.Background(), "owned0001"); !errors.Is(err, repository.ErrLinkNotFound) {
		t.Fatalf("link should be gone after owner delete, got %v", err)
	}

	// Missing links answer the same way as foreign ones.
	ok, err = svc.DeleteLink(context.Background(), "never9999", "owner-a")
	if err != nil || ok {
		t.Fatalf("expected quiet false for missing link, got ok=%v err=%v", ok, err)
	}
}

func TestUpdateClickLimit_Ownership(t *testing.T) {
	repo := newMemoryLinkRepo()
	repo.links["capme0001"] = &model.Link{
		Code:       "capme0001",
		TargetURL:  "https://example.com",
		OwnerID:    "owner-a",
		ClickLimit: intPtr(2),
	}
	svc := newTestService(repo, nil)

	if _, err := svc.UpdateClickLimit(context.Background(), "capme0001", "owner-b", intPtr(9)); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for non-owner, got %v", err)
	}
	if _, err := svc.UpdateClickLimit(context.Background(), "ghost0001", "owner-a", intPtr(9)); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for missing link, got %v", err)
	}

	updated, err := svc.UpdateClickLimit(context.Background(), "capme0001", "owner-a", intPtr(9))
	if err != nil {
		t.Fatalf("owner update failed: %v", err)
	}
	if updated.ClickLimit == nil || *updated.ClickLimit != 9 {
		t.Fatalf("expected limit 9, got %v", updated.ClickLimit)
	}
}

func TestUpdateClickLimit_NilMeansUnlimited(t *testing.T) {
	repo := newMemoryLinkRepo()
	future := time.Now().Add(time.Hour)
	repo.links["uncap0001"] = &model.Link{
		Code:       "uncap0001",
		TargetURL:  "https://example.com",
		OwnerID:    "owner-a",
		ClickLimit: intPtr(1),
		ClickCount: 1,
		ExpiresAt:  &future,
	}
	svc := newTestService(repo, &countingSink{})

	// At the cap: the next access is rejected.
	if _, err := svc.AccessLink(context.Background(), "uncap0001"); !errors.Is(err, ErrLinkUnavailable) {
		t.Fatalf("expected ErrLinkUnavailable at the cap, got %v", err)
	}

	if _, err := svc.UpdateClickLimit(context.Background(), "uncap0001", "owner-a", nil); err != nil {
		t.Fatalf("lifting the cap failed: %v", err)
	}

	// Past the old limit, accesses succeed again.
	for i := 0; i < 3; i++ {
		if _, err := svc.AccessLink(context.Background(), "uncap0001"); err != nil {
			t.Fatalf("access %d after lifting cap: %v", i+1, err)
		}
	}
}

func TestSweep_NotifiesAndIsIdempotent(t *testing.T) {
	repo := newMemoryLinkRepo()
	past := time.Now().Add(-2 * time.Hour)
	future := time.Now().Add(2 * time.Hour)
	repo.links["dead00001"] = &model.Link{Code: "dead00001", OwnerID: "owner-a", ExpiresAt: &past}
	repo.links["dead00002"] = &model.Link{Code: "dead00002", OwnerID: "owner-b", ExpiresAt: &past}
	repo.links["alive0001"] = &model.Link{Code: "alive0001", OwnerID: "owner-a", ExpiresAt: &future}
	sink := &countingSink{}
	svc := newTestService(repo, sink)

	removed, err := svc.Sweep(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removals, got %d", removed)
	}
	if sink.count() != 2 {
		t.Fatalf("expected one notice per removed link, got %d", sink.count())
	}
	if _, err := repo.GetByCode(context.Background(), "alive0001"); err != nil {
		t.Fatalf("live link must survive the sweep: %v", err)
	}

	removed, err = svc.Sweep(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("second Sweep returned error: %v", err)
	}
	if removed != 0 {
		t.Fatalf("second sweep should find nothing, got %d", removed)
	}
	if sink.count() != 2 {
		t.Fatalf("second sweep must not re-notify, got %d notices", sink.count())
	}
}

func TestSweep_EmptyStoreSkipsDeletion(t *testing.T) {
	deleteCalls := 0
	repo := &mockLinkRepository{
		expiredFn: func(ctx context.Context, cutoff time.Time) ([]model.Link, error) {
			return nil, nil
		},
		deleteBatchFn: func(ctx context.Context, links []model.Link) error {
			deleteCalls++
			return nil
		},
	}
	svc := newTestService(repo, nil)

	removed, err := svc.Sweep(context.Background(), time.Now())
	if err != nil || removed != 0 {
		t.Fatalf("expected clean zero sweep, got removed=%d err=%v", removed, err)
	}
	if deleteCalls != 0 {
		t.Fatal("empty sweep must not call the store's delete")
	}
}

func TestQuotaThenExpiryScenario(t *testing.T) {
	repo := newMemoryLinkRepo()
	expiry := time.Now().Add(30 * time.Minute)
	repo.links["story0001"] = &model.Link{
		Code:       "story0001",
		TargetURL:  "https://example.com",
		OwnerID:    "owner-a",
		ClickLimit: intPtr(2),
		ExpiresAt:  &expiry,
	}
	sink := &countingSink{}
	svc := newTestService(repo, sink)
	ctx := context.Background()

	// Two accesses land inside the quota.
	for i := 0; i < 2; i++ {
		if _, err := svc.AccessLink(ctx, "story0001"); err != nil {
			t.Fatalf("access %d: %v", i+1, err)
		}
	}

	// Third is rejected on quota while the link is still within its TTL.
	if _, err := svc.AccessLink(ctx, "story0001"); !errors.Is(err, ErrLinkUnavailable) {
		t.Fatalf("expected quota rejection, got %v", err)
	}

	// Once the TTL elapses, even a lifted quota does not help.
	if _, err := svc.UpdateClickLimit(ctx, "story0001", "owner-a", nil); err != nil {
		t.Fatalf("lifting quota: %v", err)
	}
	past := time.Now().Add(-time.Minute)
	repo.mu.Lock()
	repo.links["story0001"].ExpiresAt = &past
	repo.mu.Unlock()

	if _, err := svc.AccessLink(ctx, "story0001"); !errors.Is(err, ErrLinkUnavailable) {
		t.Fatalf("expected expiry rejection, got %v", err)
	}
}

func TestBuildPublicURL(t *testing.T) {
	svc := NewLinkService(newMemoryLinkRepo(), codegen.NewSecure(), nil, nil, nil, LinkServiceConfig{
		BaseURL: "https://sho.rt/",
	})
	if got := svc.BuildPublicURL("abc123xyz"); got != "https://sho.rt/abc123xyz" {
		t.Fatalf("unexpected public URL: %q", got)
	}
}
