package service

import (
	"context"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/promoit/shortlink/internal/app/repository"
)

// CodeFilter is a bloom filter over issued codes. It lets the redirect path
// answer definite not-found without touching the store; false positives fall
// through to the usual lookup, so it never affects correctness. Deleted codes
// stay in the filter until restart, which only costs an extra store read.
type CodeFilter struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

const (
	filterCapacity = 1_000_000
	filterFPRate   = 0.01
)

// NewCodeFilter builds an empty filter sized for the expected link count.
func NewCodeFilter() *CodeFilter {
	return &CodeFilter{
		filter: bloom.NewWithEstimates(filterCapacity, filterFPRate),
	}
}

// Seed loads every existing code from the repository into the filter.
func (f *CodeFilter) Seed(ctx context.Context, repo repository.LinkRepository) (int, error) {
	codes, err := repo.AllCodes(ctx)
	if err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, code := range codes {
		f.filter.AddString(code)
	}
	return len(codes), nil
}

// Add records a freshly issued code.
func (f *CodeFilter) Add(code string) {
	if f == nil {
		return
	}
	f.mu.Lock()
	f.filter.AddString(code)
	f.mu.Unlock()
}

// MightContain reports false only when the code was definitely never issued.
func (f *CodeFilter) MightContain(code string) bool {
	if f == nil {
		return true
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter.TestString(code)
}
