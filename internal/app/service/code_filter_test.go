package service

import (
	"context"
	"testing"

	"github.com/promoit/shortlink/internal/app/model"
)

func TestCodeFilter_AddAndTest(t *testing.T) {
	filter := NewCodeFilter()

	if filter.MightContain("neverSeen") {
		t.Fatal("fresh filter should not contain arbitrary codes")
	}

	filter.Add("abc123xyz")
	if !filter.MightContain("abc123xyz") {
		t.Fatal("added code must be reported as possibly present")
	}
}

func TestCodeFilter_NilIsPermissive(t *testing.T) {
	var filter *CodeFilter

	if !filter.MightContain("anything") {
		t.Fatal("a nil filter must fall through to the store")
	}
	filter.Add("anything") // must not panic
}

func TestCodeFilter_Seed(t *testing.T) {
	repo := newMemoryLinkRepo()
	repo.links["seeded001"] = &model.Link{Code: "seeded001", OwnerID: "owner-a"}
	repo.links["seeded002"] = &model.Link{Code: "seeded002", OwnerID: "owner-b"}

	filter := NewCodeFilter()
	n, err := filter.Seed(context.Background(), repo)
	if err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 seeded codes, got %d", n)
	}
	if !filter.MightContain("seeded001") || !filter.MightContain("seeded002") {
		t.Fatal("seeded codes must be present in the filter")
	}
}
