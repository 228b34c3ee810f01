package services

import (
	"testing"

	"github.com/prodiversa/coop-api/models"
)

func int64p(v int64) *int64 { return &v }

func TestResolveParentIDs(t *testing.T) {
	templates := []models.BudgetLineTemplate{
		{ID: 10, Code: "A"},
		{ID: 11, Code: "A.1", ParentID: int64p(10)},
		{ID: 12, Code: "A.2", ParentID: int64p(10)},
		{ID: 13, Code: "B"},
	}
	lineIDByTemplate := map[int64]int64{10: 100, 11: 101, 12: 102, 13: 103}

	parents := resolveParentIDs(templates, lineIDByTemplate)

	if len(parents) != 2 {
		t.Fatalf("expected 2 parent links, got %d", len(parents))
	}
	if parents[11] != 100 || parents[12] != 100 {
		t.Fatalf("children of A must link to line 100, got %v", parents)
	}
	if _, ok := parents[10]; ok {
		t.Fatal("root template must not get a parent link")
	}
}

func TestResolveParentIDsSkipsUnmaterializedParent(t *testing.T) {
	templates := []models.BudgetLineTemplate{
		{ID: 20, Code: "C.1", ParentID: int64p(99)},
	}
	parents := resolveParentIDs(templates, map[int64]int64{20: 200})
	if len(parents) != 0 {
		t.Fatalf("template with unmaterialized parent must be skipped, got %v", parents)
	}
}
