package domain

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestBuildValidGraph_AcceptsChain(t *testing.T) {
	g, err := BuildValidGraph([]*Comment{
		{ID: "C", ParentID: "B"},
		{ID: "B", ParentID: "A"},
		{ID: "A"},
	})
	if err != nil {
		t.Fatalf("BuildValidGraph failed: %v", err)
	}

	if got := g.TopologicalOrder(); !slices.Equal(got, []string{"A", "B", "C"}) {
		t.Errorf("TopologicalOrder() = %v, want [A B C]", got)
	}
}

func TestBuildValidGraph_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		comments  []*Comment
		wantParts []string
	}{
		{
			name:      "mutual parents",
			comments:  []*Comment{{ID: "A", ParentID: "B"}, {ID: "B", ParentID: "A"}},
			wantParts: []string{"thread cycle detected: A -> B -> A"},
		},
		{
			name:      "unknown parent",
			comments:  []*Comment{{ID: "1"}, {ID: "2", ParentID: "9"}},
			wantParts: []string{"comment 2 references unknown parent 9"},
		},
		{
			name:      "self parent",
			comments:  []*Comment{{ID: "1", ParentID: "1"}},
			wantParts: []string{"comment 1 cannot be its own parent"},
		},
		{
			name: "all issues together",
			comments: []*Comment{
				{ID: "1", ParentID: "1"},
				{ID: "2", ParentID: "x"},
				{ID: "3", ParentID: "4"},
				{ID: "4", ParentID: "5"},
				{ID: "5", ParentID: "3"},
			},
			wantParts: []string{
				"comment 1 cannot be its own parent",
				"comment 2 references unknown parent x",
				"thread cycle detected: 3 -> 4 -> 5 -> 3",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := BuildValidGraph(tt.comments)
			if err == nil {
				t.Fatal("expected error")
			}
			if g != nil {
				t.Error("expected no graph on failure")
			}
			if !errors.Is(err, ErrThreadIntegrity) {
				t.Errorf("expected ErrThreadIntegrity, got %v", err)
			}
			msg := err.Error()
			if !strings.HasPrefix(msg, "Invalid comment thread relationships in markdown cards/spans.") {
				t.Errorf("unexpected heading: %q", msg)
			}
			for _, part := range tt.wantParts {
				if !strings.Contains(msg, "- "+part) {
					t.Errorf("expected %q in %q", part, msg)
				}
			}
		})
	}
}

func TestTopologicalOrder_KeepsInputOrderForTies(t *testing.T) {
	got := TopologicalOrder(
		[]string{"r2", "c1", "r1", "c2"},
		map[string]string{"c1": "r1", "c2": "r2"},
	)
	want := []string{"r2", "r1", "c2", "c1"}
	if !slices.Equal(got, want) {
		t.Errorf("TopologicalOrder() = %v, want %v", got, want)
	}
}

func TestTopologicalOrder_CycleFallback(t *testing.T) {
	got := TopologicalOrder([]string{"a", "b"}, map[string]string{"a": "b", "b": "a"})
	if !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("TopologicalOrder() = %v", got)
	}
}
