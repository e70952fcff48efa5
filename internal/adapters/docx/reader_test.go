package docx

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dmt/internal/domain"
)

func TestReadComments_ThreadedPackage(t *testing.T) {
	dir := threadedPackage(t)

	g, err := ReadComments(dir)
	if err != nil {
		t.Fatalf("ReadComments failed: %v", err)
	}

	alice := domain.Presence{ProviderID: "AD", UserID: "alice@example.com"}
	want := []*domain.Comment{
		{
			ID:         "0",
			Author:     "Alice",
			Date:       "2024-01-02T03:04:05Z",
			Body:       "First line\nSecond line",
			State:      domain.StateActive,
			ParaID:     "00000002",
			DurableID:  "1A2B3C4D",
			Presence:   alice,
			AnchorText: "anchored text",
		},
		{
			ID:        "1",
			Author:    "Bob",
			Date:      "2024-01-03T00:00:00Z",
			Body:      "Reply",
			State:     domain.StateActive,
			ParentID:  "0",
			ParaID:    "00000003",
			DurableID: "5E6F7A8B",
		},
		{
			ID:         "2",
			Author:     "Alice",
			Body:       "Done",
			State:      domain.StateResolved,
			ParaID:     "00000004",
			DurableID:  "0C0D0E0F",
			Presence:   alice,
			AnchorText: "second",
		},
	}
	if diff := cmp.Diff(want, g.Comments()); diff != "" {
		t.Errorf("ReadComments mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"0", "2"}, g.Roots()); diff != "" {
		t.Errorf("Roots mismatch (-want +got):\n%s", diff)
	}
}

func TestReadComments_MissingExtensionParts(t *testing.T) {
	dir := writePackage(t, map[string]string{
		"word/document.xml": fixtureDocument,
		"word/comments.xml": fixtureComments,
	})

	g, err := ReadComments(dir)
	if err != nil {
		t.Fatalf("ReadComments failed: %v", err)
	}
	if g.Len() != 3 {
		t.Fatalf("expected 3 comments, got %d", g.Len())
	}
	for _, c := range g.Comments() {
		if c.ParentID != "" || c.State != domain.StateActive || c.DurableID != "" {
			t.Errorf("comment %s: expected a plain active root, got %+v", c.ID, c)
		}
	}
}

func TestReadComments_NoCommentsPart(t *testing.T) {
	dir := writePackage(t, map[string]string{"word/document.xml": fixtureDocument})

	g, err := ReadComments(dir)
	if err != nil {
		t.Fatalf("ReadComments failed: %v", err)
	}
	if g.Len() != 0 {
		t.Errorf("expected empty graph, got %d comments", g.Len())
	}
}

func TestReadComments_ParentLinks(t *testing.T) {
	comments := xmlHeader + `<w:comments xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:w14="http://schemas.microsoft.com/office/word/2010/wordml">` +
		`<w:comment w:id="1" w:author="Ann"><w:p w14:paraId="0000000A"><w:r><w:t>One</w:t></w:r></w:p></w:comment>` +
		`<w:comment w:id="2" w:author="Bob"><w:p w14:paraId="0000000B"><w:r><w:t>Two</w:t></w:r></w:p></w:comment>` +
		`</w:comments>`
	extended := func(entries string) string {
		return xmlHeader + `<w15:commentsEx xmlns:w15="http://schemas.microsoft.com/office/word/2012/wordml">` + entries + `</w15:commentsEx>`
	}

	tests := []struct {
		name      string
		extended  string
		wantIssue string
		wantRoots []string
	}{
		{
			name: "mutual parents",
			extended: extended(`<w15:commentEx w15:paraId="0000000A" w15:paraIdParent="0000000B" w15:done="0"/>` +
				`<w15:commentEx w15:paraId="0000000B" w15:paraIdParent="0000000A" w15:done="0"/>`),
			wantIssue: "thread cycle detected: 1 -> 2 -> 1",
		},
		{
			name:      "own parent",
			extended:  extended(`<w15:commentEx w15:paraId="0000000A" w15:paraIdParent="0000000A" w15:done="0"/>`),
			wantIssue: "comment 1 cannot be its own parent",
		},
		{
			name:      "unknown parent paragraph",
			extended:  extended(`<w15:commentEx w15:paraId="0000000B" w15:paraIdParent="FFFFFFF0" w15:done="0"/>`),
			wantRoots: []string{"1", "2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writePackage(t, map[string]string{
				"word/document.xml":         fixtureDocument,
				"word/comments.xml":         comments,
				"word/commentsExtended.xml": tt.extended,
			})

			g, err := ReadComments(dir)
			if tt.wantIssue == "" {
				if err != nil {
					t.Fatalf("ReadComments failed: %v", err)
				}
				if diff := cmp.Diff(tt.wantRoots, g.Roots()); diff != "" {
					t.Errorf("Roots mismatch (-want +got):\n%s", diff)
				}
				return
			}

			var tie *domain.ThreadIntegrityError
			if !errors.As(err, &tie) {
				t.Fatalf("ReadComments error = %v, want thread integrity error", err)
			}
			if g != nil {
				t.Errorf("expected no graph, got %d comments", g.Len())
			}
			if !slices.Contains(tie.Issues, tt.wantIssue) {
				t.Errorf("issues = %q, want %q", tie.Issues, tt.wantIssue)
			}
			if !strings.Contains(err.Error(), "docx comment parts") {
				t.Errorf("error should name the docx parts: %v", err)
			}
		})
	}
}

func TestReadComments_MalformedPart(t *testing.T) {
	dir := writePackage(t, map[string]string{"word/comments.xml": "<w:comments"})

	if _, err := ReadComments(dir); err == nil {
		t.Error("expected parse error for malformed comments.xml")
	}
}

func TestAnchorIDs(t *testing.T) {
	dir := threadedPackage(t)

	ids, err := AnchorIDs(dir)
	if err != nil {
		t.Fatalf("AnchorIDs failed: %v", err)
	}
	if diff := cmp.Diff([]string{"0", "2"}, ids); diff != "" {
		t.Errorf("AnchorIDs mismatch (-want +got):\n%s", diff)
	}
}
