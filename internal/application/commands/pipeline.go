package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"dmt/internal/adapters/pandoc"
	"dmt/internal/domain/milestone"
	"dmt/internal/ports"
)

// Adapters bundles the ports a conversion runs against
type Adapters struct {
	Converter  ports.Converter
	Package    ports.CommentPackage
	Workspaces ports.WorkspaceFactory
	Media      ports.MediaTracker
}

// newRunID returns the short identifier tagging one run's logs and
// scratch directory
func newRunID() string {
	return uuid.NewString()[:8]
}

func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return abs, nil
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return string(data), nil
}

func writeText(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// decodedMarkdown is user markdown after placeholder removal and milestone
// decoding
type decodedMarkdown struct {
	Source         string // sanitized user markdown
	Normalized     string // markdown with comment spans instead of tokens
	NormalizedPath string
	Cards          *milestone.CardSet
	Synthesized    []string
	RemovedImages  []string
}

// decodeMarkdown strips placeholder images from input, turns milestone
// tokens and cards back into comment spans and writes the result to
// normalized.md in the workspace. dir is pandoc's working directory.
func decodeMarkdown(ctx context.Context, conv ports.Converter, ws ports.Workspace, input string, args []string, dir string) (*decodedMarkdown, error) {
	raw, err := readText(input)
	if err != nil {
		return nil, err
	}
	source, removed := milestone.StripPlaceholderImages(raw)
	sanitized := ws.Path("input.md")
	if err := writeText(sanitized, source); err != nil {
		return nil, err
	}

	doc, err := conv.ReadAST(ctx, ports.Conversion{
		Input: sanitized,
		From:  "markdown",
		Args:  pandoc.RenderArgs(args),
		Dir:   dir,
	})
	if err != nil {
		return nil, err
	}
	res := milestone.Decode(doc)

	normalizedPath := ws.Path("normalized.md")
	if err := conv.WriteAST(ctx, doc, ports.Conversion{
		Output: normalizedPath,
		To:     pandoc.DefaultWriter,
		Args:   args,
		Dir:    dir,
	}); err != nil {
		return nil, err
	}
	normalized, err := readText(normalizedPath)
	if err != nil {
		return nil, err
	}
	if fixed, n := milestone.NormalizeNestedEnds(normalized); n > 0 {
		normalized = fixed
		if err := writeText(normalizedPath, normalized); err != nil {
			return nil, err
		}
	}

	return &decodedMarkdown{
		Source:         source,
		Normalized:     normalized,
		NormalizedPath: normalizedPath,
		Cards:          res.Cards,
		Synthesized:    res.Synthesized,
		RemovedImages:  removed,
	}, nil
}
