package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	"dmt/internal/adapters/pandoc"
	"dmt/internal/application"
	"dmt/internal/domain"
	"dmt/internal/domain/milestone"
	"dmt/internal/logging"
	"dmt/internal/ports"
)

// CheckResult contains the result of a markdown check
type CheckResult struct {
	Comments    int
	Threads     int
	Synthesized []string
	Message     string
}

// CheckCommand validates the comment markers and threads of a markdown
// file without converting it
type CheckCommand struct {
	adapters   Adapters
	InputPath  string
	PandocArgs []string
}

// NewCheckCommand creates a new CheckCommand
func NewCheckCommand(adapters Adapters, inputPath string, pandocArgs []string) *CheckCommand {
	return &CheckCommand{
		adapters:   adapters,
		InputPath:  inputPath,
		PandocArgs: pandocArgs,
	}
}

// Validate checks the input path
func (c *CheckCommand) Validate() error {
	if err := application.ValidateInputFile("inputPath", c.InputPath); err != nil {
		return err
	}
	if !application.IsMarkdown(c.InputPath) {
		return &application.ValidationError{Field: "inputPath", Message: "check expects a markdown file"}
	}
	return nil
}

// Execute runs the md->docx validation stages. The returned error is the
// first failing stage's MarkerIntegrityError or ThreadIntegrityError.
func (c *CheckCommand) Execute(ctx context.Context) (*CheckResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	input, err := absPath(c.InputPath)
	if err != nil {
		return nil, err
	}
	if err := c.adapters.Converter.CheckPrerequisites(ctx); err != nil {
		return nil, err
	}

	runID := newRunID()
	logger := logging.ForRun(runID)
	dir := filepath.Dir(input)

	ws, err := c.adapters.Workspaces(input, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			logger.Warn().Err(cerr).Str("dir", ws.Dir()).Msg("failed to remove scratch directory")
		}
	}()

	dm, err := decodeMarkdown(ctx, c.adapters.Converter, ws, input, c.PandocArgs, dir)
	if err != nil {
		return nil, err
	}
	if err := milestone.ValidateMarkers(dm.Source, dm.Normalized, dm.Cards, c.InputPath); err != nil {
		return nil, err
	}
	doc, err := c.adapters.Converter.ReadAST(ctx, ports.Conversion{
		Input: dm.NormalizedPath,
		From:  "markdown",
		Args:  pandoc.RenderArgs(c.PandocArgs),
		Dir:   dir,
	})
	if err != nil {
		return nil, err
	}
	g, err := milestone.ExtractComments(doc, dm.Cards)
	if err != nil {
		return nil, err
	}

	threads := len(g.Roots())
	return &CheckResult{
		Comments:    g.Len(),
		Threads:     threads,
		Synthesized: dm.Synthesized,
		Message:     fmt.Sprintf("%s: %d comments in %d threads, markers OK", filepath.Base(input), g.Len(), threads),
	}, nil
}

var (
	positionRe = regexp.MustCompile(`\b(\d+):\d+\b`)
	lineRe     = regexp.MustCompile(`(?i)\bline (\d+)\b`)
)

// IssueLine returns the first line number a validation error points at,
// or 0 when it names none.
func IssueLine(err error) int {
	var markerErr *domain.MarkerIntegrityError
	if !errors.As(err, &markerErr) {
		return 0
	}
	for _, issue := range markerErr.Issues {
		best := -1
		line := 0
		for _, re := range []*regexp.Regexp{positionRe, lineRe} {
			m := re.FindStringSubmatchIndex(issue)
			if m == nil || (best >= 0 && m[0] > best) {
				continue
			}
			if n, convErr := strconv.Atoi(issue[m[2]:m[3]]); convErr == nil && n > 0 {
				best, line = m[0], n
			}
		}
		if line > 0 {
			return line
		}
	}
	return 0
}
