package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"dmt/internal/adapters/pandoc"
	"dmt/internal/application"
	"dmt/internal/domain"
	"dmt/internal/domain/milestone"
	"dmt/internal/logging"
	"dmt/internal/ports"
)

// ThreadEntry is one comment of a flattened thread tree
type ThreadEntry struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id,omitempty"`
	Author   string `json:"author"`
	Date     string `json:"date,omitempty"`
	State    string `json:"state"`
	Depth    int    `json:"depth"`
	Body     string `json:"body"`
	Anchor   string `json:"anchor,omitempty"`
}

// Summary returns the first line of the body
func (e ThreadEntry) Summary() string {
	first, _, _ := strings.Cut(e.Body, "\n")
	return first
}

// ThreadsResult contains the comment threads of a document
type ThreadsResult struct {
	Path    string
	Graph   *domain.Graph
	Entries []ThreadEntry
	Message string
}

// ThreadsCommand lists the comment threads of a docx or markdown file
type ThreadsCommand struct {
	adapters   Adapters
	InputPath  string
	PandocArgs []string
}

// NewThreadsCommand creates a new ThreadsCommand
func NewThreadsCommand(adapters Adapters, inputPath string, pandocArgs []string) *ThreadsCommand {
	return &ThreadsCommand{
		adapters:   adapters,
		InputPath:  inputPath,
		PandocArgs: pandocArgs,
	}
}

// Validate checks the input path and its format
func (c *ThreadsCommand) Validate() error {
	if err := application.ValidateInputFile("inputPath", c.InputPath); err != nil {
		return err
	}
	_, err := application.DetectMode(c.InputPath)
	return err
}

// Execute reads the comment graph and flattens it root by root
func (c *ThreadsCommand) Execute(ctx context.Context) (*ThreadsResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	input, err := absPath(c.InputPath)
	if err != nil {
		return nil, err
	}

	g, err := loadGraph(ctx, c.adapters, input, c.PandocArgs)
	if err != nil {
		return nil, err
	}
	entries := FlattenThreads(g)
	return &ThreadsResult{
		Path:    input,
		Graph:   g,
		Entries: entries,
		Message: fmt.Sprintf("%s: %d comments in %d threads", filepath.Base(input), g.Len(), len(g.Roots())),
	}, nil
}

// FlattenThreads lists every comment depth first, roots in first-seen order
func FlattenThreads(g *domain.Graph) []ThreadEntry {
	entries := make([]ThreadEntry, 0, g.Len())
	for _, root := range g.Roots() {
		for _, id := range g.Thread(root) {
			cm, _ := g.Get(id)
			entries = append(entries, ThreadEntry{
				ID:       cm.ID,
				ParentID: g.Parent(id),
				Author:   cm.Author,
				Date:     cm.Date,
				State:    string(domain.ParseState(string(cm.State))),
				Depth:    g.Depth(id),
				Body:     cm.Body,
				Anchor:   cm.AnchorText,
			})
		}
	}
	return entries
}

// loadGraph reads the comment graph of a docx package, or of a markdown
// file through the milestone decoder. Markdown graphs are validated.
func loadGraph(ctx context.Context, adapters Adapters, input string, args []string) (*domain.Graph, error) {
	runID := newRunID()
	logger := logging.ForRun(runID)

	ws, err := adapters.Workspaces(input, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			logger.Warn().Err(cerr).Str("dir", ws.Dir()).Msg("failed to remove scratch directory")
		}
	}()

	if application.IsDocx(input) {
		unpacked := ws.Path("src")
		if err := adapters.Package.Extract(input, unpacked); err != nil {
			return nil, err
		}
		g, err := adapters.Package.ReadComments(unpacked)
		if err != nil {
			return nil, fmt.Errorf("failed to read comments: %w", err)
		}
		return g, nil
	}

	if err := adapters.Converter.CheckPrerequisites(ctx); err != nil {
		return nil, err
	}
	dir := filepath.Dir(input)
	dm, err := decodeMarkdown(ctx, adapters.Converter, ws, input, args, dir)
	if err != nil {
		return nil, err
	}
	doc, err := adapters.Converter.ReadAST(ctx, ports.Conversion{
		Input: dm.NormalizedPath,
		From:  "markdown",
		Args:  pandoc.RenderArgs(args),
		Dir:   dir,
	})
	if err != nil {
		return nil, err
	}
	g, err := milestone.ExtractComments(doc, dm.Cards)
	if err != nil {
		return nil, err
	}
	anchors := milestone.AnchorTexts(doc)
	for _, cm := range g.Comments() {
		if cm.AnchorText == "" {
			cm.AnchorText = anchors[cm.ID]
		}
	}
	logger.Debug().Str("stage", "extract").Int("comments", g.Len()).Msg("loaded markdown threads")
	return g, nil
}

// StatsResult contains comment counts of a document
type StatsResult struct {
	Comments int      `json:"comments"`
	Roots    int      `json:"roots"`
	Replies  int      `json:"replies"`
	Resolved int      `json:"resolved"`
	Authors  []string `json:"authors"`
	MaxDepth int      `json:"max_depth"`
	Message  string   `json:"-"`
}

// StatsCommand counts the comments of a docx or markdown file
type StatsCommand struct {
	adapters   Adapters
	InputPath  string
	PandocArgs []string
}

// NewStatsCommand creates a new StatsCommand
func NewStatsCommand(adapters Adapters, inputPath string, pandocArgs []string) *StatsCommand {
	return &StatsCommand{
		adapters:   adapters,
		InputPath:  inputPath,
		PandocArgs: pandocArgs,
	}
}

// Validate checks the input path and its format
func (c *StatsCommand) Validate() error {
	if err := application.ValidateInputFile("inputPath", c.InputPath); err != nil {
		return err
	}
	_, err := application.DetectMode(c.InputPath)
	return err
}

// Execute computes the counts
func (c *StatsCommand) Execute(ctx context.Context) (*StatsResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	input, err := absPath(c.InputPath)
	if err != nil {
		return nil, err
	}
	g, err := loadGraph(ctx, c.adapters, input, c.PandocArgs)
	if err != nil {
		return nil, err
	}
	res := Stats(g)
	res.Message = fmt.Sprintf("%s: %d comments, %d roots, %d replies, %d resolved, %d authors, max depth %d",
		filepath.Base(input), res.Comments, res.Roots, res.Replies, res.Resolved, len(res.Authors), res.MaxDepth)
	return res, nil
}

// Stats counts the comments of g
func Stats(g *domain.Graph) *StatsResult {
	res := &StatsResult{
		Comments: g.Len(),
		Roots:    len(g.Roots()),
		Authors:  g.Authors(),
	}
	res.Replies = res.Comments - res.Roots
	for _, cm := range g.Comments() {
		if cm.State.Resolved() {
			res.Resolved++
		}
		res.MaxDepth = max(res.MaxDepth, g.Depth(cm.ID))
	}
	return res
}
