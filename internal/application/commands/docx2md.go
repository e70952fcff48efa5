package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"dmt/internal/adapters/pandoc"
	"dmt/internal/application"
	"dmt/internal/domain/milestone"
	"dmt/internal/logging"
	"dmt/internal/ports"
)

// Docx2MdResult contains the result of a docx to markdown conversion
type Docx2MdResult struct {
	OutputPath   string
	Comments     int
	Threads      int
	Replies      int
	MediaRemoved int
	Message      string
}

// Docx2MdCommand converts a Word document into markdown with milestone
// tokens and comment cards
type Docx2MdCommand struct {
	adapters   Adapters
	InputPath  string
	OutputPath string
	PandocArgs []string
	Writer     string // markdown writer; empty derives it from PandocArgs
}

// NewDocx2MdCommand creates a new Docx2MdCommand
func NewDocx2MdCommand(adapters Adapters, inputPath, outputPath string, pandocArgs []string) *Docx2MdCommand {
	return &Docx2MdCommand{
		adapters:   adapters,
		InputPath:  inputPath,
		OutputPath: outputPath,
		PandocArgs: pandocArgs,
	}
}

// Validate checks the input and output paths
func (c *Docx2MdCommand) Validate() error {
	if err := application.ValidateInputFile("inputPath", c.InputPath); err != nil {
		return err
	}
	if c.OutputPath != "" {
		return application.ValidateOutput(c.InputPath, c.OutputPath)
	}
	return nil
}

func (c *Docx2MdCommand) writer() string {
	if c.Writer != "" {
		return c.Writer
	}
	return pandoc.WriterFormat(c.PandocArgs)
}

// Execute runs the conversion. The destination is replaced only after
// every stage succeeded; media extracted by a failed run is removed again.
func (c *Docx2MdCommand) Execute(ctx context.Context) (result *Docx2MdResult, err error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	input, err := absPath(c.InputPath)
	if err != nil {
		return nil, err
	}
	output := c.OutputPath
	if output == "" {
		output = application.DefaultOutput(input, application.ModeDocx2Md)
	}
	if output, err = absPath(output); err != nil {
		return nil, err
	}

	if err := c.adapters.Converter.CheckPrerequisites(ctx); err != nil {
		return nil, err
	}

	runID := newRunID()
	logger := logging.ForRun(runID)
	outDir := filepath.Dir(output)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	ws, err := c.adapters.Workspaces(output, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			logger.Warn().Err(cerr).Str("dir", ws.Dir()).Msg("failed to remove scratch directory")
		}
	}()

	mediaDir := filepath.Join(outDir, "media")
	before, err := c.adapters.Media.Snapshot(mediaDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err == nil {
			return
		}
		if n, perr := c.adapters.Media.Prune(mediaDir, before, ""); perr != nil {
			logger.Warn().Err(perr).Msg("failed to roll back extracted media")
		} else if n > 0 {
			logger.Debug().Int("removed", n).Msg("rolled back extracted media")
		}
	}()

	unpacked := ws.Path("src")
	if err := c.adapters.Package.Extract(input, unpacked); err != nil {
		return nil, err
	}
	g, err := c.adapters.Package.ReadComments(unpacked)
	if err != nil {
		return nil, fmt.Errorf("failed to read comments: %w", err)
	}
	logger.Debug().Str("stage", "read").Int("comments", g.Len()).Msg("read docx comments")

	args := append([]string{"--track-changes=all"}, c.PandocArgs...)
	if !pandoc.HasExtractMedia(args) {
		args = append(args, "--extract-media=.")
	}
	mdPath := ws.Path("pandoc.md")
	if err := c.adapters.Converter.Convert(ctx, ports.Conversion{
		Input:  input,
		Output: mdPath,
		From:   "docx",
		To:     pandoc.DefaultWriter,
		Args:   args,
		Dir:    outDir,
	}); err != nil {
		return nil, err
	}

	writer := c.writer()
	readConv := ports.Conversion{Input: mdPath, From: "markdown", Args: pandoc.RenderArgs(c.PandocArgs), Dir: outDir}
	writeConv := ports.Conversion{Output: mdPath, To: writer, Args: c.PandocArgs, Dir: outDir}

	doc, err := c.adapters.Converter.ReadAST(ctx, readConv)
	if err != nil {
		return nil, err
	}
	if n := milestone.Annotate(doc, g); n > 0 {
		if err := c.adapters.Converter.WriteAST(ctx, doc, writeConv); err != nil {
			return nil, err
		}
		logger.Debug().Str("stage", "annotate").Int("changed", n).Msg("annotated comment spans")
	}

	text, err := readText(mdPath)
	if err != nil {
		return nil, err
	}
	text, repaired := milestone.RepairUnbalancedMarkers(text)
	text, flattened := milestone.NormalizeNestedEnds(text)
	text, images := milestone.StripPlaceholderImages(text)
	if err := writeText(mdPath, text); err != nil {
		return nil, err
	}
	logger.Debug().Str("stage", "repair").
		Int("repaired", repaired).
		Int("flattened", flattened).
		Int("images", len(images)).
		Msg("normalized markdown")

	doc, err = c.adapters.Converter.ReadAST(ctx, readConv)
	if err != nil {
		return nil, err
	}
	enc := milestone.Encode(doc, g)
	if enc.NeedsRender() {
		if err := c.adapters.Converter.WriteAST(ctx, doc, writeConv); err != nil {
			return nil, err
		}
		if text, err = readText(mdPath); err != nil {
			return nil, err
		}
		text = milestone.NormalizeCardLayout(text)
		if err := writeText(mdPath, text); err != nil {
			return nil, err
		}
	}
	logger.Debug().Str("stage", "encode").Int("changed", enc.Changed).Int("cards", enc.Cards).Msg("encoded milestones")

	if err := ws.Commit("pandoc.md", output); err != nil {
		return nil, err
	}

	removed, perr := c.adapters.Media.Prune(mediaDir, before, text)
	if perr != nil {
		logger.Warn().Err(perr).Msg("failed to prune unreferenced media")
	}

	replies := len(g.ChildIDs())
	threads := g.Len() - replies
	return &Docx2MdResult{
		OutputPath:   output,
		Comments:     g.Len(),
		Threads:      threads,
		Replies:      replies,
		MediaRemoved: removed,
		Message: fmt.Sprintf("Converted %s -> %s (%d comments in %d threads)",
			filepath.Base(input), filepath.Base(output), g.Len(), threads),
	}, nil
}
