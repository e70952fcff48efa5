package commands

import (
	"context"

	"dmt/internal/application"
)

// AutoResult contains the result of a conversion whose direction was
// inferred from the input extension
type AutoResult struct {
	Mode       application.Mode
	OutputPath string
	Comments   int
	Threads    int
	Message    string
}

// AutoCommand picks docx2md or md2docx from the input extension
type AutoCommand struct {
	adapters     Adapters
	InputPath    string
	OutputPath   string
	PandocArgs   []string
	ReferenceDoc string
	Writer       string
}

// NewAutoCommand creates a new AutoCommand
func NewAutoCommand(adapters Adapters, inputPath, outputPath string, pandocArgs []string) *AutoCommand {
	return &AutoCommand{
		adapters:   adapters,
		InputPath:  inputPath,
		OutputPath: outputPath,
		PandocArgs: pandocArgs,
	}
}

// Validate checks that the conversion mode can be inferred
func (c *AutoCommand) Validate() error {
	if err := application.ValidateRequired("inputPath", c.InputPath); err != nil {
		return err
	}
	_, err := application.DetectMode(c.InputPath)
	return err
}

// Execute delegates to the command matching the input extension
func (c *AutoCommand) Execute(ctx context.Context) (*AutoResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	mode, _ := application.DetectMode(c.InputPath)

	switch mode {
	case application.ModeDocx2Md:
		cmd := NewDocx2MdCommand(c.adapters, c.InputPath, c.OutputPath, c.PandocArgs)
		cmd.Writer = c.Writer
		res, err := cmd.Execute(ctx)
		if err != nil {
			return nil, err
		}
		return &AutoResult{
			Mode:       mode,
			OutputPath: res.OutputPath,
			Comments:   res.Comments,
			Threads:    res.Threads,
			Message:    res.Message,
		}, nil
	default:
		cmd := NewMd2DocxCommand(c.adapters, c.InputPath, c.OutputPath, c.PandocArgs)
		cmd.ReferenceDoc = c.ReferenceDoc
		res, err := cmd.Execute(ctx)
		if err != nil {
			return nil, err
		}
		return &AutoResult{
			Mode:       mode,
			OutputPath: res.OutputPath,
			Comments:   res.Comments,
			Threads:    res.Threads,
			Message:    res.Message,
		}, nil
	}
}
