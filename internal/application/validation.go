package application

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", formatFieldName(fieldName)),
		}
	}
	return nil
}

// formatFieldName converts field names to readable words for messages
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"inputPath":    "input path",
		"outputPath":   "output path",
		"referenceDoc": "reference document",
	}
	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}
	return fieldName
}

// ValidateInputFile checks that path names an existing regular file
func ValidateInputFile(fieldName, path string) error {
	if err := ValidateRequired(fieldName, path); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &InputError{Path: path, Reason: "file does not exist"}
		}
		return &InputError{Path: path, Reason: err.Error()}
	}
	if info.IsDir() {
		return &InputError{Path: path, Reason: "is a directory"}
	}
	return nil
}

// DetectMode infers the conversion direction from the input extension
func DetectMode(path string) (Mode, error) {
	switch {
	case IsDocx(path):
		return ModeDocx2Md, nil
	case IsMarkdown(path):
		return ModeMd2Docx, nil
	}
	return "", &UnknownModeError{Name: filepath.Base(path)}
}

// DefaultOutput is the input path with the extension of the target format
func DefaultOutput(input string, mode Mode) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + mode.Extension()
}

// ValidateOutput rejects an output path equal to the input path
func ValidateOutput(input, output string) error {
	in, err := filepath.Abs(input)
	if err != nil {
		return nil
	}
	out, err := filepath.Abs(output)
	if err != nil {
		return nil
	}
	if in == out {
		return &ValidationError{Field: "outputPath", Message: "output path must differ from the input path"}
	}
	return nil
}
