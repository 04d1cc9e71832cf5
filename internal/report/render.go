package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by Render.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatYAML     = "yaml"
)

// ErrUnknownFormat is returned by Render for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown output format")

// CheckFormat reports ErrUnknownFormat for a name Render does not accept.
func CheckFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText, FormatMarkdown, "md", FormatYAML, "yml":
		return nil
	}
	return fmt.Errorf("%w: %q (valid: text, markdown, yaml)", ErrUnknownFormat, format)
}

// YAML encodes the report with yaml.v3.
func (r *Report) YAML() ([]byte, error) {
	out, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return out, nil
}

// Render writes r to w in the named format. "md" is accepted for markdown and
// "yml" for yaml.
func (r *Report) Render(w io.Writer, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return r.Text(w)
	case FormatMarkdown, "md":
		_, err := io.WriteString(w, r.Markdown())
		return err
	case FormatYAML, "yml":
		out, err := r.YAML()
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		return CheckFormat(format)
	}
}

// Extension returns the file extension used for a format when writing reports
// to a directory.
func Extension(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatMarkdown, "md":
		return ".md"
	case FormatYAML, "yml":
		return ".yaml"
	default:
		return ".txt"
	}
}
