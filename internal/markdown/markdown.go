package markdown

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	styles "github.com/charmbracelet/glamour/styles"
)

const defaultWidth = 120

func PrintGenerate(w io.Writer, generateMarkdown func(w io.Writer)) error {
	var b strings.Builder
	generateMarkdown(&b)
	return Print(w, b.String(), 0)
}

// Print renders markdown to w, width <= 0 means the default width
func Print(w io.Writer, markdown string, width int) error {
	out, err := Render(markdown, width)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func Render(markdown string, width int) (string, error) {
	if width <= 0 {
		width = defaultWidth
	}
	style := styles.NoTTYStyleConfig
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(width),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return "", fmt.Errorf("unable to create renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("unable to render markdown: %w", err)
	}
	return out, nil
}
