package terminal

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

func IsStdinTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func IsStdoutTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// StdoutWidth returns the terminal width, or def when stdout is not a terminal
func StdoutWidth(def int) int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return def
	}
	return width
}

func RequireReadNonTTYStdin() ([]byte, error) {
	if IsStdinTTY() {
		return nil, fmt.Errorf("requires data from stdin")
	}
	bodyBytes, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, err
	}
	return bodyBytes, nil
}
