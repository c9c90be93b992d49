package types

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestErrors(t *testing.T) {
	notFound := fmt.Errorf("run: %w", &BinaryNotFoundError{Name: "claude"})
	if !errors.Is(notFound, ErrBinaryNotFound) {
		t.Errorf("Expected BinaryNotFoundError to match ErrBinaryNotFound")
	}

	timeout := &TimeoutError{Timeout: 5 * time.Second}
	if timeout.Seconds() != 5 {
		t.Errorf("Expected 5 seconds, got %d", timeout.Seconds())
	}
	if timeout.Error() != "operation timed out after 5s" {
		t.Errorf("Unexpected timeout message: %s", timeout.Error())
	}

	procErr := &ProcessError{ExitCode: 1, Stderr: "boom\n"}
	if !strings.Contains(procErr.Error(), "boom") {
		t.Errorf("Expected stderr in message, got %s", procErr.Error())
	}

	if !errors.Is(&SessionNotFoundError{ID: "x"}, ErrSessionNotFound) {
		t.Errorf("Expected SessionNotFoundError to match ErrSessionNotFound")
	}

	cause := errors.New("bad json")
	if !errors.Is(&SerializationError{Err: cause}, cause) {
		t.Errorf("Expected SerializationError to unwrap")
	}
}
