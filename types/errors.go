package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrBinaryNotFound  = errors.New("binary not found in PATH")
	ErrSessionNotFound = errors.New("session not found")
	ErrStreamClosed    = errors.New("stream closed unexpectedly")
)

// BinaryNotFoundError is returned when the binary cannot be located,
// as opposed to a located binary failing to spawn
type BinaryNotFoundError struct {
	Name string
	Err  error
}

func (e *BinaryNotFoundError) Error() string {
	return fmt.Sprintf("%s not found in PATH", e.Name)
}

func (e *BinaryNotFoundError) Is(target error) bool {
	return target == ErrBinaryNotFound
}

func (e *BinaryNotFoundError) Unwrap() error {
	return e.Err
}

// TimeoutError reports the configured timeout, not the elapsed time
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation timed out after %s", formatTimeout(e.Timeout))
}

// Seconds returns the configured timeout in whole seconds
func (e *TimeoutError) Seconds() uint64 {
	return uint64(e.Timeout / time.Second)
}

func formatTimeout(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", d/time.Second)
	}
	return d.String()
}

// ProcessError is returned when the binary exits with non-zero status
type ProcessError struct {
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr == "" {
		return fmt.Sprintf("command failed with exit code %d", e.ExitCode)
	}
	return fmt.Sprintf("command failed with exit code %d: %s", e.ExitCode, stderr)
}

// SerializationError wraps a decode failure of the binary's output
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization error: %v", e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// IOError is a generic I/O failure, Op names the failed step
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error: %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

type SessionNotFoundError struct {
	ID SessionID
}

func (e *SessionNotFoundError) Error() string {
	return fmt.Sprintf("session %s not found", e.ID)
}

func (e *SessionNotFoundError) Is(target error) bool {
	return target == ErrSessionNotFound
}

type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Msg
}

type InvalidInputError struct {
	Msg string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Msg
}

type PermissionDeniedError struct {
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return "tool permission denied: " + e.Permission
}

type MCPError struct {
	Server string
	Err    error
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("mcp server %s: %v", e.Server, e.Err)
}

func (e *MCPError) Unwrap() error {
	return e.Err
}
