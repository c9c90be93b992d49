package ioread

import (
	"os"
	"strings"
)

// ReadOrContent returns the content of the file named by s when such
// a regular file exists, otherwise s itself
func ReadOrContent(s string) (string, error) {
	if s == "" || strings.ContainsAny(s, "\n\x00") {
		return s, nil
	}
	stat, err := os.Stat(s)
	if err != nil || !stat.Mode().IsRegular() {
		return s, nil
	}
	data, err := os.ReadFile(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
