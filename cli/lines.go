package cli

import (
	"bufio"
	"io"
)

// maxLineSize bounds a single stream-json line, tool results can be large
const maxLineSize = 16 * 1024 * 1024

type LinesWriterOption func(cfg *linesWriterOption)

type linesWriterOption struct {
	EndCallback func(err error)
	MaxLineSize int
}

// WithMaxLineSize bounds a single line, a longer line ends the
// writer with bufio.ErrTooLong
func WithMaxLineSize(n int) LinesWriterOption {
	return func(cfg *linesWriterOption) {
		cfg.MaxLineSize = n
	}
}

// WithEndCallback is called once the reader side ends,
// err is nil when all lines were delivered
func WithEndCallback(callback func(err error)) LinesWriterOption {
	return func(cfg *linesWriterOption) {
		cfg.EndCallback = callback
	}
}

// LinesWriter returns a writer that calls callback with every complete
// line written to it. Once callback returns false the remaining input is
// drained and discarded so the writer never blocks.
// The returned func closes the writer and waits for the last callback.
func LinesWriter(callback func(line string) bool, opts ...LinesWriterOption) (io.Writer, func()) {
	cfg := linesWriterOption{MaxLineSize: maxLineSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	reader, writer := io.Pipe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(reader)
		scanner.Buffer(make([]byte, 0, min(64*1024, cfg.MaxLineSize)), cfg.MaxLineSize)
		for scanner.Scan() {
			if !callback(scanner.Text()) {
				break
			}
		}
		err := scanner.Err()
		// unblock writers
		io.Copy(io.Discard, reader)
		reader.Close()
		if cfg.EndCallback != nil {
			cfg.EndCallback(err)
		}
	}()
	return writer, func() {
		writer.Close()
		<-done
	}
}
