// Package logging configures the process-wide slog logger. In
// simulation mode log output has to be held back until the TUI's log
// pane exists, so the handler writes through a buffering tee: records
// are buffered (and optionally copied to a file) until SetOutput
// redirects the stream to its final destination.
package logging

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	c "lautenbacher.net/fireflyjar/config"
)

type teeWriter struct {
	mu        sync.Mutex
	buffer    bytes.Buffer
	target    io.Writer
	file      *os.File
	buffering bool
}

func (w *teeWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var firstErr error
	if w.buffering {
		w.buffer.Write(p)
	} else if w.target != nil {
		if _, err := w.target.Write(p); err != nil {
			firstErr = err
		}
	}
	if w.file != nil {
		if _, err := w.file.Write(p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return len(p), firstErr
}

var writer *teeWriter

// Init sets up the default slog logger according to the config.
// With buffered set, output is held back until SetOutput is called.
// Calling Init again (config reload) closes the previous log file.
func Init(buffered bool, cfg c.LogConfig) error {
	if writer != nil && writer.file != nil {
		writer.file.Close()
	}
	writer = &teeWriter{buffering: buffered}
	if !buffered {
		writer.target = os.Stderr
	}

	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return err
		}
		writer.file = file
	}

	var level slog.Level
	switch strings.ToUpper(cfg.Level) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// SetOutput flushes any buffered output to the new target and starts
// live logging to it.
func SetOutput(target io.Writer) error {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	if writer.buffer.Len() > 0 {
		if _, err := target.Write(writer.buffer.Bytes()); err != nil {
			return err
		}
		writer.buffer.Reset()
	}
	writer.target = target
	writer.buffering = false
	return nil
}

// Close flushes whatever is still buffered and closes the log file.
// Buffered output that never found a live target goes to stderr so it
// is not lost on an early exit.
func Close() error {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	var firstErr error
	if writer.buffer.Len() > 0 {
		out := io.Writer(os.Stderr)
		if writer.file != nil {
			out = writer.file
		}
		if _, err := out.Write(writer.buffer.Bytes()); err != nil {
			firstErr = err
		}
		writer.buffer.Reset()
	}
	if writer.file != nil {
		if err := writer.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		writer.file = nil
	}
	return firstErr
}
