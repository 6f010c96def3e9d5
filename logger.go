package mealprep

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RunLogger is the interface for journaling the steps of a run.
type RunLogger interface {
	LogStep(step StepLog) error
}

// NewRunID returns a fresh identifier for a run.
func NewRunID() string { return uuid.NewString() }

// NewRunLogFilePath returns a journal path inside dir named after the time and command,
// so journals of different commands are easy to tell apart.
func NewRunLogFilePath(dir, command string) string {
	return filepath.Join(dir, fmt.Sprintf(
		"%d.%s.json",
		time.Now().Unix(),
		strings.ReplaceAll(strings.ToLower(command), " ", "_"),
	))
}

// StepLog represents one step of a run: a batch of tool calls.
type StepLog struct {
	RunID     string        `json:"run_id"`
	Step      int           `json:"step"`
	Timestamp time.Time     `json:"timestamp"`
	ToolCalls []ToolCallLog `json:"tool_calls,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// ToolCallLog represents a tool execution within a step
type ToolCallLog struct {
	Name       string         `json:"name"`
	Input      map[string]any `json:"input"`
	Output     map[string]any `json:"output"`
	DurationMS int64          `json:"duration_ms"`
	Error      string         `json:"error,omitempty"`
}

// FileRunLogger accumulates steps and writes them as one JSON document on Flush.
type FileRunLogger struct {
	runID  string
	steps  []StepLog
	writer io.Writer
}

func NewFileRunLogger(runID string, writer io.Writer) *FileRunLogger {
	return &FileRunLogger{runID: runID, steps: make([]StepLog, 0), writer: writer}
}

func (l *FileRunLogger) LogStep(step StepLog) error {
	l.steps = append(l.steps, step)
	return nil
}

// Flush writes all accumulated steps to the writer and clears the buffer.
func (l *FileRunLogger) Flush() error {
	if l.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"run": map[string]any{
			"id":        l.runID,
			"timestamp": time.Now(),
			"steps":     l.steps,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run journal: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write run journal: %w", err)
	}

	l.steps = l.steps[:0]
	return nil
}

// NoOpRunLogger discards all steps.
type NoOpRunLogger struct{}

func NewNoOpRunLogger() *NoOpRunLogger { return &NoOpRunLogger{} }

func (NoOpRunLogger) LogStep(StepLog) error { return nil }

// StdoutRunLogger writes each step as a JSON line (for Lambda/CloudWatch).
type StdoutRunLogger struct {
	w io.Writer
}

func NewStdoutRunLogger() *StdoutRunLogger { return &StdoutRunLogger{w: os.Stdout} }

func (l *StdoutRunLogger) LogStep(step StepLog) error {
	data, err := json.Marshal(step)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(l.w, string(data))
	return err
}
