package stacktrace

import (
	"strconv"
	"strings"
)

// filteredNote is emitted when filtering removed too much of the stack to be
// useful on its own.
const filteredNote = "# [Application frames filtered - showing remaining frames]"

// fallbackFrames is how many raw frames the fallback rendering shows. Kept
// deliberately small so heavily filtered traces stay skimmable in query logs.
const fallbackFrames = 3

// FormatTrace captures the current call stack and renders it according to
// cfg. skip counts frames to drop above the caller of FormatTrace, so
// integrations can hide their own plumbing.
//
// Errors (invalid config, nothing captured) are returned to the caller;
// absorbing them is the annotation boundary's job, not the formatter's.
func FormatTrace(cfg Config, skip int) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	stack := Capture(skip + 1)
	if len(stack) == 0 {
		return "", ErrNoFrames
	}
	return FormatStack(stack, cfg), nil
}

// FormatStack renders an already captured stack: filter, bound to
// cfg.MaxFrames keeping the frames closest to the call site, and format one
// "# path:line in function" line per frame.
//
// When filtering leaves no frames, or fewer than cfg.MinAppFrames, the output
// is the filteredNote line followed by the last fallbackFrames entries of the
// unfiltered stack, so the comment always carries some context.
func FormatStack(stack []Frame, cfg Config) string {
	filtered := filterStack(stack, cfg)

	if len(filtered) == 0 || len(filtered) < cfg.MinAppFrames {
		return formatFallback(stack)
	}

	selected := filtered
	if cfg.MaxFrames > 0 && len(selected) > cfg.MaxFrames {
		selected = selected[len(selected)-cfg.MaxFrames:]
	}

	lines := make([]string, 0, len(selected))
	for _, frame := range selected {
		lines = append(lines, formatFrame(frame))
	}
	return strings.Join(lines, "\n")
}

// formatFallback renders the note line plus the tail of the raw stack.
func formatFallback(stack []Frame) string {
	n := fallbackFrames
	if len(stack) < n {
		n = len(stack)
	}
	tail := stack[len(stack)-n:]

	lines := make([]string, 0, n+1)
	lines = append(lines, filteredNote)
	for _, frame := range tail {
		lines = append(lines, formatFrame(frame))
	}
	return strings.Join(lines, "\n")
}

// formatFrame renders a single frame line. Path and function are sanitized so
// no frame can close the surrounding comment or smuggle in extra lines.
func formatFrame(frame Frame) string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(sanitize(frame.Path))
	b.WriteString(":")
	b.WriteString(strconv.Itoa(frame.Line))
	b.WriteString(" in ")
	b.WriteString(sanitize(frame.Function))
	return b.String()
}

// sanitize strips comment delimiters and line breaks from rendered text.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "*/", "")
	s = strings.ReplaceAll(s, "/*", "")
	s = strings.ReplaceAll(s, "\n", "")
	return strings.ReplaceAll(s, "\r", "")
}
