package stacktrace

import "runtime"

// captureDepth bounds how many program counters a single capture collects.
const captureDepth = 128

// Frame is one entry of a captured call stack.
type Frame struct {
	// Path is the source file path as reported by the runtime.
	Path string

	// Line is the line number within Path.
	Line int

	// Function is the fully qualified function name, e.g.
	// "github.com/acme/app/handlers.(*UserHandler).List".
	Function string
}

// Capture returns the current goroutine's call stack, outermost frame first.
//
// skip counts stack frames to drop above the caller of Capture: with skip 0
// the innermost returned frame is the caller itself. Capture collects at most
// captureDepth frames; deeper stacks lose their outermost entries, which the
// renderer never shows anyway.
func Capture(skip int) []Frame {
	pcs := make([]uintptr, captureDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pcs[:n])
	stack := make([]Frame, 0, n)
	for {
		fr, more := frames.Next()
		if fr.File != "" || fr.Function != "" {
			stack = append(stack, Frame{
				Path:     fr.File,
				Line:     fr.Line,
				Function: fr.Function,
			})
		}
		if !more {
			break
		}
	}

	// The runtime reports innermost first; callers of this package reason
	// about stacks outermost first.
	for i, j := 0, len(stack)-1; i < j; i, j = i+1, j-1 {
		stack[i], stack[j] = stack[j], stack[i]
	}
	return stack
}
