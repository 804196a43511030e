package stacktrace

import "strings"

// Marker is the opening of the trace comment. Its presence in a query means
// the query is already annotated and must be left alone.
const Marker = "/*\nSTACKTRACE:"

// annotateSkip hides the annotation entry points themselves from the
// rendered trace: annotate plus its exported wrapper.
const annotateSkip = 2

// HasMarker reports whether the query already carries a trace comment.
func HasMarker(query string) bool {
	return strings.Contains(query, Marker)
}

// Annotate appends the current call stack to a SQL query as a trailing block
// comment, using DefaultConfig:
//
//	SELECT * FROM users WHERE active = true
//	/*
//	STACKTRACE:
//	# /app/views.go:25 in github.com/acme/app.getActiveUsers
//	# /app/handlers.go:18 in github.com/acme/app.userListView
//	*/
//
// Annotate is strictly fail-open: if anything goes wrong while capturing or
// rendering the stack, the query is returned unchanged. Annotating a query
// that already carries a trace comment is the identity.
func Annotate(query string) string {
	return annotate(query, DefaultConfig(), annotateSkip)
}

// AnnotateWith is Annotate with an explicit configuration.
func AnnotateWith(query string, cfg Config) string {
	return annotate(query, cfg, annotateSkip)
}

// annotate implements the fail-open boundary. Errors and panics from the
// capture/format pipeline surface up to here and no further.
func annotate(query string, cfg Config, skip int) (annotated string) {
	if !cfg.Enabled || HasMarker(query) {
		return query
	}

	defer func() {
		if r := recover(); r != nil {
			annotated = query
		}
	}()

	trace, err := FormatTrace(cfg, skip)
	if err != nil {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + len(Marker) + len(trace) + 8)
	b.WriteString(query)
	b.WriteString("\n")
	b.WriteString(Marker)
	b.WriteString("\n")
	b.WriteString(trace)
	b.WriteString("\n*/")
	return b.String()
}
