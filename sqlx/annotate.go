package sqlx

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/querytrail/querytrail-go/stacktrace"
)

// annotate appends the call stack comment to query and records the
// outcome. The query comes back untouched when annotation is disabled,
// already present, or produced nothing.
func (cfg *config) annotate(ctx context.Context, query string) string {
	outcome := outcomeAnnotated
	annotated := query

	switch {
	case !cfg.Trace.Enabled:
		outcome = outcomeDisabled
	case stacktrace.HasMarker(query):
		outcome = outcomeAlreadyAnnotated
	default:
		annotated = stacktrace.AnnotateWith(query, cfg.Trace)
		if annotated == query {
			outcome = outcomeFailed
		}
	}

	cfg.Metrics.recordAnnotation(ctx, outcome, cfg.baseAttributes())
	return annotated
}

// baseAttributes returns the base attributes for all metrics.
func (cfg *config) baseAttributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if cfg.DBSystem != "" {
		attrs = append(attrs, attribute.String("db.system", cfg.DBSystem))
	}
	if cfg.DBName != "" {
		attrs = append(attrs, attribute.String("db.name", cfg.DBName))
	}
	if cfg.InstanceName != "" {
		attrs = append(attrs, attribute.String("db.instance", cfg.InstanceName))
	}
	return attrs
}

// extractOperation extracts the SQL operation (first word) from a query.
// Returns uppercase operation name or empty string if query is empty.
// This is used for the db.operation metric attribute.
//
// Example:
//
//	extractOperation("SELECT * FROM users") // returns "SELECT"
//	extractOperation("insert into users")   // returns "INSERT"
//	extractOperation("")                    // returns ""
func extractOperation(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}

	// Find the first word (the SQL command)
	spaceIdx := strings.IndexAny(query, " \t\n\r")
	if spaceIdx == -1 {
		return strings.ToUpper(query)
	}

	return strings.ToUpper(query[:spaceIdx])
}
