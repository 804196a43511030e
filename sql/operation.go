package sql

import (
	"strings"
)

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
