package stacktrace

import "strings"

// Pattern lists consulted by ShouldInclude. Matching is case-insensitive and
// runs on paths normalized to forward slashes, so each list only needs the
// forward-slash spelling.
var (
	// thirdPartyPatterns mark paths under a dependency root.
	thirdPartyPatterns = []string{
		"/pkg/mod/",
		"/vendor/",
	}

	// frameworkPatterns mark database-layer internals that are noise even
	// when checked out outside a dependency root (forks, replace directives,
	// monorepo checkouts).
	frameworkPatterns = []string{
		"/gorm.io/",
		"/go-gorm/",
		"/jmoiron/sqlx/",
		"/jackc/pgx/",
		"/lib/pq/",
		"/go-sql-driver/",
		"/mattn/go-sqlite3/",
	}

	// stdlibPathPatterns mark standard-library installs and synthetic frames.
	stdlibPathPatterns = []string{
		"/usr/local/go/src/",
		"/usr/lib/go",
		"<autogenerated>",
		"_testmain.go",
	}

	// testFrameworkPatterns mark third-party test-runner and assertion
	// machinery. Application _test.go files never match these.
	testFrameworkPatterns = []string{
		"/stretchr/testify/",
		"/onsi/ginkgo/",
		"/onsi/gomega/",
		"/go-check/check/",
	}

	// testFrameworkFuncPrefixes mark runner machinery by function name, which
	// catches the testing package regardless of where the toolchain lives.
	testFrameworkFuncPrefixes = []string{
		"testing.",
		"testing/",
	}

	// singleElementStdlib names single-element stdlib packages that show up
	// in query call stacks. Multi-element stdlib packages (database/sql,
	// net/http, ...) are recognized structurally instead. "main" is the
	// application and is deliberately absent.
	singleElementStdlib = map[string]bool{
		"bufio":   true,
		"bytes":   true,
		"context": true,
		"errors":  true,
		"fmt":     true,
		"hash":    true,
		"io":      true,
		"log":     true,
		"math":    true,
		"net":     true,
		"os":      true,
		"path":    true,
		"reflect": true,
		"regexp":  true,
		"runtime": true,
		"sort":    true,
		"strconv": true,
		"strings": true,
		"sync":    true,
		"time":    true,
		"unicode": true,
	}
)

// ShouldInclude reports whether a frame survives the configured noise filters.
//
// Rules apply in order: dependency roots and database-layer internals (under
// FilterThirdParty), then the standard library (under FilterStdlib, skipped
// for paths that live under a dependency root), then test-runner machinery
// (under FilterTestFrameworks). A frame no rule excludes is application code
// and is kept, in particular the application's own _test.go files.
func ShouldInclude(frame Frame, cfg Config) bool {
	path := normalizePath(frame.Path)

	if cfg.FilterThirdParty {
		if matchesAny(path, thirdPartyPatterns) {
			return false
		}
		if matchesAny(path, frameworkPatterns) {
			return false
		}
	}

	if cfg.FilterStdlib && !matchesAny(path, thirdPartyPatterns) {
		if matchesAny(path, stdlibPathPatterns) || stdlibFunction(frame.Function) {
			return false
		}
	}

	if cfg.FilterTestFrameworks {
		if matchesAny(path, testFrameworkPatterns) {
			return false
		}
		for _, prefix := range testFrameworkFuncPrefixes {
			if strings.HasPrefix(frame.Function, prefix) {
				return false
			}
		}
	}

	return true
}

// filterStack keeps the frames that pass ShouldInclude, preserving order.
func filterStack(stack []Frame, cfg Config) []Frame {
	kept := make([]Frame, 0, len(stack))
	for _, frame := range stack {
		if ShouldInclude(frame, cfg) {
			kept = append(kept, frame)
		}
	}
	return kept
}

// normalizePath lowercases a path, folds Windows separators, and collapses
// module-cache version suffixes ("testify@v1.11.1" becomes "testify") so
// pattern lists match either convention at any dependency version.
func normalizePath(path string) string {
	path = strings.ToLower(strings.ReplaceAll(path, `\`, "/"))
	for {
		at := strings.IndexByte(path, '@')
		if at < 0 {
			return path
		}
		rest := strings.IndexByte(path[at:], '/')
		if rest < 0 {
			return path[:at]
		}
		path = path[:at] + path[at+rest:]
	}
}

func matchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.Contains(path, pattern) {
			return true
		}
	}
	return false
}

// stdlibFunction reports whether a fully qualified function name belongs to a
// standard-library package. Import paths of external packages start with a
// host element containing a dot ("github.com/...", "gorm.io/..."), so a
// dotless first element means the standard library. Single-element packages
// carry no slash and are resolved against a known-name list, since "main" and
// GOPATH-style package names are indistinguishable structurally.
func stdlibFunction(function string) bool {
	if function == "" {
		return false
	}
	if i := strings.Index(function, "/"); i >= 0 {
		return !strings.Contains(function[:i], ".")
	}
	pkg := function
	if i := strings.Index(pkg, "."); i >= 0 {
		pkg = pkg[:i]
	}
	return singleElementStdlib[pkg]
}
