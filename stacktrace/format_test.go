package stacktrace

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appStack(n int) []Frame {
	stack := make([]Frame, 0, n)
	for i := 0; i < n; i++ {
		stack = append(stack, Frame{
			Path:     fmt.Sprintf("/app/handler_%02d.go", i),
			Line:     10 + i,
			Function: fmt.Sprintf("github.com/acme/app.handler%02d", i),
		})
	}
	return stack
}

func TestFormatFrame(t *testing.T) {
	type args struct {
		frame Frame
	}

	tests := []struct {
		name     string
		args     args
		wantLine string
	}{
		{
			name: "given plain frame, then renders path line and function",
			args: args{frame: Frame{
				Path:     "/app/views.go",
				Line:     25,
				Function: "github.com/acme/app.getActiveUsers",
			}},
			wantLine: "# /app/views.go:25 in github.com/acme/app.getActiveUsers",
		},
		{
			name: "given path with comment close, then strips it",
			args: args{frame: Frame{
				Path:     "/app/evil*/views.go",
				Line:     1,
				Function: "main.run",
			}},
			wantLine: "# /app/evilviews.go:1 in main.run",
		},
		{
			name: "given path with comment open, then strips it",
			args: args{frame: Frame{
				Path:     "/app/evil/*views.go",
				Line:     1,
				Function: "main.run",
			}},
			wantLine: "# /app/evilviews.go:1 in main.run",
		},
		{
			name: "given path with line breaks, then strips them",
			args: args{frame: Frame{
				Path:     "/app/a\nb\r.go",
				Line:     2,
				Function: "main.run",
			}},
			wantLine: "# /app/ab.go:2 in main.run",
		},
		{
			name: "given hostile function name, then strips delimiters",
			args: args{frame: Frame{
				Path:     "/app/a.go",
				Line:     3,
				Function: "main.run*/DROP TABLE users;--",
			}},
			wantLine: "# /app/a.go:3 in main.runDROP TABLE users;--",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatFrame(tt.args.frame)
			assert.Equal(t, tt.wantLine, got)
			assert.NotContains(t, got, "*/")
		})
	}
}

func TestFormatStack(t *testing.T) {
	noisyStack := []Frame{
		{Path: "/usr/local/go/src/runtime/proc.go", Line: 250, Function: "runtime.main"},
		{Path: "/home/dev/go/pkg/mod/github.com/some/dep@v1/do.go", Line: 5, Function: "github.com/some/dep.Do"},
		{Path: "/usr/local/go/src/database/sql/sql.go", Line: 1810, Function: "database/sql.(*DB).QueryContext"},
	}

	t.Run("given more frames than the cap, then keeps the innermost frames", func(t *testing.T) {
		cfg := DefaultConfig()
		out := FormatStack(appStack(20), cfg)

		lines := strings.Split(out, "\n")
		require.Len(t, lines, DefaultMaxFrames)
		assert.Equal(t, "# /app/handler_05.go:15 in github.com/acme/app.handler05", lines[0])
		assert.Equal(t, "# /app/handler_19.go:29 in github.com/acme/app.handler19", lines[len(lines)-1])
	})

	t.Run("given zero MaxFrames, then renders the whole filtered stack", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxFrames = 0
		out := FormatStack(appStack(20), cfg)

		assert.Len(t, strings.Split(out, "\n"), 20)
	})

	t.Run("given fewer frames than the cap, then renders all of them", func(t *testing.T) {
		cfg := DefaultConfig()
		out := FormatStack(appStack(4), cfg)

		assert.Len(t, strings.Split(out, "\n"), 4)
	})

	t.Run("given fully filtered stack, then falls back to the raw tail", func(t *testing.T) {
		cfg := DefaultConfig()
		out := FormatStack(noisyStack, cfg)

		lines := strings.Split(out, "\n")
		require.Len(t, lines, 1+fallbackFrames)
		assert.Equal(t, filteredNote, lines[0])
		assert.Equal(t, "# /usr/local/go/src/database/sql/sql.go:1810 in database/sql.(*DB).QueryContext", lines[len(lines)-1])
	})

	t.Run("given fully filtered short stack, then fallback shows what exists", func(t *testing.T) {
		cfg := DefaultConfig()
		out := FormatStack(noisyStack[:2], cfg)

		lines := strings.Split(out, "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, filteredNote, lines[0])
	})

	t.Run("given MinAppFrames above the filtered depth, then falls back", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MinAppFrames = 50
		out := FormatStack(appStack(10), cfg)

		lines := strings.Split(out, "\n")
		require.Len(t, lines, 1+fallbackFrames)
		assert.Equal(t, filteredNote, lines[0])
	})

	t.Run("given MinAppFrames met exactly, then renders the filtered stack", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MinAppFrames = 10
		out := FormatStack(appStack(10), cfg)

		assert.NotContains(t, out, filteredNote)
		assert.Len(t, strings.Split(out, "\n"), 10)
	})

	t.Run("given mixed stack, then noise is gone and order holds", func(t *testing.T) {
		cfg := DefaultConfig()
		stack := []Frame{
			noisyStack[0],
			{Path: "/app/main.go", Line: 30, Function: "main.run"},
			noisyStack[1],
			{Path: "/app/views.go", Line: 25, Function: "main.getActiveUsers"},
			noisyStack[2],
		}
		out := FormatStack(stack, cfg)

		assert.Equal(t,
			"# /app/main.go:30 in main.run\n# /app/views.go:25 in main.getActiveUsers",
			out)
	})
}

func TestFormatTrace(t *testing.T) {
	t.Run("given negative MaxFrames, then surfaces the config error", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxFrames = -1

		_, err := FormatTrace(cfg, 0)

		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("given default config, then contains this test file", func(t *testing.T) {
		out, err := FormatTrace(DefaultConfig(), 0)

		require.NoError(t, err)
		assert.Contains(t, out, "format_test.go")
		assert.NotContains(t, out, filteredNote)
	})

	t.Run("given default config, then runner machinery is filtered", func(t *testing.T) {
		out, err := FormatTrace(DefaultConfig(), 0)

		require.NoError(t, err)
		assert.NotContains(t, out, "testing.tRunner")
		assert.NotContains(t, out, "runtime.goexit")
	})
}

func TestSanitize(t *testing.T) {
	type args struct {
		in string
	}

	tests := []struct {
		name string
		args args
		want string
	}{
		{name: "given clean text, then unchanged", args: args{in: "/app/views.go"}, want: "/app/views.go"},
		{name: "given comment close, then removed", args: args{in: "a*/b"}, want: "ab"},
		{name: "given comment open, then removed", args: args{in: "a/*b"}, want: "ab"},
		{name: "given newline, then removed", args: args{in: "a\nb"}, want: "ab"},
		{name: "given carriage return, then removed", args: args{in: "a\rb"}, want: "ab"},
		{name: "given nested delimiters, then removed", args: args{in: "/**/"}, want: ""},
		{name: "given empty string, then empty", args: args{in: ""}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitize(tt.args.in))
		})
	}
}
