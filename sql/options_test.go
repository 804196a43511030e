package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/querytrail/querytrail-go/stacktrace"
)

func TestNewConfig_Options(t *testing.T) {
	tests := []struct {
		name       string
		opts       []Option
		wantAssert func(*testing.T, *config)
	}{
		{
			name: "given no options, then uses global provider and default annotation config",
			opts: nil,
			wantAssert: func(t *testing.T, cfg *config) {
				assert.Equal(t, otel.GetMeterProvider(), cfg.MeterProvider)
				assert.NotNil(t, cfg.Meter)
				assert.NotNil(t, cfg.Metrics)
				assert.Equal(t, stacktrace.DefaultConfig(), cfg.Trace)
			},
		},
		{
			name: "given WithDBSystem, then sets DBSystem",
			opts: []Option{WithDBSystem("postgresql")},
			wantAssert: func(t *testing.T, cfg *config) {
				assert.Equal(t, "postgresql", cfg.DBSystem)
			},
		},
		{
			name: "given WithDBName, then sets DBName",
			opts: []Option{WithDBName("mydb")},
			wantAssert: func(t *testing.T, cfg *config) {
				assert.Equal(t, "mydb", cfg.DBName)
			},
		},
		{
			name: "given WithInstanceName, then sets InstanceName",
			opts: []Option{WithInstanceName("primary")},
			wantAssert: func(t *testing.T, cfg *config) {
				assert.Equal(t, "primary", cfg.InstanceName)
			},
		},
		{
			name: "given WithConfig, then replaces the annotation config",
			opts: []Option{WithConfig(stacktrace.Config{Enabled: true, MaxFrames: 3})},
			wantAssert: func(t *testing.T, cfg *config) {
				assert.Equal(t, stacktrace.Config{Enabled: true, MaxFrames: 3}, cfg.Trace)
			},
		},
		{
			name: "given WithDisabled, then only turns annotation off",
			opts: []Option{WithDisabled()},
			wantAssert: func(t *testing.T, cfg *config) {
				assert.False(t, cfg.Trace.Enabled)
				assert.Equal(t, stacktrace.DefaultMaxFrames, cfg.Trace.MaxFrames)
			},
		},
		{
			name: "given WithMaxFrames, then caps rendered frames",
			opts: []Option{WithMaxFrames(30)},
			wantAssert: func(t *testing.T, cfg *config) {
				assert.Equal(t, 30, cfg.Trace.MaxFrames)
			},
		},
		{
			name: "given WithMinAppFrames, then raises the fallback threshold",
			opts: []Option{WithMinAppFrames(2)},
			wantAssert: func(t *testing.T, cfg *config) {
				assert.Equal(t, 2, cfg.Trace.MinAppFrames)
			},
		},
		{
			name: "given multiple options, then applies all",
			opts: []Option{
				WithDBSystem("mysql"),
				WithDBName("users"),
				WithInstanceName("replica"),
				WithMaxFrames(5),
			},
			wantAssert: func(t *testing.T, cfg *config) {
				assert.Equal(t, "mysql", cfg.DBSystem)
				assert.Equal(t, "users", cfg.DBName)
				assert.Equal(t, "replica", cfg.InstanceName)
				assert.Equal(t, 5, cfg.Trace.MaxFrames)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig(tt.opts...)
			require.NotNil(t, cfg)
			tt.wantAssert(t, cfg)
		})
	}
}

func TestWithConfigFromEnv(t *testing.T) {
	t.Run("given QUERYTRAIL variables, then the annotation config reflects them", func(t *testing.T) {
		t.Setenv("QUERYTRAIL_MAX_FRAMES", "7")
		t.Setenv("QUERYTRAIL_FILTER_STDLIB", "false")

		cfg := newConfig(WithConfigFromEnv())

		assert.Equal(t, 7, cfg.Trace.MaxFrames)
		assert.False(t, cfg.Trace.FilterStdlib)
		assert.True(t, cfg.Trace.Enabled)
	})
}

func TestConfigBaseAttributes(t *testing.T) {
	tests := []struct {
		name      string
		opts      []Option
		wantCount int
		wantAttrs map[string]string
	}{
		{
			name: "given all fields set, then returns all attributes",
			opts: []Option{
				WithDBSystem("postgresql"),
				WithDBName("mydb"),
				WithInstanceName("primary"),
			},
			wantCount: 3,
			wantAttrs: map[string]string{
				"db.system":   "postgresql",
				"db.name":     "mydb",
				"db.instance": "primary",
			},
		},
		{
			name:      "given only DBSystem, then returns one attribute",
			opts:      []Option{WithDBSystem("mysql")},
			wantCount: 1,
			wantAttrs: map[string]string{"db.system": "mysql"},
		},
		{
			name:      "given no options, then returns empty attributes",
			opts:      nil,
			wantCount: 0,
			wantAttrs: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig(tt.opts...)
			attrs := cfg.baseAttributes()

			assert.Len(t, attrs, tt.wantCount)
			for _, attr := range attrs {
				key := string(attr.Key)
				if expected, ok := tt.wantAttrs[key]; ok {
					assert.Equal(t, expected, attr.Value.AsString())
				}
			}
		})
	}
}
