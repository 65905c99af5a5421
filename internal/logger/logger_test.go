package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})
	log.Info("recipe created", "recipe_id", 7)

	assert.Contains(t, buf.String(), `"msg":"recipe created"`)
	assert.Contains(t, buf.String(), `"recipe_id":7`)
	assert.Contains(t, buf.String(), `"level":"INFO"`)
}

func TestNew_FormatFollowsEnvironment(t *testing.T) {
	tests := []struct {
		environment string
		wantJSON    bool
	}{
		{"production", true},
		{"staging", false},
		{"development", false},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			var buf bytes.Buffer
			New(Config{Level: slog.LevelInfo, Environment: tt.environment, Writer: &buf}).Info("hello")

			if tt.wantJSON {
				assert.Contains(t, buf.String(), `"msg":"hello"`)
			} else {
				assert.Contains(t, buf.String(), "INF")
				assert.Contains(t, buf.String(), "hello")
			}
		})
	}
}

func TestPrettyHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelWarn, Format: "pretty", Writer: &buf})

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WRN")
	assert.Contains(t, buf.String(), "shown")
}

func TestPrettyHandler_GroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelDebug, Format: "pretty", Writer: &buf})

	log.With("user_id", "usr-1").WithGroup("http").Debug("request", "status", 200, "path", "/api/v1/recipes")

	out := buf.String()
	assert.Contains(t, out, "DBG")
	assert.Contains(t, out, "user_id=usr-1")
	assert.Contains(t, out, "http.status=200")
	assert.Contains(t, out, "http.path=/api/v1/recipes")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestPrettyHandler_QuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Format: "pretty", Writer: &buf}).Info("x", "title", "Pho with basil")
	assert.Contains(t, buf.String(), `title="Pho with basil"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: "json", Writer: &buf})

	log.WithError(errors.New("disk full")).Error("save failed")
	assert.Contains(t, buf.String(), `"error":"disk full"`)

	assert.Same(t, log, log.WithError(nil))
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Format: "json", Writer: &buf}).
		WithFields(map[string]any{"tag": "vegan", "count": 2}).
		Info("tags synced")

	assert.Contains(t, buf.String(), `"tag":"vegan"`)
	assert.Contains(t, buf.String(), `"count":2`)
}
