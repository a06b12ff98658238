package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn", "json")

	logger.Info("dropped")
	logger.Warn("kept", "markers", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, float64(3), line["markers"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "debug", "text").Debug("frame", "n", 1)
	assert.Contains(t, buf.String(), "msg=frame")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestMetricsForTesting(t *testing.T) {
	m := NewMetricsForTesting()
	m.HoverTransitions.WithLabelValues("enter").Inc()
	m.TooltipShows.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HoverTransitions.WithLabelValues("enter")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TooltipShows))
}
