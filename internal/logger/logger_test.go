package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"familytree/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandler_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{Server: config.ServerConfig{Environment: "production"}}

	logger := slog.New(newHandler(cfg, &buf))
	logger.Debug("hidden")
	logger.Info("member added", "member_id", "7")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "member added", record["msg"])
	assert.Equal(t, "7", record["member_id"])
}

func TestNewHandler_DevelopmentWritesText(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{Server: config.ServerConfig{Environment: "development"}}

	slog.New(newHandler(cfg, &buf)).Debug("tree built", "roots", 2)

	assert.Contains(t, buf.String(), "tree built")
	assert.Contains(t, buf.String(), "roots=2")
}

func TestMultiHandler(t *testing.T) {
	var info, errs bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&errs, &slog.HandlerOptions{Level: slog.LevelError}),
	)

	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))

	logger := slog.New(h).With("component", "member").WithGroup("req")
	logger.Info("saved", "count", 3)
	logger.Error("save failed")

	assert.Contains(t, info.String(), "component=member")
	assert.Contains(t, info.String(), "req.count=3")
	assert.NotContains(t, errs.String(), "saved")
	assert.Contains(t, errs.String(), "save failed")
}

func TestDiscard(t *testing.T) {
	assert.False(t, Discard().Enabled(context.Background(), slog.LevelError))
}
