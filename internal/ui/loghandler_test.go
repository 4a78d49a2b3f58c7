package ui_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/stow/internal/ui"
)

// stderrAndFile mimics the CLI setup: text at the chosen level plus a JSON
// log file at debug.
func stderrAndFile(level slog.Level) (*slog.Logger, *bytes.Buffer, *bytes.Buffer) {
	var text, file bytes.Buffer
	h := ui.NewMultiHandler(
		slog.NewTextHandler(&text, &slog.HandlerOptions{Level: level}),
		slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	return slog.New(h), &text, &file
}

func decodeLines(t *testing.T, b *bytes.Buffer) []map[string]any {
	t.Helper()
	var recs []map[string]any
	dec := json.NewDecoder(b)
	for dec.More() {
		var rec map[string]any
		require.NoError(t, dec.Decode(&rec))
		recs = append(recs, rec)
	}
	return recs
}

func TestMultiHandler_FansOutByLevel(t *testing.T) {
	t.Parallel()

	logger, text, file := stderrAndFile(slog.LevelWarn)
	logger.Debug("stow.event", "type", "FileCopied", "path", "/a")
	logger.Warn("file disappeared during iteration", "path", "/b")

	assert.NotContains(t, text.String(), "stow.event")
	assert.Contains(t, text.String(), "level=WARN")
	assert.Contains(t, text.String(), "path=/b")

	recs := decodeLines(t, file)
	require.Len(t, recs, 2)
	assert.Equal(t, "stow.event", recs[0]["msg"])
	assert.Equal(t, "/a", recs[0]["path"])
	assert.Equal(t, "WARN", recs[1]["level"])
}

func TestMultiHandler_Enabled(t *testing.T) {
	t.Parallel()

	m := ui.NewMultiHandler(
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	ctx := context.Background()
	assert.False(t, m.Enabled(ctx, slog.LevelInfo))
	assert.True(t, m.Enabled(ctx, slog.LevelWarn))
	assert.True(t, m.Enabled(ctx, slog.LevelError))

	assert.False(t, ui.NewMultiHandler().Enabled(ctx, slog.LevelError))
}

func TestMultiHandler_AttrsAndGroupsReachEveryHandler(t *testing.T) {
	t.Parallel()

	logger, text, file := stderrAndFile(slog.LevelInfo)
	logger.With("archive", "/backups").WithGroup("band").Info("backup complete", "id", "b0003")

	assert.Contains(t, text.String(), "archive=/backups")
	assert.Contains(t, text.String(), "band.id=b0003")

	recs := decodeLines(t, file)
	require.Len(t, recs, 1)
	assert.Equal(t, "/backups", recs[0]["archive"])
	band, ok := recs[0]["band"].(map[string]any)
	require.True(t, ok, "expected group 'band' in JSON output")
	assert.Equal(t, "b0003", band["id"])
}

func TestMultiHandler_HandleJoinsErrors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(ui.NewMultiHandler(failingHandler{}, slog.NewTextHandler(&buf, nil)))
	logger.Info("still written")
	assert.Contains(t, buf.String(), "still written")

	err := ui.NewMultiHandler(failingHandler{}, failingHandler{}).Handle(context.Background(),
		slog.NewRecord(time.Now(), slog.LevelInfo, "x", 0))
	assert.EqualError(t, err, "write failed\nwrite failed")
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("write failed")
}
