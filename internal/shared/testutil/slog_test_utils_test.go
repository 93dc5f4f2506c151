package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		require.Equal(t, 2, handler.Count())
		assert.True(t, handler.ContainsMessage("test message"))
		assert.True(t, handler.ContainsAttr("key", "value"))
		assert.True(t, handler.ContainsAttr("code", int64(500)))
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")
		logger.Error("error msg")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
		AssertLogContains(t, handler, slog.LevelWarn, "warn")
	})

	t.Run("derived loggers keep attrs and share records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)
		component := logger.With(slog.String("component", "dataset"))

		component.Info("loaded")
		logger.WithGroup("req").Info("served", slog.String("path", "/paps"))

		records := handler.GetRecords()
		require.Len(t, records, 2)
		assert.Equal(t, "dataset", records[0].Attrs["component"])
		assert.Equal(t, "/paps", records[1].Attrs["req.path"])
	})

	t.Run("clear", func(t *testing.T) {
		logger, handler := NewTestLogger(t)
		logger.Info("one")
		handler.Clear()
		assert.Equal(t, 0, handler.Count())
		AssertNoErrors(t, handler)
	})
}
