package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_ConsoleThreshold(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger("world", &buf)

	l.Debug("скрыто %d", 1)
	l.Info("чанк %d загружен", 7)

	out := buf.String()
	assert.NotContains(t, out, "скрыто")
	assert.Contains(t, out, "чанк 7 загружен")
	assert.Contains(t, out, "component=world")

	buf.Reset()
	l.SetLevels(TRACE, ERROR)
	l.Trace("трасса")
	assert.Contains(t, buf.String(), "трасса")
}

func TestDefaultLogger_Replace(t *testing.T) {
	var buf bytes.Buffer
	SetDefaultLogger(NewConsoleLogger("test", &buf))
	defer CloseDefaultLogger()

	Warn("предупреждение %s", "x")
	Error("ошибка")
	assert.Equal(t, 2, strings.Count(buf.String(), "component=test"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, TRACE, ParseLevel("trace"))
	assert.Equal(t, WARN, ParseLevel(" Warning "))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel("что-то"))
	assert.Equal(t, "DEBUG", DEBUG.String())
}

func TestLoggerManager_Register(t *testing.T) {
	lm := NewLoggerManager()
	var buf bytes.Buffer
	lm.Register(NewConsoleLogger("b", &buf))
	lm.Register(NewConsoleLogger("a", &buf))

	assert.Equal(t, []string{"a", "b"}, lm.ListComponents())

	got, err := lm.GetLogger("a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.Component())

	require.NoError(t, lm.SetLogLevel("a", ERROR, ERROR))
	c, f := got.Levels()
	assert.Equal(t, ERROR, c)
	assert.Equal(t, ERROR, f)

	assert.Error(t, lm.SetLogLevel("нет", INFO, INFO))
	require.NoError(t, lm.CloseAll())
	assert.Empty(t, lm.ListComponents())
}
