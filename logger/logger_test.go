package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogrusLoggerFields(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	log := NewLogrus(base)

	log.Warn("dependency missing", "dependency", "sudo", "manager", "apt")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "dependency missing", entry.Message)
	assert.Equal(t, "sudo", entry.Data["dependency"])
	assert.Equal(t, "apt", entry.Data["manager"])
}

func TestLogrusLoggerDanglingValue(t *testing.T) {
	base, hook := test.NewNullLogger()
	log := NewLogrus(base)

	log.Error("probe failed", "dependency")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "dependency", entry.Data["!BADKEY"])
}

func TestLogrusLoggerLevels(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.InfoLevel)
	log := NewLogrus(base)

	log.Debug("hidden")
	log.Info("shown")

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "shown", hook.Entries[0].Message)
}
