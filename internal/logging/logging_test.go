package logging_test

import (
	"testing"

	"foozadmin/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNew_ParsesLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, logging.New("debug").GetLevel())
	assert.Equal(t, logrus.WarnLevel, logging.New("warn").GetLevel())
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	assert.Equal(t, logrus.InfoLevel, logging.New("chatty").GetLevel())
}

func TestComponent_AddsField(t *testing.T) {
	entry := logging.Component(logging.New("info"), "session")
	assert.Equal(t, "session", entry.Data["component"])
}
