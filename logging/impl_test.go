package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.viam.com/test"
)

func TestConsoleAppenderFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewBlankLogger("nav350")
	logger.AddAppender(NewWriterAppender(&buf))

	logger.Infow("frame dropped", "reason", "checksum")

	line := strings.TrimSuffix(buf.String(), "\n")
	parts := strings.Split(line, "\t")
	test.That(t, len(parts), test.ShouldBeGreaterThanOrEqualTo, 5)
	test.That(t, parts[1], test.ShouldEqual, "INFO")
	test.That(t, parts[2], test.ShouldEqual, "nav350")
	test.That(t, parts[3], test.ShouldStartWith, "logging/impl_test.go:")
	test.That(t, parts[4], test.ShouldEqual, "frame dropped")
	test.That(t, line, test.ShouldContainSubstring, `"reason": "checksum"`)
}

func TestLevels(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	logger.SetLevel(WARN)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warnf("shown %d", 1)
	logger.Error("shown")

	test.That(t, observed.Len(), test.ShouldEqual, 2)
	test.That(t, observed.All()[0].Message, test.ShouldEqual, "shown 1")

	level, err := LevelFromString("DEBUG")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, DEBUG)
	_, err = LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSublogger(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	sub := logger.Sublogger("monitor").Sublogger("reader")
	sub.Infow("started", "poll", "100ms")

	entries := observed.FilterLoggerName("monitor.reader").All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].ContextMap()["poll"], test.ShouldEqual, "100ms")

	// Desugared loggers share the appenders.
	logger.Desugar().Info("via zap")
	test.That(t, observed.FilterMessage("via zap").Len(), test.ShouldEqual, 1)
}
