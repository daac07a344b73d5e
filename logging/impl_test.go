package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestWriterAppenderOutput(t *testing.T) {
	notStdout := &bytes.Buffer{}
	logger := NewBlankLogger("impl")
	logger.AddAppender(NewWriterAppender(notStdout))

	logger.Info("triangulated ", 3, " frames")
	output := notStdout.String()
	test.That(t, output, test.ShouldContainSubstring, "triangulated 3 frames")
	test.That(t, output, test.ShouldContainSubstring, "impl")
	test.That(t, output, test.ShouldContainSubstring, "logging/impl_test.go")

	notStdout.Reset()
	logger.Debugw("frame skipped", "index", 4, "camera", "left")
	output = notStdout.String()
	test.That(t, output, test.ShouldContainSubstring, "frame skipped")
	test.That(t, output, test.ShouldContainSubstring, `"index": 4`)
	test.That(t, output, test.ShouldContainSubstring, `"camera": "left"`)
}

func TestLevelFiltering(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	logger.SetLevel(WARN)

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warnf("kept %d", 1)
	logger.Error("kept 2")

	entries := observed.All()
	test.That(t, entries, test.ShouldHaveLength, 2)
	test.That(t, entries[0].Message, test.ShouldEqual, "kept 1")
	test.That(t, entries[0].Level, test.ShouldEqual, zapcore.WarnLevel)
	test.That(t, entries[1].Level, test.ShouldEqual, zapcore.ErrorLevel)
}

func TestSublogger(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	sub := logger.Sublogger("pipeline").Sublogger("finder")
	sub.Infow("candidates", "count", 2)

	entries := observed.FilterMessage("candidates").All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].LoggerName, test.ShouldEqual, "pipeline.finder")
	test.That(t, entries[0].ContextMap()["count"], test.ShouldEqual, int64(2))
}

func TestUnpairedKey(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	logger.Infow("odd", "dangling")
	entries := observed.All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, strings.Contains(entries[0].ContextMap()["dangling"].(string), "unpaired"), test.ShouldBeTrue)
}

func TestLevelFromString(t *testing.T) {
	for inp, expected := range map[string]Level{"debug": DEBUG, "INFO": INFO, "warn": WARN, "Error": ERROR} {
		level, err := LevelFromString(inp)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, expected)
	}
	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
}
