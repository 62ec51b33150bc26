package log

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

func TestLoggerInterface(t *testing.T) {
	testLogger, buffer := NewTestLogger(LevelDebug)

	testLogger.Debug("debug message", "key1", "value1", "number", 42)
	testLogger.Info("info message", OperationKey, OperationTrain)
	testLogger.Warn("warning message", "warning_code", "TEST_WARNING")
	testLogger.Error("error message", errors.New("test error"), ModelNameKey, "gbm")

	require.NotEmpty(t, buffer.String())
	assert.True(t, testLogger.ContainsMessage("debug message"))
	assert.True(t, testLogger.ContainsMessage("info message"))
	assert.True(t, testLogger.ContainsMessage("warning message"))
	assert.True(t, testLogger.ContainsMessage("error message"))

	assert.True(t, testLogger.ContainsField("key1", "value1"))
	assert.True(t, testLogger.ContainsField("number", 42.0))
	assert.True(t, testLogger.ContainsField(OperationKey, OperationTrain))
	assert.True(t, testLogger.ContainsField(ErrAttrKey, "test error"))
	assert.True(t, testLogger.ContainsField(ModelNameKey, "gbm"))
}

func TestLoggerWith(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)

	scoped := testLogger.With(ModelNameKey, "svmRadial", RepeatKey, 2)
	scoped.Info("fold done", FoldKey, 4)

	entries, err := testLogger.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "svmRadial", entries[0][ModelNameKey])
	assert.Equal(t, 2.0, entries[0][RepeatKey])
	assert.Equal(t, 4.0, entries[0][FoldKey])
}

func TestLevelFiltering(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelWarn)

	testLogger.Debug("hidden debug")
	testLogger.Info("hidden info")
	testLogger.Warn("shown warn")

	assert.False(t, testLogger.ContainsMessage("hidden"))
	assert.True(t, testLogger.ContainsMessage("shown warn"))
	assert.False(t, testLogger.Enabled(context.Background(), LevelInfo))
	assert.True(t, testLogger.Enabled(context.Background(), LevelError))
}

func TestToLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "debug", want: LevelDebug},
		{in: "INFO", want: LevelInfo},
		{in: "warning", want: LevelWarn},
		{in: "error", want: LevelError},
		{in: "", want: LevelInfo},
		{in: "verbose", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ToLogLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupLoggerRoutesWarnings(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, false)
	defer SetOutput(&bytes.Buffer{}, false)
	defer errors.SetZerologWarnFunc(nil)

	require.NoError(t, SetupLogger("info"))
	errors.Warn(errors.NewConvergenceWarning("SMO", 10, "iteration cap reached"))

	out := buf.String()
	assert.True(t, strings.Contains(out, "SMO failed to converge"), out)
	assert.True(t, strings.Contains(out, `"type":"ConvergenceWarning"`), out)
	assert.True(t, strings.Contains(out, `"`+ComponentKey+`":"warnings"`), out)
}

func TestErrorStacktrace(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelError)
	testLogger.Error("final fit failed", errors.NewValueError("Fit", "bad input"))

	entries, err := testLogger.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0][ErrAttrKey], "bad input")
}
