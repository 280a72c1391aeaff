package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-xray-sdk-go/xraylog"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stringMsg string

func (s stringMsg) String() string { return string(s) }

func TestTraceSignalPassthroughWhenDisabled(t *testing.T) {
	enabled = false

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "marker")

	var seen context.Context
	wantErr := errors.New("handler failed")
	err := TraceSignal(ctx, "bt-1", "job-1", func(ctx context.Context) error {
		seen = ctx
		return wantErr
	})

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, "marker", seen.Value(ctxKey{}))
}

func TestStartSubsegmentNoopWhenDisabled(t *testing.T) {
	enabled = false

	ctx := context.Background()
	subCtx, closeSub := StartSubsegment(ctx, "persist-aggregate")

	assert.Equal(t, ctx, subCtx)
	// Must be safe to call with and without an error.
	closeSub(nil)
	closeSub(errors.New("phase failed"))
}

func TestSamplingStrategyFromRate(t *testing.T) {
	for _, rate := range []float64{0, 0.05, 0.5, 1} {
		strategy, err := samplingStrategy(rate)
		require.NoError(t, err, "rate %g", rate)
		assert.NotNil(t, strategy)
	}
}

func TestLoggerAdapterLevels(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	adapter := &xrayLoggerAdapter{logger: log}

	tests := []struct {
		level xraylog.LogLevel
		want  logrus.Level
	}{
		{xraylog.LogLevelDebug, logrus.DebugLevel},
		{xraylog.LogLevelInfo, logrus.InfoLevel},
		{xraylog.LogLevelWarn, logrus.WarnLevel},
		{xraylog.LogLevelError, logrus.ErrorLevel},
	}

	for _, tt := range tests {
		hook.Reset()
		adapter.Log(tt.level, stringMsg("daemon unreachable"))
		require.Len(t, hook.Entries, 1)
		assert.Equal(t, tt.want, hook.LastEntry().Level)
		assert.Equal(t, "daemon unreachable", hook.LastEntry().Message)
	}
}
