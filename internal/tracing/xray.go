// Package tracing provides AWS X-Ray distributed tracing for the
// completion pipeline.
package tracing

import (
	"context"
	"fmt"

	"github.com/aws/aws-xray-sdk-go/strategy/sampling"
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/aws/aws-xray-sdk-go/xraylog"
	"github.com/sirupsen/logrus"
)

// Config contains X-Ray configuration.
type Config struct {
	ServiceName  string
	Enabled      bool
	SamplingRate float64
	DaemonAddr   string
}

// Logger adapter for X-Ray SDK.
type xrayLoggerAdapter struct {
	logger *logrus.Logger
}

func (l *xrayLoggerAdapter) Log(level xraylog.LogLevel, msg fmt.Stringer) {
	switch level {
	case xraylog.LogLevelDebug:
		l.logger.Debug(msg.String())
	case xraylog.LogLevelInfo:
		l.logger.Info(msg.String())
	case xraylog.LogLevelWarn:
		l.logger.Warn(msg.String())
	case xraylog.LogLevelError:
		l.logger.Error(msg.String())
	}
}

var enabled bool

// Initialize initializes AWS X-Ray with the given configuration.
func Initialize(cfg Config, logger *logrus.Logger) error {
	if !cfg.Enabled {
		return nil
	}

	xray.SetLogger(&xrayLoggerAdapter{logger: logger})

	strategy, err := samplingStrategy(cfg.SamplingRate)
	if err != nil {
		return fmt.Errorf("failed to build sampling strategy: %w", err)
	}

	if err := xray.Configure(xray.Config{
		DaemonAddr:       cfg.DaemonAddr,
		SamplingStrategy: strategy,
	}); err != nil {
		return fmt.Errorf("failed to configure tracing: %w", err)
	}
	enabled = true

	logger.WithFields(logrus.Fields{
		"daemon_addr":   cfg.DaemonAddr,
		"sampling_rate": cfg.SamplingRate,
		"service_name":  cfg.ServiceName,
	}).Info("AWS X-Ray initialized")

	return nil
}

// samplingStrategy builds a localized strategy sampling the given
// fraction of signals, always keeping at least one trace per second.
func samplingStrategy(rate float64) (sampling.Strategy, error) {
	rules := fmt.Sprintf(`{"version": 2, "default": {"fixed_target": 1, "rate": %g}, "rules": []}`, rate)
	return sampling.NewLocalizedStrategyFromJSONBytes([]byte(rules))
}

// TraceSignal runs fn inside a segment covering one completion-signal
// pass. The backtest and job ids are annotated so traces can be joined
// with the engine's own.
func TraceSignal(ctx context.Context, backtestID, jobID string, fn func(ctx context.Context) error) error {
	if !enabled {
		return fn(ctx)
	}

	ctx, seg := xray.BeginSegment(ctx, "completion-signal")
	defer seg.Close(nil)

	seg.AddAnnotation("backtest_id", backtestID)
	seg.AddAnnotation("job_id", jobID)

	err := fn(ctx)
	if err != nil {
		seg.AddError(err)
	}
	return err
}

// StartSubsegment opens a subsegment for one pipeline phase. The
// returned close function records the phase's error on it.
func StartSubsegment(ctx context.Context, name string) (context.Context, func(err error)) {
	if !enabled {
		return ctx, func(error) {}
	}
	ctx, seg := xray.BeginSubsegment(ctx, name)
	return ctx, func(err error) {
		if seg != nil {
			seg.Close(err)
		}
	}
}

// AddMetadata adds metadata to the current segment.
func AddMetadata(ctx context.Context, key string, value interface{}) {
	if !enabled {
		return
	}
	if seg := xray.GetSegment(ctx); seg != nil {
		seg.AddMetadata(key, value)
	}
}
