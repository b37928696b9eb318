package core

import (
	"context"
	"errors"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"go.uber.org/zap"

	kvlog "github.com/ebogdum/kvtable/core/log"
	"github.com/ebogdum/kvtable/kvstore"
	"github.com/ebogdum/kvtable/metrics"
)

// Convert materializes one bucket as a (bucket, key, value) record. The
// caller releases the record. Failures are *kvstore.ConversionError values.
func (e *Engine) Convert(ctx context.Context, bucket string) (arrow.Record, error) {
	start := time.Now()
	backend := e.BackendType()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	e.logger.Info("Converting bucket", kvlog.Bucket(bucket))

	rec, err := kvstore.BucketToRecord[string, string, string](ctx, e.storage, bucket)
	metrics.ConversionDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ConversionsTotal.WithLabelValues(backend, metrics.StatusFailure).Inc()
		e.countError(err)
		e.logger.Error("Bucket conversion failed",
			kvlog.Bucket(bucket),
			zap.String("error_type", ErrorType(err)),
			zap.Error(err))
		return nil, err
	}

	metrics.ConversionsTotal.WithLabelValues(backend, metrics.StatusSuccess).Inc()
	metrics.RowsTotal.WithLabelValues(backend).Add(float64(rec.NumRows()))

	e.logger.Info("Bucket converted",
		kvlog.Bucket(bucket),
		zap.Int64("rows", rec.NumRows()),
		zap.Duration("duration", time.Since(start)))
	return rec, nil
}

// ConvertFirst converts the first bucket the backend enumerates
func (e *Engine) ConvertFirst(ctx context.Context) (arrow.Record, error) {
	bucket, err := e.FirstBucket(ctx)
	if err != nil {
		return nil, err
	}
	return e.Convert(ctx, bucket)
}

// ErrorType classifies err for metrics and logs
func ErrorType(err error) string {
	switch {
	case errors.Is(err, kvstore.ErrNotFound):
		return "not_found"
	case errors.Is(err, kvstore.ErrForbidden):
		return "forbidden"
	case errors.Is(err, kvstore.ErrInvalidName):
		return "invalid_name"
	case errors.Is(err, kvstore.ErrInvalidValue):
		return "invalid_value"
	case errors.Is(err, kvstore.ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, kvstore.ErrLengthMismatch):
		return "length_mismatch"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}

func (e *Engine) countError(err error) {
	metrics.ErrorsTotal.WithLabelValues("engine", ErrorType(err)).Inc()
}
