package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type requestIDKey struct{}

// WithRequestID stores the request ID on the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request ID or an empty string
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return requestID
	}
	return ""
}

// LoggerWithContext adds request and trace IDs found on ctx to the logger
func LoggerWithContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	var fields []zap.Field
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// HTTPRequestLogger writes one access log line, escalating by status code
func HTTPRequestLogger(ctx context.Context, logger *zap.Logger, method, path, clientIP string, statusCode int, duration time.Duration, size int) {
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("path", path),
		zap.String("client_ip", clientIP),
		zap.Int("status", statusCode),
		zap.Duration("duration", duration),
		zap.Int("size", size),
	}

	log := LoggerWithContext(ctx, logger)
	switch {
	case statusCode >= 500:
		log.Error("HTTP request", fields...)
	case statusCode >= 400:
		log.Warn("HTTP request", fields...)
	default:
		log.Info("HTTP request", fields...)
	}
}
