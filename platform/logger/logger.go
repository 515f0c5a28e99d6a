// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// LeadIDKey is the context key for the lead being processed
	LeadIDKey contextKey = "lead_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports request_id and lead_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = newLogger.WithRequestID(requestID)
	}

	if leadID, ok := ctx.Value(LeadIDKey).(string); ok && leadID != "" {
		newLogger = &Logger{
			Logger: newLogger.With(slog.String("lead_id", leadID)),
		}
	}

	return newLogger
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// InboundMessage logs a received chat message after sender identification.
func (l *Logger) InboundMessage(leadID, senderKind, messageKind string) {
	l.Info("inbound_message",
		slog.String("lead_id", leadID),
		slog.String("sender_kind", senderKind),
		slog.String("message_kind", messageKind),
	)
}

// IntentClassified logs the outcome of intent classification.
func (l *Logger) IntentClassified(leadID, kind, layer string, confidence float64) {
	l.Info("intent_classified",
		slog.String("lead_id", leadID),
		slog.String("intent", kind),
		slog.String("layer", layer),
		slog.Float64("confidence", confidence),
	)
}

// StateTransition logs a conversation state change.
func (l *Logger) StateTransition(leadID, from, to, intent string) {
	l.Info("state_transition",
		slog.String("lead_id", leadID),
		slog.String("from", from),
		slog.String("to", to),
		slog.String("intent", intent),
	)
}

// DispatchTick logs the outcome of one drip dispatch pass.
func (l *Logger) DispatchTick(claimed, sent, failed int) {
	l.Info("drip_dispatch_tick",
		slog.Int("claimed", claimed),
		slog.Int("sent", sent),
		slog.Int("failed", failed),
	)
}

// DeliveryFailed logs a gateway delivery failure.
func (l *Logger) DeliveryFailed(scheduledMessageID string, attempts int, err error) {
	l.Warn("delivery_failed",
		slog.String("scheduled_message_id", scheduledMessageID),
		slog.Int("attempts", attempts),
		slog.String("error", err.Error()),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
