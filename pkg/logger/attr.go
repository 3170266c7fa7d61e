package logger

import (
	"log/slog"
)

// Error records err under "error". A nil error yields an empty Attr, which
// slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Serial records a license serial number. Empty serials are dropped.
func Serial(serial string) slog.Attr {
	if serial == "" {
		return slog.Attr{}
	}
	return slog.String("serial", serial)
}

// Amount records a minor-unit amount.
func Amount(amount int64) slog.Attr {
	return slog.Int64("amount", amount)
}

func Features(features []string) slog.Attr {
	return slog.Any("features", features)
}

// RequestID records the request id. Empty ids are dropped.
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

func EventType(eventType string) slog.Attr {
	return slog.String("event_type", eventType)
}

// MessageID records a provider or webhook event id. Empty ids are dropped.
func MessageID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("message_id", id)
}

func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

// Component names the subsystem emitting the record.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
