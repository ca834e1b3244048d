package logging

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
	"go.uber.org/zap"
)

type fieldReader func(e *capitan.Event) (zap.Field, bool)

type eventKey[T any] interface {
	From(e *capitan.Event) (T, bool)
	Name() string
}

func read[T any](k eventKey[T], conv func(string, T) zap.Field) fieldReader {
	return func(e *capitan.Event) (zap.Field, bool) {
		v, ok := k.From(e)
		if !ok {
			return zap.Skip(), false
		}
		return conv(k.Name(), v), true
	}
}

var readers = []fieldReader{
	read[string](FieldAgentID, zap.String),
	read[string](FieldFrameID, zap.String),
	read[string](FieldTruthID, zap.String),
	read[string](FieldHypID, zap.String),
	read[string](FieldGoalID, zap.String),
	read[string](FieldConcept, zap.String),
	read[string](FieldIntent, zap.String),
	read[string](FieldPeer, zap.String),
	read[string](FieldEnvelope, zap.String),
	read[string](FieldInvariant, zap.String),
	read[string](FieldDetail, zap.String),
	read[int](FieldCycle, zap.Int),
	read[int](FieldLinks, zap.Int),
	read[int](FieldCount, zap.Int),
	read[int](FieldNew, zap.Int),
	read[int](FieldMerged, zap.Int),
	read[int](FieldFocusLen, zap.Int),
	read[float32](FieldSalience, zap.Float32),
	read[float32](FieldConfidence, zap.Float32),
	read[float32](FieldPriority, zap.Float32),
	read[time.Duration](FieldDuration, zap.Duration),
	read[error](FieldError, zap.NamedError),
}

// Fields converts the known keys present on e into zap fields.
func Fields(e *capitan.Event) []zap.Field {
	var out []zap.Field
	for _, r := range readers {
		if f, ok := r(e); ok {
			out = append(out, f)
		}
	}
	return out
}

// Bridge forwards every engine signal to logger. Error-severity events are
// logged at error level, the rest at debug. The returned func detaches the
// hooks.
func Bridge(logger *zap.Logger) func() {
	listeners := make([]*capitan.Listener, 0, len(catalog))
	for _, entry := range catalog {
		name := entry.name
		l := capitan.Hook(entry.signal, func(_ context.Context, e *capitan.Event) {
			fields := Fields(e)
			if e.Severity() == capitan.SeverityError {
				logger.Error(name, fields...)
				return
			}
			logger.Debug(name, fields...)
		})
		listeners = append(listeners, l)
	}
	return func() {
		for _, l := range listeners {
			l.Close()
		}
	}
}
