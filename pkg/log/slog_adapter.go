package log

import (
	"context"
	"log/slog"
)

// SlogAdapter mirrors events into an slog.Logger at Debug level, errors at
// Warn level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter returns an adapter writing to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event as one structured record.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("conn_id", event.ConnectionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.URI != "" {
		attrs = append(attrs, slog.String("uri", event.URI))
	}
	if event.RemoteAddr != "" {
		attrs = append(attrs, slog.String("remote", event.RemoteAddr))
	}
	if event.DeviceID != "" {
		attrs = append(attrs, slog.String("device", event.DeviceID))
	}
	if event.ChannelID != "" {
		attrs = append(attrs, slog.String("channel", event.ChannelID))
	}

	level := slog.LevelDebug
	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("frame_size", event.Frame.Size),
			slog.Bool("truncated", event.Frame.Truncated),
		)
	case event.Message != nil:
		attrs = append(attrs,
			slog.String("msg_type", event.Message.Type.String()),
			slog.Uint64("msg_id", uint64(event.Message.MessageID)),
		)
		if event.Message.Op != "" {
			attrs = append(attrs, slog.String("op", event.Message.Op))
		}
		if event.Message.Status != "" {
			attrs = append(attrs, slog.String("status", event.Message.Status))
		}
		if event.Message.ProcessingTime != nil {
			attrs = append(attrs, slog.Duration("processing_time", *event.Message.ProcessingTime))
		}
	case event.Attr != nil:
		attrs = append(attrs,
			slog.String("attr_kind", event.Attr.Kind.String()),
			slog.String("attr", event.Attr.Name),
			slog.String("value", event.Attr.Value),
		)
	case event.Transfer != nil:
		attrs = append(attrs,
			slog.String("op", event.Transfer.Op.String()),
			slog.Int("samples", event.Transfer.Samples),
			slog.Int("bytes", event.Transfer.Bytes),
		)
		if event.Transfer.Cyclic {
			attrs = append(attrs, slog.Bool("cyclic", true))
		}
		if event.Transfer.Duration > 0 {
			attrs = append(attrs, slog.Duration("duration", event.Transfer.Duration))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Refs > 0 {
			attrs = append(attrs, slog.Int("refs", event.StateChange.Refs))
		}
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
		if event.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", *event.Error.Code))
		}
	}

	a.logger.LogAttrs(context.Background(), level, "iio", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
