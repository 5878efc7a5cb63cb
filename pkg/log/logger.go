package log

// Logger receives operation events. Pass nil or NoopLogger to disable.
type Logger interface {
	// Log records an event. Implementations must be safe for concurrent use
	// and should not block; Log is called on the hot path of every transfer.
	Log(event Event)
}

// NoopLogger discards every event. The zero value is ready to use.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// OrNoop returns l, or NoopLogger when l is nil.
func OrNoop(l Logger) Logger {
	if l == nil {
		return NoopLogger{}
	}
	return l
}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}
