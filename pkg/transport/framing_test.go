package transport

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/industrial-io/iio-go/pkg/log"
)

func TestFrameWriterReader(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"single byte", []byte{0x42}},
		{"small message", []byte("hello")},
		{"sample block", bytes.Repeat([]byte{0x01, 0x00}, 4096)},
		{"max size message", bytes.Repeat([]byte("y"), DefaultMaxMessageSize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			require.NoError(t, NewFrameWriter(buf).WriteFrame(tt.payload))
			assert.Equal(t, FrameSize(len(tt.payload)), buf.Len())
			assert.Equal(t, uint32(len(tt.payload)), binary.BigEndian.Uint32(buf.Bytes()))

			got, err := NewFrameReader(buf).ReadFrame()
			require.NoError(t, err)
			assert.True(t, bytes.Equal(tt.payload, got))
		})
	}
}

func frameWithLength(length uint32, payload []byte) *bytes.Buffer {
	buf := new(bytes.Buffer)
	var prefix [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(prefix[:], length)
	buf.Write(prefix[:])
	buf.Write(payload)
	return buf
}

func TestFrameErrors(t *testing.T) {
	t.Run("write empty", func(t *testing.T) {
		w := NewFrameWriter(new(bytes.Buffer))
		assert.ErrorIs(t, w.WriteFrame(nil), ErrMessageEmpty)
		assert.ErrorIs(t, w.WriteFrame([]byte{}), ErrMessageEmpty)
	})

	t.Run("write too large", func(t *testing.T) {
		w := NewFrameWriterWithMaxSize(new(bytes.Buffer), 100)
		assert.ErrorIs(t, w.WriteFrame(make([]byte, 101)), ErrMessageTooLarge)
	})

	t.Run("read too large", func(t *testing.T) {
		r := NewFrameReaderWithMaxSize(frameWithLength(1000, make([]byte, 1000)), 100)
		_, err := r.ReadFrame()
		assert.ErrorIs(t, err, ErrMessageTooLarge)
	})

	t.Run("read zero length", func(t *testing.T) {
		_, err := NewFrameReader(frameWithLength(0, nil)).ReadFrame()
		assert.ErrorIs(t, err, ErrMessageEmpty)
	})

	t.Run("truncated prefix", func(t *testing.T) {
		_, err := NewFrameReader(bytes.NewReader([]byte{0x00, 0x01})).ReadFrame()
		assert.ErrorIs(t, err, ErrFrameTruncated)
	})

	t.Run("truncated payload", func(t *testing.T) {
		_, err := NewFrameReader(frameWithLength(100, make([]byte, 50))).ReadFrame()
		assert.ErrorIs(t, err, ErrFrameTruncated)
	})

	t.Run("clean eof", func(t *testing.T) {
		_, err := NewFrameReader(new(bytes.Buffer)).ReadFrame()
		assert.Equal(t, io.EOF, err)
	})
}

func TestSetMaxMessageSize(t *testing.T) {
	buf := frameWithLength(10, make([]byte, 10))
	r := NewFrameReader(buf)
	r.SetMaxMessageSize(5)
	_, err := r.ReadFrame()
	assert.ErrorIs(t, err, ErrMessageTooLarge)
}

func TestConcurrentWritersDoNotInterleave(t *testing.T) {
	buf := new(bytes.Buffer)
	w := NewFrameWriter(buf)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				assert.NoError(t, w.WriteFrame(bytes.Repeat([]byte{byte(i + 1)}, 100+i)))
			}
		}()
	}
	wg.Wait()

	r := NewFrameReader(buf)
	for range 8 * 50 {
		frame, err := r.ReadFrame()
		require.NoError(t, err)
		want := int(frame[0]) - 1
		assert.Len(t, frame, 100+want)
		assert.Equal(t, bytes.Repeat(frame[:1], len(frame)), frame)
	}
}

// capturingLogger captures log events for testing.
type capturingLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (l *capturingLogger) Log(event log.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *capturingLogger) Events() []log.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]log.Event(nil), l.events...)
}

func TestFramerLogsFrames(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := &capturingLogger{}
	f := NewFramer(buf)
	f.SetLogger(logger, "conn-1")

	require.NoError(t, f.WriteFrame([]byte("hello")))
	_, err := f.ReadFrame()
	require.NoError(t, err)

	events := logger.Events()
	require.Len(t, events, 2)
	assert.Equal(t, log.DirectionOut, events[0].Direction)
	assert.Equal(t, log.DirectionIn, events[1].Direction)
	for _, e := range events {
		assert.Equal(t, "conn-1", e.ConnectionID)
		assert.Equal(t, log.LayerTransport, e.Layer)
		assert.Equal(t, log.CategoryMessage, e.Category)
		require.NotNil(t, e.Frame)
		assert.Equal(t, FrameSize(5), e.Frame.Size)
		assert.Equal(t, []byte("hello"), e.Frame.Data)
	}
}

func TestFramerLogsTruncatedData(t *testing.T) {
	logger := &capturingLogger{}
	w := NewFrameWriter(new(bytes.Buffer))
	w.SetLogger(logger, "conn-trunc")

	payload := bytes.Repeat([]byte("x"), 5000)
	require.NoError(t, w.WriteFrame(payload))

	events := logger.Events()
	require.Len(t, events, 1)
	assert.Equal(t, FrameSize(len(payload)), events[0].Frame.Size)
	assert.Len(t, events[0].Frame.Data, MaxLogFrameDataSize)
	assert.True(t, events[0].Frame.Truncated)
}

func TestFramerNilLogger(t *testing.T) {
	buf := new(bytes.Buffer)
	f := NewFramer(buf)
	f.SetLogger(nil, "conn")
	require.NoError(t, f.WriteFrame([]byte("x")))
	_, err := f.ReadFrame()
	require.NoError(t, err)
}

func BenchmarkFrameWrite(b *testing.B) {
	buf := new(bytes.Buffer)
	writer := NewFrameWriter(buf)
	payload := bytes.Repeat([]byte("x"), 4096)

	for b.Loop() {
		buf.Reset()
		writer.WriteFrame(payload)
	}
}
