package log

import (
	"time"
)

// Event is one recorded operation. CBOR encoding uses integer keys.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the InnerContext or bridge session (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction is In for reads and refills, Out for writes and pushes.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event.
	Category Category `cbor:"5,keyasint"`

	// URI is the backend URI of the context.
	URI string `cbor:"6,keyasint,omitempty"`

	// RemoteAddr is the peer address for bridge events.
	RemoteAddr string `cbor:"7,keyasint,omitempty"`

	// DeviceID is the IIO device id, when the event concerns one.
	DeviceID string `cbor:"8,keyasint,omitempty"`

	// ChannelID is the channel id, when the event concerns one.
	ChannelID string `cbor:"9,keyasint,omitempty"`

	// Exactly one payload is set.
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"`
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"`
	Attr        *AttrEvent        `cbor:"12,keyasint,omitempty"`
	Transfer    *TransferEvent    `cbor:"13,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"14,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"15,keyasint,omitempty"`
}

// Direction of data flow relative to the caller.
type Direction uint8

const (
	// DirectionIn covers reads, refills and received frames.
	DirectionIn Direction = 0
	// DirectionOut covers writes, pushes and sent frames.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which part of the stack captured the event.
type Layer uint8

const (
	// LayerTransport is the bridge framing layer.
	LayerTransport Layer = 0
	// LayerWire is the bridge request/response layer.
	LayerWire Layer = 1
	// LayerBackend is a backend implementation.
	LayerBackend Layer = 2
	// LayerCore is the context/device/buffer API.
	LayerCore Layer = 3
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerBackend:
		return "BACKEND"
	case LayerCore:
		return "CORE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage is a bridge frame or request/response.
	CategoryMessage Category = 0
	// CategoryAttribute is an attribute read or write.
	CategoryAttribute Category = 1
	// CategoryTransfer is a buffer operation.
	CategoryTransfer Category = 2
	// CategoryState is a lifecycle change.
	CategoryState Category = 3
	// CategoryError is a failure at any layer.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryAttribute:
		return "ATTRIBUTE"
	case CategoryTransfer:
		return "TRANSFER"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures a raw bridge frame.
type FrameEvent struct {
	// Size is the frame size in bytes including the length prefix.
	Size int `cbor:"1,keyasint"`

	// Data is the frame payload, possibly truncated.
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated reports that Data was cut short.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MessageType distinguishes bridge requests from responses.
type MessageType uint8

const (
	// MessageTypeRequest is a client request.
	MessageTypeRequest MessageType = 0
	// MessageTypeResponse is a server response.
	MessageTypeResponse MessageType = 1
)

// String returns the message type name.
func (m MessageType) String() string {
	switch m {
	case MessageTypeRequest:
		return "REQUEST"
	case MessageTypeResponse:
		return "RESPONSE"
	default:
		return "UNKNOWN"
	}
}

// MessageEvent captures a decoded bridge message.
type MessageEvent struct {
	Type      MessageType `cbor:"1,keyasint"`
	MessageID uint32      `cbor:"2,keyasint"`

	// Op is the request operation name.
	Op string `cbor:"3,keyasint,omitempty"`

	// Status is the response status name.
	Status string `cbor:"4,keyasint,omitempty"`

	// ProcessingTime is set on responses.
	ProcessingTime *time.Duration `cbor:"5,keyasint,omitempty"`
}

// AttrKind is the kind of entity owning an attribute.
type AttrKind uint8

const (
	AttrKindContext AttrKind = 0
	AttrKindDevice  AttrKind = 1
	AttrKindDebug   AttrKind = 2
	AttrKindBuffer  AttrKind = 3
	AttrKindChannel AttrKind = 4
)

// String returns the attribute kind name.
func (k AttrKind) String() string {
	switch k {
	case AttrKindContext:
		return "CONTEXT"
	case AttrKindDevice:
		return "DEVICE"
	case AttrKindDebug:
		return "DEBUG"
	case AttrKindBuffer:
		return "BUFFER"
	case AttrKindChannel:
		return "CHANNEL"
	default:
		return "UNKNOWN"
	}
}

// AttrEvent captures an attribute access.
type AttrEvent struct {
	Kind  AttrKind `cbor:"1,keyasint"`
	Name  string   `cbor:"2,keyasint"`
	Value string   `cbor:"3,keyasint,omitempty"`
}

// TransferOp is a buffer operation.
type TransferOp uint8

const (
	TransferCreate TransferOp = 0
	TransferRefill TransferOp = 1
	TransferPush   TransferOp = 2
	TransferCancel TransferOp = 3
	TransferClose  TransferOp = 4
)

// String returns the transfer operation name.
func (o TransferOp) String() string {
	switch o {
	case TransferCreate:
		return "CREATE"
	case TransferRefill:
		return "REFILL"
	case TransferPush:
		return "PUSH"
	case TransferCancel:
		return "CANCEL"
	case TransferClose:
		return "CLOSE"
	default:
		return "UNKNOWN"
	}
}

// TransferEvent captures a buffer operation.
type TransferEvent struct {
	Op       TransferOp    `cbor:"1,keyasint"`
	Samples  int           `cbor:"2,keyasint,omitempty"`
	Bytes    int           `cbor:"3,keyasint,omitempty"`
	Cyclic   bool          `cbor:"4,keyasint,omitempty"`
	Duration time.Duration `cbor:"5,keyasint,omitempty"`
}

// StateEntity indicates what changed state.
type StateEntity uint8

const (
	// StateEntityContext is an InnerContext or one of its shares.
	StateEntityContext StateEntity = 0
	// StateEntityBuffer is a sample buffer.
	StateEntityBuffer StateEntity = 1
	// StateEntityConnection is a bridge connection.
	StateEntityConnection StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityContext:
		return "CONTEXT"
	case StateEntityBuffer:
		return "BUFFER"
	case StateEntityConnection:
		return "CONNECTION"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures a lifecycle change.
type StateChangeEvent struct {
	Entity   StateEntity `cbor:"1,keyasint"`
	OldState string      `cbor:"2,keyasint,omitempty"`
	NewState string      `cbor:"3,keyasint"`

	// Refs is the reference count after the change, for contexts.
	Refs int `cbor:"4,keyasint,omitempty"`

	Reason string `cbor:"5,keyasint,omitempty"`
}

// ErrorEventData captures a failure.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error text.
	Message string `cbor:"2,keyasint"`

	// Code is the errno-style code, if any.
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context names the operation being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
