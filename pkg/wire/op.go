package wire

// Op is a bridge operation. Each op mirrors one backend.Conn or
// backend.BufferHandle method.
type Op uint8

const (
	OpDescribe    Op = 1
	OpReadAttr    Op = 2
	OpWriteAttr   Op = 3
	OpEnable      Op = 4
	OpEnabled     Op = 5
	OpSetTrigger  Op = 6
	OpGetTrigger  Op = 7
	OpKbufCount   Op = 8
	OpTimeout     Op = 9
	OpRegRead     Op = 10
	OpRegWrite    Op = 11
	OpOpenBuffer  Op = 12
	OpRefill      Op = 13
	OpPush        Op = 14
	OpCloseBuffer Op = 15
	OpCancel      Op = 16
	OpBlocking    Op = 17
	OpVersion     Op = 18
	OpClose       Op = 19
)

var opNames = map[Op]string{
	OpDescribe:    "describe",
	OpReadAttr:    "read-attr",
	OpWriteAttr:   "write-attr",
	OpEnable:      "enable",
	OpEnabled:     "enabled",
	OpSetTrigger:  "set-trigger",
	OpGetTrigger:  "get-trigger",
	OpKbufCount:   "kbuf-count",
	OpTimeout:     "timeout",
	OpRegRead:     "reg-read",
	OpRegWrite:    "reg-write",
	OpOpenBuffer:  "open-buffer",
	OpRefill:      "refill",
	OpPush:        "push",
	OpCloseBuffer: "close-buffer",
	OpCancel:      "cancel",
	OpBlocking:    "blocking",
	OpVersion:     "version",
	OpClose:       "close",
}

// String returns the op name.
func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return "unknown"
}

// IsValid returns true if o is a known op.
func (o Op) IsValid() bool {
	_, ok := opNames[o]
	return ok
}

// IsBufferOp reports whether o addresses an open buffer.
func (o Op) IsBufferOp() bool {
	switch o {
	case OpRefill, OpPush, OpCloseBuffer, OpCancel, OpBlocking:
		return true
	}
	return false
}
