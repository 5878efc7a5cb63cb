package iio

import (
	"time"

	"github.com/industrial-io/iio-go/pkg/backend"
	"github.com/industrial-io/iio-go/pkg/log"
)

func (c *InnerContext) event() log.Event {
	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Layer:        log.LayerCore,
		URI:          c.uri,
	}
}

func (c *InnerContext) emitState(entity log.StateEntity, from, to string, refs int, reason string) {
	ev := c.event()
	ev.Category = log.CategoryState
	ev.StateChange = &log.StateChangeEvent{
		Entity:   entity,
		OldState: from,
		NewState: to,
		Refs:     refs,
		Reason:   reason,
	}
	c.events.Log(ev)
}

func (c *InnerContext) emitAttr(t backend.Target, name, value string, dir log.Direction) {
	ev := c.event()
	ev.Category = log.CategoryAttribute
	ev.Direction = dir
	ev.DeviceID = t.Device
	ev.ChannelID = t.Channel
	ev.Attr = &log.AttrEvent{Kind: attrKind(t.Kind), Name: name, Value: value}
	c.events.Log(ev)
}

func (c *InnerContext) emitTransfer(dev string, dir log.Direction, te log.TransferEvent) {
	ev := c.event()
	ev.Category = log.CategoryTransfer
	ev.Direction = dir
	ev.DeviceID = dev
	ev.Transfer = &te
	c.events.Log(ev)
}

func (c *InnerContext) emitError(err *Error) {
	ev := c.event()
	ev.Category = log.CategoryError
	data := &log.ErrorEventData{
		Layer:   log.LayerCore,
		Message: err.Error(),
		Context: err.Op,
	}
	if err.Code != 0 {
		code := int(err.Code)
		data.Code = &code
	}
	ev.Error = data
	c.events.Log(ev)
}

// fail records err as an event and returns it.
func (c *InnerContext) fail(err *Error) error {
	c.emitError(err)
	return err
}

func attrKind(k backend.AttrKind) log.AttrKind {
	switch k {
	case backend.AttrDevice:
		return log.AttrKindDevice
	case backend.AttrDebug:
		return log.AttrKindDebug
	case backend.AttrBuffer:
		return log.AttrKindBuffer
	case backend.AttrChannel:
		return log.AttrKindChannel
	default:
		return log.AttrKindContext
	}
}

