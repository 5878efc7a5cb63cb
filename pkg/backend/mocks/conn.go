// Package mocks holds testify mocks of the backend interfaces, laid out the
// way mockery writes them for .mockery.yaml and maintained by hand.
package mocks

import (
	time "time"

	backend "github.com/industrial-io/iio-go/pkg/backend"
	mock "github.com/stretchr/testify/mock"
)

// MockConn is a mock type for the Conn type
type MockConn struct {
	mock.Mock
}

// ChannelEnabled provides a mock function with given fields: ch
func (_m *MockConn) ChannelEnabled(ch backend.ChannelRef) (bool, error) {
	ret := _m.Called(ch)

	if len(ret) == 0 {
		panic("no return value specified for ChannelEnabled")
	}

	if rf, ok := ret.Get(0).(func(backend.ChannelRef) (bool, error)); ok {
		return rf(ch)
	}
	return ret.Bool(0), ret.Error(1)
}

// Close provides a mock function with no fields
func (_m *MockConn) Close() error {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Close")
	}

	return ret.Error(0)
}

// Describe provides a mock function with no fields
func (_m *MockConn) Describe() (*backend.Description, error) {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Describe")
	}

	var r0 *backend.Description
	if rf, ok := ret.Get(0).(func() (*backend.Description, error)); ok {
		return rf()
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*backend.Description)
	}
	return r0, ret.Error(1)
}

// OpenBuffer provides a mock function with given fields: dev, samples, cyclic
func (_m *MockConn) OpenBuffer(dev string, samples int, cyclic bool) (backend.BufferHandle, error) {
	ret := _m.Called(dev, samples, cyclic)

	if len(ret) == 0 {
		panic("no return value specified for OpenBuffer")
	}

	var r0 backend.BufferHandle
	if rf, ok := ret.Get(0).(func(string, int, bool) (backend.BufferHandle, error)); ok {
		return rf(dev, samples, cyclic)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(backend.BufferHandle)
	}
	return r0, ret.Error(1)
}

// ReadAttr provides a mock function with given fields: t, name
func (_m *MockConn) ReadAttr(t backend.Target, name string) (string, error) {
	ret := _m.Called(t, name)

	if len(ret) == 0 {
		panic("no return value specified for ReadAttr")
	}

	if rf, ok := ret.Get(0).(func(backend.Target, string) (string, error)); ok {
		return rf(t, name)
	}
	return ret.String(0), ret.Error(1)
}

// RegRead provides a mock function with given fields: dev, addr
func (_m *MockConn) RegRead(dev string, addr uint32) (uint32, error) {
	ret := _m.Called(dev, addr)

	if len(ret) == 0 {
		panic("no return value specified for RegRead")
	}

	if rf, ok := ret.Get(0).(func(string, uint32) (uint32, error)); ok {
		return rf(dev, addr)
	}
	return ret.Get(0).(uint32), ret.Error(1)
}

// RegWrite provides a mock function with given fields: dev, addr, value
func (_m *MockConn) RegWrite(dev string, addr uint32, value uint32) error {
	ret := _m.Called(dev, addr, value)

	if len(ret) == 0 {
		panic("no return value specified for RegWrite")
	}

	return ret.Error(0)
}

// SetChannelEnabled provides a mock function with given fields: ch, on
func (_m *MockConn) SetChannelEnabled(ch backend.ChannelRef, on bool) error {
	ret := _m.Called(ch, on)

	if len(ret) == 0 {
		panic("no return value specified for SetChannelEnabled")
	}

	return ret.Error(0)
}

// SetKernelBuffersCount provides a mock function with given fields: dev, n
func (_m *MockConn) SetKernelBuffersCount(dev string, n uint) error {
	ret := _m.Called(dev, n)

	if len(ret) == 0 {
		panic("no return value specified for SetKernelBuffersCount")
	}

	return ret.Error(0)
}

// SetTimeout provides a mock function with given fields: d
func (_m *MockConn) SetTimeout(d time.Duration) error {
	ret := _m.Called(d)

	if len(ret) == 0 {
		panic("no return value specified for SetTimeout")
	}

	return ret.Error(0)
}

// SetTrigger provides a mock function with given fields: dev, trigger
func (_m *MockConn) SetTrigger(dev string, trigger string) error {
	ret := _m.Called(dev, trigger)

	if len(ret) == 0 {
		panic("no return value specified for SetTrigger")
	}

	return ret.Error(0)
}

// Trigger provides a mock function with given fields: dev
func (_m *MockConn) Trigger(dev string) (string, error) {
	ret := _m.Called(dev)

	if len(ret) == 0 {
		panic("no return value specified for Trigger")
	}

	return ret.String(0), ret.Error(1)
}

// Version provides a mock function with no fields
func (_m *MockConn) Version() (backend.VersionInfo, error) {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Version")
	}

	return ret.Get(0).(backend.VersionInfo), ret.Error(1)
}

// WriteAttr provides a mock function with given fields: t, name, value
func (_m *MockConn) WriteAttr(t backend.Target, name string, value string) (int, error) {
	ret := _m.Called(t, name, value)

	if len(ret) == 0 {
		panic("no return value specified for WriteAttr")
	}

	if rf, ok := ret.Get(0).(func(backend.Target, string, string) (int, error)); ok {
		return rf(t, name, value)
	}
	return ret.Int(0), ret.Error(1)
}

// NewMockConn creates a new instance of MockConn. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockConn(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockConn {
	mock := &MockConn{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
