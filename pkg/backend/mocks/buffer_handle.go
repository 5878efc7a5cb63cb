package mocks

import mock "github.com/stretchr/testify/mock"

// MockBufferHandle is a mock type for the BufferHandle type
type MockBufferHandle struct {
	mock.Mock
}

// Cancel provides a mock function with no fields
func (_m *MockBufferHandle) Cancel() {
	_m.Called()
}

// Close provides a mock function with no fields
func (_m *MockBufferHandle) Close() error {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Close")
	}

	return ret.Error(0)
}

// Data provides a mock function with no fields
func (_m *MockBufferHandle) Data() []byte {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Data")
	}

	var r0 []byte
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]byte)
	}
	return r0
}

// Push provides a mock function with given fields: n
func (_m *MockBufferHandle) Push(n int) (int, error) {
	ret := _m.Called(n)

	if len(ret) == 0 {
		panic("no return value specified for Push")
	}

	if rf, ok := ret.Get(0).(func(int) (int, error)); ok {
		return rf(n)
	}
	return ret.Int(0), ret.Error(1)
}

// Refill provides a mock function with no fields
func (_m *MockBufferHandle) Refill() (int, error) {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Refill")
	}

	if rf, ok := ret.Get(0).(func() (int, error)); ok {
		return rf()
	}
	return ret.Int(0), ret.Error(1)
}

// SetBlocking provides a mock function with given fields: blocking
func (_m *MockBufferHandle) SetBlocking(blocking bool) error {
	ret := _m.Called(blocking)

	if len(ret) == 0 {
		panic("no return value specified for SetBlocking")
	}

	return ret.Error(0)
}

// Step provides a mock function with no fields
func (_m *MockBufferHandle) Step() int {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Step")
	}

	return ret.Int(0)
}

// NewMockBufferHandle creates a new instance of MockBufferHandle. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockBufferHandle(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockBufferHandle {
	mock := &MockBufferHandle{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
