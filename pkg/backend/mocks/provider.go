package mocks

import (
	context "context"

	backend "github.com/industrial-io/iio-go/pkg/backend"
	mock "github.com/stretchr/testify/mock"
)

// MockProvider is a mock type for the Provider type
type MockProvider struct {
	mock.Mock
}

// Open provides a mock function with given fields: ctx, uri
func (_m *MockProvider) Open(ctx context.Context, uri string) (backend.Conn, error) {
	ret := _m.Called(ctx, uri)

	if len(ret) == 0 {
		panic("no return value specified for Open")
	}

	var r0 backend.Conn
	if rf, ok := ret.Get(0).(func(context.Context, string) (backend.Conn, error)); ok {
		return rf(ctx, uri)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(backend.Conn)
	}
	return r0, ret.Error(1)
}

// Scan provides a mock function with given fields: ctx
func (_m *MockProvider) Scan(ctx context.Context) ([]backend.ContextInfo, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Scan")
	}

	var r0 []backend.ContextInfo
	if rf, ok := ret.Get(0).(func(context.Context) ([]backend.ContextInfo, error)); ok {
		return rf(ctx)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]backend.ContextInfo)
	}
	return r0, ret.Error(1)
}

// NewMockProvider creates a new instance of MockProvider. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockProvider {
	mock := &MockProvider{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
