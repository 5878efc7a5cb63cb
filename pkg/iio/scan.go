package iio

import (
	"context"

	"github.com/industrial-io/iio-go/pkg/backend"
)

// ContextInfo is one context found by a scan.
type ContextInfo = backend.ContextInfo

// ScanContext lists the contexts reachable through a set of backends.
type ScanContext struct {
	registry *backend.Registry
	schemes  []string
}

// NewScanContext returns a scan over the given URI schemes, or over every
// registered scheme when none are given.
func NewScanContext(schemes ...string) *ScanContext {
	return &ScanContext{registry: backend.Default, schemes: schemes}
}

// WithRegistry makes the scan use r instead of backend.Default.
func (s *ScanContext) WithRegistry(r *backend.Registry) *ScanContext {
	s.registry = r
	return s
}

// Scan queries every selected backend. A backend that fails aborts the
// scan with ErrScan.
func (s *ScanContext) Scan(ctx context.Context) ([]ContextInfo, error) {
	infos, err := s.registry.Scan(ctx, s.schemes...)
	if err != nil {
		return nil, newError(ErrScan, "scan", err)
	}
	return infos, nil
}

// Scan lists the contexts reachable through every registered backend.
func Scan(ctx context.Context) ([]ContextInfo, error) {
	return NewScanContext().Scan(ctx)
}
