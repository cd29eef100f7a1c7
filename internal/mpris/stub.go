//go:build !linux

package mpris

import (
	"go.uber.org/zap"

	"github.com/llehouerou/wavecast/internal/albumart"
	"github.com/llehouerou/wavecast/internal/session"
)

// Adapter is a no-op on non-Linux platforms.
type Adapter struct{}

// New returns a no-op adapter on non-Linux platforms.
func New(_ Controller, _ *session.Session, _ *albumart.DiskCache, _ *zap.Logger) (*Adapter, error) {
	return &Adapter{}, nil
}

// Close is a no-op on non-Linux platforms.
func (a *Adapter) Close() error {
	return nil
}
