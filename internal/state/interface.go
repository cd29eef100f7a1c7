package state

import "github.com/llehouerou/wavecast/internal/catalog"

// Interface defines the state manager contract for dependency injection and testing.
type Interface interface {
	catalog.FavoriteStore
	SetFavorites(ids []string, favorite bool) error
	Close() error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)
