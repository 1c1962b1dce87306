// internal/storage/factory.go
package storage

import (
	"fmt"

	"github.com/osm3d/pitchmark/internal/config"
	"github.com/osm3d/pitchmark/internal/storage/memory"
)

// NewBackend selects the scene storage implementation named by the
// config. Only the in-memory backend records scenes today; frame rows
// are persisted separately through the relational catalog.
func NewBackend(cfg config.StorageConfig) (Backend, error) {
	switch cfg.Type {
	case "memory":
		return memory.New(cfg.Memory), nil
	case "postgres", "sqlite":
		return nil, fmt.Errorf("%s backend not yet implemented", cfg.Type)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
