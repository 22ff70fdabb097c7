package state

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hugo-lorenzo-mato/gripro/internal/config"
	"github.com/hugo-lorenzo-mato/gripro/internal/core"
	"github.com/hugo-lorenzo-mato/gripro/internal/logging"
)

// NewStore creates the storage backend named by the configuration.
// Backend "none" yields a nil store; callers then run without
// persistence.
func NewStore(cfg *config.Config, log *logging.Logger) (core.Store, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.State.Backend))
	switch backend {
	case "sqlite":
		path := cfg.State.Path
		if !strings.HasSuffix(path, ".db") {
			path = strings.TrimSuffix(path, filepath.Ext(path)) + ".db"
		}
		return NewSQLiteStore(path, WithSQLiteLogger(log))

	case "json":
		path := cfg.State.Path
		if !strings.HasSuffix(path, ".json") {
			path = strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
		}
		opts := []JSONStoreOption{WithJSONLogger(log)}
		if strings.TrimSpace(cfg.State.BackupPath) != "" {
			opts = append(opts, WithJSONBackupPath(cfg.State.BackupPath))
		}
		return NewJSONStore(path, opts...)

	case "none", "":
		return nil, nil

	default:
		return nil, core.ErrValidation(core.CodeInvalidConfig,
			fmt.Sprintf("unknown state backend %q (valid: sqlite, json, none)", cfg.State.Backend))
	}
}

// CloseStore closes a store if one is configured.
func CloseStore(s core.Store) error {
	if s == nil {
		return nil
	}
	return s.Close()
}
