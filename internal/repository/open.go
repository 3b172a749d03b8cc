package repository

import (
	"fmt"

	"propfinder/internal/config"
)

// Open creates the slot store selected by STORAGE_DRIVER
func Open(cfg *config.Config) (SlotStore, error) {
	var (
		store SlotStore
		err   error
	)

	switch cfg.Storage.Driver {
	case "memory":
		store = NewMemorySlotStore()
	case "file":
		var fs *FileSlotStore
		fs, err = NewFileSlotStore(cfg.Storage.FileDir)
		store = fs
	case "sqlite":
		var ss *SQLSlotStore
		ss, err = NewSQLiteSlotStore(cfg.Storage.SQLitePath)
		store = ss
	case "postgres":
		var ps *SQLSlotStore
		ps, err = NewPostgresSlotStore(
			cfg.GetPostgreSQLDSN(),
			cfg.Storage.PostgreSQL.MaxConnections,
			cfg.Storage.PostgreSQL.MaxIdleConnections,
		)
		store = ps
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if err != nil {
		return nil, err
	}
	return store, nil
}
