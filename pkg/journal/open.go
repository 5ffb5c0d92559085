package journal

import (
	"fmt"

	"mercator-hq/turnstile/pkg/config"
)

// Open creates the storage backend named by cfg.Driver.
func Open(cfg config.JournalConfig) (Storage, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryStorage(), nil
	case "sqlite", "sqlite3":
		sqliteCfg := DefaultSQLiteConfig()
		sqliteCfg.Driver = cfg.Driver
		sqliteCfg.Path = cfg.Path
		return NewSQLiteStorage(sqliteCfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
