package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"backoffice-mcp/internal/cache"
	"backoffice-mcp/internal/config"
	"backoffice-mcp/internal/format"
	"backoffice-mcp/internal/impact"
	"backoffice-mcp/internal/ledger"
)

// runtime bundles the collaborators shared by every command.
type runtime struct {
	Store    ledger.Store
	Analyzer *impact.Analyzer
	Format   *format.Formatter

	closers []func() error
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			log.Warn().Err(err).Msg("Failed to release resource")
		}
	}
}

func bootstrap(c *config.AppConfig) (*runtime, error) {
	rt := &runtime{Format: format.New(c.DisplayLocale)}

	store, err := openLedger(c, rt)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Store = withCache(c, store, rt)
	rt.Analyzer = impact.NewAnalyzer(rt.Store, c.Thresholds)
	return rt, nil
}

func openLedger(c *config.AppConfig, rt *runtime) (ledger.Store, error) {
	switch c.LedgerSource {
	case config.SourceFile:
		store := ledger.NewFileStore(c.LedgerDir)
		if err := store.Load(); err != nil {
			return nil, fmt.Errorf("failed to load ledger from %s: %w", c.LedgerDir, err)
		}
		return store, nil

	case config.SourceREST:
		log.Info().Str("url", c.Backend.BaseURL).Msg("Using hosted backend ledger")
		return ledger.NewRESTSource(c.Backend), nil

	case config.SourcePostgres, config.SourceSQLite:
		store, err := ledger.OpenSQL(c.SQLConfig())
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, store.Close)
		// A local SQLite file is owned by this process, so its schema is kept current.
		if c.LedgerSource == config.SourceSQLite {
			if err := store.Migrate(); err != nil {
				return nil, err
			}
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown ledger source %q", c.LedgerSource)
	}
}

// withCache wraps remote ledgers in a read-through cache. The file ledger is
// already in memory and is returned as is.
func withCache(c *config.AppConfig, store ledger.Store, rt *runtime) ledger.Store {
	if c.LedgerSource == config.SourceFile || c.CacheTTL == 0 {
		return store
	}

	var backend cache.Cache = cache.NewMemory()
	if c.Redis.Addr != "" {
		redisCache, err := cache.NewRedis(c.Redis)
		if err != nil {
			log.Warn().Err(err).Str("addr", c.Redis.Addr).Msg("Redis unavailable, falling back to in-process cache")
		} else {
			backend = redisCache
			rt.closers = append(rt.closers, redisCache.Close)
		}
	}
	return ledger.NewCachedSource(store, backend, c.CacheTTL)
}
