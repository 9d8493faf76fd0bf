package schedule

import (
	"fmt"

	"tidbyt.dev/schedule/cache"
	"tidbyt.dev/schedule/config"
	"tidbyt.dev/schedule/sparql"
	"tidbyt.dev/schedule/storage"
)

// Assembles the Repository described by cfg on top of already open
// dependencies.
//
// The triple store serves lookups when enabled and given an
// endpoint; otherwise store does. If caching is enabled and a
// provider is given, the backend is wrapped in a CachedRepository.
func NewRepository(cfg config.Config, store storage.Storage, provider cache.Provider) (Repository, error) {
	backend, err := newBackend(cfg, store)
	if err != nil {
		return nil, err
	}
	return withCache(cfg, backend, provider), nil
}

func newBackend(cfg config.Config, store storage.Storage) (Repository, error) {
	if cfg.TripleStore.Enabled && cfg.TripleStore.Endpoint != "" {
		return NewTripleStoreRepository(
			sparql.NewClient(cfg.TripleStore.Endpoint, cfg.TripleStore.Timeout),
			cfg.TripleStore.Vocabulary,
		), nil
	}

	if store == nil {
		return nil, fmt.Errorf("relational backend selected but no storage given")
	}
	return NewRelationalRepository(store, cfg.Database.QueryTimeout), nil
}

func withCache(cfg config.Config, backend Repository, provider cache.Provider) Repository {
	if !cfg.Cache.Enabled || provider == nil {
		return backend
	}

	cached := NewCachedRepository(backend, provider, cfg.Cache.TTL)
	if cfg.Cache.Timeout > 0 {
		cached.CacheTimeout = cfg.Cache.Timeout
	}
	return cached
}

// A Repository along with the connections it owns.
type Schedule struct {
	Repository

	Config  config.Config
	Backend string

	// Nil unless the relational backend is active.
	Storage storage.Storage

	// Nil unless caching is enabled.
	Cache cache.Provider

	tripleStore *TripleStoreRepository
}

// Opens whatever cfg calls for and assembles the Repository.
func Open(cfg config.Config) (*Schedule, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Schedule{Config: cfg}

	if cfg.TripleStore.Enabled {
		s.Backend = BackendTripleStore
	} else {
		s.Backend = BackendRelational

		store, err := openStorage(cfg.Database)
		if err != nil {
			return nil, &BackendError{Backend: BackendRelational, Err: err}
		}
		s.Storage = store
	}

	backend, err := newBackend(cfg, s.Storage)
	if err != nil {
		s.Close()
		return nil, err
	}
	if ts, ok := backend.(*TripleStoreRepository); ok {
		s.tripleStore = ts
	}

	if cfg.Cache.Enabled {
		s.Cache = openCache(cfg.Cache)
	}

	s.Repository = withCache(cfg, backend, s.Cache)

	return s, nil
}

func openStorage(cfg config.DatabaseConfig) (storage.Storage, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return storage.NewPSQLStorage(cfg.DSN, false)
	case config.DriverSQLite:
		return storage.NewSQLiteStorage(storage.SQLiteConfig{
			OnDisk:    cfg.DSN != "",
			Directory: cfg.DSN,
		})
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

func openCache(cfg config.CacheConfig) cache.Provider {
	if cfg.Driver == config.CacheDriverMemory {
		return cache.NewMemoryProvider(cfg.TTL)
	}
	return cache.NewRedisProvider(cache.RedisOptions{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
		Timeout:  cfg.Timeout,
	}, nil)
}

func (s *Schedule) Close() error {
	var firstErr error
	if closer, ok := s.Cache.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			firstErr = err
		}
	}
	if s.Storage != nil {
		if err := s.Storage.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
