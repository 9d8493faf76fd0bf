package schedule

import (
	"context"
	"time"

	"tidbyt.dev/schedule/cache"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusError    = "error"

	statusTimeout = 3 * time.Second
)

// Health of a Schedule's dependencies. A nil check means the
// dependency isn't configured and wasn't checked.
type Status struct {
	Backend       string `json:"backend"`
	DatabaseOK    *bool  `json:"database_ok"`
	TripleStoreOK *bool  `json:"triplestore_ok"`
	CacheOK       *bool  `json:"cache_ok"`
	Overall       string `json:"status"`
}

// Checks every configured dependency.
//
// Overall is "error" if the active backend is down, "degraded" if
// it's up but something else isn't, and "ok" otherwise.
func (s *Schedule) Status(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()

	st := Status{Backend: s.Backend}

	if s.Storage != nil {
		ok := s.Storage.Ping(ctx) == nil
		st.DatabaseOK = &ok
	}

	if s.tripleStore != nil {
		ok := s.tripleStore.Ping(ctx) == nil
		st.TripleStoreOK = &ok
	}

	if s.Cache != nil {
		ok := true
		if pinger, isPinger := s.Cache.(cache.Pinger); isPinger {
			ok = pinger.Ping(ctx) == nil
		}
		st.CacheOK = &ok
	}

	backendOK := st.DatabaseOK
	if s.Backend == BackendTripleStore {
		backendOK = st.TripleStoreOK
	}

	switch {
	case backendOK == nil || !*backendOK:
		st.Overall = StatusError
	case st.CacheOK != nil && !*st.CacheOK:
		st.Overall = StatusDegraded
	default:
		st.Overall = StatusOK
	}

	return st
}
