package storage

import (
	"context"
	"sort"
	"sync"

	"tidbyt.dev/schedule/model"
)

// In memory implementation of Storage below

type MemoryStorage struct {
	mutex sync.RWMutex
	Feeds map[string]*MemoryStorageFeed
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		Feeds: map[string]*MemoryStorageFeed{},
	}
}

func (s *MemoryStorage) GetReader(feedID string) (FeedReader, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	feed, found := s.Feeds[feedID]
	if !found {
		// Unknown feeds read as empty
		feed = newMemoryStorageFeed()
		s.Feeds[feedID] = feed
	}
	return feed, nil
}

func (s *MemoryStorage) GetWriter(feedID string) (FeedWriter, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	feed := newMemoryStorageFeed()
	s.Feeds[feedID] = feed
	return feed, nil
}

func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStorage) Close() error {
	return nil
}

type MemoryStorageFeed struct {
	mutex     sync.RWMutex
	routes    map[string]model.Route
	trips     map[string]model.Trip
	stopTimes map[string][]model.StopTime
}

func newMemoryStorageFeed() *MemoryStorageFeed {
	return &MemoryStorageFeed{
		routes:    map[string]model.Route{},
		trips:     map[string]model.Trip{},
		stopTimes: map[string][]model.StopTime{},
	}
}

func (f *MemoryStorageFeed) WriteRoute(route model.Route) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.routes[route.ID] = route
	return nil
}

func (f *MemoryStorageFeed) WriteTrip(trip model.Trip) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.trips[trip.ID] = trip
	return nil
}

func (f *MemoryStorageFeed) BeginStopTimes() error {
	return nil
}

func (f *MemoryStorageFeed) WriteStopTime(stopTime model.StopTime) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.stopTimes[stopTime.StopID] = append(f.stopTimes[stopTime.StopID], stopTime)
	return nil
}

func (f *MemoryStorageFeed) EndStopTimes() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	for _, sts := range f.stopTimes {
		sort.SliceStable(sts, func(i, j int) bool {
			if sts[i].Departure != sts[j].Departure {
				return sts[i].Departure < sts[j].Departure
			}
			return sts[i].TripID < sts[j].TripID
		})
	}

	return nil
}

func (f *MemoryStorageFeed) Close() error {
	return f.EndStopTimes()
}

func (f *MemoryStorageFeed) StopTimeEvents(ctx context.Context, filter StopTimeEventFilter) ([]*StopTimeEvent, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	events := []*StopTimeEvent{}
	for _, st := range f.stopTimes[filter.StopID] {
		if st.Departure == "" || st.Departure < filter.DepartureStart {
			continue
		}

		stopTime := st
		event := &StopTimeEvent{StopTime: &stopTime}

		if trip, found := f.trips[st.TripID]; found {
			event.Trip = &trip
			if route, found := f.routes[trip.RouteID]; found {
				event.Route = &route
			}
		}

		events = append(events, event)
		if filter.Limit > 0 && len(events) >= filter.Limit {
			break
		}
	}

	return events, nil
}
