package schedule_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/schedule"
	"tidbyt.dev/schedule/config"
	"tidbyt.dev/schedule/model"
	"tidbyt.dev/schedule/sparql"
)

// Fake SPARQL endpoint. Records the last query and responds with
// status and body.
type fakeEndpoint struct {
	*httptest.Server
	mu      sync.Mutex
	Status  int
	Body    string
	Queries []string
}

func newFakeEndpoint(t *testing.T) *fakeEndpoint {
	f := &fakeEndpoint{Status: 200}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.Queries = append(f.Queries, string(q))
		w.Header().Set("Content-Type", sparql.ContentTypeResults)
		w.WriteHeader(f.Status)
		w.Write([]byte(f.Body))
	}))
	t.Cleanup(f.Server.Close)
	return f
}

func (f *fakeEndpoint) LastQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Queries) == 0 {
		return ""
	}
	return f.Queries[len(f.Queries)-1]
}

// Builds a SELECT result document. Each row maps variable to literal
// value.
func selectResults(t *testing.T, rows ...map[string]string) string {
	doc := map[string]interface{}{
		"head": map[string]interface{}{
			"vars": []string{
				"tripId", "routeId", "routeShortName", "routeLongName", "headsign",
				"directionId", "arrival", "departure", "serviceDate",
			},
		},
	}

	bindings := []map[string]sparql.Term{}
	for _, row := range rows {
		b := map[string]sparql.Term{}
		for k, v := range row {
			b[k] = sparql.Term{Type: "literal", Value: v}
		}
		bindings = append(bindings, b)
	}
	doc["results"] = map[string]interface{}{"bindings": bindings}

	buf, err := json.Marshal(doc)
	require.NoError(t, err)
	return string(buf)
}

func newTripleStore(f *fakeEndpoint) *schedule.TripleStoreRepository {
	return schedule.NewTripleStoreRepository(sparql.NewClient(f.URL, 0), "")
}

func TestTripleStoreNextDeparture(t *testing.T) {
	f := newFakeEndpoint(t)
	f.Body = selectResults(t, map[string]string{
		"tripId":         "T1",
		"routeId":        "R1",
		"routeShortName": "1",
		"routeLongName":  "Line One",
		"headsign":       "Downtown",
		"directionId":    "0",
		"arrival":        "08:05:00",
		"departure":      "08:06:00",
		"serviceDate":    "2024-05-01",
	})

	departures, err := newTripleStore(f).NextDepartures(context.Background(), "TEST", "S1", serviceDate, hm(8, 0), 1)
	require.NoError(t, err)

	assert.Equal(t, []model.Departure{{
		RouteID:        "R1",
		RouteShortName: model.StringPtr("1"),
		RouteLongName:  model.StringPtr("Line One"),
		TripID:         "T1",
		StopID:         "S1",
		Headsign:       model.StringPtr("Downtown"),
		DirectionID:    model.IntPtr(0),
		ArrivalTime:    model.StringPtr("08:05:00"),
		DepartureTime:  model.StringPtr("08:06:00"),
	}}, departures)

	q := f.LastQuery()
	assert.Contains(t, q, "PREFIX sch: <"+config.DefaultVocabulary+">")
	assert.Contains(t, q, `sch:feedId "TEST"`)
	assert.Contains(t, q, `sch:stopId "S1"`)
	assert.Contains(t, q, `FILTER(STR(?departure) >= "08:00:00")`)
	assert.Contains(t, q, `FILTER(REGEX(STR(?departure), "^[0-9][0-9]:[0-9][0-9]:[0-9][0-9]"))`)
	assert.Contains(t, q, `FILTER(!BOUND(?serviceDate) || STR(?serviceDate) = "2024-05-01")`)
	assert.Contains(t, q, "ORDER BY ?departure ?tripId")
	assert.Contains(t, q, "LIMIT 1")
}

func TestTripleStoreEmpty(t *testing.T) {
	f := newFakeEndpoint(t)
	f.Body = selectResults(t)

	departures, err := newTripleStore(f).NextDepartures(context.Background(), "TEST", "S1", serviceDate, hm(8, 0), 10)
	require.NoError(t, err)
	assert.NotNil(t, departures)
	assert.Equal(t, 0, len(departures))

	buf, err := json.Marshal(departures)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(buf))
}

func TestTripleStoreServerError(t *testing.T) {
	f := newFakeEndpoint(t)
	f.Status = 500
	f.Body = "boom"

	departures, err := newTripleStore(f).NextDepartures(context.Background(), "TEST", "S1", serviceDate, hm(8, 0), 10)
	assert.Nil(t, departures)
	require.Error(t, err)
	assert.True(t, errors.Is(err, schedule.ErrBackendUnavailable))

	var statusErr *sparql.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 500, statusErr.StatusCode)
}

func TestTripleStoreMalformedBody(t *testing.T) {
	f := newFakeEndpoint(t)
	f.Body = "<html>oops</html>"

	departures, err := newTripleStore(f).NextDepartures(context.Background(), "TEST", "S1", serviceDate, hm(8, 0), 10)
	assert.Nil(t, departures)
	assert.True(t, errors.Is(err, schedule.ErrBackendUnavailable))
}

func TestTripleStoreUnreachable(t *testing.T) {
	f := newFakeEndpoint(t)
	f.Close()

	departures, err := newTripleStore(f).NextDepartures(context.Background(), "TEST", "S1", serviceDate, hm(8, 0), 10)
	assert.Nil(t, departures)
	assert.True(t, errors.Is(err, schedule.ErrBackendUnavailable))
}

func TestTripleStoreRowHandling(t *testing.T) {
	f := newFakeEndpoint(t)
	f.Body = selectResults(t,
		// Out of order, with an xsd:time style value
		map[string]string{"tripId": "T3", "arrival": "09:00:00", "departure": "09:00:00.000Z"},
		map[string]string{"tripId": "T2", "arrival": "08:30:00", "departure": "08:30:00"},
		// Unpadded departure
		map[string]string{"tripId": "T8", "arrival": "8:20:00", "departure": "8:20:00"},
		// Missing trip ID
		map[string]string{"arrival": "08:10:00", "departure": "08:10:00"},
		// Unreadable departure
		map[string]string{"tripId": "T9", "arrival": "08:10:00", "departure": "soon"},
		// Unreadable direction and arrival are left absent
		map[string]string{"tripId": "T1", "arrival": "late", "departure": "08:30:00", "directionId": "north"},
		map[string]string{"tripId": "T4", "arrival": "09:30:00", "departure": "09:30:00"},
	)

	departures, err := newTripleStore(f).NextDepartures(context.Background(), "TEST", "S1", serviceDate, hm(8, 0), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"T1", "T2", "T3"}, tripIDs(departures))

	assert.Equal(t, "", departures[0].RouteID)
	assert.Nil(t, departures[0].RouteShortName)
	assert.Nil(t, departures[0].Headsign)
	assert.Nil(t, departures[0].DirectionID)
	assert.Nil(t, departures[0].ArrivalTime)
	assert.Equal(t, model.StringPtr("08:30:00"), departures[1].DepartureTime)
	assert.Equal(t, model.StringPtr("08:30:00"), departures[1].ArrivalTime)
	assert.Equal(t, model.StringPtr("09:00:00"), departures[2].DepartureTime)

	for _, d := range departures {
		assert.Equal(t, "S1", d.StopID)
	}
}

func TestTripleStoreEscapesIdentifiers(t *testing.T) {
	f := newFakeEndpoint(t)
	f.Body = selectResults(t)

	repo := newTripleStore(f)
	_, err := repo.NextDepartures(
		context.Background(),
		`TEST" . } DELETE WHERE { ?s ?p ?o } #`,
		"S1'\n",
		serviceDate, hm(8, 0), 5,
	)
	require.NoError(t, err)

	q := f.LastQuery()
	assert.Contains(t, q, `sch:feedId "TEST\" . } DELETE WHERE { ?s ?p ?o } #"`)
	assert.Contains(t, q, `sch:stopId "S1\'\n"`)
	assert.NotContains(t, q, "S1'\n")
}

func TestTripleStoreBadVocabulary(t *testing.T) {
	f := newFakeEndpoint(t)
	f.Body = selectResults(t)

	repo := schedule.NewTripleStoreRepository(sparql.NewClient(f.URL, 0), "http://x> } DROP ALL #")
	_, err := repo.NextDepartures(context.Background(), "TEST", "S1", serviceDate, hm(8, 0), 5)
	require.Error(t, err)
	assert.Equal(t, 0, len(f.Queries))
}

func TestTripleStoreZeroLimit(t *testing.T) {
	f := newFakeEndpoint(t)

	departures, err := newTripleStore(f).NextDepartures(context.Background(), "TEST", "S1", serviceDate, hm(8, 0), 0)
	require.NoError(t, err)
	assert.NotNil(t, departures)
	assert.Equal(t, 0, len(departures))
	assert.Equal(t, 0, len(f.Queries))
}

func TestTripleStorePing(t *testing.T) {
	f := newFakeEndpoint(t)
	f.Body = `{"head": {}, "boolean": true}`

	repo := newTripleStore(f)
	require.NoError(t, repo.Ping(context.Background()))
	assert.Equal(t, "ASK {}", f.LastQuery())

	f.Status = 503
	err := repo.Ping(context.Background())
	assert.True(t, errors.Is(err, schedule.ErrBackendUnavailable))
}

func TestTripleStoreEnforcesFromTime(t *testing.T) {
	f := newFakeEndpoint(t)

	// The endpoint ignores the FILTERs, and returns rows in text
	// order, where "7:30:00" sorts after "08:00:00".
	f.Body = selectResults(t,
		map[string]string{"tripId": "T1", "arrival": "07:59:59", "departure": "07:59:59"},
		map[string]string{"tripId": "T2", "arrival": "08:00:00", "departure": "08:00:00"},
		map[string]string{"tripId": "T3", "arrival": "08:06:00", "departure": "08:06:00"},
		map[string]string{"tripId": "T4", "arrival": "7:30:00", "departure": "7:30:00"},
		map[string]string{"tripId": "T5", "arrival": "8:06:00", "departure": "8:06:00"},
	)

	departures, err := newTripleStore(f).NextDepartures(context.Background(), "TEST", "S1", serviceDate, hm(8, 0), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"T2", "T3"}, tripIDs(departures))

	for _, d := range departures {
		require.NotNil(t, d.DepartureTime)
		assert.GreaterOrEqual(t, *d.DepartureTime, "08:00:00")
	}
}
