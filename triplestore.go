package schedule

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"tidbyt.dev/schedule/config"
	"tidbyt.dev/schedule/model"
	"tidbyt.dev/schedule/sparql"
)

const BackendTripleStore = "triplestore"

var nextDeparturesQuery = sparql.MustTemplate("next_departures", `PREFIX sch: {{iri .Vocabulary}}
SELECT ?tripId ?routeId ?routeShortName ?routeLongName ?headsign ?directionId ?arrival ?departure ?serviceDate
WHERE {
  ?dep a sch:Departure ;
       sch:feedId {{lit .FeedID}} ;
       sch:stopId {{lit .StopID}} ;
       sch:tripId ?tripId ;
       sch:arrivalTime ?arrival ;
       sch:departureTime ?departure .
  OPTIONAL { ?dep sch:routeId ?routeId }
  OPTIONAL { ?dep sch:routeShortName ?routeShortName }
  OPTIONAL { ?dep sch:routeLongName ?routeLongName }
  OPTIONAL { ?dep sch:headsign ?headsign }
  OPTIONAL { ?dep sch:directionId ?directionId }
  OPTIONAL { ?dep sch:serviceDate ?serviceDate }
  FILTER(REGEX(STR(?departure), "^[0-9][0-9]:[0-9][0-9]:[0-9][0-9]"))
  FILTER(STR(?departure) >= {{lit .FromTime}})
  FILTER(!BOUND(?serviceDate) || STR(?serviceDate) = {{lit .ServiceDate}})
}
ORDER BY ?departure ?tripId
LIMIT {{.Limit}}
`)

// Looks up departures in an RDF graph over the SPARQL protocol.
//
// Departures are resources of type sch:Departure carrying feed, stop
// and trip identifiers along with "HH:MM:SS" arrival and departure
// times. Times are compared as text, so only zero padded values are
// considered at all. Identifiers only ever reach the query as
// escaped literals.
type TripleStoreRepository struct {
	Client     *sparql.Client
	Vocabulary string
	Logger     *log.Logger
}

func NewTripleStoreRepository(client *sparql.Client, vocabulary string) *TripleStoreRepository {
	if vocabulary == "" {
		vocabulary = config.DefaultVocabulary
	}
	return &TripleStoreRepository{
		Client:     client,
		Vocabulary: vocabulary,
		Logger:     log.Default(),
	}
}

func (r *TripleStoreRepository) NextDepartures(
	ctx context.Context,
	feedID string,
	stopID string,
	serviceDate time.Time,
	fromTime time.Duration,
	limit int,
) ([]model.Departure, error) {
	departures := []model.Departure{}
	if limit <= 0 {
		return departures, nil
	}

	query, err := nextDeparturesQuery.Render(map[string]interface{}{
		"Vocabulary":  r.Vocabulary,
		"FeedID":      feedID,
		"StopID":      stopID,
		"FromTime":    model.Clock(fromTime),
		"ServiceDate": serviceDate.Format("2006-01-02"),
		"Limit":       limit,
	})
	if err != nil {
		return nil, err
	}

	timer := prometheus.NewTimer(backendQuerySeconds.With(prometheus.Labels{"backend": BackendTripleStore}))
	res, err := r.Client.Query(ctx, query)
	timer.ObserveDuration()
	if err != nil {
		return nil, &BackendError{Backend: BackendTripleStore, Err: err}
	}

	from := model.Clock(fromTime)
	for _, row := range res.Results.Bindings {
		d, ok := departureFromBinding(row, stopID)
		if !ok {
			r.logf("skipping malformed departure row for stop %s: %v", stopID, row)
			continue
		}
		if *d.DepartureTime < from {
			continue
		}
		departures = append(departures, d)
	}

	return sortAndLimit(departures, limit), nil
}

// Checks that the endpoint answers queries.
func (r *TripleStoreRepository) Ping(ctx context.Context) error {
	_, err := r.Client.Ask(ctx, "ASK {}")
	if err != nil {
		return &BackendError{Backend: BackendTripleStore, Err: err}
	}
	return nil
}

func (r *TripleStoreRepository) logf(format string, args ...interface{}) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
	}
}

// Rows without a trip ID or a readable departure time are
// malformed. Everything else defaults to empty or absent.
func departureFromBinding(row sparql.Binding, stopID string) (model.Departure, bool) {
	tripID, _ := row.Value("tripId")
	if tripID == "" {
		return model.Departure{}, false
	}

	rawDeparture, _ := row.Value("departure")
	departure := normalizeClock(rawDeparture)
	if departure == nil {
		return model.Departure{}, false
	}

	d := model.Departure{
		TripID:        tripID,
		StopID:        stopID,
		DepartureTime: departure,
	}

	d.RouteID, _ = row.Value("routeId")

	if v, ok := row.Value("routeShortName"); ok {
		d.RouteShortName = model.StringPtr(v)
	}
	if v, ok := row.Value("routeLongName"); ok {
		d.RouteLongName = model.StringPtr(v)
	}
	if v, ok := row.Value("headsign"); ok {
		d.Headsign = model.StringPtr(v)
	}
	if v, ok := row.Value("directionId"); ok {
		if dir, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			d.DirectionID = &dir
		}
	}
	if v, ok := row.Value("arrival"); ok {
		d.ArrivalTime = normalizeClock(v)
	}

	return d, true
}

// Accepts "HH:MM:SS", optionally with xsd:time style fractional
// seconds or zone suffix, and returns "HH:MM:SS". Unpadded fields
// are rejected since they don't sort as text.
func normalizeClock(s string) *string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".Z+-"); i >= 0 {
		s = s[:i]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return nil
	}

	var hms [3]int
	for i, p := range parts {
		if len(p) != 2 {
			return nil
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil
		}
		hms[i] = n
	}
	if hms[1] > 59 || hms[2] > 59 {
		return nil
	}

	c := model.Clock(time.Duration(hms[0])*time.Hour + time.Duration(hms[1])*time.Minute + time.Duration(hms[2])*time.Second)
	return &c
}
