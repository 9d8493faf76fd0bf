package parse

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gocarina/gocsv"

	"tidbyt.dev/schedule/model"
	"tidbyt.dev/schedule/storage"
)

type RouteCSV struct {
	ID        string `csv:"route_id"`
	AgencyID  string `csv:"agency_id"`
	ShortName string `csv:"route_short_name"`
	LongName  string `csv:"route_long_name"`
	Type      string `csv:"route_type"`
}

func legalRouteType(t model.RouteType) bool {
	if t >= 0 && t <= 7 {
		return true
	}
	if t == 11 || t == 12 {
		return true
	}
	return false
}

func ParseRoutes(writer storage.FeedWriter, data io.Reader) (map[string]bool, error) {
	routeCsv := []*RouteCSV{}
	if err := gocsv.Unmarshal(data, &routeCsv); err != nil {
		return nil, fmt.Errorf("unmarshaling routes: %w", err)
	}

	routes := map[string]bool{}

	for _, r := range routeCsv {
		// ID is required
		if r.ID == "" {
			return nil, fmt.Errorf("route has no route_id")
		}

		if routes[r.ID] {
			return nil, fmt.Errorf("repeated route_id: '%s'", r.ID)
		}
		routes[r.ID] = true

		// ShortName or LongName is required
		if r.ShortName == "" && r.LongName == "" {
			return nil, fmt.Errorf("route_id '%s' has no short_name or long_name", r.ID)
		}

		// RouteType is required
		if r.Type == "" {
			return nil, fmt.Errorf("route_id '%s' has no route_type", r.ID)
		}
		routeType, err := strconv.Atoi(r.Type)
		if err != nil {
			return nil, fmt.Errorf("route_id '%s' has invalid route_type: %w", r.ID, err)
		}
		if !legalRouteType(model.RouteType(routeType)) {
			return nil, fmt.Errorf("route_id '%s' has invalid route_type: %d", r.ID, routeType)
		}

		err = writer.WriteRoute(model.Route{
			ID:        r.ID,
			AgencyID:  r.AgencyID,
			ShortName: r.ShortName,
			LongName:  r.LongName,
			Type:      model.RouteType(routeType),
		})
		if err != nil {
			return nil, fmt.Errorf("writing route: %w", err)
		}
	}

	return routes, nil
}
