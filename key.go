package schedule

import (
	"fmt"
	"time"

	"tidbyt.dev/schedule/model"
)

// Bump when the cached representation changes.
const cacheKeyVersion = "v1"

// Key under which a lookup's result is cached. Every query
// parameter is part of the key.
//
// Fields are joined with ':' and not escaped, so feed and stop IDs
// containing ':' can map distinct lookups to the same key (feed "a"
// with stop "b:stop=c" vs feed "a:stop=b" with stop "c"). Callers
// taking IDs from untrusted input should reject ':'.
func CacheKey(feedID, stopID string, serviceDate time.Time, fromTime time.Duration, limit int) string {
	return fmt.Sprintf(
		"schedule:next_departures:feed=%s:stop=%s:date=%s:time=%s:limit=%d:%s",
		feedID,
		stopID,
		serviceDate.Format("2006-01-02"),
		model.HHMMSS(fromTime),
		limit,
		cacheKeyVersion,
	)
}
