package http

import (
	"time"

	xutil "AccelStream/pkg/util"
)

// ParseRange resolves optional from/to query values; see util.ParseRange.
func ParseRange(from, to string, now time.Time, span time.Duration) (time.Time, time.Time) {
	return xutil.ParseRange(from, to, now, span)
}
