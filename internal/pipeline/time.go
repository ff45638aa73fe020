package pipeline

import (
	"fmt"
	"time"
)

var fetchedAtLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseFetchedAt(s string) (time.Time, error) {
	for _, layout := range fetchedAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized fetched_at timestamp %q", s)
}
