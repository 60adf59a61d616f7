package domain

import (
	"fmt"
	"strings"
	"time"
)

// WatchStatus is the closed set of watchlist states.
type WatchStatus string

const (
	StatusWatching  WatchStatus = "watching"
	StatusPlanned   WatchStatus = "planned"
	StatusCompleted WatchStatus = "completed"
	StatusDropped   WatchStatus = "dropped"
)

// DefaultWatchStatus is used when a caller adds a movie without a status.
const DefaultWatchStatus = StatusWatching

// WatchStatuses lists the valid statuses in display order.
var WatchStatuses = []WatchStatus{StatusWatching, StatusPlanned, StatusCompleted, StatusDropped}

// ParseWatchStatus normalizes raw input. Blank input yields the default status.
func ParseWatchStatus(raw string) (WatchStatus, error) {
	s := WatchStatus(strings.ToLower(strings.TrimSpace(raw)))
	if s == "" {
		return DefaultWatchStatus, nil
	}
	for _, valid := range WatchStatuses {
		if s == valid {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown watch status %q", raw)
}

// WatchlistEntry is a user's tracked relationship to a movie.
type WatchlistEntry struct {
	ID      int64
	UserID  int64
	MovieID int64
	AddedAt time.Time
	Status  WatchStatus
}
