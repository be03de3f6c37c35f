package achievement

import (
	"time"

	"github.com/poorspot/spotd/models"
)

const (
	flashSessionSeconds = 5 * 60
	highRevenue         = 4.5
	lowRating           = 2.0
)

// Stats are the aggregates rules read. Only closed records count.
type Stats struct {
	ClosedSessions int
	TotalSeconds   int64
	DistinctSpots  int
	MaxVisits      int
	CreatedSpots   int
	Reviews        int

	Afterwork   int
	Insomnia    int
	Flash       int
	HighRevenue int
	LowRevenue  int
	LowSecurity int
	LowTraffic  int

	spotsByCategory map[string]map[string]struct{}

	// Last describes the newest closed record, nil when there is none.
	Last *Session
}

// Session is the context of a single closed record.
type Session struct {
	SpotID   string
	Duration int64
	// Start is zero when the record timestamp cannot be parsed.
	Start   time.Time
	Ratings models.RatingAverages
}

// HasStart reports whether the start time is known.
func (s *Session) HasStart() bool { return !s.Start.IsZero() }

// Rated reports whether the spot had at least one review.
func (s *Session) Rated() bool { return s.Ratings.Count > 0 }

// CategoryCount returns the number of distinct visited spots belonging to
// any of the given categories.
func (s *Stats) CategoryCount(categories ...string) int {
	if len(categories) == 1 {
		return len(s.spotsByCategory[categories[0]])
	}
	seen := map[string]struct{}{}
	for _, c := range categories {
		for id := range s.spotsByCategory[c] {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}

// ComputeStats aggregates the user's closed history against the dataset.
// Records pointing at deleted spots still count for time and distinct spots.
func ComputeStats(user *models.User, ds *models.Dataset) *Stats {
	st := &Stats{spotsByCategory: map[string]map[string]struct{}{}}
	spots := map[string]*models.Spot{}
	if ds != nil {
		spots = ds.SpotIndex()
	}

	averages := map[string]models.RatingAverages{}
	ratingsOf := func(spotID string) models.RatingAverages {
		if a, ok := averages[spotID]; ok {
			return a
		}
		var a models.RatingAverages
		if sp := spots[spotID]; sp != nil {
			a = sp.Averages()
		}
		averages[spotID] = a
		return a
	}

	visits := map[string]int{}
	for _, rec := range user.History {
		if !rec.IsClosed() {
			continue
		}
		st.ClosedSessions++
		st.TotalSeconds += rec.DurationSeconds
		visits[rec.SpotID]++
		if visits[rec.SpotID] > st.MaxVisits {
			st.MaxVisits = visits[rec.SpotID]
		}

		if sp := spots[rec.SpotID]; sp != nil && sp.Category != "" {
			set := st.spotsByCategory[sp.Category]
			if set == nil {
				set = map[string]struct{}{}
				st.spotsByCategory[sp.Category] = set
			}
			set[rec.SpotID] = struct{}{}
		}

		if rec.DurationSeconds < flashSessionSeconds {
			st.Flash++
		}
		if start, err := rec.StartedAt(); err == nil {
			h := start.Hour()
			if h >= 17 && h < 20 {
				st.Afterwork++
			}
			if h < 4 {
				st.Insomnia++
			}
		}

		if a := ratingsOf(rec.SpotID); a.Count > 0 {
			if a.Revenue > highRevenue {
				st.HighRevenue++
			}
			if a.Revenue < lowRating {
				st.LowRevenue++
			}
			if a.Security < lowRating {
				st.LowSecurity++
			}
			if a.Traffic < lowRating {
				st.LowTraffic++
			}
		}
	}
	st.DistinctSpots = len(visits)

	if last, ok := user.LatestClosedRecord(); ok {
		sess := &Session{
			SpotID:   last.SpotID,
			Duration: last.DurationSeconds,
			Ratings:  ratingsOf(last.SpotID),
		}
		if start, err := last.StartedAt(); err == nil {
			sess.Start = start
		}
		st.Last = sess
	}

	if ds != nil {
		for _, sp := range ds.Spots {
			if sp.CreatedBy != "" && sp.CreatedBy == user.ID {
				st.CreatedSpots++
			}
			for _, r := range sp.Reviews {
				if r.AuthorName != "" && r.AuthorName == user.Name {
					st.Reviews++
				}
			}
		}
	}
	return st
}
