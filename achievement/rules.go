package achievement

import "time"

// Predicate decides whether a rule is satisfied by the aggregates.
type Predicate func(*Stats) bool

// Rule binds a catalog id to its unlock condition.
type Rule struct {
	ID   string
	When Predicate
}

const (
	hour = int64(time.Hour / time.Second)

	topRating = 4.8
)

func always(*Stats) bool { return true }

func closedAtLeast(n int) Predicate {
	return func(s *Stats) bool { return s.ClosedSessions >= n }
}

func totalHours(h int64) Predicate {
	return func(s *Stats) bool { return s.TotalSeconds >= h*hour }
}

func distinctSpots(n int) Predicate {
	return func(s *Stats) bool { return s.DistinctSpots >= n }
}

func categoryVisits(n int, categories ...string) Predicate {
	return func(s *Stats) bool { return s.CategoryCount(categories...) >= n }
}

func allCategories(categories ...string) Predicate {
	return func(s *Stats) bool {
		for _, c := range categories {
			if s.CategoryCount(c) == 0 {
				return false
			}
		}
		return true
	}
}

func counter(n int, pick func(*Stats) int) Predicate {
	return func(s *Stats) bool { return pick(s) >= n }
}

func last(p func(*Session) bool) Predicate {
	return func(s *Stats) bool { return s.Last != nil && p(s.Last) }
}

func lastStartedBetween(from, to int) Predicate {
	return last(func(l *Session) bool {
		if !l.HasStart() {
			return false
		}
		h := l.Start.Hour()
		return h >= from && h < to
	})
}

func lastRated(p func(*Session) bool) Predicate {
	return last(func(l *Session) bool { return l.Rated() && p(l) })
}

var defaultRules = []Rule{
	{"welcome", always},
	{"first_step", closedAtLeast(1)},

	{"time_1h", totalHours(1)},
	{"time_5h", totalHours(5)},
	{"time_10h", totalHours(10)},
	{"time_24h", totalHours(24)},
	{"time_100h", totalHours(100)},

	{"explorer_3", distinctSpots(3)},
	{"explorer_10", distinctSpots(10)},
	{"explorer_15", distinctSpots(15)},
	{"explorer_20", distinctSpots(20)},
	{"jack_of_all", allCategories(coreCategories...)},

	{"tourist", categoryVisits(3, CategoryTourisme)},
	{"biz_man", categoryVisits(3, CategoryBusiness)},
	{"night_crawler", categoryVisits(3, CategoryNightlife)},
	{"shopaholic", categoryVisits(3, CategoryShopping)},
	{"commuter", categoryVisits(3, CategoryTransport)},
	{"culture_vulture", categoryVisits(3, CategoryCulture)},
	{"market_regular", categoryVisits(3, CategoryMarket)},
	{"event_hunter", categoryVisits(3, CategoryEvent)},
	{"nature_lover", categoryVisits(3, CategoryNature, CategoryParc)},

	{"creator_1", counter(1, func(s *Stats) int { return s.CreatedSpots })},
	{"creator_5", counter(5, func(s *Stats) int { return s.CreatedSpots })},
	{"creator_10", counter(10, func(s *Stats) int { return s.CreatedSpots })},
	{"critic_1", counter(1, func(s *Stats) int { return s.Reviews })},
	{"critic_5", counter(5, func(s *Stats) int { return s.Reviews })},
	{"critic_20", counter(20, func(s *Stats) int { return s.Reviews })},

	{"loyal_5", counter(5, func(s *Stats) int { return s.MaxVisits })},
	{"loyal_10", counter(10, func(s *Stats) int { return s.MaxVisits })},
	{"flash", counter(10, func(s *Stats) int { return s.Flash })},
	{"afterwork", counter(5, func(s *Stats) int { return s.Afterwork })},
	{"insomniac", counter(5, func(s *Stats) int { return s.Insomnia })},
	{"gold_digger", counter(5, func(s *Stats) int { return s.HighRevenue })},
	{"hard_times", counter(5, func(s *Stats) int { return s.LowRevenue })},
	{"daredevil", counter(5, func(s *Stats) int { return s.LowSecurity })},
	{"lone_wolf", counter(5, func(s *Stats) int { return s.LowTraffic })},

	{"marathon", last(func(l *Session) bool { return l.Duration >= 3*hour })},
	{"camping", last(func(l *Session) bool { return l.Duration >= 5*hour })},
	{"sprint", last(func(l *Session) bool { return l.Duration < flashSessionSeconds })},
	{"early_bird", lastStartedBetween(5, 8)},
	{"lunch_time", lastStartedBetween(12, 14)},
	{"night_owl", lastStartedBetween(2, 5)},
	{"weekender", last(func(l *Session) bool {
		if !l.HasStart() {
			return false
		}
		d := l.Start.Weekday()
		return d == time.Saturday || d == time.Sunday
	})},
	{"rich_zone", lastRated(func(l *Session) bool { return l.Ratings.Revenue >= topRating })},
	{"safe_zone", lastRated(func(l *Session) bool { return l.Ratings.Security >= topRating })},
	{"busy_zone", lastRated(func(l *Session) bool { return l.Ratings.Traffic >= topRating })},
	{"risk_taker", lastRated(func(l *Session) bool { return l.Ratings.Security < 2.5 })},
	{"ghost", lastRated(func(l *Session) bool { return l.Ratings.Traffic < 1.5 })},
	{"star", lastRated(func(l *Session) bool { return l.Ratings.Revenue > 4.0 && l.Ratings.Traffic > 4.0 })},
	{"kamikaze", lastRated(func(l *Session) bool { return l.Ratings.Security < 1.5 && l.Ratings.Traffic > 4.0 })},
}

// DefaultRules returns the built-in rule table.
func DefaultRules() []Rule {
	out := make([]Rule, len(defaultRules))
	copy(out, defaultRules)
	return out
}
