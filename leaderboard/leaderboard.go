// Package leaderboard ranks users by time spent on spots or by points.
package leaderboard

import (
	"fmt"
	"sort"
	"time"

	"github.com/poorspot/spotd/models"
)

// Limit is the maximum number of ranked entries.
const Limit = 50

// Period restricts time rankings to sessions started after a cutoff.
type Period string

const (
	Forever Period = "forever"
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

// Sort orders.
const (
	ByTime   = "time"
	ByPoints = "points"
)

// Entry is one ranked user. Score is seconds or points depending on the
// ranking.
type Entry struct {
	UserID            string   `json:"userId"`
	Name              string   `json:"name"`
	Score             int64    `json:"score"`
	Attributes        []string `json:"attributes,omitempty"`
	AchievementsCount int      `json:"achievements_count,omitempty"`
}

// ParsePeriod accepts the empty string as Forever.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return Forever, nil
	case Forever, Daily, Weekly, Monthly:
		return p, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

// Cutoff returns the earliest start counted for p, zero for Forever.
func (p Period) Cutoff(now time.Time) time.Time {
	switch p {
	case Daily:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case Weekly:
		return now.AddDate(0, 0, -7)
	case Monthly:
		return now.AddDate(0, 0, -30)
	default:
		return time.Time{}
	}
}

// Time ranks users by closed session seconds started within the period.
// Users with no counted time are left out.
func Time(users []models.User, p Period, now time.Time) []Entry {
	cutoff := p.Cutoff(now)
	entries := []Entry{}
	for _, u := range users {
		var total int64
		for _, rec := range u.History {
			if !rec.IsClosed() {
				continue
			}
			if !cutoff.IsZero() {
				start, err := rec.StartedAt()
				if err != nil || start.Before(cutoff) {
					continue
				}
			}
			total += rec.DurationSeconds
		}
		if total > 0 {
			entries = append(entries, Entry{UserID: u.ID, Name: u.Name, Score: total, Attributes: u.Attributes})
		}
	}
	return rank(entries)
}

// Points ranks users holding at least one point.
func Points(users []models.User) []Entry {
	entries := []Entry{}
	for _, u := range users {
		if u.Points > 0 {
			entries = append(entries, Entry{UserID: u.ID, Name: u.Name, Score: int64(u.Points), AchievementsCount: len(u.Achievements)})
		}
	}
	return rank(entries)
}

func rank(entries []Entry) []Entry {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Name < entries[j].Name
	})
	if len(entries) > Limit {
		entries = entries[:Limit]
	}
	return entries
}
