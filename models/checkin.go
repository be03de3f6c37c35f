package models

import (
	"math"
	"sort"
	"time"
)

// CheckInLog is one visit of a user to a spot. DurationSeconds == 0 means the
// session is still open.
type CheckInLog struct {
	RowID           uint   `gorm:"primaryKey" json:"-" bson:"-"`
	UserID          string `gorm:"index;size:64;not null" json:"-" bson:"-"`
	Position        int    `gorm:"not null;default:0" json:"-" bson:"-"`
	SpotID          string `gorm:"size:64;not null" json:"spotId" bson:"spotId"`
	SpotName        string `gorm:"size:255" json:"spotName" bson:"spotName"`
	Timestamp       string `gorm:"size:40;not null" json:"timestamp" bson:"timestamp"`
	DurationSeconds int64  `gorm:"not null;default:0" json:"durationSeconds" bson:"durationSeconds"`
}

// IsOpen reports whether the session has not been closed yet.
func (l CheckInLog) IsOpen() bool {
	return l.DurationSeconds <= 0
}

// IsClosed reports whether the record counts towards aggregates.
func (l CheckInLog) IsClosed() bool {
	return l.DurationSeconds > 0
}

// StartedAt parses the record timestamp.
func (l CheckInLog) StartedAt() (time.Time, error) {
	return ParseTimestamp(l.Timestamp)
}

// OpenRecord prepends a new open record. The caller guarantees no other record
// of this user is open.
func (u *User) OpenRecord(spotID, spotName string, now time.Time) CheckInLog {
	rec := CheckInLog{
		SpotID:    spotID,
		SpotName:  spotName,
		Timestamp: FormatTimestamp(now),
	}
	u.History = append([]CheckInLog{rec}, u.History...)
	return rec
}

// CloseOpenRecord closes the newest open record for spotID and returns its
// duration in seconds. It returns 0 and leaves the history untouched when no
// such record exists or its timestamp cannot be read.
func (u *User) CloseOpenRecord(spotID string, now time.Time) int64 {
	for i := range u.History {
		rec := &u.History[i]
		if rec.SpotID != spotID || !rec.IsOpen() {
			continue
		}
		start, err := rec.StartedAt()
		if err != nil {
			return 0
		}
		rec.DurationSeconds = elapsedSeconds(start, now)
		return rec.DurationSeconds
	}
	return 0
}

// CloseOpenRecordCapped behaves like CloseOpenRecord but never records more
// than max. Used for sessions whose real end is unknown.
func (u *User) CloseOpenRecordCapped(spotID string, now time.Time, max time.Duration) int64 {
	for i := range u.History {
		rec := &u.History[i]
		if rec.SpotID != spotID || !rec.IsOpen() {
			continue
		}
		start, err := rec.StartedAt()
		if err != nil {
			return 0
		}
		end := now
		if max > 0 && end.Sub(start) > max {
			end = start.Add(max)
		}
		rec.DurationSeconds = elapsedSeconds(start, end)
		return rec.DurationSeconds
	}
	return 0
}

// LatestRecord returns the newest record, if any.
func (u *User) LatestRecord() (*CheckInLog, bool) {
	if len(u.History) == 0 {
		return nil, false
	}
	return &u.History[0], true
}

// LatestClosedRecord returns the newest record with a positive duration.
func (u *User) LatestClosedRecord() (CheckInLog, bool) {
	for _, rec := range u.History {
		if rec.IsClosed() {
			return rec, true
		}
	}
	return CheckInLog{}, false
}

// OpenRecords lists the currently open records, newest first.
func (u *User) OpenRecords() []CheckInLog {
	var open []CheckInLog
	for _, rec := range u.History {
		if rec.IsOpen() {
			open = append(open, rec)
		}
	}
	return open
}

// SortHistory orders the history newest first and reports whether anything
// moved. Records with unreadable timestamps sink to the end, keeping their
// relative order.
func (u *User) SortHistory() bool {
	newer := func(i, j int) bool {
		ti, erri := u.History[i].StartedAt()
		tj, errj := u.History[j].StartedAt()
		switch {
		case erri != nil:
			return false
		case errj != nil:
			return true
		}
		return ti.After(tj)
	}
	if sort.SliceIsSorted(u.History, newer) {
		return false
	}
	sort.SliceStable(u.History, newer)
	return true
}

// elapsedSeconds floors the interval to whole seconds. A closed record always
// keeps at least one second so it never reads back as open.
func elapsedSeconds(start, end time.Time) int64 {
	secs := int64(math.Floor(end.Sub(start).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
