package achievement

import (
	"go.uber.org/zap"

	"github.com/poorspot/spotd/models"
)

// SyncReport summarizes a SyncAll pass.
type SyncReport struct {
	Users          int `json:"users"`
	Reordered      int `json:"reordered"`
	DatesRepaired  int `json:"dates_repaired"`
	PointsRepaired int `json:"points_repaired"`
	UsersUnlocked  int `json:"users_unlocked"`
	Unlocked       int `json:"unlocked"`
}

// Changed reports whether the dataset needs saving.
func (r SyncReport) Changed() bool {
	return r.Reordered > 0 || r.DatesRepaired > 0 || r.PointsRepaired > 0 || r.Unlocked > 0
}

// SyncAll brings every user in line with the current rules: histories are
// sorted newest first, a creation date later than the first visit is moved
// back to that visit, points are reconciled with the catalog and missing
// achievements are awarded.
func (e *Engine) SyncAll(ds *models.Dataset) SyncReport {
	var rep SyncReport
	if ds == nil {
		return rep
	}
	for i := range ds.Users {
		u := &ds.Users[i]
		rep.Users++

		if u.SortHistory() {
			rep.Reordered++
		}
		if repairCreatedAt(u) {
			rep.DatesRepaired++
		}
		if e.Reconcile(u) {
			rep.PointsRepaired++
		}
		if n := len(e.Evaluate(u, ds)); n > 0 {
			rep.UsersUnlocked++
			rep.Unlocked += n
		}
	}
	e.logger.Info("achievement sync finished",
		zap.Int("users", rep.Users),
		zap.Int("reordered", rep.Reordered),
		zap.Int("dates_repaired", rep.DatesRepaired),
		zap.Int("points_repaired", rep.PointsRepaired),
		zap.Int("unlocked", rep.Unlocked))
	return rep
}

// repairCreatedAt expects a sorted history.
func repairCreatedAt(u *models.User) bool {
	if len(u.History) == 0 {
		return false
	}
	first, err := u.History[len(u.History)-1].StartedAt()
	if err != nil {
		return false
	}
	created, err := models.ParseTimestamp(u.CreatedAt)
	if err == nil && !first.Before(created) {
		return false
	}
	u.CreatedAt = models.FormatTimestamp(first)
	return true
}
