// Package occupancy tracks who is currently standing on which spot and keeps
// each user's history ledger consistent with it. At most one user holds a
// spot and a user holds at most one spot.
package occupancy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/poorspot/spotd/achievement"
	"github.com/poorspot/spotd/models"
	"github.com/poorspot/spotd/store"
)

// DefaultOrphanCap bounds the duration credited to a session whose end was
// never recorded.
const DefaultOrphanCap = 4 * time.Hour

// Occupant is the volatile record of who holds a spot.
type Occupant struct {
	UserID   string    `json:"userId"`
	UserName string    `json:"userName"`
	Since    time.Time `json:"since"`
}

// OccupyResult is returned by Occupy.
type OccupyResult struct {
	Status          string                         `json:"status"`
	HistoryEntry    models.CheckInLog              `json:"history_entry"`
	NewAchievements []models.AchievementDefinition `json:"new_achievements"`
	TotalPoints     int                            `json:"total_points"`
}

// ReleaseResult is returned by Release.
type ReleaseResult struct {
	Status          string                         `json:"status"`
	Duration        int64                          `json:"duration"`
	NewAchievements []models.AchievementDefinition `json:"new_achievements"`
	TotalPoints     int                            `json:"total_points"`
}

// Registry owns the occupation map. One mutex covers the map, the matching
// ledger change and the save, so the map is only touched once the snapshot
// is durable.
type Registry struct {
	mu        sync.Mutex
	occupants map[string]Occupant

	store     store.Store
	engine    *achievement.Engine
	logger    *zap.Logger
	now       func() time.Time
	orphanCap time.Duration
	notifiers []Notifier
}

// Option customizes a Registry.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithOrphanCap sets the maximum duration credited to orphaned sessions.
func WithOrphanCap(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.orphanCap = d
		}
	}
}

// WithNotifier subscribes n to occupation events.
func WithNotifier(n Notifier) Option {
	return func(r *Registry) {
		if n != nil {
			r.notifiers = append(r.notifiers, n)
		}
	}
}

// NewRegistry returns an empty registry backed by st.
func NewRegistry(st store.Store, engine *achievement.Engine, opts ...Option) *Registry {
	r := &Registry{
		occupants: make(map[string]Occupant),
		store:     st,
		engine:    engine,
		logger:    zap.NewNop(),
		now:       time.Now,
		orphanCap: DefaultOrphanCap,
	}
	if r.engine == nil {
		r.engine = achievement.Default()
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Occupations returns a copy of the current map keyed by spot id.
func (r *Registry) Occupations() map[string]Occupant {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Occupant, len(r.occupants))
	for k, v := range r.occupants {
		out[k] = v
	}
	return out
}

// View loads a snapshot under the registry lock. fn must not keep ds.
func (r *Registry) View(ctx context.Context, fn func(ds *models.Dataset) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ds, err := r.store.Load(ctx)
	if err != nil {
		return err
	}
	return fn(ds)
}

// Update applies fn to a fresh snapshot and saves it when fn succeeds. It
// shares the lock with occupation changes so the two never overwrite each
// other.
func (r *Registry) Update(ctx context.Context, fn func(ds *models.Dataset) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ds, err := r.store.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(ds); err != nil {
		return err
	}
	return r.store.Save(ctx, ds)
}

// Engine returns the achievement engine used on session changes.
func (r *Registry) Engine() *achievement.Engine {
	return r.engine
}

// Occupy puts userID on spotID. Any other spot the user holds is released
// and its record closed; open records left over from a crash are closed with
// a capped duration.
func (r *Registry) Occupy(ctx context.Context, spotID, userID string) (*OccupyResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if occ, ok := r.occupants[spotID]; ok && occ.UserID != userID {
		return nil, ErrConflict
	}

	ds, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	user := ds.FindUser(userID)
	spot := ds.FindSpot(spotID)
	if user == nil || spot == nil {
		return nil, ErrNotFound
	}
	now := r.now()

	if _, held := r.occupants[spotID]; held {
		for _, rec := range user.History {
			if rec.SpotID == spotID && rec.IsOpen() {
				return &OccupyResult{
					Status:          EventOccupied,
					HistoryEntry:    rec,
					NewAchievements: []models.AchievementDefinition{},
					TotalPoints:     user.Points,
				}, nil
			}
		}
		r.logger.Warn("registry entry without open record", zap.String("spot_id", spotID), zap.String("user_id", userID))
	}

	var released []Event
	closedAny := false
	for sid, occ := range r.occupants {
		if occ.UserID != userID || sid == spotID {
			continue
		}
		secs := user.CloseOpenRecord(sid, now)
		if secs == 0 {
			r.logger.Warn("no closable record for held spot", zap.String("spot_id", sid), zap.String("user_id", userID))
		} else {
			closedAny = true
		}
		released = append(released, Event{Type: EventReleased, SpotID: sid, UserID: userID, UserName: user.Name, At: now, Duration: secs})
	}
	if r.closeOrphans(user, now) > 0 {
		closedAny = true
	}

	entry := user.OpenRecord(spot.ID, spot.Name, now)
	unlocked := []models.AchievementDefinition{}
	if closedAny {
		unlocked = r.engine.Evaluate(user, ds)
	}

	if err := r.store.Save(ctx, ds); err != nil {
		r.logger.Error("occupy not persisted", zap.String("spot_id", spotID), zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	for _, ev := range released {
		delete(r.occupants, ev.SpotID)
	}
	r.occupants[spotID] = Occupant{UserID: user.ID, UserName: user.Name, Since: now}

	r.logger.Info("spot occupied", zap.String("spot_id", spotID), zap.String("user_id", userID), zap.Int("auto_released", len(released)))
	r.publish(append(released, Event{Type: EventOccupied, SpotID: spotID, UserID: user.ID, UserName: user.Name, At: now})...)

	return &OccupyResult{
		Status:          EventOccupied,
		HistoryEntry:    entry,
		NewAchievements: unlocked,
		TotalPoints:     user.Points,
	}, nil
}

// Release frees spotID. Releasing a spot nobody holds is allowed and still
// closes the user's newest record if it is open on that spot.
func (r *Registry) Release(ctx context.Context, spotID, userID string) (*ReleaseResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	occ, held := r.occupants[spotID]
	if held && occ.UserID != userID {
		return nil, ErrForbidden
	}

	ds, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	user := ds.FindUser(userID)
	if user == nil {
		return nil, ErrNotFound
	}
	now := r.now()

	res := &ReleaseResult{Status: EventReleased, NewAchievements: []models.AchievementDefinition{}}
	if last, ok := user.LatestRecord(); ok && last.SpotID == spotID && last.IsOpen() {
		res.Duration = user.CloseOpenRecord(spotID, now)
		if res.Duration == 0 {
			r.logger.Warn("open record has unreadable timestamp", zap.String("spot_id", spotID), zap.String("user_id", userID), zap.String("timestamp", last.Timestamp))
		} else {
			res.NewAchievements = r.engine.Evaluate(user, ds)
			if err := r.store.Save(ctx, ds); err != nil {
				r.logger.Error("release not persisted", zap.String("spot_id", spotID), zap.String("user_id", userID), zap.Error(err))
				return nil, err
			}
		}
	}
	res.TotalPoints = user.Points

	if held {
		delete(r.occupants, spotID)
		r.publish(Event{Type: EventReleased, SpotID: spotID, UserID: userID, UserName: user.Name, At: now, Duration: res.Duration})
	}
	r.logger.Info("spot released", zap.String("spot_id", spotID), zap.String("user_id", userID), zap.Int64("duration", res.Duration))
	return res, nil
}

// Drain closes every registered occupation at the current time, persists
// once and empties the registry. On a failed save the registry is kept.
func (r *Registry) Drain(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.occupants) == 0 {
		return nil
	}
	ds, err := r.store.Load(ctx)
	if err != nil {
		return err
	}
	now := r.now()

	touched := map[string]*models.User{}
	var events []Event
	for sid, occ := range r.occupants {
		user := ds.FindUser(occ.UserID)
		if user == nil {
			r.logger.Warn("drain: occupant no longer exists", zap.String("spot_id", sid), zap.String("user_id", occ.UserID))
			events = append(events, Event{Type: EventReleased, SpotID: sid, UserID: occ.UserID, At: now})
			continue
		}
		secs := user.CloseOpenRecord(sid, now)
		touched[user.ID] = user
		events = append(events, Event{Type: EventReleased, SpotID: sid, UserID: user.ID, UserName: user.Name, At: now, Duration: secs})
	}
	for _, u := range touched {
		r.engine.Evaluate(u, ds)
	}

	if err := r.store.Save(ctx, ds); err != nil {
		r.logger.Error("drain not persisted", zap.Int("occupations", len(r.occupants)), zap.Error(err))
		return fmt.Errorf("drain: %w", err)
	}
	r.occupants = make(map[string]Occupant)
	r.logger.Info("occupations drained", zap.Int("count", len(events)))
	r.publish(events...)
	return nil
}

// RecoverOrphans closes open records that no registry entry backs, crediting
// at most the orphan cap. It returns how many records were closed.
func (r *Registry) RecoverOrphans(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ds, err := r.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	now := r.now()
	total := 0
	for i := range ds.Users {
		u := &ds.Users[i]
		if n := r.closeOrphans(u, now); n > 0 {
			total += n
			r.engine.Evaluate(u, ds)
		}
	}
	if total == 0 {
		return 0, nil
	}
	if err := r.store.Save(ctx, ds); err != nil {
		return 0, fmt.Errorf("recover orphans: %w", err)
	}
	r.logger.Info("orphan sessions closed", zap.Int("count", total), zap.Duration("cap", r.orphanCap))
	return total, nil
}

// closeOrphans closes the user's open records that are not backed by a
// registry entry for that same user.
func (r *Registry) closeOrphans(user *models.User, now time.Time) int {
	n := 0
	for _, rec := range user.OpenRecords() {
		if occ, ok := r.occupants[rec.SpotID]; ok && occ.UserID == user.ID {
			continue
		}
		if user.CloseOpenRecordCapped(rec.SpotID, now, r.orphanCap) == 0 {
			r.logger.Warn("orphan record left open", zap.String("user_id", user.ID), zap.String("spot_id", rec.SpotID), zap.String("timestamp", rec.Timestamp))
			continue
		}
		n++
	}
	return n
}

func (r *Registry) publish(events ...Event) {
	for _, n := range r.notifiers {
		for _, ev := range events {
			n.Notify(ev)
		}
	}
}
