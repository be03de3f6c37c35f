// Package achievement unlocks badges from a user's closed history. Unlocks
// are one-way and every id is awarded at most once.
package achievement

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/poorspot/spotd/models"
)

// Engine evaluates the rule table against users.
type Engine struct {
	catalog []models.AchievementDefinition
	byID    map[string]models.AchievementDefinition
	rules   map[string]Predicate
	logger  *zap.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for unlock events.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine builds an engine from a catalog and its rules. Every rule must
// name a catalog entry; catalog entries without a rule are never unlocked.
func NewEngine(catalog []models.AchievementDefinition, rules []Rule, opts ...Option) (*Engine, error) {
	e := &Engine{
		catalog: make([]models.AchievementDefinition, 0, len(catalog)),
		byID:    make(map[string]models.AchievementDefinition, len(catalog)),
		rules:   make(map[string]Predicate, len(rules)),
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(e)
	}
	for _, d := range catalog {
		if d.ID == "" {
			return nil, fmt.Errorf("achievement definition without id")
		}
		if _, dup := e.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate achievement %q", d.ID)
		}
		e.byID[d.ID] = d
		e.catalog = append(e.catalog, d)
	}
	for _, r := range rules {
		if _, ok := e.byID[r.ID]; !ok {
			return nil, fmt.Errorf("rule %q has no catalog entry", r.ID)
		}
		if r.When == nil {
			return nil, fmt.Errorf("rule %q has no predicate", r.ID)
		}
		e.rules[r.ID] = r.When
	}
	return e, nil
}

// Default returns an engine over the built-in catalog and rules.
func Default(opts ...Option) *Engine {
	e, err := NewEngine(defaultCatalog, defaultRules, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Catalog returns the definitions in display order.
func (e *Engine) Catalog() []models.AchievementDefinition {
	out := make([]models.AchievementDefinition, len(e.catalog))
	copy(out, e.catalog)
	return out
}

// Definition looks up a catalog entry.
func (e *Engine) Definition(id string) (models.AchievementDefinition, bool) {
	d, ok := e.byID[id]
	return d, ok
}

// Grant unlocks id directly, outside of rule evaluation. It reports false
// when the user already holds it or the id is unknown.
func (e *Engine) Grant(user *models.User, id string) (models.AchievementDefinition, bool) {
	def, ok := e.byID[id]
	if !ok || user.HasAchievement(id) {
		return models.AchievementDefinition{}, false
	}
	e.unlock(user, def)
	return def, true
}

// Evaluate runs every rule the user has not satisfied yet and returns the
// newly unlocked definitions in catalog order.
func (e *Engine) Evaluate(user *models.User, ds *models.Dataset) []models.AchievementDefinition {
	if user == nil {
		return nil
	}
	var stats *Stats
	unlocked := []models.AchievementDefinition{}
	for _, def := range e.catalog {
		when, ok := e.rules[def.ID]
		if !ok || user.HasAchievement(def.ID) {
			continue
		}
		if stats == nil {
			stats = ComputeStats(user, ds)
		}
		if when(stats) {
			e.unlock(user, def)
			unlocked = append(unlocked, def)
		}
	}
	return unlocked
}

// Reconcile removes duplicate ids and recomputes points from the catalog.
// Ids missing from the catalog are kept and count for nothing. It reports
// whether the user changed.
func (e *Engine) Reconcile(user *models.User) bool {
	seen := make(map[string]struct{}, len(user.Achievements))
	ids := make([]string, 0, len(user.Achievements))
	points := 0
	for _, id := range user.Achievements {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
		points += e.byID[id].Points
	}
	changed := len(ids) != len(user.Achievements) || points != user.Points
	if changed {
		e.logger.Info("achievements reconciled",
			zap.String("user_id", user.ID),
			zap.Int("points_before", user.Points),
			zap.Int("points_after", points),
			zap.Int("duplicates", len(user.Achievements)-len(ids)))
	}
	user.Achievements = ids
	user.Points = points
	return changed
}

// TotalPoints sums catalog points over the given definitions.
func TotalPoints(defs []models.AchievementDefinition) int {
	n := 0
	for _, d := range defs {
		n += d.Points
	}
	return n
}

func (e *Engine) unlock(user *models.User, def models.AchievementDefinition) {
	user.Achievements = append(user.Achievements, def.ID)
	user.Points += def.Points
	e.logger.Info("achievement unlocked",
		zap.String("user_id", user.ID),
		zap.String("achievement", def.ID),
		zap.Int("points", def.Points))
}
