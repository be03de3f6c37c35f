package achievement

import (
	"reflect"
	"testing"
	"time"

	"github.com/poorspot/spotd/models"
)

func ids(defs []models.AchievementDefinition) []string {
	out := []string{}
	for _, d := range defs {
		out = append(out, d.ID)
	}
	return out
}

func closed(spotID string, start time.Time, secs int64) models.CheckInLog {
	return models.CheckInLog{SpotID: spotID, SpotName: spotID, Timestamp: models.FormatTimestamp(start), DurationSeconds: secs}
}

func TestCatalogAndRulesAgree(t *testing.T) {
	rules := map[string]bool{}
	for _, r := range defaultRules {
		if rules[r.ID] {
			t.Fatalf("rule %q declared twice", r.ID)
		}
		rules[r.ID] = true
	}
	for _, d := range defaultCatalog {
		if !rules[d.ID] {
			t.Errorf("catalog entry %q has no rule", d.ID)
		}
		if d.Points <= 0 {
			t.Errorf("catalog entry %q has no points", d.ID)
		}
	}
	if len(rules) != len(defaultCatalog) {
		t.Fatalf("rules=%d catalog=%d", len(rules), len(defaultCatalog))
	}
}

func TestKnownPointValues(t *testing.T) {
	e := Default()
	want := map[string]int{
		"first_step": 10, "explorer_3": 50, "explorer_10": 200,
		"time_1h": 20, "time_10h": 150, "time_24h": 500,
		"night_owl": 100, "biz_man": 75, "tourist": 75,
	}
	for id, pts := range want {
		d, ok := e.Definition(id)
		if !ok || d.Points != pts {
			t.Errorf("%s: got %+v, want %d points", id, d, pts)
		}
	}
}

func TestNewEngineRejectsUnknownRule(t *testing.T) {
	_, err := NewEngine(DefaultCatalog(), []Rule{{ID: "nope", When: always}})
	if err == nil {
		t.Fatalf("expected error for rule without catalog entry")
	}
	_, err = NewEngine([]models.AchievementDefinition{{ID: "a"}, {ID: "a"}}, nil)
	if err == nil {
		t.Fatalf("expected error for duplicate definition")
	}
}

func TestEvaluateFirstSessionsOnWeekday(t *testing.T) {
	wed := time.Date(2025, time.May, 7, 10, 0, 0, 0, time.Local)
	u := &models.User{ID: "u1", Name: "jo", Achievements: []string{"welcome"}, Points: 5, History: []models.CheckInLog{
		closed("c", wed, 1300),
		closed("b", wed.Add(-2*time.Hour), 1200),
		closed("a", wed.Add(-4*time.Hour), 1200),
	}}
	ds := &models.Dataset{Users: []models.User{*u}, Spots: []models.Spot{{ID: "a"}, {ID: "b"}, {ID: "c"}}}

	got := Default().Evaluate(u, ds)
	if want := []string{"first_step", "time_1h", "explorer_3"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("unlocked %v, want %v", ids(got), want)
	}
	if u.Points != 5+10+20+50 {
		t.Fatalf("points=%d", u.Points)
	}
	if TotalPoints(got) != 80 {
		t.Fatalf("TotalPoints=%d", TotalPoints(got))
	}
}

func TestEvaluateShortNightSessionOnSaturday(t *testing.T) {
	sat := time.Date(2025, time.May, 3, 2, 30, 0, 0, time.Local)
	u := &models.User{ID: "u1", Achievements: []string{"welcome", "first_step"}, Points: 15, History: []models.CheckInLog{
		closed("a", sat, 200),
	}}
	got := Default().Evaluate(u, &models.Dataset{Spots: []models.Spot{{ID: "a"}}})
	if want := []string{"sprint", "night_owl", "weekender"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("unlocked %v, want %v", ids(got), want)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	sat := time.Date(2025, time.May, 3, 2, 30, 0, 0, time.Local)
	u := &models.User{ID: "u1", History: []models.CheckInLog{closed("a", sat, 4*3600)}}
	ds := &models.Dataset{Spots: []models.Spot{{ID: "a"}}}
	e := Default()

	first := e.Evaluate(u, ds)
	if len(first) == 0 {
		t.Fatalf("expected unlocks")
	}
	points := u.Points
	held := append([]string(nil), u.Achievements...)

	if again := e.Evaluate(u, ds); len(again) != 0 {
		t.Fatalf("second evaluation unlocked %v", ids(again))
	}
	if u.Points != points || !reflect.DeepEqual(u.Achievements, held) {
		t.Fatalf("state changed on re-evaluation")
	}
	if !u.HasAchievement("welcome") || !u.HasAchievement("marathon") {
		t.Fatalf("expected welcome backfill and marathon, got %v", u.Achievements)
	}
}

func TestOpenRecordsDoNotCount(t *testing.T) {
	now := time.Date(2025, time.May, 7, 10, 0, 0, 0, time.Local)
	u := &models.User{ID: "u1", Achievements: []string{"welcome"}, History: []models.CheckInLog{
		{SpotID: "a", Timestamp: models.FormatTimestamp(now)},
	}}
	if got := Default().Evaluate(u, &models.Dataset{}); len(got) != 0 {
		t.Fatalf("open record unlocked %v", ids(got))
	}
}

func TestQualityCountersNeedReviews(t *testing.T) {
	wed := time.Date(2025, time.May, 7, 10, 0, 0, 0, time.Local)
	var hist []models.CheckInLog
	for i := 0; i < 5; i++ {
		hist = append(hist, closed("quiet", wed.Add(-time.Duration(i)*time.Hour), 600))
	}
	u := &models.User{ID: "u1", History: hist}

	unrated := &models.Dataset{Spots: []models.Spot{{ID: "quiet"}}}
	st := ComputeStats(u, unrated)
	if st.LowTraffic != 0 || st.LowRevenue != 0 || st.LowSecurity != 0 {
		t.Fatalf("unrated spot counted: %+v", st)
	}
	if got := Default().Evaluate(u, unrated); contains(ids(got), "lone_wolf") || contains(ids(got), "ghost") {
		t.Fatalf("quality badge without reviews: %v", ids(got))
	}

	u2 := &models.User{ID: "u2", History: hist}
	rated := &models.Dataset{Spots: []models.Spot{{ID: "quiet", Reviews: []models.Review{
		{RatingRevenue: 3, RatingSecurity: 3, RatingTraffic: 1},
	}}}}
	got := ids(Default().Evaluate(u2, rated))
	if !contains(got, "lone_wolf") || !contains(got, "ghost") || !contains(got, "loyal_5") {
		t.Fatalf("expected lone_wolf, ghost and loyal_5, got %v", got)
	}
	if contains(got, "hard_times") || contains(got, "daredevil") {
		t.Fatalf("unexpected badges %v", got)
	}
}

func TestCategoryRules(t *testing.T) {
	wed := time.Date(2025, time.May, 7, 10, 0, 0, 0, time.Local)
	spots := []models.Spot{
		{ID: "t1", Category: CategoryTourisme}, {ID: "t2", Category: CategoryTourisme}, {ID: "t3", Category: CategoryTourisme},
		{ID: "b", Category: CategoryBusiness}, {ID: "n", Category: CategoryNightlife}, {ID: "s", Category: CategoryShopping},
		{ID: "tr", Category: CategoryTransport}, {ID: "c", Category: CategoryCulture},
		{ID: "na", Category: CategoryNature}, {ID: "p1", Category: CategoryParc}, {ID: "p2", Category: CategoryParc},
	}
	u := &models.User{ID: "u1"}
	for i, sp := range spots {
		u.History = append(u.History, closed(sp.ID, wed.Add(-time.Duration(i)*time.Hour), 600))
	}
	got := ids(Default().Evaluate(u, &models.Dataset{Spots: spots}))
	for _, id := range []string{"tourist", "jack_of_all", "nature_lover", "explorer_10"} {
		if !contains(got, id) {
			t.Errorf("missing %s in %v", id, got)
		}
	}
	if contains(got, "biz_man") {
		t.Errorf("biz_man needs three business spots")
	}
}

func TestContributionCounters(t *testing.T) {
	u := &models.User{ID: "u1", Name: "jo"}
	ds := &models.Dataset{Spots: []models.Spot{
		{ID: "a", CreatedBy: "u1", Reviews: []models.Review{{AuthorName: "jo"}, {AuthorName: "other"}}},
		{ID: "b", CreatedBy: "someone"},
	}}
	st := ComputeStats(u, ds)
	if st.CreatedSpots != 1 || st.Reviews != 1 {
		t.Fatalf("stats=%+v", st)
	}
	got := ids(Default().Evaluate(u, ds))
	if !contains(got, "creator_1") || !contains(got, "critic_1") || contains(got, "first_step") {
		t.Fatalf("got %v", got)
	}
}

func TestReconcileRemovesDriftAndDuplicates(t *testing.T) {
	e := Default()
	u := &models.User{ID: "u1", Achievements: []string{"welcome", "first_step", "welcome", "retired"}, Points: 999}
	if !e.Reconcile(u) {
		t.Fatalf("expected change")
	}
	if want := []string{"welcome", "first_step", "retired"}; !reflect.DeepEqual(u.Achievements, want) {
		t.Fatalf("achievements=%v", u.Achievements)
	}
	if u.Points != 15 {
		t.Fatalf("points=%d, want 15", u.Points)
	}
	if e.Reconcile(u) {
		t.Fatalf("second reconcile should be a no-op")
	}
}

func TestGrant(t *testing.T) {
	e := Default()
	u := &models.User{ID: "u1"}
	if _, ok := e.Grant(u, "welcome"); !ok || u.Points != 5 {
		t.Fatalf("grant failed: %+v", u)
	}
	if _, ok := e.Grant(u, "welcome"); ok {
		t.Fatalf("welcome granted twice")
	}
	if _, ok := e.Grant(u, "missing"); ok {
		t.Fatalf("unknown id granted")
	}
}

func TestSyncAll(t *testing.T) {
	t0 := time.Date(2025, time.April, 1, 9, 0, 0, 0, time.Local)
	ds := &models.Dataset{
		Spots: []models.Spot{{ID: "a"}},
		Users: []models.User{{
			ID:           "u1",
			CreatedAt:    models.FormatTimestamp(t0.Add(48 * time.Hour)),
			Achievements: []string{"welcome", "welcome"},
			Points:       42,
			History: []models.CheckInLog{
				closed("a", t0, 600),
				closed("a", t0.Add(24*time.Hour), 600),
			},
		}},
	}
	rep := Default().SyncAll(ds)
	u := ds.Users[0]
	if !rep.Changed() || rep.DatesRepaired != 1 || rep.PointsRepaired != 1 || rep.UsersUnlocked != 1 {
		t.Fatalf("report=%+v", rep)
	}
	if u.CreatedAt != models.FormatTimestamp(t0) {
		t.Fatalf("createdAt=%s", u.CreatedAt)
	}
	if u.History[0].Timestamp != models.FormatTimestamp(t0.Add(24*time.Hour)) {
		t.Fatalf("history not sorted newest first")
	}
	if u.Points != 5+10 {
		t.Fatalf("points=%d", u.Points)
	}
	if again := Default().SyncAll(ds); again.Changed() {
		t.Fatalf("second sync changed data: %+v", again)
	}
}

func TestSyncAllReportsSortOnlyRepair(t *testing.T) {
	t0 := time.Date(2025, time.April, 1, 9, 0, 0, 0, time.Local)
	ds := &models.Dataset{
		Spots: []models.Spot{{ID: "a"}},
		Users: []models.User{{
			ID:           "u1",
			CreatedAt:    models.FormatTimestamp(t0),
			Achievements: []string{"welcome", "first_step"},
			Points:       15,
			History: []models.CheckInLog{
				closed("a", t0, 600),
				closed("a", t0.Add(24*time.Hour), 600),
			},
		}},
	}
	rep := Default().SyncAll(ds)
	if rep.Reordered != 1 || rep.DatesRepaired != 0 || rep.PointsRepaired != 0 || rep.Unlocked != 0 {
		t.Fatalf("report=%+v", rep)
	}
	if !rep.Changed() {
		t.Fatalf("a reordered history must be saved")
	}
	if again := Default().SyncAll(ds); again.Changed() {
		t.Fatalf("second sync changed data: %+v", again)
	}
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
