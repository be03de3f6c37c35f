package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/poorspot/spotd/achievement"
	"github.com/poorspot/spotd/config"
	"github.com/poorspot/spotd/models"
	"github.com/poorspot/spotd/occupancy"
	"github.com/poorspot/spotd/store"
	"github.com/poorspot/spotd/utils"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type session struct {
	User struct {
		ID           string   `json:"id"`
		Name         string   `json:"name"`
		Points       int      `json:"points"`
		Achievements []string `json:"achievements"`
		PasswordHash string   `json:"password_hash"`
	} `json:"user"`
	Token string `json:"token"`
}

func testConfig() config.AppConfig {
	return config.AppConfig{
		JWTSecret:          "router-test",
		TokenTTLHours:      1,
		RateLimitPerMinute: 1000,
		GinMode:            "test",
	}
}

func newTestServer(t *testing.T) (*gin.Engine, *store.MemoryStore) {
	t.Helper()
	cfg := testConfig()
	config.Set(cfg)

	hash, err := utils.HashPassword("secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	st := store.NewMemoryStore(&models.Dataset{
		Users: []models.User{
			{ID: "u2", Name: "bob", PasswordHash: hash, Achievements: []string{"welcome"}, Points: 5},
		},
		Spots: []models.Spot{
			{ID: "a", Name: "Gare", Category: achievement.CategoryTransport},
			{ID: "b", Name: "Marché", Category: achievement.CategoryMarket},
		},
	})
	reg := occupancy.NewRegistry(st, achievement.Default())
	return SetupRouter(reg, nil, cfg), st
}

func call(t *testing.T, r http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
	}
	return w, env
}

func register(t *testing.T, r http.Handler, name string) session {
	t.Helper()
	w, env := call(t, r, http.MethodPost, "/users/register", "", gin.H{"username": name, "password": "hunter22"})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", name, w.Code, w.Body.String())
	}
	var s session
	if err := json.Unmarshal(env.Data, &s); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return s
}

func TestRegisterGrantsWelcomeAndHidesHash(t *testing.T) {
	r, st := newTestServer(t)
	s := register(t, r, "carol")

	if s.Token == "" || s.User.ID == "" {
		t.Fatalf("missing token or id: %+v", s)
	}
	if s.User.PasswordHash != "" {
		t.Fatalf("password hash leaked")
	}
	if s.User.Points != 5 || len(s.User.Achievements) != 1 || s.User.Achievements[0] != "welcome" {
		t.Fatalf("welcome not granted: %+v", s.User)
	}
	if st.Saves() != 1 {
		t.Fatalf("saves = %d, want 1", st.Saves())
	}

	w, env := call(t, r, http.MethodPost, "/api/v1/users/register", "", gin.H{"username": "CAROL", "password": "hunter22"})
	if w.Code != http.StatusConflict || env.Code != 40901 {
		t.Fatalf("duplicate name: status %d code %d", w.Code, env.Code)
	}
}

func TestRegisteredNameCanLogIn(t *testing.T) {
	r, _ := newTestServer(t)

	for _, name := range []string{"<b>eve</b>", "tom & jerry"} {
		w, env := call(t, r, http.MethodPost, "/users/register", "", gin.H{"username": name, "password": "hunter22"})
		if w.Code != http.StatusBadRequest || env.Code != 40010 {
			t.Fatalf("register %q: status %d code %d", name, w.Code, env.Code)
		}
	}

	s := register(t, r, "  eve ")
	if s.User.Name != "eve" {
		t.Fatalf("stored name = %q", s.User.Name)
	}
	if w, _ := call(t, r, http.MethodPost, "/users/login", "", gin.H{"username": "  eve ", "password": "hunter22"}); w.Code != http.StatusOK {
		t.Fatalf("login with the registered name: status %d", w.Code)
	}
}

func TestLogin(t *testing.T) {
	r, _ := newTestServer(t)

	w, env := call(t, r, http.MethodPost, "/users/login", "", gin.H{"username": "bob", "password": "nope"})
	if w.Code != http.StatusUnauthorized || env.Code != 40110 {
		t.Fatalf("bad password: status %d code %d", w.Code, env.Code)
	}
	w, _ = call(t, r, http.MethodPost, "/users/login", "", gin.H{"username": "Bob", "password": "secret"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", w.Code, w.Body.String())
	}
}

func TestOccupyReleaseFlow(t *testing.T) {
	r, _ := newTestServer(t)
	carol := register(t, r, "carol")

	w, env := call(t, r, http.MethodPost, "/spots/a/occupy", carol.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("occupy: status %d body %s", w.Code, w.Body.String())
	}
	var occ occupancy.OccupyResult
	if err := json.Unmarshal(env.Data, &occ); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if occ.Status != "occupied" || occ.HistoryEntry.SpotID != "a" || !occ.HistoryEntry.IsOpen() {
		t.Fatalf("unexpected occupy result: %+v", occ)
	}

	_, env = call(t, r, http.MethodGet, "/occupations", "", nil)
	var occupations map[string]occupancy.Occupant
	if err := json.Unmarshal(env.Data, &occupations); err != nil {
		t.Fatalf("decode occupations: %v", err)
	}
	if occupations["a"].UserID != carol.User.ID {
		t.Fatalf("occupations = %+v", occupations)
	}

	_, env = call(t, r, http.MethodGet, "/api/v1/spots", "", nil)
	var spots []models.Spot
	if err := json.Unmarshal(env.Data, &spots); err != nil {
		t.Fatalf("decode spots: %v", err)
	}
	for _, s := range spots {
		want := 0
		if s.ID == "a" {
			want = 1
		}
		if s.CurrentActiveUsers != want {
			t.Fatalf("spot %s active = %d, want %d", s.ID, s.CurrentActiveUsers, want)
		}
	}

	if w, env := call(t, r, http.MethodPost, "/spots/a/occupy?user_id=u2", "", nil); w.Code != http.StatusConflict || env.Code != 40910 {
		t.Fatalf("conflict: status %d code %d", w.Code, env.Code)
	}
	if w, env := call(t, r, http.MethodPost, "/spots/a/release?user_id=u2", "", nil); w.Code != http.StatusForbidden || env.Code != 40310 {
		t.Fatalf("forbidden: status %d code %d", w.Code, env.Code)
	}
	if w, env := call(t, r, http.MethodPost, "/spots/b/occupy?user_id=u2", carol.Token, nil); w.Code != http.StatusForbidden || env.Code != 40302 {
		t.Fatalf("token mismatch: status %d code %d", w.Code, env.Code)
	}
	if w, env := call(t, r, http.MethodPost, "/spots/b/occupy", "", nil); w.Code != http.StatusBadRequest || env.Code != 40004 {
		t.Fatalf("missing user: status %d code %d", w.Code, env.Code)
	}
	if w, _ := call(t, r, http.MethodPost, "/spots/zzz/occupy?user_id=u2", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown spot: status %d", w.Code)
	}

	w, env = call(t, r, http.MethodPost, "/api/v1/spots/a/release?user_id="+carol.User.ID, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("release: status %d body %s", w.Code, w.Body.String())
	}
	var rel occupancy.ReleaseResult
	if err := json.Unmarshal(env.Data, &rel); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rel.Duration < 1 {
		t.Fatalf("duration = %d, want >= 1", rel.Duration)
	}
	gotFirstStep := false
	for _, def := range rel.NewAchievements {
		gotFirstStep = gotFirstStep || def.ID == "first_step"
	}
	if !gotFirstStep || rel.TotalPoints < 15 {
		t.Fatalf("first session should unlock first_step: %+v", rel)
	}
}

func TestLeaderboard(t *testing.T) {
	r, _ := newTestServer(t)
	register(t, r, "carol")

	if w, env := call(t, r, http.MethodGet, "/users/top?period=yearly", "", nil); w.Code != http.StatusBadRequest || env.Code != 40008 {
		t.Fatalf("bad period: status %d code %d", w.Code, env.Code)
	}
	if w, _ := call(t, r, http.MethodGet, "/users/top?sort_by=speed", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad sort: status %d", w.Code)
	}

	_, env := call(t, r, http.MethodGet, "/users/top?sort_by=points", "", nil)
	var entries []struct {
		Name  string `json:"name"`
		Score int64  `json:"score"`
	}
	if err := json.Unmarshal(env.Data, &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "bob" || entries[1].Name != "carol" {
		t.Fatalf("ties should sort by name: %+v", entries)
	}

	_, env = call(t, r, http.MethodGet, "/users/top", "", nil)
	if string(env.Data) != "[]" {
		t.Fatalf("time ranking without sessions = %s, want []", env.Data)
	}
}

func TestAchievementCatalog(t *testing.T) {
	r, _ := newTestServer(t)
	_, env := call(t, r, http.MethodGet, "/achievements/list", "", nil)
	var defs []models.AchievementDefinition
	if err := json.Unmarshal(env.Data, &defs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(defs) != len(achievement.DefaultCatalog()) {
		t.Fatalf("catalog size = %d", len(defs))
	}
}

func TestSpotContributions(t *testing.T) {
	r, st := newTestServer(t)
	carol := register(t, r, "carol")

	spot := gin.H{"name": "<b>Quai</b>", "latitude": 48.85, "longitude": 2.35, "category": "Culture"}
	if w, _ := call(t, r, http.MethodPost, "/spots", "", spot); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create: status %d", w.Code)
	}
	w, env := call(t, r, http.MethodPost, "/spots", carol.Token, spot)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", w.Code, w.Body.String())
	}
	var created struct {
		Spot models.Spot `json:"spot"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Spot.CreatedBy != carol.User.ID || created.Spot.Name != "Quai" {
		t.Fatalf("unexpected spot: %+v", created.Spot)
	}

	bad := gin.H{"ratingRevenue": 6, "ratingSecurity": 3, "ratingTraffic": 3}
	if w, _ := call(t, r, http.MethodPost, "/spots/a/reviews", carol.Token, bad); w.Code != http.StatusBadRequest {
		t.Fatalf("out of range rating: status %d", w.Code)
	}
	review := gin.H{"ratingRevenue": 4, "ratingSecurity": 3, "ratingTraffic": 5, "comment": "ok <script>x</script>"}
	if w, _ := call(t, r, http.MethodPost, "/spots/a/reviews", carol.Token, review); w.Code != http.StatusCreated {
		t.Fatalf("review: status %d", w.Code)
	}

	ds, _ := st.Load(t.Context())
	reviews := ds.FindSpot("a").Reviews
	if len(reviews) != 1 || reviews[0].AuthorName != "carol" || reviews[0].Comment != "ok" {
		t.Fatalf("unexpected reviews: %+v", reviews)
	}
}

func TestFavorites(t *testing.T) {
	r, _ := newTestServer(t)

	if w, env := call(t, r, http.MethodPost, "/users/u2/favorites/zzz", "", nil); w.Code != http.StatusNotFound || env.Code != 40420 {
		t.Fatalf("unknown spot: status %d code %d", w.Code, env.Code)
	}
	call(t, r, http.MethodPost, "/users/u2/favorites/a", "", nil)
	_, env := call(t, r, http.MethodPost, "/users/u2/favorites/a", "", nil)
	var res struct {
		Status    string   `json:"status"`
		Favorites []string `json:"favorites"`
	}
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Status != "ok" || len(res.Favorites) != 1 || res.Favorites[0] != "a" {
		t.Fatalf("favorites = %+v", res)
	}

	call(t, r, http.MethodDelete, "/users/u2/favorites/a", "", nil)
	_, env = call(t, r, http.MethodGet, "/users/u2/favorites", "", nil)
	if string(env.Data) != "[]" {
		t.Fatalf("favorites after delete = %s", env.Data)
	}
}

func TestAttributesAndLogout(t *testing.T) {
	r, _ := newTestServer(t)
	dave := register(t, r, "dave")

	if w, _ := call(t, r, http.MethodPut, "/users/u2/attributes", dave.Token, []string{"x"}); w.Code != http.StatusForbidden {
		t.Fatalf("edit other user: status %d", w.Code)
	}
	w, _ := call(t, r, http.MethodPut, "/users/"+dave.User.ID+"/attributes", dave.Token, []string{"VTC", "VTC", "Taxi"})
	if w.Code != http.StatusOK {
		t.Fatalf("attributes: status %d", w.Code)
	}

	if w, _ := call(t, r, http.MethodPost, "/users/logout", dave.Token, nil); w.Code != http.StatusOK {
		t.Fatalf("logout: status %d", w.Code)
	}
	if w, env := call(t, r, http.MethodPut, "/users/"+dave.User.ID+"/attributes", dave.Token, []string{}); w.Code != http.StatusUnauthorized || env.Code != 40104 {
		t.Fatalf("revoked token: status %d code %d", w.Code, env.Code)
	}
}

func TestHealthAndNoRoute(t *testing.T) {
	r, _ := newTestServer(t)
	if w, _ := call(t, r, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("health: status %d", w.Code)
	}
	if w, env := call(t, r, http.MethodGet, "/nope", "", nil); w.Code != http.StatusNotFound || env.Code != 40400 {
		t.Fatalf("no route: status %d code %d", w.Code, env.Code)
	}
}
