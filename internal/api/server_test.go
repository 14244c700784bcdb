package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/albapepper/swiss-tournament/internal/api"
	"github.com/albapepper/swiss-tournament/internal/api/handler"
	"github.com/albapepper/swiss-tournament/internal/cache"
	"github.com/albapepper/swiss-tournament/internal/config"
	"github.com/albapepper/swiss-tournament/internal/model"
	"github.com/albapepper/swiss-tournament/internal/store"
	tu "github.com/albapepper/swiss-tournament/internal/testutil"
	"github.com/albapepper/swiss-tournament/internal/tournament"
)

type RouterSuite struct {
	suite.Suite
	router http.Handler
	cfg    *config.Config
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.cfg = &config.Config{
		StoreDriver:      config.DriverSQLite,
		CORSAllowOrigins: []string{"*"},
	}
	s.router = s.newRouter(tournament.Options{})
}

func (s *RouterSuite) newRouter(opts tournament.Options) http.Handler {
	svc, m := tu.NewService(s.T(), opts)
	return api.NewRouter(svc, cache.New(true), m, s.cfg)
}

func (s *RouterSuite) do(method, path, body string, header ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) register(name string) model.PlayerID {
	body, err := json.Marshal(handler.RegisterPlayerRequest{Name: name})
	s.Require().NoError(err)
	rec := s.do(http.MethodPost, "/api/v1/players", string(body))
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var resp handler.RegisterPlayerResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.ID
}

func (s *RouterSuite) report(winner, loser model.PlayerID) *httptest.ResponseRecorder {
	body, err := json.Marshal(handler.ReportMatchRequest{Winner: winner, Loser: loser})
	s.Require().NoError(err)
	return s.do(http.MethodPost, "/api/v1/matches", string(body))
}

func (s *RouterSuite) standings() []model.Standing {
	rec := s.do(http.MethodGet, "/api/v1/standings", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var rows []model.Standing
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &rows))
	return rows
}

func (s *RouterSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/health", "")
	s.Equal(http.StatusOK, rec.Code)
	s.NotEmpty(rec.Header().Get("X-Process-Time"))

	rec = s.do(http.MethodGet, "/health/db", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"connected"`)

	rec = s.do(http.MethodGet, "/health/cache", "")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterSuite) TestRoot() {
	rec := s.do(http.MethodGet, "/", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"store":"sqlite"`)
}

func (s *RouterSuite) TestMetricsExposed() {
	s.register("Ada")
	rec := s.do(http.MethodGet, "/metrics", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "players_registered_total")
}

func (s *RouterSuite) TestRegisterSanitizesName() {
	rec := s.do(http.MethodPost, "/api/v1/players", `{"name":"Bobby O'Malley<script>"}`)
	s.Require().Equal(http.StatusCreated, rec.Code)

	var resp handler.RegisterPlayerResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Positive(int64(resp.ID))
	s.Equal("Bobby O'Malley", resp.Name)

	rows := s.standings()
	s.Require().Len(rows, 1)
	s.Equal("Bobby O'Malley", rows[0].Name)
}

func (s *RouterSuite) TestRegisterRejectsBadInput() {
	rec := s.do(http.MethodPost, "/api/v1/players", `{"name":`)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/players", `{"name":"<b></b>"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "INVALID_NAME")
}

func (s *RouterSuite) TestCountPlayers() {
	s.register("Ada")
	s.register("Ada")

	rec := s.do(http.MethodGet, "/api/v1/players/count", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var resp handler.CountResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Equal(2, resp.Count)
}

func (s *RouterSuite) TestReportMatch() {
	a := s.register("Ada")
	b := s.register("Grace")

	rec := s.report(a, b)
	s.Require().Equal(http.StatusCreated, rec.Code)

	rows := s.standings()
	s.Require().Len(rows, 2)
	s.Equal(a, rows[0].ID)
	s.Equal(1, rows[0].Wins)
	s.Equal(1, rows[0].Matches)
	s.Equal(0, rows[1].Wins)
	s.Equal(1, rows[1].Matches)
}

func (s *RouterSuite) TestReportMatchErrors() {
	a := s.register("Ada")

	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/api/v1/matches", `nope`).Code)
	s.Equal(http.StatusBadRequest, s.report(0, a).Code)
	s.Equal(http.StatusConflict, s.report(a, a+100).Code)
}

func (s *RouterSuite) TestSelfMatchStrict() {
	s.router = s.newRouter(tournament.Options{StrictMatches: true})
	a := s.register("Ada")

	rec := s.report(a, a)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Contains(rec.Body.String(), "SELF_MATCH")
}

func (s *RouterSuite) TestSelfMatchLenient() {
	a := s.register("Ada")
	s.Equal(http.StatusCreated, s.report(a, a).Code)
}

func (s *RouterSuite) TestStandingsETag() {
	s.register("Ada")

	first := s.do(http.MethodGet, "/api/v1/standings", "")
	s.Require().Equal(http.StatusOK, first.Code)
	s.Equal("MISS", first.Header().Get("X-Cache"))
	etag := first.Header().Get("ETag")
	s.Require().NotEmpty(etag)

	second := s.do(http.MethodGet, "/api/v1/standings", "")
	s.Equal("HIT", second.Header().Get("X-Cache"))
	s.Equal(etag, second.Header().Get("ETag"))

	notModified := s.do(http.MethodGet, "/api/v1/standings", "", "If-None-Match", etag)
	s.Equal(http.StatusNotModified, notModified.Code)
	s.Empty(notModified.Body.Bytes())
}

func (s *RouterSuite) TestWritesPurgeCachedReads() {
	a := s.register("Ada")
	b := s.register("Grace")
	before := s.do(http.MethodGet, "/api/v1/standings", "")
	s.Require().Equal(http.StatusOK, before.Code)

	s.Require().Equal(http.StatusCreated, s.report(b, a).Code)

	after := s.do(http.MethodGet, "/api/v1/standings", "", "If-None-Match", before.Header().Get("ETag"))
	s.Require().Equal(http.StatusOK, after.Code)
	s.Equal("MISS", after.Header().Get("X-Cache"))

	var rows []model.Standing
	s.Require().NoError(json.Unmarshal(after.Body.Bytes(), &rows))
	s.Equal(b, rows[0].ID)
}

func (s *RouterSuite) TestPairings() {
	ids := make([]model.PlayerID, 4)
	for i, name := range []string{"Twilight Sparkle", "Fluttershy", "Applejack", "Pinkie Pie"} {
		ids[i] = s.register(name)
	}
	s.Require().Equal(http.StatusCreated, s.report(ids[0], ids[1]).Code)
	s.Require().Equal(http.StatusCreated, s.report(ids[2], ids[3]).Code)

	rec := s.do(http.MethodGet, "/api/v1/pairings", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var resp handler.PairingsResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))

	s.Require().Len(resp.Pairs, 2)
	s.Nil(resp.Unpaired)
	s.ElementsMatch([]model.PlayerID{ids[0], ids[2]}, []model.PlayerID{resp.Pairs[0].ID1, resp.Pairs[0].ID2})
	s.ElementsMatch([]model.PlayerID{ids[1], ids[3]}, []model.PlayerID{resp.Pairs[1].ID1, resp.Pairs[1].ID2})
}

func (s *RouterSuite) TestPairingsOddCount() {
	s.register("Ada")
	s.register("Grace")
	last := s.register("Linus")

	rec := s.do(http.MethodGet, "/api/v1/pairings", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var resp handler.PairingsResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Len(resp.Pairs, 1)
	s.Require().NotNil(resp.Unpaired)
	s.Equal(last, resp.Unpaired.ID)
}

func (s *RouterSuite) TestPairingsEmpty() {
	rec := s.do(http.MethodGet, "/api/v1/pairings", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"pairs":[],"unpaired":null}`, rec.Body.String())
}

func (s *RouterSuite) TestResets() {
	a := s.register("Ada")
	b := s.register("Grace")
	s.Require().Equal(http.StatusCreated, s.report(a, b).Code)

	s.Equal(http.StatusConflict, s.do(http.MethodDelete, "/api/v1/players", "").Code)
	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/api/v1/matches", "").Code)

	rec := s.do(http.MethodPost, "/api/v1/reconcile", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"players_corrected":2}`, rec.Body.String())

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/api/v1/players", "").Code)
	s.Empty(s.standings())
}

func (s *RouterSuite) TestResetTournament() {
	a := s.register("Ada")
	b := s.register("Grace")
	s.Require().Equal(http.StatusCreated, s.report(a, b).Code)

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/api/v1/tournament", "").Code)
	s.Empty(s.standings())
}

func TestRateLimit(t *testing.T) {
	svc, m := tu.NewService(t, tournament.Options{})
	cfg := &config.Config{
		StoreDriver:       config.DriverSQLite,
		RateLimitEnabled:  true,
		RateLimitRequests: 2,
		RateLimitWindow:   time.Hour,
	}
	router := api.NewRouter(svc, cache.New(false), m, cfg)

	// burst is half the window allowance
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3600", rec.Header().Get("Retry-After"))
}

// pausingStore holds the first Standings call made after arm until release
// is closed. The snapshot is taken before the pause.
type pausingStore struct {
	store.Store
	armed   atomic.Bool
	once    sync.Once
	loaded  chan struct{}
	release chan struct{}
}

func (p *pausingStore) Standings(ctx context.Context) ([]model.Standing, error) {
	rows, err := p.Store.Standings(ctx)
	if p.armed.Load() {
		p.once.Do(func() {
			close(p.loaded)
			<-p.release
		})
	}
	return rows, err
}

func TestWriteDuringReadIsNotHiddenByCache(t *testing.T) {
	pause := &pausingStore{loaded: make(chan struct{}), release: make(chan struct{})}
	svc, m := tu.NewServiceWith(t, tournament.Options{}, func(st store.Store) store.Store {
		pause.Store = st
		return pause
	})
	router := api.NewRouter(svc, cache.New(true), m, &config.Config{StoreDriver: config.DriverSQLite})

	serve := func(method, path, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
		return rec
	}
	require.Equal(t, http.StatusCreated, serve(http.MethodPost, "/api/v1/players", `{"name":"Ada"}`).Code)
	require.Equal(t, http.StatusCreated, serve(http.MethodPost, "/api/v1/players", `{"name":"Grace"}`).Code)

	pause.armed.Store(true)
	done := make(chan struct{})
	go func() {
		defer close(done)
		serve(http.MethodGet, "/api/v1/standings", "")
	}()

	<-pause.loaded
	require.Equal(t, http.StatusCreated, serve(http.MethodPost, "/api/v1/matches", `{"winner":1,"loser":2}`).Code)
	close(pause.release)
	<-done

	rec := serve(http.MethodGet, "/api/v1/standings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []model.Standing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.EqualValues(t, 1, rows[0].ID)
	assert.Equal(t, 1, rows[0].Wins)
	assert.Equal(t, 1, rows[1].Matches)
}
