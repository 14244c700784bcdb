package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/albapepper/swiss-tournament/internal/api/respond"
	"github.com/albapepper/swiss-tournament/internal/cache"
	"github.com/albapepper/swiss-tournament/internal/model"
)

const (
	standingsKey = cache.PrefixStandings + "all"
	pairingsKey  = cache.PrefixPairings + "next"
)

// PairingsResponse is the body of GET /pairings.
type PairingsResponse struct {
	Pairs    []model.Pairing `json:"pairs"`
	Unpaired *model.Standing `json:"unpaired"`
}

// GetStandings returns players ordered by wins.
// @Summary Standings
// @Description Every player ordered by wins descending; ties ordered by player id. Supports If-None-Match.
// @Tags standings
// @Produce json
// @Success 200 {array} model.Standing
// @Success 304
// @Failure 500 {object} respond.ErrorResponse
// @Router /standings [get]
func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, standingsKey, cache.TTLStandings, func() (interface{}, error) {
		rows, err := h.svc.Standings(r.Context())
		if rows == nil {
			rows = []model.Standing{}
		}
		return rows, err
	})
}

// GetPairings returns next-round Swiss pairings.
// @Summary Swiss pairings
// @Description Pairs adjacent players in the current standings. With an odd player count the last player is returned as unpaired.
// @Tags standings
// @Produce json
// @Success 200 {object} PairingsResponse
// @Success 304
// @Failure 500 {object} respond.ErrorResponse
// @Router /pairings [get]
func (h *Handler) GetPairings(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, pairingsKey, cache.TTLPairings, func() (interface{}, error) {
		res, err := h.svc.SwissPairings(r.Context())
		return PairingsResponse{Pairs: res.Pairs, Unpaired: res.Unpaired}, err
	})
}

// serveCached answers from the cache when possible, honouring
// If-None-Match, and otherwise encodes load's result and caches it unless
// the cache was purged while loading.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key string, ttl time.Duration, load func() (interface{}, error)) {
	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, true)
		return
	}

	// Captured before loading: a purge during load means the snapshot may
	// predate a committed write and must not be cached.
	gen := h.cache.Generation()
	v, err := load()
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "ENCODE_ERROR", "Failed to encode response")
		return
	}

	etag, _ := h.cache.SetIfGen(key, data, ttl, gen)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, false)
}

// PurgeReads drops cached standings and pairings. Registered as a
// tournament change hook and called by the cross-process listener.
func (h *Handler) PurgeReads() {
	h.cache.Purge(cache.PrefixStandings)
	h.cache.Purge(cache.PrefixPairings)
}
