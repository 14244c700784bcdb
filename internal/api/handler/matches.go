package handler

import (
	"encoding/json"
	"net/http"

	"github.com/albapepper/swiss-tournament/internal/api/respond"
	"github.com/albapepper/swiss-tournament/internal/model"
)

// ReportMatchRequest is the body of POST /matches.
type ReportMatchRequest struct {
	Winner model.PlayerID `json:"winner"`
	Loser  model.PlayerID `json:"loser"`
}

// ReconcileResponse reports how many tallies were corrected.
type ReconcileResponse struct {
	PlayersCorrected int `json:"players_corrected"`
}

// ReportMatch records a match result.
// @Summary Report match
// @Description Records that winner beat loser and recounts both players' tallies from the match log.
// @Tags matches
// @Accept json
// @Produce json
// @Param body body ReportMatchRequest true "Result"
// @Success 201 {object} ReportMatchRequest
// @Failure 400 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse "Unknown player id"
// @Failure 422 {object} respond.ErrorResponse "Winner equals loser (strict mode)"
// @Router /matches [post]
func (h *Handler) ReportMatch(w http.ResponseWriter, r *http.Request) {
	var req ReportMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Body must be JSON with winner and loser ids")
		return
	}
	if req.Winner <= 0 || req.Loser <= 0 {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_PLAYER", "winner and loser must be positive player ids")
		return
	}

	if err := h.svc.ReportMatch(r.Context(), req.Winner, req.Loser); err != nil {
		h.writeServiceError(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusCreated, req)
}

// ResetMatches deletes every match.
// @Summary Delete all matches
// @Description Tallies stay as they were until players are deleted or a reconcile runs.
// @Tags matches
// @Success 204
// @Failure 500 {object} respond.ErrorResponse
// @Router /matches [delete]
func (h *Handler) ResetMatches(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ResetMatches(r.Context()); err != nil {
		h.writeServiceError(w, err)
		return
	}
	respond.WriteNoContent(w)
}

// ResetTournament deletes every match and then every player.
// @Summary Reset tournament
// @Tags matches
// @Success 204
// @Failure 500 {object} respond.ErrorResponse
// @Router /tournament [delete]
func (h *Handler) ResetTournament(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reset(r.Context()); err != nil {
		h.writeServiceError(w, err)
		return
	}
	respond.WriteNoContent(w)
}

// Reconcile recounts every tally from the match log.
// @Summary Reconcile tallies
// @Tags matches
// @Produce json
// @Success 200 {object} ReconcileResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /reconcile [post]
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Reconcile(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, ReconcileResponse{PlayersCorrected: n})
}
