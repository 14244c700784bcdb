package handler

import (
	"encoding/json"
	"net/http"

	"github.com/albapepper/swiss-tournament/internal/api/respond"
	"github.com/albapepper/swiss-tournament/internal/model"
)

// RegisterPlayerRequest is the body of POST /players.
type RegisterPlayerRequest struct {
	Name string `json:"name"`
}

// RegisterPlayerResponse echoes the stored player.
type RegisterPlayerResponse struct {
	ID   model.PlayerID `json:"id"`
	Name string         `json:"name"`
}

// CountResponse is the body of GET /players/count.
type CountResponse struct {
	Count int `json:"count"`
}

// CountPlayers returns the number of registered players.
// @Summary Count players
// @Tags players
// @Produce json
// @Success 200 {object} CountResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /players/count [get]
func (h *Handler) CountPlayers(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.CountPlayers(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, CountResponse{Count: n})
}

// RegisterPlayer registers a player. The name is stripped of markup.
// @Summary Register player
// @Description Sanitizes the name and registers a player with no wins and no matches. Names need not be unique.
// @Tags players
// @Accept json
// @Produce json
// @Param body body RegisterPlayerRequest true "Player"
// @Success 201 {object} RegisterPlayerResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /players [post]
func (h *Handler) RegisterPlayer(w http.ResponseWriter, r *http.Request) {
	var req RegisterPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Body must be JSON with a name field")
		return
	}

	id, name, err := h.svc.RegisterPlayer(r.Context(), req.Name)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusCreated, RegisterPlayerResponse{ID: id, Name: name})
}

// ResetPlayers deletes every player.
// @Summary Delete all players
// @Description Fails with 409 while matches still reference players; delete matches first.
// @Tags players
// @Success 204
// @Failure 409 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /players [delete]
func (h *Handler) ResetPlayers(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ResetPlayers(r.Context()); err != nil {
		h.writeServiceError(w, err)
		return
	}
	respond.WriteNoContent(w)
}
