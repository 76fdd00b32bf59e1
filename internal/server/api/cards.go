package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/models"
	"github.com/dmitrijs2005/cardkeeper/internal/services"
	"github.com/go-chi/chi"
)

const cardNotFound = "Card not found"

// cardScope resolves the service a card request runs against and the owner
// new cards get, if any.
type cardScope func(r *http.Request) (*services.CardService, *string, error)

func (s *Server) serviceScope(r *http.Request) (*services.CardService, *string, error) {
	return s.Cards, nil, nil
}

func (s *Server) userScope(r *http.Request) (*services.CardService, *string, error) {
	u := userFrom(r.Context())
	repo, err := s.Users.CardsForUser(tokenFrom(r.Context()))
	if err != nil {
		return nil, nil, err
	}
	owner := u.ID
	return services.NewCardService(repo, s.Lookup, s.Logger), &owner, nil
}

type addCardRequest struct {
	Name       string  `json:"name"`
	SetName    string  `json:"set_name"`
	CardNumber *string `json:"card_number"`
	Rarity     *string `json:"rarity"`
	Quantity   *int    `json:"quantity"`
	IsFavorite bool    `json:"is_favorite"`
}

func (req addCardRequest) input() models.CardInput {
	q := 1
	if req.Quantity != nil {
		q = *req.Quantity
	}
	return models.CardInput{
		Name:       req.Name,
		SetName:    req.SetName,
		CardNumber: req.CardNumber,
		Rarity:     req.Rarity,
		Quantity:   q,
		IsFavorite: req.IsFavorite,
	}
}

func queryBool(r *http.Request, key string, def bool) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return v
}

func (s *Server) cardRoutes(r chi.Router, scope cardScope) {
	h := &cardHandlers{s: s, scope: scope}

	r.Get("/", h.list)
	r.Post("/", h.add)
	r.Get("/search", h.search)
	r.Get("/favorites", h.favorites)
	r.Get("/stats", h.stats)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	r.Post("/{id}/favorite", h.toggleFavorite)
}

type cardHandlers struct {
	s     *Server
	scope cardScope
}

// failCard reports a missing card with the fixed message clients match on.
func (h *cardHandlers) failCard(w http.ResponseWriter, r *http.Request, err error) {
	if common.IsNotFound(err) {
		Error(w, http.StatusNotFound, cardNotFound)
		return
	}
	h.s.fail(w, r, err)
}

func (h *cardHandlers) service(w http.ResponseWriter, r *http.Request) (*services.CardService, *string, bool) {
	svc, owner, err := h.scope(r)
	if err != nil {
		h.s.fail(w, r, err)
		return nil, nil, false
	}
	return svc, owner, true
}

func (h *cardHandlers) list(w http.ResponseWriter, r *http.Request) {
	svc, _, ok := h.service(w, r)
	if !ok {
		return
	}
	all, err := svc.ListCards(r.Context())
	if err != nil {
		h.s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, cardList(all))
}

func (h *cardHandlers) add(w http.ResponseWriter, r *http.Request) {
	svc, owner, ok := h.service(w, r)
	if !ok {
		return
	}

	var req addCardRequest
	if err := decodeJSON(r, &req); err != nil {
		h.s.fail(w, r, err)
		return
	}

	id, err := svc.AddCard(r.Context(), req.input(), services.AddOptions{
		Owner:    owner,
		Merge:    queryBool(r, "merge", false),
		Validate: queryBool(r, "validate", true),
	})
	if err != nil {
		h.s.fail(w, r, err)
		return
	}

	card, err := svc.GetCard(r.Context(), id)
	if err != nil {
		h.s.fail(w, r, fmt.Errorf("card %s was stored but could not be read back: %w", id, err))
		return
	}
	JSONResponse(w, http.StatusCreated, card)
}

func (h *cardHandlers) search(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if strings.TrimSpace(name) == "" {
		Error(w, http.StatusBadRequest, "Query parameter 'name' is required")
		return
	}

	svc, _, ok := h.service(w, r)
	if !ok {
		return
	}
	found, err := svc.SearchCards(r.Context(), name)
	if err != nil {
		h.s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, cardList(found))
}

func (h *cardHandlers) favorites(w http.ResponseWriter, r *http.Request) {
	svc, _, ok := h.service(w, r)
	if !ok {
		return
	}
	favs, err := svc.ListFavorites(r.Context())
	if err != nil {
		h.s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, cardList(favs))
}

func (h *cardHandlers) stats(w http.ResponseWriter, r *http.Request) {
	svc, _, ok := h.service(w, r)
	if !ok {
		return
	}
	st, err := svc.Stats(r.Context())
	if err != nil {
		h.s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, st)
}

func (h *cardHandlers) get(w http.ResponseWriter, r *http.Request) {
	svc, _, ok := h.service(w, r)
	if !ok {
		return
	}
	card, err := svc.GetCard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.failCard(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, card)
}

func (h *cardHandlers) update(w http.ResponseWriter, r *http.Request) {
	svc, _, ok := h.service(w, r)
	if !ok {
		return
	}

	var u models.CardUpdate
	if err := decodeJSON(r, &u); err != nil {
		h.s.fail(w, r, err)
		return
	}
	if u.IsEmpty() {
		Error(w, http.StatusBadRequest, "No fields to update")
		return
	}

	id := chi.URLParam(r, "id")
	updated, err := svc.UpdateCard(r.Context(), id, u)
	if err != nil {
		h.failCard(w, r, err)
		return
	}
	if !updated {
		Error(w, http.StatusNotFound, cardNotFound)
		return
	}

	card, err := svc.GetCard(r.Context(), id)
	if err != nil {
		h.failCard(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, card)
}

func (h *cardHandlers) remove(w http.ResponseWriter, r *http.Request) {
	svc, _, ok := h.service(w, r)
	if !ok {
		return
	}
	card, err := svc.DeleteCard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.failCard(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, MessageBody{
		Message: fmt.Sprintf("Card '%s' deleted successfully", card.Name),
		Success: true,
	})
}

func (h *cardHandlers) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	svc, _, ok := h.service(w, r)
	if !ok {
		return
	}
	card, err := svc.ToggleFavorite(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.failCard(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, card)
}
