package api

import (
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/cardkeeper/internal/models"
	"github.com/dmitrijs2005/cardkeeper/internal/services"
	"github.com/go-chi/chi"
)

type userList struct {
	Users []models.User `json:"users"`
	Total int           `json:"total"`
}

type backupResult struct {
	Key     string `json:"key"`
	Success bool   `json:"success"`
}

func (s *Server) adminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.Auth.ListUsers(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	JSONResponse(w, http.StatusOK, userList{Users: users, Total: len(users)})
}

func (s *Server) adminDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.Auth.DeleteUser(r.Context(), chi.URLParam(r, "userID")); err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, MessageBody{Message: "User deleted successfully", Success: true})
}

func (s *Server) adminAllCards(w http.ResponseWriter, r *http.Request) {
	all, err := s.Cards.ListCards(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, cardList(all))
}

func (s *Server) adminUserCards(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := services.ValidateUserID(userID); err != nil {
		s.fail(w, r, err)
		return
	}
	owned, err := s.Cards.ListByOwner(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, cardList(owned))
}

func (s *Server) adminStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.Cards.SystemStats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, st)
}

func (s *Server) adminClear(w http.ResponseWriter, r *http.Request) {
	n, err := s.Cards.DeleteAllCards(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, MessageBody{Message: fmt.Sprintf("Deleted %d cards", n), Success: true})
}

func (s *Server) adminBackup(w http.ResponseWriter, r *http.Request) {
	key, err := s.Backup.Export(r.Context(), s.Repo, s.Backend)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusCreated, backupResult{Key: key, Success: true})
}
