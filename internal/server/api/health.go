package api

import (
	"net/http"
	"strconv"
	"strings"
)

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, http.StatusOK, map[string]string{
		"message": "Trading Card API is running",
		"health":  "/health",
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) lookupHealth(w http.ResponseWriter, r *http.Request) {
	ok, msg := s.Lookup.HealthCheck(r.Context())
	status := "healthy"
	if !ok {
		status = "unhealthy"
	}
	JSONResponse(w, http.StatusOK, map[string]any{
		"status":  status,
		"healthy": ok,
		"message": msg,
	})
}

func (s *Server) lookupSearch(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		Error(w, http.StatusBadRequest, "Query parameter 'name' is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			Error(w, http.StatusBadRequest, "Query parameter 'limit' must be a positive integer")
			return
		}
		limit = n
	}

	found, err := s.Lookup.Search(r.Context(), name, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, map[string]any{"cards": found, "total": len(found)})
}

func (s *Server) lookupDetails(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		Error(w, http.StatusBadRequest, "Query parameter 'name' is required")
		return
	}

	info, err := s.Lookup.Details(r.Context(), name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, info)
}
