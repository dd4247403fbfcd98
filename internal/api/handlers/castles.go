package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bouncehire/backend/internal/api/middleware"
	"github.com/bouncehire/backend/internal/storage"
	"github.com/bouncehire/backend/internal/storage/models"
)

// ListCastles returns all castles.
func ListCastles(castleRepo *storage.CastleRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		castles, err := castleRepo.List(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to list castles")
			return
		}
		if castles == nil {
			castles = []models.Castle{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(castles)
	}
}

// CreateCastle adds a castle to the inventory.
func CreateCastle(castleRepo *storage.CastleRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c models.Castle
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if c.Name == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Castle name is required")
			return
		}

		if err := castleRepo.Create(r.Context(), &c); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create castle")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(c)
	}
}

// GetCastle returns a single castle by ID.
func GetCastle(castleRepo *storage.CastleRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		c, err := castleRepo.GetByID(r.Context(), id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to look up castle")
			return
		}
		if c == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Castle not found")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(c)
	}
}

// UpdateCastle updates a castle's details.
func UpdateCastle(castleRepo *storage.CastleRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		existing, err := castleRepo.GetByID(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to look up castle")
			return
		}
		if existing == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Castle not found")
			return
		}

		var c models.Castle
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		c.ID = id

		if err := castleRepo.Update(ctx, &c); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update castle")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(c)
	}
}

// DeleteCastle removes a castle from the inventory.
func DeleteCastle(castleRepo *storage.CastleRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		if err := castleRepo.Delete(r.Context(), id); err != nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Castle not found")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
