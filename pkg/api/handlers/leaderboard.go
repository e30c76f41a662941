package handlers

import (
	"net/http"
	"strconv"

	"github.com/cbodonnell/memorymatch/pkg/game/deck"
	"github.com/cbodonnell/memorymatch/pkg/log"
	"github.com/cbodonnell/memorymatch/pkg/repositories"
	"github.com/cbodonnell/memorymatch/pkg/repositories/models"
	"github.com/gorilla/mux"
)

// LeaderboardResponse is one page of the leaderboard of a difficulty.
type LeaderboardResponse struct {
	Difficulty string          `json:"difficulty"`
	Scores     []*models.Score `json:"scores"`
}

func HandleSubmitScore(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		score := &models.Score{}
		if err := decodeBody(r, score); err != nil {
			http.Error(w, "Failed to decode score", http.StatusBadRequest)
			return
		}

		saved, err := repository.SaveScore(r.Context(), score)
		if err != nil {
			if repositories.IsInvalid(err) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			log.Error("failed to save score: %v", err)
			http.Error(w, "Failed to save score", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, saved)
	}
}

func HandleTopScores(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		difficulty, err := deck.ParseDifficulty(r.URL.Query().Get("difficulty"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		limit := repositories.DefaultTopScoresLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil || limit <= 0 {
				http.Error(w, "limit must be a positive number", http.StatusBadRequest)
				return
			}
		}

		scores, err := repository.TopScores(r.Context(), string(difficulty), limit)
		if err != nil {
			log.Error("failed to list scores: %v", err)
			http.Error(w, "Failed to list scores", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, LeaderboardResponse{Difficulty: string(difficulty), Scores: scores})
	}
}

func HandlePlayerScores(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scores, err := repository.PlayerScores(r.Context(), mux.Vars(r)["player"])
		if err != nil {
			if repositories.IsNotFound(err) {
				http.Error(w, "Player not found", http.StatusNotFound)
				return
			}
			log.Error("failed to list player scores: %v", err)
			http.Error(w, "Failed to list player scores", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, scores)
	}
}
