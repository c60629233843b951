package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"hectoclash/internal/model"
	"hectoclash/internal/service"
)

// PuzzleHandler serves puzzle generation, verification and solving.
type PuzzleHandler struct {
	puzzles *service.PuzzleService
}

func NewPuzzleHandler(puzzles *service.PuzzleService) *PuzzleHandler {
	return &PuzzleHandler{puzzles: puzzles}
}

// List handles GET /v1/puzzles
func (h *PuzzleHandler) List(w http.ResponseWriter, r *http.Request) {
	difficulty := r.URL.Query().Get("difficulty")
	if difficulty == "" {
		difficulty = string(model.DifficultyEasy)
	}
	count, ok := queryInt(r, "count", 1)
	if !ok {
		writeError(w, http.StatusBadRequest, "count must be a number")
		return
	}

	puzzles, err := h.puzzles.RequestPuzzles(r.Context(), difficulty, count)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	public := make([]model.PublicPuzzle, 0, len(puzzles))
	for i := range puzzles {
		public = append(public, puzzles[i].Public())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"puzzles": public})
}

// VerifyRequest is the request body for POST /v1/puzzles/verify
type VerifyRequest struct {
	Digits   []int  `json:"digits"`
	Solution string `json:"solution"`
	Target   int    `json:"target,omitempty"`
}

// Verify handles POST /v1/puzzles/verify
func (h *PuzzleHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.puzzles.Verify(req.Digits, req.Solution, req.Target)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Solution handles GET /v1/puzzles/{id}/solution
func (h *PuzzleHandler) Solution(w http.ResponseWriter, r *http.Request) {
	sol, err := h.puzzles.Solution(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sol)
}

// SolveRequest is the request body for POST /v1/puzzles/solve
type SolveRequest struct {
	Digits     []int  `json:"digits"`
	Target     int    `json:"target,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// Solve handles POST /v1/puzzles/solve
func (h *PuzzleHandler) Solve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if !decodeBody(w, r, &req) {
		return
	}

	expr, err := h.puzzles.Solve(r.Context(), req.Digits, req.Target, req.Difficulty)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.Solution{Solution: expr})
}
