package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"svw.info/numbermaster/internal/domain"
	"svw.info/numbermaster/internal/solver"
	"svw.info/numbermaster/internal/usecase"
)

type Handler struct {
	UC *usecase.Service
	// SolveTimeout bounds /api/solve. Zero means no extra deadline.
	SolveTimeout time.Duration

	log *zap.Logger
}

func New(uc *usecase.Service, solveTimeout time.Duration, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{UC: uc, SolveTimeout: solveTimeout, log: log.Named("http")}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/new", h.handleNew)
	mux.HandleFunc("/api/state", h.handleState)
	mux.HandleFunc("/api/match", h.handleMatch)
	mux.HandleFunc("/api/add", h.handleAdd)
	mux.HandleFunc("/api/hint", h.handleHint)
	mux.HandleFunc("/api/solve", h.handleSolve)
	mux.HandleFunc("/api/suspend", h.handleSuspend)
	mux.HandleFunc("/api/list", h.handleList)
	mux.HandleFunc("/api/highscore", h.handleHighScore)
}

type errorResp struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, method string, v any) bool {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if r.Method != method {
		writeJSON(w, http.StatusMethodNotAllowed, errorResp{Error: "method not allowed"})
		return false
	}
	if v == nil {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

// fail maps usecase errors to status codes.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrUnknownSession):
		status = http.StatusNotFound
	case errors.Is(err, usecase.ErrOutOfRange):
		status = http.StatusBadRequest
	case errors.Is(err, solver.ErrUnsolvable), errors.Is(err, solver.ErrBudgetExhausted),
		errors.Is(err, context.DeadlineExceeded):
		status = http.StatusUnprocessableEntity
	default:
		h.log.Error("Request failed", zap.Error(err))
	}
	writeJSON(w, status, errorResp{Error: err.Error()})
}

type sessionReq struct {
	ID string `json:"id"`
}

func (r sessionReq) valid(w http.ResponseWriter) bool {
	if r.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "missing id"})
		return false
	}
	return true
}

// ---- New / State ----

type newReq struct {
	ID    string `json:"id,omitempty"`
	Level int    `json:"level,omitempty"`
}

func (h *Handler) handleNew(w http.ResponseWriter, r *http.Request) {
	var req newReq
	if !decode(w, r, http.MethodPost, &req) {
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	st, err := h.UC.NewGame(r.Context(), req.ID, req.Level)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleState resumes or starts the session, so a client reconnecting with a
// known id picks up its saved grid.
func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	var req sessionReq
	if !decode(w, r, http.MethodPost, &req) || !req.valid(w) {
		return
	}
	st, err := h.UC.Open(r.Context(), req.ID)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ---- Match / Add ----

type matchReq struct {
	ID string          `json:"id"`
	A  domain.Position `json:"a"`
	B  domain.Position `json:"b"`
}

func (h *Handler) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req matchReq
	if !decode(w, r, http.MethodPost, &req) || !(sessionReq{ID: req.ID}).valid(w) {
		return
	}
	res, err := h.UC.Match(r.Context(), req.ID, req.A, req.B)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req sessionReq
	if !decode(w, r, http.MethodPost, &req) || !req.valid(w) {
		return
	}
	st, err := h.UC.AddMore(r.Context(), req.ID)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ---- Hint / Solve ----

type hintResp struct {
	Found bool         `json:"found"`
	Hint  *domain.Hint `json:"hint,omitempty"`
}

func (h *Handler) handleHint(w http.ResponseWriter, r *http.Request) {
	var req sessionReq
	if !decode(w, r, http.MethodPost, &req) || !req.valid(w) {
		return
	}
	hh, ok, err := h.UC.Hint(r.Context(), req.ID)
	if err != nil {
		h.fail(w, err)
		return
	}
	resp := hintResp{Found: ok}
	if ok {
		resp.Hint = &hh
	}
	writeJSON(w, http.StatusOK, resp)
}

type solveResp struct {
	Moves      []domain.Pair `json:"moves"`
	DurationMs int64         `json:"durationMs"`
	Nodes      int           `json:"nodes"`
}

func (h *Handler) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req sessionReq
	if !decode(w, r, http.MethodPost, &req) || !req.valid(w) {
		return
	}
	ctx := r.Context()
	if h.SolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.SolveTimeout)
		defer cancel()
	}
	moves, st, err := h.UC.Solve(ctx, req.ID)
	if err != nil {
		h.log.Debug("Solve gave up", zap.String("session", req.ID), zap.Int("nodes", st.Nodes), zap.Error(err))
		h.fail(w, err)
		return
	}
	if moves == nil {
		moves = []domain.Pair{}
	}
	writeJSON(w, http.StatusOK, solveResp{Moves: moves, DurationMs: st.Duration.Milliseconds(), Nodes: st.Nodes})
}

// ---- Suspend / List / HighScore ----

type suspendResp struct {
	Saved bool `json:"saved"`
}

// handleSuspend saves the session and drops it from memory; /api/state resumes it.
func (h *Handler) handleSuspend(w http.ResponseWriter, r *http.Request) {
	var req sessionReq
	if !decode(w, r, http.MethodPost, &req) || !req.valid(w) {
		return
	}
	saved, err := h.UC.Close(r.Context(), req.ID)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suspendResp{Saved: saved})
}

type listResp struct {
	Sessions []domain.SessionMeta `json:"sessions"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if !decode(w, r, http.MethodGet, nil) {
		return
	}
	list := h.UC.List(r.Context())
	if list == nil {
		list = []domain.SessionMeta{}
	}
	writeJSON(w, http.StatusOK, listResp{Sessions: list})
}

type highScoreResp struct {
	HighScore int `json:"highScore"`
}

func (h *Handler) handleHighScore(w http.ResponseWriter, r *http.Request) {
	if !decode(w, r, http.MethodGet, nil) {
		return
	}
	writeJSON(w, http.StatusOK, highScoreResp{HighScore: h.UC.HighScore(r.Context())})
}
