package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"study-assist/internal/models"
	"study-assist/internal/services"
	"study-assist/internal/session"
	"study-assist/pkg/logger"
)

const maxMultipartMemory = 8 << 20 // 8 MB

// Server exposes the study assistant over a JSON API. All state is scoped to
// a session created through POST /api/sessions.
type Server struct {
	mux       *http.ServeMux
	sessions  *session.Manager
	client    services.CompletionClient
	extractor *services.Extractor
	exporter  *services.Exporter
}

func NewServer(
	sessions *session.Manager,
	client services.CompletionClient,
	extractor *services.Extractor,
	exporter *services.Exporter,
) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		sessions:  sessions,
		client:    client,
		extractor: extractor,
		exporter:  exporter,
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("/api/sessions/", s.handleSessionScoped)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	sess := s.sessions.Create()
	logger.Infof("session %s created", sess.ID)
	writeJSON(w, http.StatusCreated, map[string]string{"sessionId": sess.ID})
}

// handleSessionScoped dispatches /api/sessions/{id}[/...] routes.
func (s *Server) handleSessionScoped(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/")
	parts := strings.Split(path, "/")
	if parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	id := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, http.MethodDelete)
			return
		}
		s.sessions.Delete(id)
		logger.Infof("session %s deleted", id)
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		return
	}

	sess, ok := s.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	rest := strings.Join(parts[1:], "/")
	switch rest {
	case "actions":
		s.handleAction(w, r, sess)
	case "history":
		s.handleHistory(w, r, sess)
	case "stats":
		s.handleStats(w, r, sess)
	case "clear":
		s.handleClear(w, r, sess)
	case "extract":
		s.handleExtract(w, r, sess)
	case "export":
		s.handleExport(w, r, sess)
	case "pomodoro":
		s.handlePomodoroPoll(w, r, sess)
	case "pomodoro/start":
		s.handlePomodoroStart(w, r, sess)
	case "pomodoro/reset":
		s.handlePomodoroReset(w, r, sess)
	case "review/next":
		s.handleReviewNext(w, r, sess)
	case "review/answer":
		s.handleReviewAnswer(w, r, sess)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req models.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	// One in-flight action per session.
	sess.ActionMu.Lock()
	outcome := services.NewAssistant(s.client, sess.Store).HandleAction(r.Context(), req)
	sess.ActionMu.Unlock()

	switch outcome.Status {
	case models.OutcomeRejected:
		writeJSON(w, http.StatusBadRequest, outcome)
	case models.OutcomeFailed:
		status := http.StatusBadGateway
		if outcome.Error != nil && outcome.Error.Kind == models.ErrMissingCredential {
			status = http.StatusUnauthorized
		}
		writeJSON(w, status, outcome)
	default:
		if req.Kind == models.ActionFlashcard && outcome.View != nil && len(outcome.View.Cards) > 0 {
			sess.Deck.Load(outcome.View.Cards, time.Now().UTC())
		}
		writeJSON(w, http.StatusOK, outcome)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	n := 5
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid history size")
			return
		}
		n = parsed
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"history": sess.Store.RecentHistory(n),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": sess.Store.Stats()})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	sess.Store.ClearAll()
	sess.Deck.Load(nil, time.Now().UTC())
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("read upload: %v", err))
		return
	}

	text, err := s.extractor.Extract(data, filepath.Ext(header.Filename))
	if err != nil {
		// Extraction failures are a warning, not a fault: the client falls
		// back to empty text and lets the user retype.
		var xerr *models.ExtractionError
		warning := err.Error()
		if errors.As(err, &xerr) {
			warning = xerr.Message
		}
		logger.Warnf("extract %s failed: %s", header.Filename, warning)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"text":    "",
			"warning": warning,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

type exportRequest struct {
	Input  string            `json:"input"`
	Output string            `json:"output"`
	Kind   models.ActionKind `json:"kind"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	label := "Result"
	if req.Kind.Valid() {
		label = req.Kind.Label()
	}

	data, err := s.exporter.Render(req.Input, req.Output, label, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="study-result.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type pomodoroStartRequest struct {
	FocusMinutes int `json:"focusMinutes"`
	BreakMinutes int `json:"breakMinutes"`
}

func (s *Server) handlePomodoroPoll(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	var state session.PomodoroState
	var signal session.Signal
	sess.Timer(func(t *session.Pomodoro) {
		signal = t.Tick(time.Now().UTC())
		state = t.State()
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"state":  state,
		"signal": signal,
	})
}

func (s *Server) handlePomodoroStart(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req pomodoroStartRequest
	if r.Body != nil {
		// Body is optional; a bare start keeps the configured lengths.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	var state session.PomodoroState
	sess.Timer(func(t *session.Pomodoro) {
		t.Configure(req.FocusMinutes, req.BreakMinutes)
		t.Start(time.Now().UTC())
		state = t.State()
	})
	writeJSON(w, http.StatusOK, map[string]any{"state": state})
}

func (s *Server) handlePomodoroReset(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var state session.PomodoroState
	sess.Timer(func(t *session.Pomodoro) {
		t.Reset()
		state = t.State()
	})
	writeJSON(w, http.StatusOK, map[string]any{"state": state})
}

func (s *Server) handleReviewNext(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	card, err := sess.Deck.Next(time.Now().UTC())
	if err != nil {
		if errors.Is(err, session.ErrNoCards) {
			writeJSON(w, http.StatusOK, map[string]any{
				"card":    nil,
				"message": "No cards to review. Generate flashcards first.",
			})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"card": card})
}

type reviewRequest struct {
	Index  int    `json:"index"`
	Rating string `json:"rating"`
}

func (s *Server) handleReviewAnswer(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	rating, err := session.ParseRating(req.Rating)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	card, err := sess.Deck.Answer(req.Index, rating, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"card": card})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
