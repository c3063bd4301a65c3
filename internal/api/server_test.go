package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"study-assist/internal/models"
	"study-assist/internal/services"
	"study-assist/internal/session"
)

type stubClient struct {
	reply string
	err   error
}

func (c *stubClient) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

func newTestServer(client services.CompletionClient) *Server {
	return NewServer(
		session.NewManager(time.Hour, 0),
		client,
		services.NewExtractor(),
		services.NewExporter(),
	)
}

func createSession(t *testing.T, srv *Server) string {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: status %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return body["sessionId"]
}

func doJSON(t *testing.T, srv *Server, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, body))
	return rec
}

func TestActionRoundTrip(t *testing.T) {
	srv := newTestServer(&stubClient{reply: "A summary."})
	id := createSession(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/sessions/"+id+"/actions", models.ActionRequest{
		Kind:       models.ActionSummarize,
		SourceText: "long study text",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("action: status %d body %s", rec.Code, rec.Body.String())
	}

	var outcome models.ActionOutcome
	if err := json.NewDecoder(rec.Body).Decode(&outcome); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if outcome.Status != models.OutcomeSucceeded || outcome.View.Text != "A summary." {
		t.Errorf("unexpected outcome %+v", outcome)
	}

	// Stats and history reflect exactly one action.
	rec = doJSON(t, srv, http.MethodGet, "/api/sessions/"+id+"/stats", nil)
	var stats struct {
		Stats models.SessionStats `json:"stats"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Stats.Summaries != 1 || stats.Stats.Total != 1 {
		t.Errorf("unexpected stats %+v", stats.Stats)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/sessions/"+id+"/history?n=5", nil)
	var hist struct {
		History []models.HistoryEntry `json:"history"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(hist.History) != 1 {
		t.Errorf("expected 1 history entry, got %d", len(hist.History))
	}
}

func TestActionBlankInputRejected(t *testing.T) {
	srv := newTestServer(&stubClient{reply: "unused"})
	id := createSession(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/sessions/"+id+"/actions", models.ActionRequest{
		Kind:       models.ActionExplain,
		SourceText: "   ",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/sessions/"+id+"/stats", nil)
	if !strings.Contains(rec.Body.String(), `"total":0`) {
		t.Errorf("rejected action mutated stats: %s", rec.Body.String())
	}
}

func TestActionMissingCredential(t *testing.T) {
	srv := newTestServer(services.NewOpenAIClient("", "gpt-3.5-turbo", ""))
	id := createSession(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/sessions/"+id+"/actions", models.ActionRequest{
		Kind:       models.ActionQuiz,
		SourceText: "text",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body %s", rec.Code, rec.Body.String())
	}
	var outcome models.ActionOutcome
	if err := json.NewDecoder(rec.Body).Decode(&outcome); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if outcome.Error == nil || outcome.Error.Kind != models.ErrMissingCredential {
		t.Errorf("expected missing_credential, got %+v", outcome.Error)
	}
}

func TestActionProviderFailure(t *testing.T) {
	srv := newTestServer(&stubClient{err: &models.CompletionError{
		Kind:    models.ErrProvider,
		Message: "overloaded",
	}})
	id := createSession(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/sessions/"+id+"/actions", models.ActionRequest{
		Kind:       models.ActionSummarize,
		SourceText: "text",
	})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestFlashcardActionSeedsReviewDeck(t *testing.T) {
	srv := newTestServer(&stubClient{reply: "FRONT: cue\nBACK: answer"})
	id := createSession(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/sessions/"+id+"/actions", models.ActionRequest{
		Kind:       models.ActionFlashcard,
		SourceText: "material",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("action: status %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/sessions/"+id+"/review/next", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("review next: status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"front":"cue"`) {
		t.Errorf("deck not seeded: %s", rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/sessions/"+id+"/review/answer", map[string]any{
		"index":  0,
		"rating": "good",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("review answer: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestClearResetsEverything(t *testing.T) {
	srv := newTestServer(&stubClient{reply: "FRONT: a\nBACK: b"})
	id := createSession(t, srv)

	doJSON(t, srv, http.MethodPost, "/api/sessions/"+id+"/actions", models.ActionRequest{
		Kind:       models.ActionFlashcard,
		SourceText: "material",
	})

	rec := doJSON(t, srv, http.MethodPost, "/api/sessions/"+id+"/clear", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear: status %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/sessions/"+id+"/stats", nil)
	if !strings.Contains(rec.Body.String(), `"total":0`) {
		t.Errorf("stats not cleared: %s", rec.Body.String())
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/sessions/"+id+"/review/next", nil)
	if !strings.Contains(rec.Body.String(), `"card":null`) {
		t.Errorf("deck not cleared: %s", rec.Body.String())
	}
}

func TestPomodoroStartAndPoll(t *testing.T) {
	srv := newTestServer(&stubClient{})
	id := createSession(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/sessions/"+id+"/pomodoro/start", map[string]int{
		"focusMinutes": 50,
		"breakMinutes": 10,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("start: status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"phase":"focus"`) {
		t.Errorf("timer not running: %s", rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/sessions/"+id+"/pomodoro", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("poll: status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"focusMinutes":50`) {
		t.Errorf("configured lengths lost: %s", rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/sessions/"+id+"/pomodoro/reset", nil)
	if !strings.Contains(rec.Body.String(), `"phase":"idle"`) {
		t.Errorf("reset did not idle the timer: %s", rec.Body.String())
	}
}

func TestExtractUpload(t *testing.T) {
	srv := newTestServer(&stubClient{})
	id := createSession(t, srv)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	fmt.Fprint(part, "uploaded study notes")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/extract", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("extract: status %d body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "uploaded study notes") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestExtractUnsupportedTypeIsWarning(t *testing.T) {
	srv := newTestServer(&stubClient{})
	id := createSession(t, srv)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "notes.epub")
	fmt.Fprint(part, "binary stuff")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/extract", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"text":""`) {
		t.Errorf("caller should get empty text fallback: %s", rec.Body.String())
	}
}

func TestExportReturnsPDF(t *testing.T) {
	srv := newTestServer(&stubClient{})
	id := createSession(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/sessions/"+id+"/export", map[string]string{
		"input":  "the input",
		"output": "the result",
		"kind":   "summarize",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("export: status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("body is not a PDF")
	}
}

func TestUnknownSession(t *testing.T) {
	srv := newTestServer(&stubClient{})
	rec := doJSON(t, srv, http.MethodGet, "/api/sessions/does-not-exist/stats", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(&stubClient{})
	id := createSession(t, srv)

	rec := doJSON(t, srv, http.MethodGet, "/api/sessions/"+id+"/actions", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "POST" {
		t.Errorf("Allow header %q", allow)
	}
}

func TestDeleteSession(t *testing.T) {
	srv := newTestServer(&stubClient{})
	id := createSession(t, srv)

	rec := doJSON(t, srv, http.MethodDelete, "/api/sessions/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/sessions/"+id+"/stats", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("deleted session still reachable: %d", rec.Code)
	}
}
