package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	aguievents "github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/spetersoncode/cellmate/agent"
	"github.com/spetersoncode/cellmate/agui"
)

// server exposes agent sessions over HTTP. Generations stream as AG-UI
// events over SSE.
type server struct {
	manager *agent.Manager
	log     *slog.Logger
}

func newServer(m *agent.Manager, log *slog.Logger, allowOrigin string, metrics http.Handler) http.Handler {
	s := &server{manager: m, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/agent", s.handleRunAgent)
	mux.HandleFunc("POST /api/sessions/{id}/messages", s.handleMessage)
	mux.HandleFunc("POST /api/sessions/{id}/stop", s.handleStop)
	mux.HandleFunc("POST /api/sessions/{id}/clear", s.handleClear)
	mux.HandleFunc("GET /api/sessions/{id}/tools", s.handleGetTools)
	mux.HandleFunc("PUT /api/sessions/{id}/tools", s.handlePutTools)
	mux.HandleFunc("PUT /api/sessions/{id}/provider", s.handlePutProvider)
	mux.HandleFunc("GET /api/sessions/{id}/usage", s.handleUsage)
	mux.HandleFunc("GET /api/sessions/{id}/history", s.handleHistory)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDelete)
	mux.HandleFunc("GET /api/approvals", s.handlePending)
	mux.HandleFunc("POST /api/approvals", s.handleApproval)
	mux.HandleFunc("GET /health", healthHandler)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return corsMiddleware(allowOrigin, mux)
}

// session returns the session for id, creating it on first use.
func (s *server) session(ctx context.Context, id string) (*agent.Session, error) {
	if sess, ok := s.manager.Session(id); ok {
		return sess, nil
	}
	sess, err := s.manager.NewSession(ctx, id)
	if errors.Is(err, agent.ErrSessionExists) {
		if sess, ok := s.manager.Session(id); ok {
			return sess, nil
		}
	}
	return sess, err
}

func (s *server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if body.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	s.generate(w, r, r.PathValue("id"), "", body.Text)
}

// handleRunAgent accepts an AG-UI RunAgentInput. The thread id names the
// session and a non-nil tool list replaces its tool selection.
func (s *server) handleRunAgent(w http.ResponseWriter, r *http.Request) {
	var input agui.RunAgentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	prepared, err := input.Prepare()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if prepared.ToolNames != nil {
		sess, err := s.session(r.Context(), prepared.ThreadID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if err := sess.SetSelectedTools(prepared.ToolNames); err != nil {
			s.log.Warn("saving tool selection failed", "session_id", prepared.ThreadID, "error", err)
		}
	}
	s.generate(w, r, prepared.ThreadID, prepared.RunID, prepared.Text)
}

func (s *server) generate(w http.ResponseWriter, r *http.Request, sessionID, runID, text string) {
	start := time.Now()
	log := s.log.With("session_id", sessionID)

	sess, err := s.session(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("streaming not supported")
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	events, err := sess.GenerateResponse(r.Context(), text)
	if err != nil {
		var cfgErr *agent.ConfigurationError
		status := http.StatusConflict
		if errors.As(err, &cfgErr) {
			status = http.StatusServiceUnavailable
		}
		log.Warn("generation refused", "error", err)
		writeError(w, status, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	mapper := agui.NewMapper(sessionID, runID)
	var count int
	for ev := range mapper.Stream(r.Context(), events) {
		count++
		if err := writeSSE(w, flusher, ev); err != nil {
			log.Error("failed to write SSE event", "error", err, "event_type", ev.Type())
			sess.StopStreaming()
			return
		}
	}
	log.Info("request completed", "duration_ms", time.Since(start).Milliseconds(), "events_sent", count)
}

func (s *server) handleStop(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.existing(w, r)
	if !ok {
		return
	}
	sess.StopStreaming()
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleClear(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.existing(w, r)
	if !ok {
		return
	}
	sess.ClearHistory()
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleGetTools(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"names": sess.SelectedTools()})
}

func (s *server) handlePutTools(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Names []string `json:"names"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	sess, err := s.session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := sess.SetSelectedTools(body.Names); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"names": sess.SelectedTools()})
}

func (s *server) handlePutProvider(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Provider string `json:"provider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Provider == "" {
		writeError(w, http.StatusBadRequest, "provider is required")
		return
	}
	sess, err := s.session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := sess.SetActiveProvider(r.Context(), body.Provider); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	info, _ := sess.ModelInfo()
	writeJSON(w, http.StatusOK, info)
}

func (s *server) handleUsage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.existing(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.TokenUsage())
}

// handleHistory returns the transcript as an AG-UI MESSAGES_SNAPSHOT event.
func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.existing(w, r)
	if !ok {
		return
	}
	data, err := aguievents.NewMessagesSnapshotEvent(agui.FromMessages(sess.History())).ToJSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.CloseSession(r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handlePending(w http.ResponseWriter, _ *http.Request) {
	type pending struct {
		ThreadID   string    `json:"threadId"`
		ToolCallID string    `json:"toolCallId"`
		Since      time.Time `json:"since"`
	}
	out := []pending{}
	for _, p := range s.manager.Gate().Pending() {
		out = append(out, pending{ThreadID: p.Session, ToolCallID: p.ID, Since: p.Since})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleApproval(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	input, err := agui.ParseApprovalInput(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Repeated and late decisions are ignored, not errors.
	resolved := input.Apply(s.manager.Gate())
	s.log.Info("approval decision", "session_id", input.ThreadID, "call_id", input.ToolCallID,
		"approved", input.Approved, "resolved", resolved)
	writeJSON(w, http.StatusOK, map[string]bool{"resolved": resolved})
}

func (s *server) existing(w http.ResponseWriter, r *http.Request) (*agent.Session, bool) {
	id := r.PathValue("id")
	sess, ok := s.manager.Session(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%v: %s", agent.ErrSessionNotFound, id))
	}
	return sess, ok
}

// writeSSE writes an AG-UI event in SSE format.
func writeSSE(w http.ResponseWriter, flusher http.Flusher, ev aguievents.Event) error {
	data, err := ev.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type(), data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	flusher.Flush()
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// corsMiddleware adds CORS headers for cross-origin front end requests.
func corsMiddleware(origin string, next http.Handler) http.Handler {
	if origin == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
