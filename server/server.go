// Package server exposes blog-writing sessions over a JSON HTTP API. Each
// session owns one workflow.Machine; the handlers only translate requests
// into machine operations and machine errors into status codes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"auto_blog_writer/credentials"
	"auto_blog_writer/publisher"
	"auto_blog_writer/workflow"
)

// DefaultGenerateTimeout bounds one generation request. Image providers
// poll for minutes, so it is generous.
const DefaultGenerateTimeout = 6 * time.Minute

type Server struct {
	gateway  workflow.Gateway
	creds    credentials.Provider
	exporter workflow.Exporter
	log      *slog.Logger
	store    *sessionStore

	GenerateTimeout time.Duration
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*workflow.Machine
}

func newStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*workflow.Machine)}
}

func (s *sessionStore) set(id string, m *workflow.Machine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = m
}

func (s *sessionStore) get(id string) (*workflow.Machine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.sessions[id]
	return m, ok
}

func (s *sessionStore) delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func New(gateway workflow.Gateway, creds credentials.Provider, exporter workflow.Exporter, log *slog.Logger) (*Server, error) {
	if gateway == nil {
		return nil, errors.New("generation gateway required")
	}
	if creds == nil {
		return nil, errors.New("credential provider required")
	}
	if exporter == nil {
		return nil, errors.New("exporter required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		gateway:         gateway,
		creds:           creds,
		exporter:        exporter,
		log:             log.With("component", "server"),
		store:           newStore(),
		GenerateTimeout: DefaultGenerateTimeout,
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sessions", s.handleCreate)
	mux.HandleFunc("GET /api/sessions/{id}", s.withSession(s.handleGet))
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDelete)

	mux.HandleFunc("POST /api/sessions/{id}/topic", s.withSession(s.handleTopic))
	mux.HandleFunc("POST /api/sessions/{id}/titles/regenerate", s.withSession(s.handleRegenerate))
	mux.HandleFunc("POST /api/sessions/{id}/title", s.withSession(s.handleTitle))
	mux.HandleFunc("POST /api/sessions/{id}/step", s.withSession(s.handleStep))

	mux.HandleFunc("POST /api/sessions/{id}/body", s.withSession(s.handleGenerate(bodyOps)))
	mux.HandleFunc("POST /api/sessions/{id}/body/cycle", s.withSession(s.handleCycle(bodyOps)))
	mux.HandleFunc("POST /api/sessions/{id}/body/select", s.withSession(s.handleSelect(bodyOps)))
	mux.HandleFunc("POST /api/sessions/{id}/image", s.withSession(s.handleGenerate(imageOps)))
	mux.HandleFunc("POST /api/sessions/{id}/image/cycle", s.withSession(s.handleCycle(imageOps)))
	mux.HandleFunc("POST /api/sessions/{id}/image/select", s.withSession(s.handleSelect(imageOps)))

	mux.HandleFunc("GET /api/sessions/{id}/export", s.withSession(s.handleExport))
	mux.HandleFunc("GET /api/sessions/{id}/preview", s.withSession(s.handlePreview))

	mux.HandleFunc("GET /api/credentials", s.handleCredentialStatus)
	mux.HandleFunc("PUT /api/credentials/{kind}", s.handleCredentialSet)
	return logMiddleware(s.log, mux)
}

// --- Handlers ---

type sessionResp struct {
	SessionID string            `json:"session_id"`
	State     workflow.Snapshot `json:"state"`
}

type versionResp struct {
	sessionResp
	Version workflow.Version[string] `json:"version"`
}

type topicReq struct {
	Topic string `json:"topic"`
}

type titleReq struct {
	Title string `json:"title"`
}

type stepReq struct {
	// Step is a step name or number, quoted or not.
	Step json.RawMessage `json:"step"`
}

type cycleReq struct {
	Direction string `json:"direction"`
}

type selectReq struct {
	Index *int `json:"index"`
}

type credentialReq struct {
	Value string `json:"value"`
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, id string, m *workflow.Machine)

func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		m, ok := s.store.get(id)
		if !ok {
			respondError(w, s.log, http.StatusNotFound, fmt.Errorf("session %q not found", id))
			return
		}
		h(w, r, id, m)
	}
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	m := workflow.New(s.gateway, s.creds, workflow.WithLogger(s.log.With("session", id)))
	s.store.set(id, m)
	s.log.Info("session created", "session", id, "active", s.store.len())
	respondJSON(w, http.StatusCreated, sessionResp{SessionID: id, State: m.Snapshot()})
}

func (s *Server) handleGet(w http.ResponseWriter, _ *http.Request, id string, m *workflow.Machine) {
	respondJSON(w, http.StatusOK, sessionResp{SessionID: id, State: m.Snapshot()})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.store.delete(id) {
		respondError(w, s.log, http.StatusNotFound, fmt.Errorf("session %q not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTopic(w http.ResponseWriter, r *http.Request, id string, m *workflow.Machine) {
	var req topicReq
	if !decode(w, r, s.log, &req) {
		return
	}
	ctx, cancel := generateContext(r, s.GenerateTimeout)
	defer cancel()
	if err := m.SubmitTopic(ctx, req.Topic); err != nil {
		s.respondWorkflowError(w, err)
		return
	}
	s.handleGet(w, r, id, m)
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request, id string, m *workflow.Machine) {
	ctx, cancel := generateContext(r, s.GenerateTimeout)
	defer cancel()
	if err := m.RegenerateTitles(ctx); err != nil {
		s.respondWorkflowError(w, err)
		return
	}
	s.handleGet(w, r, id, m)
}

func (s *Server) handleTitle(w http.ResponseWriter, r *http.Request, id string, m *workflow.Machine) {
	var req titleReq
	if !decode(w, r, s.log, &req) {
		return
	}
	if err := m.SelectTitle(req.Title); err != nil {
		s.respondWorkflowError(w, err)
		return
	}
	s.handleGet(w, r, id, m)
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request, id string, m *workflow.Machine) {
	var req stepReq
	if !decode(w, r, s.log, &req) {
		return
	}
	step, err := workflow.ParseStep(strings.Trim(string(req.Step), `"`))
	if err != nil {
		s.respondWorkflowError(w, err)
		return
	}
	if err := m.RequestStep(step); err != nil {
		s.respondWorkflowError(w, err)
		return
	}
	s.handleGet(w, r, id, m)
}

// versionOps binds the body or image half of the machine API.
type versionOps struct {
	generate func(*workflow.Machine, context.Context) (workflow.Version[string], error)
	cycle    func(*workflow.Machine, workflow.Direction) int
	choose   func(*workflow.Machine, int) error
}

var (
	bodyOps = versionOps{
		generate: (*workflow.Machine).GenerateBody,
		cycle:    (*workflow.Machine).CycleBody,
		choose:   (*workflow.Machine).SelectBody,
	}
	imageOps = versionOps{
		generate: (*workflow.Machine).GenerateImage,
		cycle:    (*workflow.Machine).CycleImage,
		choose:   (*workflow.Machine).SelectImage,
	}
)

func (s *Server) handleGenerate(ops versionOps) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, id string, m *workflow.Machine) {
		ctx, cancel := generateContext(r, s.GenerateTimeout)
		defer cancel()
		v, err := ops.generate(m, ctx)
		if err != nil {
			s.respondWorkflowError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, versionResp{
			sessionResp: sessionResp{SessionID: id, State: m.Snapshot()},
			Version:     v,
		})
	}
}

func (s *Server) handleCycle(ops versionOps) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, id string, m *workflow.Machine) {
		var req cycleReq
		if !decode(w, r, s.log, &req) {
			return
		}
		dir, err := workflow.ParseDirection(req.Direction)
		if err != nil {
			s.respondWorkflowError(w, err)
			return
		}
		ops.cycle(m, dir)
		s.handleGet(w, r, id, m)
	}
}

func (s *Server) handleSelect(ops versionOps) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, id string, m *workflow.Machine) {
		var req selectReq
		if !decode(w, r, s.log, &req) {
			return
		}
		if req.Index == nil {
			s.respondWorkflowError(w, fmt.Errorf("%w: index is required", workflow.ErrInvalidInput))
			return
		}
		if err := ops.choose(m, *req.Index); err != nil {
			s.respondWorkflowError(w, err)
			return
		}
		s.handleGet(w, r, id, m)
	}
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request, id string, m *workflow.Machine) {
	doc, err := m.ExportDocument(s.exporter)
	if err != nil {
		s.respondWorkflowError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.md"`, id))
	_, _ = w.Write([]byte(doc))
}

// handlePreview renders the selected body as HTML. It is available as soon
// as a body exists; the header image is included once one is generated.
func (s *Server) handlePreview(w http.ResponseWriter, _ *http.Request, _ string, m *workflow.Machine) {
	snap := m.Snapshot()
	body, ok := snap.SelectedBody()
	if !ok {
		s.respondWorkflowError(w, fmt.Errorf("%w: no body generated yet", workflow.ErrInvalidInput))
		return
	}
	cover, _ := snap.SelectedImage()
	out, err := publisher.RenderPreview(publisher.Article{Title: snap.SelectedTitle, Body: body, CoverImage: cover})
	if err != nil {
		respondError(w, s.log, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(out))
}

func (s *Server) handleCredentialStatus(w http.ResponseWriter, r *http.Request) {
	status, err := credentials.Status(r.Context(), s.creds)
	if err != nil {
		respondError(w, s.log, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleCredentialSet(w http.ResponseWriter, r *http.Request) {
	kind, err := credentials.ParseKind(r.PathValue("kind"))
	if err != nil {
		respondError(w, s.log, http.StatusBadRequest, err)
		return
	}
	var req credentialReq
	if !decode(w, r, s.log, &req) {
		return
	}
	if err := s.creds.Set(r.Context(), kind, strings.TrimSpace(req.Value)); err != nil {
		respondError(w, s.log, http.StatusInternalServerError, err)
		return
	}
	s.log.Info("credential updated", "kind", kind, "present", strings.TrimSpace(req.Value) != "")
	s.handleCredentialStatus(w, r)
}

// --- Helpers ---

type errorResp struct {
	Error string `json:"error"`
	// Message is the user-facing text of a rejected transition, if any.
	Message string `json:"message,omitempty"`
}

// MapHTTPStatus maps workflow errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, workflow.ErrGatewayFailure):
		return http.StatusBadGateway
	case errors.Is(err, workflow.ErrMissingCredential):
		return http.StatusPreconditionFailed
	case errors.Is(err, workflow.ErrTransitionRejected),
		errors.Is(err, workflow.ErrBusy),
		errors.Is(err, workflow.ErrStale):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrInvalidInput),
		errors.Is(err, workflow.ErrWrongStep),
		errors.Is(err, credentials.ErrUnknownKind):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// generateContext bounds a provider call by timeout only, so a client that
// disconnects mid-call still gets its result applied to the session.
func generateContext(r *http.Request, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), timeout)
}

func (s *Server) respondWorkflowError(w http.ResponseWriter, err error) {
	status := MapHTTPStatus(err)
	resp := errorResp{Error: err.Error()}
	var te *workflow.TransitionError
	if errors.As(err, &te) {
		resp.Message = te.Message
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "status", status, "err", err)
	} else {
		s.log.Debug("request rejected", "status", status, "err", err)
	}
	respondJSON(w, status, resp)
}

func respondError(w http.ResponseWriter, log *slog.Logger, status int, err error) {
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "status", status, "err", err)
	}
	respondJSON(w, status, errorResp{Error: err.Error()})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, log, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return false
	}
	return true
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logMiddleware(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info(
			"request",
			"method", r.Method,
			"uri", r.URL.RequestURI(),
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
