package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/storyloom"
	"github.com/aretw0/storyloom/internal/logging"
	"github.com/aretw0/storyloom/pkg/domain"
	"github.com/aretw0/storyloom/pkg/export"
	"github.com/aretw0/storyloom/pkg/extract"
	"github.com/aretw0/storyloom/pkg/runner"
	"github.com/aretw0/storyloom/pkg/sanitizer"
)

// DefaultMaxUploadSize bounds multipart uploads.
const DefaultMaxUploadSize = 10 << 20

// Service is the part of storyloom.Service the API exposes.
type Service interface {
	Submit(ctx context.Context, sessionID string, req domain.Requirement) (*domain.State, error)
	SubmitDocument(ctx context.Context, sessionID string, data []byte, mimeType, fileName, domainContext string) (*domain.State, error)
	Answer(ctx context.Context, sessionID, answer string) (*domain.State, error)
	Ask(ctx context.Context, sessionID, question string) (*domain.State, error)
	Improve(ctx context.Context, sessionID string) (*domain.State, error)
	Get(ctx context.Context, sessionID string) (*domain.State, error)
	Reset(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
	Export(ctx context.Context, sessionID string, opts storyloom.ExportOptions) (*export.File, error)
}

var _ Service = (*storyloom.Service)(nil)

// Server serves the session API.
type Server struct {
	Service Service
	Streams *StreamManager

	logger         *slog.Logger
	requestTimeout time.Duration
	maxUploadSize  int64
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRequestTimeout bounds every non-streaming request. Zero disables the limit.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.requestTimeout = d
	}
}

// WithMaxUploadSize bounds the body of multipart uploads.
func WithMaxUploadSize(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadSize = n
		}
	}
}

// NewServer creates the API server for svc.
func NewServer(svc Service, opts ...Option) *Server {
	s := &Server{
		Service:       svc,
		Streams:       NewStreamManager(),
		logger:        logging.NewNop(),
		maxUploadSize: DefaultMaxUploadSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	return s
}

// NewHandler creates a new HTTP handler for the service.
func NewHandler(svc Service, opts ...Option) http.Handler {
	return NewServer(svc, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	// Event streams live outside the request timeout.
	r.Get("/sessions/{id}/events", s.SubscribeEvents)

	r.Group(func(r chi.Router) {
		if s.requestTimeout > 0 {
			r.Use(middleware.Timeout(s.requestTimeout))
		}

		r.Get("/health", s.GetHealth)
		r.Get("/info", s.GetInfo)
		r.Post("/extract", s.Extract)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.ListSessions)
			r.Post("/", s.CreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetSession)
				r.Delete("/", s.DeleteSession)
				r.Post("/answers", s.Answer)
				r.Post("/questions", s.Ask)
				r.Post("/improve", s.Improve)
				r.Get("/export", s.Export)
			})
		})
	})

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CreateRequest is the JSON body of POST /sessions.
type CreateRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"text"`
	Context   string `json:"context,omitempty"`
}

// AnswerRequest is the JSON body of POST /sessions/{id}/answers.
type AnswerRequest struct {
	Answer string `json:"answer"`
}

// QuestionRequest is the JSON body of POST /sessions/{id}/questions.
type QuestionRequest struct {
	Question string `json:"question"`
}

// ExtractResponse is returned by POST /extract.
type ExtractResponse struct {
	FileName string `json:"file_name"`
	Type     string `json:"type"`
	Text     string `json:"text"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"app":     "storyloom-http",
		"version": strings.TrimSpace(storyloom.Version),
		"formats": export.Formats(),
	})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Service.List(r.Context())
	if err != nil {
		s.fail(w, r, "List", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// CreateSession handles POST /sessions with a JSON body or a multipart upload.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var (
		state *domain.State
		err   error
	)

	if isMultipart(r) {
		var upload *uploadedFile
		upload, err = s.readUpload(w, r)
		if err != nil {
			s.fail(w, r, "CreateSession", err)
			return
		}
		state, err = s.Service.SubmitDocument(r.Context(), r.FormValue("session_id"), upload.data, upload.mimeType, upload.name, r.FormValue("context"))
	} else {
		var body CreateRequest
		if err := decode(r, &body); err != nil {
			s.fail(w, r, "CreateSession", err)
			return
		}
		state, err = s.Service.Submit(r.Context(), body.SessionID, domain.Requirement{Text: body.Text, Context: body.Context})
	}
	if err != nil {
		s.fail(w, r, "CreateSession", err)
		return
	}

	s.broadcast(nil, state)
	writeJSON(w, http.StatusCreated, runner.Respond(nil, state))
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, "GetSession", err)
		return
	}
	writeJSON(w, http.StatusOK, &runner.RichResponse{State: state, Blocks: runner.History(state)})
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.Service.Get(r.Context(), id); err != nil {
		s.fail(w, r, "DeleteSession", err)
		return
	}
	if err := s.Service.Reset(r.Context(), id); err != nil {
		s.fail(w, r, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Answer handles POST /sessions/{id}/answers.
func (s *Server) Answer(w http.ResponseWriter, r *http.Request) {
	var body AnswerRequest
	if err := decode(r, &body); err != nil {
		s.fail(w, r, "Answer", err)
		return
	}
	s.transition(w, r, "Answer", func(ctx context.Context, id string) (*domain.State, error) {
		return s.Service.Answer(ctx, id, body.Answer)
	})
}

// Ask handles POST /sessions/{id}/questions.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var body QuestionRequest
	if err := decode(r, &body); err != nil {
		s.fail(w, r, "Ask", err)
		return
	}
	s.transition(w, r, "Ask", func(ctx context.Context, id string) (*domain.State, error) {
		return s.Service.Ask(ctx, id, body.Question)
	})
}

// Improve handles POST /sessions/{id}/improve.
func (s *Server) Improve(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, "Improve", func(ctx context.Context, id string) (*domain.State, error) {
		return s.Service.Improve(ctx, id)
	})
}

// Export handles GET /sessions/{id}/export?format=&transcript=.
func (s *Server) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	transcript, _ := strconv.ParseBool(q.Get("transcript"))

	file, err := s.Service.Export(r.Context(), chi.URLParam(r, "id"), storyloom.ExportOptions{
		Format:            q.Get("format"),
		IncludeTranscript: transcript,
	})
	if err != nil {
		s.fail(w, r, "Export", err)
		return
	}

	w.Header().Set("Content-Type", file.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		s.logger.Warn("Export write failed", "err", err)
	}
}

// Extract handles POST /extract, returning the text of an uploaded requirement file.
func (s *Server) Extract(w http.ResponseWriter, r *http.Request) {
	upload, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, r, "Extract", err)
		return
	}
	text, err := extract.Text(upload.data, upload.mimeType, upload.name)
	if err != nil {
		s.fail(w, r, "Extract", err)
		return
	}
	if text, err = sanitizer.Document(text); err != nil {
		s.fail(w, r, "Extract", err)
		return
	}
	writeJSON(w, http.StatusOK, ExtractResponse{
		FileName: upload.name,
		Type:     extract.DetectType(upload.mimeType, upload.name),
		Text:     text,
	})
}

// transition runs fn on the session in the URL and answers with the blocks that changed.
func (s *Server) transition(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, string) (*domain.State, error)) {
	id := chi.URLParam(r, "id")
	prev, err := s.Service.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}

	next, err := fn(r.Context(), id)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}

	s.broadcast(prev, next)
	writeJSON(w, http.StatusOK, runner.Respond(prev, next))
}

func (s *Server) broadcast(prev, next *domain.State) {
	diff := domain.Diff(prev, next)
	if diff == nil {
		s.logger.Debug("No diff calculated", "session_id", next.SessionID)
		return
	}
	bytes, err := json.Marshal(diff)
	if err != nil {
		s.logger.Warn("Diff encode failed", "session_id", next.SessionID, "err", err)
		return
	}
	s.Streams.Broadcast(next.SessionID, string(bytes))
}

type uploadedFile struct {
	name     string
	mimeType string
	data     []byte
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*uploadedFile, error) {
	if !isMultipart(r) {
		return nil, errBadRequest("expected a multipart/form-data upload")
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)
	if err := r.ParseMultipartForm(s.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: upload exceeds %d bytes", domain.ErrInputTooLarge, s.maxUploadSize)
		}
		return nil, errBadRequest("invalid multipart form: " + err.Error())
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		return nil, errBadRequest("missing form file \"file\"")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return &uploadedFile{
		name:     header.Filename,
		mimeType: header.Header.Get("Content-Type"),
		data:     data,
	}, nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// badRequestError marks malformed requests.
type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

func errBadRequest(msg string) error { return &badRequestError{msg: msg} }

func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return errBadRequest("Invalid request body")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadRequest("Invalid request body: " + err.Error())
	}
	return nil
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var bad *badRequestError
	switch {
	case errors.As(err, &bad),
		errors.Is(err, domain.ErrEmptyInput),
		errors.Is(err, domain.ErrInputTooLarge),
		errors.Is(err, domain.ErrInvalidUTF8),
		errors.Is(err, extract.ErrUnsupportedType),
		errors.Is(err, export.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoArtifact), errors.Is(err, domain.ErrNoPendingQuestion):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrCompletionFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	attrs := []any{"op", op, "status", status, "err", err}
	if id := chi.URLParam(r, "id"); id != "" {
		attrs = append(attrs, "session_id", id)
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", attrs...)
	} else {
		s.logger.Warn("Request rejected", attrs...)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
