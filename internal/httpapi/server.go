package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/park285/cheese-board/internal/game"
	"github.com/park285/cheese-board/internal/msgcat"
	"github.com/park285/cheese-board/internal/render"
	"github.com/park285/cheese-board/internal/rules"
	"github.com/park285/cheese-board/internal/session"
	dto "github.com/park285/cheese-board/pkg/boarddto"
	"go.uber.org/zap"
)

const maxJSONBodyBytes int64 = 1 << 20

var errBadRequest = errors.New("bad request")

// Sessions is the game store the API drives. *session.Manager implements it.
type Sessions interface {
	Create(ctx context.Context) (*session.Session, error)
	CreateFrom(ctx context.Context, pieces []rules.Piece, turn rules.Color) (*session.Session, error)
	Load(ctx context.Context, id string) (*session.Session, error)
	Select(ctx context.Context, id string, pieceID int) (*session.Session, []rules.Square, error)
	SelectAt(ctx context.Context, id string, sq rules.Square) (*session.Session, []rules.Square, error)
	Move(ctx context.Context, id string, sq rules.Square) (*session.Session, game.MoveResult, error)
	Deselect(ctx context.Context, id string) (*session.Session, game.Status, error)
	Reset(ctx context.Context, id string) (*session.Session, error)
	Delete(ctx context.Context, id string) error
	ListActive(ctx context.Context) ([]string, error)
	Subscribe(ctx context.Context, id string) (<-chan session.Event, func() error, error)
}

// Server exposes Sessions over JSON and websocket endpoints.
type Server struct {
	sessions       Sessions
	catalog        *msgcat.Catalog
	renderer       *render.Renderer
	logger         *zap.Logger
	originPatterns []string

	srvMu sync.Mutex
	srv   *http.Server
}

type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOriginPatterns sets the origins accepted by the websocket endpoint.
func WithOriginPatterns(p []string) Option {
	return func(s *Server) { s.originPatterns = p }
}

func New(sessions Sessions, catalog *msgcat.Catalog, renderer *render.Renderer, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		catalog:  catalog,
		renderer: renderer,
		logger:   zap.NewNop(),
	}
	if s.renderer == nil {
		s.renderer = render.New(render.DefaultSquarePx)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Listen serves on addr until Close is called.
func (s *Server) Listen(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	s.srvMu.Lock()
	s.srv = srv
	s.srvMu.Unlock()
	defer func() {
		s.srvMu.Lock()
		s.srv = nil
		s.srvMu.Unlock()
	}()

	s.logger.Info("http_listen", zap.String("addr", addr))
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close attempts a graceful shutdown.
func (s *Server) Close(ctx context.Context) error {
	s.srvMu.Lock()
	srv := s.srv
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /games", s.withJSON(s.handleCreate))
	mux.HandleFunc("GET /games", s.withJSON(s.handleList))
	mux.HandleFunc("GET /games/{id}", s.withJSON(s.handleGet))
	mux.HandleFunc("DELETE /games/{id}", s.withJSON(s.handleDelete))
	mux.HandleFunc("POST /games/{id}/select", s.withJSON(s.handleSelect))
	mux.HandleFunc("POST /games/{id}/move", s.withJSON(s.handleMove))
	mux.HandleFunc("POST /games/{id}/deselect", s.withJSON(s.handleDeselect))
	mux.HandleFunc("POST /games/{id}/reset", s.withJSON(s.handleReset))
	mux.HandleFunc("GET /games/{id}/board.png", s.handleBoardPNG)
	mux.HandleFunc("GET /games/{id}/events", s.handleEvents)
	return mux
}

// ---- JSON helpers ----

func (s *Server) withJSON(h func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// decodeBody reads an optional JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := s.message(code)
	if status == http.StatusBadRequest && err != nil {
		msg = msg + ": " + err.Error()
	}
	if status >= 500 {
		s.logger.Error("http_internal_error", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, dto.DomainError{Code: code, Message: msg, Retryable: status == http.StatusConflict})
}

func (s *Server) message(code string) string {
	if s.catalog != nil {
		if m, err := s.catalog.Render("error."+code, nil); err == nil && m != "" {
			return m
		}
	}
	return strings.ReplaceAll(code, "_", " ")
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, dto.CodeNotFound
	case errors.Is(err, session.ErrConflict):
		return http.StatusConflict, dto.CodeConflict
	case errors.Is(err, session.ErrTooManyGames):
		return http.StatusTooManyRequests, dto.CodeTooManyGames
	case errors.Is(err, session.ErrInvalidArgs), errors.Is(err, rules.ErrInvalidSquare),
		errors.Is(err, rules.ErrInvalidPieceType), errors.Is(err, errBadRequest):
		return http.StatusBadRequest, dto.CodeBadRequest
	default:
		return http.StatusInternalServerError, dto.CodeInternal
	}
}
