package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/park285/cheese-board/internal/render"
	"github.com/park285/cheese-board/internal/rules"
	"github.com/park285/cheese-board/internal/session"
	dto "github.com/park285/cheese-board/pkg/boarddto"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	if len(req.Pieces) == 0 {
		sess, err := s.sessions.Create(ctx)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toState(sess, s.catalog))
		return
	}

	pieces, err := fromPieces(req.Pieces)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	turn := rules.White
	if t := strings.TrimSpace(req.Turn); t != "" {
		turn = rules.Color(strings.ToLower(t))
	}
	sess, err := s.sessions.CreateFrom(ctx, pieces, turn)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toState(sess, s.catalog))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.ListActive(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, dto.ListResponse{Games: ids})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Load(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toState(sess, s.catalog))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req dto.SelectRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	id := r.PathValue("id")

	var (
		moves []rules.Square
		err   error
	)
	resp := dto.SelectResponse{}
	switch {
	case strings.TrimSpace(req.Square) != "":
		sq, perr := rules.ParseSquare(req.Square)
		if perr != nil {
			s.writeError(w, r, perr)
			return
		}
		sess, m, serr := s.sessions.SelectAt(r.Context(), id, sq)
		resp.State, moves, err = toState(sess, s.catalog), m, serr
	case req.PieceID > 0:
		sess, m, serr := s.sessions.Select(r.Context(), id, req.PieceID)
		resp.State, moves, err = toState(sess, s.catalog), m, serr
	default:
		s.writeError(w, r, fmt.Errorf("%w: piece_id or square required", errBadRequest))
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp.Moves = squareNames(moves)
	if resp.Moves == nil {
		resp.Moves = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req dto.MoveRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sq, err := rules.ParseSquare(req.Square)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, res, err := s.sessions.Move(r.Context(), r.PathValue("id"), sq)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MoveResponse{
		State:   toState(sess, s.catalog),
		Applied: res.Applied,
		Status:  toStatus(res.Status, s.catalog),
		Move:    toMove(res.Move),
	})
}

func (s *Server) handleDeselect(w http.ResponseWriter, r *http.Request) {
	sess, st, err := s.sessions.Deselect(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.DeselectResponse{State: toState(sess, s.catalog), Status: toStatus(st, s.catalog)})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Reset(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toState(sess, s.catalog))
}

func (s *Server) handleBoardPNG(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Load(r.Context(), r.PathValue("id"))
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		s.writeError(w, r, err)
		return
	}
	st := sess.State
	opts := render.Options{Targets: st.LegalMoves}
	if st.Selected != 0 {
		for _, p := range st.Pieces {
			if p.ID == st.Selected {
				sq := p.Square
				opts.Selected = &sq
				break
			}
		}
	}
	if s.catalog != nil && r.URL.Query().Get("caption") != "0" {
		opts.Caption = s.catalog.Status(st.Indicator)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	raw, err := s.renderer.RenderPNG(ctx, st.Pieces, opts)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// handleEvents streams game events over a websocket. The first frame confirms the subscription.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.sessions.Load(r.Context(), id); err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		s.writeError(w, r, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  s.originPatterns,
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		s.logger.Warn("ws_accept_error", zap.String("game_id", id), zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	// the client never sends; CloseRead cancels ctx once it disconnects
	ctx := conn.CloseRead(r.Context())

	events, closeSub, err := s.sessions.Subscribe(ctx, id)
	if err != nil {
		s.logger.Warn("ws_subscribe_error", zap.String("game_id", id), zap.Error(err))
		conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer closeSub()

	if err := writeFrame(ctx, conn, dto.Event{GameID: id, Kind: dto.EventSubscribed, At: time.Now()}); err != nil {
		return
	}
	s.logger.Debug("ws_subscribed", zap.String("game_id", id))

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev, ok := <-events:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := writeFrame(ctx, conn, toEvent(ev, s.catalog)); err != nil {
				return
			}
			if ev.Kind == session.EventDeleted {
				conn.Close(websocket.StatusNormalClosure, "game deleted")
				return
			}
		}
	}
}

func writeFrame(ctx context.Context, conn *websocket.Conn, v any) error {
	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return wsjson.Write(wctx, conn, v)
}
