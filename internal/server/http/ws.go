package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/voxdesk/voxdesk/internal/observability"
)

// serveWS runs one call over a websocket: the client streams utterances,
// the server answers each with the next prompt. The socket closes normally
// once the conversation reaches its terminal state.
func (s *httpServer) serveWS(w http.ResponseWriter, r *http.Request) {
	id := pathSuffix(r.URL.Path, wsPrefix)
	if id == "" {
		writeError(w, http.StatusNotFound, "call id required")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Error("websocket accept failed",
			observability.F("session", id),
			observability.F("error", err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "session aborted")

	ctx := r.Context()
	for {
		var payload utterancePayload
		if err := wsjson.Read(ctx, conn, &payload); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway ||
				errors.Is(err, context.Canceled) {
				return
			}
			s.log.Debug("websocket read ended",
				observability.F("session", id),
				observability.F("error", err))
			return
		}

		reply, err := s.engine.ProcessUtterance(ctx, id, payload.Utterance)
		if err != nil {
			_ = wsjson.Write(ctx, conn, map[string]string{"error": err.Error()})
			continue
		}
		ended, err := s.engine.Ended(ctx, id)
		if err != nil {
			ended = false
		}
		if err := wsjson.Write(ctx, conn, replyPayload{Message: reply, Ended: ended}); err != nil {
			return
		}
		if ended {
			s.cleanupEndedCall(ctx, id)
			_ = conn.Close(websocket.StatusNormalClosure, "call ended")
			return
		}
	}
}
