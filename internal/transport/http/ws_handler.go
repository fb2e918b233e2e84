package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/avoronkov/peerchat-server/internal/auth"
	"github.com/avoronkov/peerchat-server/internal/core"
	"github.com/avoronkov/peerchat-server/internal/proto"
	"github.com/avoronkov/peerchat-server/internal/utils"
)

// WSHandler upgrades HTTP connections to the duplex chat channel. The token
// in the connection path is verified before any data is exchanged; the
// resulting identity owns the connection for its whole lifetime.
type WSHandler struct {
	authService *auth.Service
	registry    *core.Registry
	presence    *core.Tracker
	router      *core.Router
	queueSize   int
	log         *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(authService *auth.Service, registry *core.Registry, presence *core.Tracker, router *core.Router, queueSize int, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		authService: authService,
		registry:    registry,
		presence:    presence,
		router:      router,
		queueSize:   queueSize,
		log:         logger,
	}
}

// Handle serves GET /ws/:token.
func (h *WSHandler) Handle(c *gin.Context) {
	ctx := c.Request.Context()

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	claims, err := h.authService.ValidateToken(c.Param("token"))
	if err != nil {
		h.log.Warn().Err(err).Msg("ws auth rejected")
		conn.Close(websocket.StatusPolicyViolation, "invalid token")
		return
	}
	identity := claims.Email()

	client := core.NewClient(utils.NewID(), identity, h.queueSize)
	h.registry.Register(client)
	h.presence.MarkOnline(identity)
	h.log.Info().Str("identity", identity).Str("conn_id", client.ID).Msg("client connected")

	defer func() {
		client.Close()
		h.registry.Unregister(client)
		h.presence.MarkOffline(identity)
		h.log.Info().Str("identity", identity).Str("conn_id", client.ID).Msg("client disconnected")
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = "internal error"
			h.log.Warn().Err(err).Str("identity", identity).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		_, frame, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		err = h.router.HandleFrame(ctx, client, frame)
		switch {
		case err == nil:
		case errors.Is(err, core.ErrMalformedFrame):
			// Tolerated: the frame is dropped, the connection stays
			// open.
			h.log.Debug().Err(err).Str("identity", client.Identity).Msg("dropped malformed frame")
		case errors.Is(err, core.ErrPersistence):
			h.log.Error().Err(err).Str("identity", client.Identity).Msg("message not persisted")
			h.sendError(client, core.ErrCodePersistence, "message could not be saved")
		default:
			return err
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case payload, ok := <-client.Events():
			if !ok {
				return nil
			}
			if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
				h.log.Error().Err(err).Str("identity", client.Identity).Msg("write ws frame")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// sendError queues a protocol error frame on the client's own channel. The
// write loop is the single writer, so errors cannot race regular deliveries.
func (h *WSHandler) sendError(client *core.Client, code, msg string) {
	payload, err := json.Marshal(proto.ErrorFrame{Error: &proto.Error{Code: code, Msg: msg}})
	if err != nil {
		return
	}
	_ = client.Send(payload)
}
