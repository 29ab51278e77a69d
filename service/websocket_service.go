package service

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tieubaoca/wisdom-rag/types"
	"go.uber.org/zap"
)

const (
	wsReadLimit    = 512 * 1024
	wsPongWait     = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// Chatter answers a chat request.
type Chatter interface {
	Chat(ctx context.Context, req types.ChatRequest) (types.AnswerResult, error)
}

type WebSocketService struct {
	chatter        Chatter
	upgrader       websocket.Upgrader
	requestTimeout time.Duration
	logger         *zap.Logger
}

func NewWebSocketService(chatter Chatter, requestTimeout time.Duration, logger *zap.Logger) *WebSocketService {
	return &WebSocketService{
		chatter:        chatter,
		requestTimeout: requestTimeout,
		logger:         logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins (adjust for production)
			},
		},
	}
}

// HandleChat serves one websocket connection. Each "chat" message is answered
// with a "chat" message carrying the answer result; "ping" gets a "pong".
func (s *WebSocketService) HandleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsReadLimit)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("Websocket read error", zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsPongWait))

		if err := s.write(conn, s.handleMessage(ctx, p)); err != nil {
			s.logger.Warn("Websocket write error", zap.Error(err))
			return
		}
	}
}

func (s *WebSocketService) handleMessage(ctx context.Context, p []byte) types.WebSocketResponse {
	var req types.WebsocketRequest
	if err := json.Unmarshal(p, &req); err != nil {
		return errorMessage(types.NewInvalidInputError("Invalid message format"))
	}

	switch req.Type {
	case types.TypeWebsocketPing:
		return types.WebSocketResponse{Type: types.TypeWebsocketPong}
	case types.TypeWebsocketChat:
		if s.requestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
			defer cancel()
		}
		result, err := s.chatter.Chat(ctx, req.Payload)
		if err != nil {
			s.logger.Error("Websocket chat failed",
				zap.String("code", string(types.Classify(err))),
				zap.Error(err),
			)
			return errorMessage(err)
		}
		return types.WebSocketResponse{Type: types.TypeWebsocketChat, Payload: result}
	default:
		return errorMessage(types.NewInvalidInputError("Unknown message type: " + req.Type))
	}
}

func (s *WebSocketService) write(conn *websocket.Conn, msg types.WebSocketResponse) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(msg)
}

func errorMessage(err error) types.WebSocketResponse {
	return types.WebSocketResponse{
		Type:    types.TypeWebsocketError,
		Payload: types.ErrorResponse{Error: true, Message: types.UserMessage(err)},
	}
}
