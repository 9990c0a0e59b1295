package controller

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	apperrors "github.com/ikkim/lunchmap-backend/internal/errors"
	"github.com/ikkim/lunchmap-backend/internal/middleware"
	ws "github.com/ikkim/lunchmap-backend/internal/websocket"
)

type WSController struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

func NewWSController(hub *ws.Hub, allowedOrigins []string) *WSController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WSController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// 브라우저가 아닌 클라이언트는 Origin이 없다
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// SearchProgress 검색 진행 이벤트 스트림
// GET /api/v1/ws/search?session=
func (ctrl *WSController) SearchProgress(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	session := strings.TrimSpace(c.Query("session"))
	if session == "" {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "session이 필요합니다")
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, session)
	client.LastResetTime = time.Now()
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("WebSocket connection established", map[string]interface{}{
		"session": session,
	})
}
