package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ikkim/lunchmap-backend/internal/app/model"
	"github.com/ikkim/lunchmap-backend/pkg/logger"
)

const (
	// Rate limiting: 최대 메시지 수 (1초당)
	maxMessagesPerSecond = 10
)

// ClientMessage 클라이언트로부터 받은 메시지
type ClientMessage struct {
	Type string `json:"type"` // cancel, ping
}

// Client 검색 세션 하나를 구독하는 WebSocket 클라이언트
type Client struct {
	Hub           *Hub
	Conn          *Conn
	Session       string
	Send          chan []byte
	MessageCount  int       // 최근 1초간 받은 메시지 수
	LastResetTime time.Time // 마지막 카운터 리셋 시간
	RateMu        sync.Mutex
}

func NewClient(hub *Hub, conn *Conn, session string) *Client {
	return &Client{
		Hub:     hub,
		Conn:    conn,
		Session: session,
		Send:    make(chan []byte, 64),
	}
}

// Hub 검색 진행 이벤트를 세션별 구독자에게 전달
type Hub struct {
	// 세션별 클라이언트들 (멀티 탭 지원)
	sessions map[string][]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	onCancel func(session string)

	mu sync.RWMutex
}

// BroadcastMessage 브로드캐스트 메시지
type BroadcastMessage struct {
	Session string
	Message []byte
}

// NewHub Hub 생성. onCancel은 클라이언트가 cancel을 보냈을 때 호출된다.
func NewHub(onCancel func(session string)) *Hub {
	return &Hub{
		sessions:   make(map[string][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *BroadcastMessage, 1024),
		onCancel:   onCancel,
	}
}

// Run Hub 실행. ctx가 끝나면 반환한다.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.sessions[client.Session] = append(h.sessions[client.Session], client)
			total := len(h.sessions[client.Session])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"session":        client.Session,
				"total_sessions": total,
			})

		case client := <-h.unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.sessions[message.Session] {
				select {
				case client.Send <- message.Message:
				default:
					// Send 채널이 막혀있음 - 비동기로 정리
					go h.Unregister(client)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"session": message.Session,
					})
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clientList, ok := h.sessions[client.Session]
	if !ok {
		return
	}
	newList := make([]*Client, 0, len(clientList))
	found := false
	for _, c := range clientList {
		if c == client {
			found = true
			continue
		}
		newList = append(newList, c)
	}
	if !found {
		return
	}

	if len(newList) == 0 {
		delete(h.sessions, client.Session)
	} else {
		h.sessions[client.Session] = newList
	}
	close(client.Send)

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"session":            client.Session,
		"remaining_sessions": len(newList),
	})
}

// Publish sends a progress event to every client watching its session.
// Events are dropped rather than blocking the pipeline.
func (h *Hub) Publish(event model.ProgressEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal progress event", err)
		return
	}

	select {
	case h.broadcast <- &BroadcastMessage{Session: event.Session, Message: data}:
	default:
		logger.Warn("Broadcast channel full, event dropped", map[string]interface{}{
			"session": event.Session,
			"type":    event.Type,
		})
	}
}

// Register 클라이언트 등록
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister 클라이언트 등록 해제
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// IsWatching 세션 구독 여부
func (h *Hub) IsWatching(session string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.sessions[session]
	return ok
}

// HandleClientMessage 클라이언트 메시지 처리
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"session": client.Session,
			"count":   count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"session": client.Session,
			"error":   err.Error(),
		})
		return
	}

	switch msg.Type {
	case "cancel":
		if h.onCancel != nil {
			h.onCancel(client.Session)
		}
	case "ping":
		// keep-alive
	default:
		logger.Debug("Unknown client message", map[string]interface{}{
			"session": client.Session,
			"type":    msg.Type,
		})
	}
}
