package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/hazardboard/internal/pkg/metrics"
)

const wsPingInterval = 30 * time.Second

// wsChannels maps the channel names clients use to NATS subjects.
var wsChannels = map[string]string{
	"all":     "dashboard.>",
	"dataset": "dashboard.dataset.>",
	"route":   "dashboard.route.>",
	"weather": "dashboard.weather.>",
}

// wsRequest is a client control frame, e.g. {"action":"subscribe","channel":"route"}.
type wsRequest struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
}

type wsReply struct {
	Status  string `json:"status,omitempty"`
	Subject string `json:"subject,omitempty"`
	Error   string `json:"error,omitempty"`
}

// wsSession is one connected client. Writes are serialized by mu since NATS
// callbacks, the pinger and replies share the connection.
type wsSession struct {
	conn *websocket.Conn
	nc   *nats.Conn
	log  *slog.Logger

	mu   sync.Mutex
	subs map[string]*nats.Subscription
}

func (s *wsSession) write(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(messageType, data)
}

func (s *wsSession) reply(r wsReply) {
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	_ = s.write(websocket.TextMessage, data)
}

func (s *wsSession) relay(msg *nats.Msg) {
	_ = s.write(websocket.TextMessage, msg.Data)
}

func (s *wsSession) subscribe(subject string) wsReply {
	if _, ok := s.subs[subject]; ok {
		return wsReply{Status: "already subscribed", Subject: subject}
	}
	sub, err := s.nc.Subscribe(subject, s.relay)
	if err != nil {
		return wsReply{Error: "subscribe failed: " + err.Error()}
	}
	s.subs[subject] = sub
	return wsReply{Status: "subscribed", Subject: subject}
}

func (s *wsSession) unsubscribe(subject string) wsReply {
	sub, ok := s.subs[subject]
	if !ok {
		return wsReply{Error: "not subscribed to " + subject}
	}
	_ = sub.Unsubscribe()
	delete(s.subs, subject)
	return wsReply{Status: "unsubscribed", Subject: subject}
}

func (s *wsSession) handle(frame []byte) wsReply {
	var req wsRequest
	if err := json.Unmarshal(frame, &req); err != nil {
		return wsReply{Error: "invalid JSON"}
	}
	if req.Channel == "" {
		req.Channel = "all"
	}
	subject, ok := wsChannels[req.Channel]
	if !ok {
		return wsReply{Error: "unknown channel: " + req.Channel}
	}
	switch req.Action {
	case "subscribe":
		return s.subscribe(subject)
	case "unsubscribe":
		return s.unsubscribe(subject)
	default:
		return wsReply{Error: "unknown action: " + req.Action}
	}
}

func (s *wsSession) ping(done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (s *wsSession) close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
}

// WebSocketHandler relays dashboard events from NATS to connected clients.
// Every client starts subscribed to the "all" channel.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		s := &wsSession{
			conn: c,
			nc:   nc,
			log:  slog.Default().With("remote", c.RemoteAddr().String()),
			subs: make(map[string]*nats.Subscription),
		}
		defer s.close()

		if r := s.subscribe(wsChannels["all"]); r.Error != "" {
			s.log.Error("ws default subscribe", "error", r.Error)
			return
		}
		s.log.Info("ws client connected")

		done := make(chan struct{})
		defer close(done)
		go s.ping(done)

		for {
			_, frame, err := c.ReadMessage()
			if err != nil {
				break
			}
			s.reply(s.handle(frame))
		}
		s.log.Info("ws client disconnected")
	}
}
