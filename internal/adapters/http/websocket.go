package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/coursemate/internal/adapters/nats"
	"github.com/samirrijal/coursemate/internal/core/domain"
	"github.com/samirrijal/coursemate/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to course events.
type wsMessage struct {
	Action string `json:"action"` // "subscribe" | "unsubscribe"
	Mode   string `json:"mode"`   // "fresh" | "retry" | "" (both)
	Region string `json:"region"` // optional region filter, "" = all
}

// wsSubject maps a requested mode to a NATS subject.
func wsSubject(mode string) (string, bool) {
	switch domain.RecommendMode(mode) {
	case "":
		return natsadapter.CourseSubjects, true
	case domain.ModeFresh, domain.ModeRetry:
		return natsadapter.CourseSubject(domain.RecommendMode(mode)), true
	}
	return "", false
}

// regionMatches reports whether a raw course event passes the filter.
func regionMatches(data []byte, region string) bool {
	if region == "" {
		return true
	}
	var ev struct {
		Region string `json:"region"`
	}
	return json.Unmarshal(data, &ev) == nil && ev.Region == region
}

// WebSocketHandler returns a handler that upgrades to WebSocket
// and relays served-course events from NATS to connected clients.
// Clients send JSON: {"action":"subscribe","mode":"retry","region":"서울"}.
// Every client starts subscribed to all events.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // subject|region -> subscription

		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		subscribe := func(subject, region string) (*nats.Subscription, error) {
			return nc.Subscribe(subject, func(msg *nats.Msg) {
				if regionMatches(msg.Data, region) {
					_ = writeJSON(json.RawMessage(msg.Data))
				}
			})
		}

		sub, err := subscribe(natsadapter.CourseSubjects, "")
		if err != nil {
			slog.Error("ws default subscribe failed", "error", err)
			return
		}
		subs[natsadapter.CourseSubjects+"|"] = sub

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			subject, ok := wsSubject(m.Mode)
			if !ok {
				_ = writeJSON(map[string]string{"error": "unknown mode: " + m.Mode})
				continue
			}
			key := subject + "|" + m.Region

			switch m.Action {
			case "subscribe":
				if _, exists := subs[key]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "subject": subject, "region": m.Region})
					continue
				}
				s, err := subscribe(subject, m.Region)
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				subs[key] = s
				_ = writeJSON(map[string]string{"status": "subscribed", "subject": subject, "region": m.Region})

			case "unsubscribe":
				if s, exists := subs[key]; exists {
					_ = s.Unsubscribe()
					delete(subs, key)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject, "region": m.Region})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
