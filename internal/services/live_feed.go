package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/crisiscare/crisiscare-backend/internal/logger"
	"github.com/crisiscare/crisiscare-backend/internal/metrics"
	"github.com/crisiscare/crisiscare-backend/internal/models"
)

const (
	// LiveFeedChannel is the Redis channel new entries are published on.
	LiveFeedChannel = "community-help:entries"

	feedSendBuffer   = 16
	feedWriteTimeout = 10 * time.Second
)

// FeedEvent is the payload sent to live feed subscribers.
type FeedEvent struct {
	Type  string       `json:"type"`
	Entry models.Entry `json:"entry"`
}

// FeedConn is the part of a websocket connection the hub needs.
type FeedConn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// FeedClient is one subscriber. Events are queued on send and written by
// WritePump, the only goroutine that writes to conn.
type FeedClient struct {
	ID   uuid.UUID
	conn FeedConn
	send chan FeedEvent
}

// WritePump drains the client's queue until it is closed or a write fails.
func (c *FeedClient) WritePump() {
	for event := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
		if err := c.conn.WriteJSON(event); err != nil {
			logger.GetLogger().Debugw("Live feed write failed", "client", c.ID, "error", err)
			return
		}
	}
}

// Hub tracks live feed clients in this process.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*FeedClient
	metrics *metrics.Metrics
}

func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{clients: make(map[uuid.UUID]*FeedClient), metrics: m}
}

func (h *Hub) Register(conn FeedConn) *FeedClient {
	c := &FeedClient{ID: uuid.New(), conn: conn, send: make(chan FeedEvent, feedSendBuffer)}

	h.mu.Lock()
	h.clients[c.ID] = c
	count := len(h.clients)
	h.mu.Unlock()

	h.setGauge(count)
	return c
}

// Unregister removes c and closes its queue. Safe to call more than once.
func (h *Hub) Unregister(c *FeedClient) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.ID)
	close(c.send)
	count := len(h.clients)
	h.mu.Unlock()

	h.setGauge(count)
}

// FanOut queues event for every client. Clients whose queue is full are
// dropped rather than slowing down the others.
func (h *Hub) FanOut(event FeedEvent) {
	var slow []*FeedClient

	h.mu.RLock()
	for _, c := range h.clients {
		select {
		case c.send <- event:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		logger.GetLogger().Warnw("Dropping slow live feed client", "client", c.ID)
		h.Unregister(c)
		c.conn.Close()
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) setGauge(n int) {
	if h.metrics != nil {
		h.metrics.LiveFeedClients.Set(float64(n))
	}
}

// LiveFeed publishes stored entries to websocket subscribers. With a Redis
// client, entries travel through LiveFeedChannel so every instance sees
// them; without one, fan-out stays in-process.
type LiveFeed struct {
	hub     *Hub
	redis   *redis.Client
	started sync.Once
}

func NewLiveFeed(hub *Hub, client *redis.Client) *LiveFeed {
	return &LiveFeed{hub: hub, redis: client}
}

func (f *LiveFeed) Hub() *Hub { return f.hub }

// Publish announces entry. A Redis failure falls back to local fan-out and
// is returned so the caller can log it.
func (f *LiveFeed) Publish(ctx context.Context, entry models.Entry) error {
	event := FeedEvent{Type: "entry", Entry: entry}
	if f.redis == nil {
		f.hub.FanOut(event)
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := f.redis.Publish(ctx, LiveFeedChannel, data).Err(); err != nil {
		f.hub.FanOut(event)
		return err
	}
	return nil
}

// Start runs the Redis subscriber once per process. It is a no-op without
// Redis.
func (f *LiveFeed) Start(ctx context.Context) {
	if f.redis == nil {
		return
	}
	f.started.Do(func() {
		go f.runSubscriber(ctx)
	})
}

func (f *LiveFeed) runSubscriber(ctx context.Context) {
	log := logger.GetLogger()
	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := f.redis.Subscribe(ctx, LiveFeedChannel)
			defer pubsub.Close()

			log.Infow("✅ Live feed subscriber started", "channel", LiveFeedChannel)

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Warnw("Live feed subscriber error", "error", err, "retry_in", backoff)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}
				backoff = time.Second

				var event FeedEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Warnw("Discarding malformed live feed event", "error", err)
					continue
				}
				f.hub.FanOut(event)
			}
		}()
	}
}
