package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kbukum/scribe/logger"
)

// Gateway opcodes.
const (
	opDispatch       = 0
	opHeartbeat      = 1
	opIdentify       = 2
	opReconnect      = 7
	opInvalidSession = 9
	opHello          = 10
	opHeartbeatAck   = 11
)

// defaultIntents are the gateway intents the bot subscribes to.
const defaultIntents = IntentGuilds | IntentGuildMembers | IntentGuildMessages |
	IntentMessageContent | IntentDirectMessages

// gatewayPayload is the envelope for every gateway frame.
type gatewayPayload struct {
	Op   int             `json:"op"`
	Data json.RawMessage `json:"d,omitempty"`
	Seq  *int64          `json:"s,omitempty"`
	Type string          `json:"t,omitempty"`
}

type helloData struct {
	HeartbeatInterval int `json:"heartbeat_interval"`
}

type identifyData struct {
	Token      string             `json:"token"`
	Intents    int                `json:"intents"`
	Properties identifyProperties `json:"properties"`
}

type identifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

type readyData struct {
	User        User        `json:"user"`
	Application Application `json:"application"`
}

// EventHandler receives decoded dispatch events. Handlers must not block;
// long work belongs in its own goroutine.
type EventHandler struct {
	OnReady             func(botUser User, app Application)
	OnMessageCreate     func(msg Message)
	OnInteractionCreate func(i Interaction)
}

// Gateway maintains the websocket connection to the platform's event stream.
type Gateway struct {
	url     string
	token   string
	intents int
	handler EventHandler
	log     *logger.Logger

	seq   atomic.Int64
	ready atomic.Bool

	// writeMu serializes frame writes: the read loop and the heartbeat
	// goroutine share the connection, and gorilla/websocket supports
	// only one concurrent writer.
	writeMu sync.Mutex
}

// writeJSON is the single write path for outbound frames.
func (g *Gateway) writeJSON(conn *websocket.Conn, p gatewayPayload) error {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	return conn.WriteJSON(p)
}

// NewGateway creates a gateway consumer.
func NewGateway(url, token string, handler EventHandler, log *logger.Logger) *Gateway {
	return &Gateway{
		url:     url,
		token:   token,
		intents: defaultIntents,
		handler: handler,
		log:     log.WithComponent("discord-gateway"),
	}
}

// Ready reports whether the gateway has completed its handshake.
func (g *Gateway) Ready() bool {
	return g.ready.Load()
}

// Run connects and consumes events until ctx is cancelled, reconnecting
// with backoff on connection loss.
func (g *Gateway) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		err := g.runOnce(ctx)
		g.ready.Store(false)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		g.log.Warn("gateway connection lost, reconnecting", logger.Fields(
			logger.FieldError, fmt.Sprint(err),
			"backoff", backoff.String(),
		))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

// runOnce performs a single connect/identify/consume cycle.
func (g *Gateway) runOnce(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, g.url, nil)
	if err != nil {
		return fmt.Errorf("dial gateway: %w", err)
	}
	defer conn.Close()

	// The first frame must be HELLO with the heartbeat interval.
	var hello gatewayPayload
	if err := conn.ReadJSON(&hello); err != nil {
		return fmt.Errorf("read hello: %w", err)
	}
	if hello.Op != opHello {
		return fmt.Errorf("expected hello frame, got op %d", hello.Op)
	}
	var hd helloData
	if err := json.Unmarshal(hello.Data, &hd); err != nil {
		return fmt.Errorf("decode hello: %w", err)
	}

	if err := g.identify(conn); err != nil {
		return err
	}

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go g.heartbeatLoop(hbCtx, conn, time.Duration(hd.HeartbeatInterval)*time.Millisecond)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var frame gatewayPayload
		if err := conn.ReadJSON(&frame); err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		if frame.Seq != nil {
			g.seq.Store(*frame.Seq)
		}

		switch frame.Op {
		case opDispatch:
			g.dispatch(frame)
		case opHeartbeat:
			// Server requested an immediate heartbeat.
			seq := g.seq.Load()
			if err := g.writeJSON(conn, gatewayPayload{Op: opHeartbeat, Data: mustRaw(seq)}); err != nil {
				return fmt.Errorf("requested heartbeat: %w", err)
			}
		case opReconnect, opInvalidSession:
			return fmt.Errorf("server asked for reconnect (op %d)", frame.Op)
		case opHeartbeatAck:
			// nothing to do
		}
	}
}

func (g *Gateway) identify(conn *websocket.Conn) error {
	payload := identifyData{
		Token:   g.token,
		Intents: g.intents,
		Properties: identifyProperties{
			OS:      "linux",
			Browser: "scribe",
			Device:  "scribe",
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode identify: %w", err)
	}
	if err := g.writeJSON(conn, gatewayPayload{Op: opIdentify, Data: data}); err != nil {
		return fmt.Errorf("send identify: %w", err)
	}
	return nil
}

func (g *Gateway) heartbeatLoop(ctx context.Context, conn *websocket.Conn, interval time.Duration) {
	if interval <= 0 {
		interval = 41250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			seq := g.seq.Load()
			if err := g.writeJSON(conn, gatewayPayload{Op: opHeartbeat, Data: mustRaw(seq)}); err != nil {
				g.log.Warn("heartbeat write failed", logger.ErrorFields("heartbeat", err))
				conn.Close()
				return
			}
		}
	}
}

// dispatch decodes a dispatch frame and routes it to the handler.
func (g *Gateway) dispatch(frame gatewayPayload) {
	switch frame.Type {
	case "READY":
		var rd readyData
		if err := json.Unmarshal(frame.Data, &rd); err != nil {
			g.log.Warn("bad READY payload", logger.ErrorFields("dispatch", err))
			return
		}
		g.ready.Store(true)
		g.log.Info("gateway ready", logger.Fields("user", rd.User.Username))
		if g.handler.OnReady != nil {
			g.handler.OnReady(rd.User, rd.Application)
		}

	case "MESSAGE_CREATE":
		var msg Message
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			g.log.Warn("bad MESSAGE_CREATE payload", logger.ErrorFields("dispatch", err))
			return
		}
		if g.handler.OnMessageCreate != nil {
			g.handler.OnMessageCreate(msg)
		}

	case "INTERACTION_CREATE":
		var i Interaction
		if err := json.Unmarshal(frame.Data, &i); err != nil {
			g.log.Warn("bad INTERACTION_CREATE payload", logger.ErrorFields("dispatch", err))
			return
		}
		if g.handler.OnInteractionCreate != nil {
			g.handler.OnInteractionCreate(i)
		}
	}
}

func mustRaw(v any) json.RawMessage {
	raw, _ := json.Marshal(v)
	return raw
}
