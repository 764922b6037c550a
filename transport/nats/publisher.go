// Package nats mirrors public game events onto NATS subjects so other
// processes can follow sessions without holding a WebSocket.
package nats

import (
	"encoding/json"
	"strings"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/lastword/game/service"
)

// DefaultSubjectPrefix is the first subject token of every event.
const DefaultSubjectPrefix = "lastword"

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Envelope is the payload published for each event.
type Envelope struct {
	SessionID string          `json:"session_id"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data,omitempty"`
	SentAt    time.Time       `json:"sent_at"`
}

// Publisher is a service.Notifier that publishes broadcasts to
// <prefix>.<session>.<event>. Private events are never published.
type Publisher struct {
	nc     Conn
	prefix string
	now    func() time.Time
}

var _ service.Notifier = (*Publisher)(nil)

// NewPublisher wraps an existing connection.
func NewPublisher(nc Conn, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Publisher{nc: nc, prefix: prefix, now: time.Now}
}

// Connect dials url and returns a publisher plus a function that drains and
// closes the connection.
func Connect(url, prefix string) (*Publisher, func(), error) {
	nc, err := natsgo.Connect(url,
		natsgo.Name("lastword"),
		natsgo.MaxReconnects(-1),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("url", nc.ConnectedUrl()).Str("prefix", prefix).Msg("publishing game events to nats")

	closeFn := func() {
		if err := nc.Drain(); err != nil {
			log.Error().Err(err).Msg("nats drain")
		}
	}
	return NewPublisher(nc, prefix), closeFn, nil
}

// Subject returns the subject an event of a session is published on.
func (p *Publisher) Subject(sessionID, event string) string {
	return p.prefix + "." + strings.ToLower(sessionID) + "." + event
}

// Broadcast publishes a session-wide event. Publishing only buffers, so it
// is safe to call while a session is locked.
func (p *Publisher) Broadcast(sessionID, event string, data interface{}) {
	env := Envelope{SessionID: sessionID, Event: event, SentAt: p.now()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			log.Error().Err(err).Str("event", event).Msg("marshal nats event")
			return
		}
		env.Data = raw
	}

	payload, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("marshal nats envelope")
		return
	}

	subject := p.Subject(sessionID, event)
	if err := p.nc.Publish(subject, payload); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("nats publish failed")
	}
}

// Send drops private events. Racks stay between the server and their owner.
func (p *Publisher) Send(sessionID, playerID, event string, data interface{}) {}
