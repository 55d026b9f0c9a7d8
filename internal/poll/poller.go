// Package poll watches chat.db for new data by re-querying it on an
// interval and announcing changes on the bus. The Messages app gives
// no change feed, so polling with a last-seen dedupe map is the whole
// mechanism; rapid changes within one tick coalesce into one event.
package poll

import (
	"context"
	"time"

	"go.uber.org/zap"

	"imsgd/internal/bus"
	"imsgd/internal/chatdb"
	"imsgd/internal/status"
)

// Source is the read surface the poller re-queries.
type Source interface {
	ListConversations() ([]chatdb.Conversation, error)
}

// Poller re-queries conversations on a ticker and publishes a
// chatdb.changed event when any conversation's latest message moved.
type Poller struct {
	source   Source
	bus      *bus.Bus
	machine  *status.Machine
	logger   *zap.Logger
	interval time.Duration

	// lastSeen maps conversation id to its latest message GUID; owned
	// here, never shared.
	lastSeen map[int64]string
	primed   bool
	cancel   context.CancelFunc
}

// New creates a poller. machine may be nil.
func New(source Source, b *bus.Bus, machine *status.Machine, interval time.Duration, logger *zap.Logger) *Poller {
	return &Poller{
		source:   source,
		bus:      b,
		machine:  machine,
		logger:   logger,
		interval: interval,
		lastSeen: make(map[int64]string),
	}
}

// Start begins polling until Stop or context cancellation. The first
// tick primes the dedupe map without announcing anything.
func (p *Poller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	go p.loop(ctx)
}

// Stop stops the poll loop.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *Poller) loop(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick()
	for {
		select {
		case <-ticker.C:
			p.tick()
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) tick() {
	convs, err := p.source.ListConversations()
	if err != nil {
		p.logger.Error("poll query failed", zap.Error(err))
		p.transition(status.Degraded)
		return
	}
	p.transition(status.Ready)

	changed := 0
	for _, c := range convs {
		if c.LastMessage == nil {
			continue
		}
		if p.lastSeen[c.ID] != c.LastMessage.GUID {
			p.lastSeen[c.ID] = c.LastMessage.GUID
			changed++
		}
	}

	if !p.primed {
		p.primed = true
		return
	}
	if changed > 0 {
		p.logger.Info("chat.db changed", zap.Int("conversations", changed))
		p.bus.Publish(bus.Event{Kind: "chatdb.changed", Payload: changed})
	}
}

func (p *Poller) transition(to status.State) {
	if p.machine == nil {
		return
	}
	if err := p.machine.Transition(to); err != nil {
		p.logger.Warn("status transition rejected", zap.Error(err))
	}
}
