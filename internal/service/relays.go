package service

import (
	"context"
	"fmt"
	"sync"

	"irrigation_panel/internal/logger"
	"irrigation_panel/internal/metrics"
	"irrigation_panel/internal/models"
)

// Relays drives the output bank, one relay per channel.
type Relays interface {
	Set(channel int, on bool) error
	Get(channel int) bool
}

// StatusPublisher forwards relay changes to an external bus.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, status ChannelStatus) error
}

// MemoryRelays keeps relay states in memory.
type MemoryRelays struct {
	mu      sync.RWMutex
	states  [models.Channels]bool
	log     *logger.Logger
	metrics *metrics.Collector
}

func NewMemoryRelays(log *logger.Logger, m *metrics.Collector) *MemoryRelays {
	return &MemoryRelays{log: log.Named("relays"), metrics: m}
}

func (r *MemoryRelays) Set(channel int, on bool) error {
	if channel < 0 || channel >= models.Channels {
		return fmt.Errorf("relay %d out of range", channel)
	}
	r.mu.Lock()
	changed := r.states[channel] != on
	r.states[channel] = on
	r.mu.Unlock()

	if changed {
		r.metrics.ObserveRelay(channel, on)
		r.log.Debugw("relay_switched", "channel", channel, "on", on)
	}
	return nil
}

func (r *MemoryRelays) Get(channel int) bool {
	if channel < 0 || channel >= models.Channels {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.states[channel]
}
