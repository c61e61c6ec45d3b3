package printer

import (
	"context"
	"log"
	"time"
)

// Monitor continuously watches for printers appearing and disappearing.
type Monitor struct {
	manager *Manager
	pool    *ConnectionPool

	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewMonitor creates a new printer monitor.
func NewMonitor(manager *Manager, pool *ConnectionPool, interval time.Duration) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())

	return &Monitor{
		manager:  manager,
		pool:     pool,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins monitoring for printer changes.
func (m *Monitor) Start() {
	previous := make(map[string]*Printer)

	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.checkChanges(previous)
			}
		}
	}()
}

// Stop stops the monitor.
func (m *Monitor) Stop() {
	m.cancel()
}

func (m *Monitor) checkChanges(previous map[string]*Printer) {
	current, err := m.manager.DetectPrinters()
	if err != nil {
		log.Printf("Warning: printer detection failed: %v", err)
		return
	}

	currentMap := make(map[string]*Printer, len(current))
	for _, p := range current {
		currentMap[p.ID] = p
	}

	for id, p := range currentMap {
		if _, exists := previous[id]; !exists {
			if m.manager.onPrinterAdded != nil {
				m.manager.onPrinterAdded(p)
			}
		}
	}

	for id := range previous {
		if _, exists := currentMap[id]; !exists {
			// The device is gone; drop the stale session so the next
			// job reconnects instead of writing into a dead fd.
			m.pool.Disconnect(id)
			if m.manager.onPrinterRemoved != nil {
				m.manager.onPrinterRemoved(id)
			}
		}
	}

	for k := range previous {
		delete(previous, k)
	}
	for k, v := range currentMap {
		previous[k] = v
	}
}
