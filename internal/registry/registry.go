// Package registry manages persistent printer IDs, custom names, and
// per-device serial calibration.
package registry

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
)

// Registry maps physical serial devices to stable printer identities.
type Registry struct {
	filePath string
	data     map[string]*PrinterEntry
	mu       sync.RWMutex
}

// PrinterEntry stores persistent information about one printer. Baud and
// FirmwareVersion are calibration values the daemon applies when opening
// the device; zero means "use the driver default".
type PrinterEntry struct {
	ID              string `json:"id"`
	IdentityKey     string `json:"identity_key"`
	Device          string `json:"device"`
	Description     string `json:"description"`
	Name            string `json:"name,omitempty"` // custom user-set name
	Baud            int    `json:"baud,omitempty"`
	FirmwareVersion int    `json:"firmware_version,omitempty"`
}

// PrinterInfo describes a detected serial device.
type PrinterInfo struct {
	Device      string
	Description string
}

// New creates a Registry backed by the JSON file at filePath. A missing
// file is fine; it is created on first save.
func New(filePath string) (*Registry, error) {
	r := &Registry{
		filePath: filePath,
		data:     make(map[string]*PrinterEntry),
	}

	if err := r.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load registry: %w", err)
		}
	}

	return r, nil
}

// GetPrinterID gets or creates a persistent ID for a printer.
func (r *Registry) GetPrinterID(info PrinterInfo) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	identityKey := generateIdentityKey(info)

	if entry, exists := r.data[identityKey]; exists {
		return entry.ID
	}

	entry := &PrinterEntry{
		ID:          uuid.New().String(),
		IdentityKey: identityKey,
		Device:      info.Device,
		Description: info.Description,
	}
	r.data[identityKey] = entry

	// Non-critical if the save fails; the entry is still usable and the
	// next mutation retries the write.
	r.save()

	return entry.ID
}

// GetPrinterName returns the custom name for a printer, or "" if unset.
func (r *Registry) GetPrinterName(printerID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, entry := range r.data {
		if entry.ID == printerID {
			return entry.Name
		}
	}
	return ""
}

// SetPrinterName sets a custom name for a printer.
func (r *Registry) SetPrinterName(printerID, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range r.data {
		if entry.ID == printerID {
			entry.Name = name
			r.save()
			return true
		}
	}
	return false
}

// SetCalibration stores the serial calibration to use for a printer.
func (r *Registry) SetCalibration(printerID string, baud, firmwareVersion int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range r.data {
		if entry.ID == printerID {
			entry.Baud = baud
			entry.FirmwareVersion = firmwareVersion
			r.save()
			return true
		}
	}
	return false
}

// GetPrinterInfo returns a copy of the stored entry, or nil.
func (r *Registry) GetPrinterInfo(printerID string) *PrinterEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, entry := range r.data {
		if entry.ID == printerID {
			entryCopy := *entry
			return &entryCopy
		}
	}
	return nil
}

// RemovePrinter removes a printer from the registry.
func (r *Registry) RemovePrinter(printerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, entry := range r.data {
		if entry.ID == printerID {
			delete(r.data, key)
			r.save()
			return true
		}
	}
	return false
}

// GetAll returns a copy of every registered printer.
func (r *Registry) GetAll() map[string]*PrinterEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*PrinterEntry, len(r.data))
	for k, v := range r.data {
		entryCopy := *v
		result[k] = &entryCopy
	}
	return result
}

func (r *Registry) load() error {
	data, err := os.ReadFile(r.filePath)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &r.data)
}

func (r *Registry) save() error {
	data, err := json.MarshalIndent(r.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.filePath, data, 0644)
}

// generateIdentityKey derives a stable key from the device path.
func generateIdentityKey(info PrinterInfo) string {
	if info.Device != "" {
		return fmt.Sprintf("serial:%s", info.Device)
	}
	hash := md5.Sum([]byte(info.Description))
	return fmt.Sprintf("hash:%x", hash)
}
