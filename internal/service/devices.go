package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"core_innovators/internal/logger"
	"core_innovators/internal/models"
	"core_innovators/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrDeviceNotFound = errors.New("device not found")
	ErrNoDeviceMatch  = errors.New("no device matches")
)

// DefaultDevices is the demo home the registry starts with.
func DefaultDevices() []models.Device {
	return []models.Device{
		{ID: "lr-light", Name: "Main Light", Type: models.DeviceLight, Status: models.PowerOn, Room: "Living Room"},
		{ID: "lr-fan", Name: "Ceiling Fan", Type: models.DeviceFan, Status: models.PowerOn, Room: "Living Room"},
		{ID: "lr-plug", Name: "Smart Plug", Type: models.DeviceRelay, Status: models.PowerOn, Room: "Living Room"},
		{ID: "lr-purifier", Name: "Air Purifier", Type: models.DevicePurifier, Status: models.PowerOn, Room: "Living Room", Mode: models.ModeAuto},
		{ID: "br-lamp", Name: "Bedside Lamp", Type: models.DeviceLight, Status: models.PowerOff, Room: "Bedroom"},
		{ID: "br-fan", Name: "Ceiling Fan", Type: models.DeviceFan, Status: models.PowerOff, Room: "Bedroom"},
		{ID: "br-purifier", Name: "Air Purifier", Type: models.DevicePurifier, Status: models.PowerOn, Room: "Bedroom", Mode: models.ModeAuto},
		{ID: "kt-light", Name: "Kitchen Light", Type: models.DeviceLight, Status: models.PowerOn, Room: "Kitchen"},
		{ID: "kt-fan", Name: "Exhaust Fan", Type: models.DeviceFan, Status: models.PowerOff, Room: "Kitchen"},
	}
}

// DeviceRegistry owns the in-memory device list. It is safe for concurrent use.
type DeviceRegistry struct {
	events repository.EventRepo
	log    *logger.Logger

	mu      sync.RWMutex
	devices []models.Device
}

// NewDeviceRegistry copies devices into a new registry. events may be nil.
func NewDeviceRegistry(devices []models.Device, events repository.EventRepo) *DeviceRegistry {
	cp := make([]models.Device, len(devices))
	copy(cp, devices)
	return &DeviceRegistry{devices: cp, events: events}
}

// SetLogger sets where event log failures are reported.
func (r *DeviceRegistry) SetLogger(log *logger.Logger) { r.log = log }

// List returns a snapshot of every device.
func (r *DeviceRegistry) List(_ context.Context) []models.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Device, len(r.devices))
	copy(out, r.devices)
	return out
}

// Get returns one device by id.
func (r *DeviceRegistry) Get(_ context.Context, id string) (models.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.devices {
		if d.ID == id {
			return d, nil
		}
	}
	return models.Device{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
}

// Toggle flips one device, or forces it to state when state is non-empty.
func (r *DeviceRegistry) Toggle(ctx context.Context, id string, state models.PowerState) (models.Device, error) {
	var (
		out   models.Device
		found bool
	)
	r.update(func(d *models.Device) bool {
		if d.ID != id {
			return false
		}
		d.Status = resolveState(d.Status, state)
		out, found = *d, true
		return true
	})
	if !found {
		return models.Device{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	r.record(ctx, "Device toggled", map[string]any{"id": id, "status": out.Status})
	return out, nil
}

// SetByType sets every device of type t to state and returns how many changed.
func (r *DeviceRegistry) SetByType(ctx context.Context, t models.DeviceType, state models.PowerState) int {
	n := r.update(func(d *models.Device) bool {
		if d.Type != t {
			return false
		}
		d.Status = state
		return true
	})
	r.record(ctx, "Devices set by type", map[string]any{"type": t, "status": state, "count": n})
	return n
}

// SetByRoom sets every device in room (case-insensitive) to state.
func (r *DeviceRegistry) SetByRoom(ctx context.Context, room string, state models.PowerState) int {
	n := r.update(func(d *models.Device) bool {
		if !strings.EqualFold(d.Room, room) {
			return false
		}
		d.Status = state
		return true
	})
	r.record(ctx, "Devices set by room", map[string]any{"room": room, "status": state, "count": n})
	return n
}

// SetAll sets every device to state.
func (r *DeviceRegistry) SetAll(ctx context.Context, state models.PowerState) int {
	n := r.update(func(d *models.Device) bool {
		d.Status = state
		return true
	})
	r.record(ctx, "All devices set", map[string]any{"status": state, "count": n})
	return n
}

// SetRoomDevice sets the first device of type t in room to state.
func (r *DeviceRegistry) SetRoomDevice(ctx context.Context, room string, t models.DeviceType, state models.PowerState) (models.Device, error) {
	var (
		out  models.Device
		done bool
	)
	r.update(func(d *models.Device) bool {
		if done || d.Type != t || !strings.EqualFold(d.Room, room) {
			return false
		}
		d.Status = state
		out, done = *d, true
		return true
	})
	if !done {
		return models.Device{}, fmt.Errorf("%w: %s in %s", ErrNoDeviceMatch, t, room)
	}
	r.record(ctx, "Room device set", map[string]any{"id": out.ID, "status": state})
	return out, nil
}

// SetModeByType sets mode on every device of type t.
func (r *DeviceRegistry) SetModeByType(ctx context.Context, t models.DeviceType, mode models.DeviceMode) int {
	n := r.update(func(d *models.Device) bool {
		if d.Type != t {
			return false
		}
		d.Mode = mode
		return true
	})
	r.record(ctx, "Device mode set by type", map[string]any{"type": t, "mode": mode, "count": n})
	return n
}

// SetMode sets mode on one device.
func (r *DeviceRegistry) SetMode(ctx context.Context, id string, mode models.DeviceMode) (models.Device, error) {
	var (
		out   models.Device
		found bool
	)
	r.update(func(d *models.Device) bool {
		if d.ID != id {
			return false
		}
		d.Mode = mode
		out, found = *d, true
		return true
	})
	if !found {
		return models.Device{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	r.record(ctx, "Device mode set", map[string]any{"id": id, "mode": mode})
	return out, nil
}

// FindByName returns the first device whose name, or "room name", contains
// search (case-insensitive).
func (r *DeviceRegistry) FindByName(_ context.Context, search string) (models.Device, bool) {
	q := strings.ToLower(strings.TrimSpace(search))
	if q == "" {
		return models.Device{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.devices {
		name := strings.ToLower(d.Name)
		full := strings.ToLower(d.Room + " " + d.Name)
		if strings.Contains(name, q) || strings.Contains(full, q) {
			return d, true
		}
	}
	return models.Device{}, false
}

// Apply executes a device action. Malformed actions return an error instead
// of being ignored.
func (r *DeviceRegistry) Apply(ctx context.Context, a models.Action) (int, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	switch a.Kind {
	case models.ActionSetType:
		return r.SetByType(ctx, a.DeviceType, a.State), nil
	case models.ActionSetRoom:
		return r.SetByRoom(ctx, a.Room, a.State), nil
	case models.ActionSetAll:
		return r.SetAll(ctx, a.State), nil
	case models.ActionSetRoomDevice:
		if _, err := r.SetRoomDevice(ctx, a.Room, a.DeviceType, a.State); err != nil {
			return 0, err
		}
		return 1, nil
	case models.ActionSetModeByType:
		return r.SetModeByType(ctx, a.DeviceType, a.Mode), nil
	case models.ActionToggleByName:
		d, ok := r.FindByName(ctx, a.Name)
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrNoDeviceMatch, a.Name)
		}
		if _, err := r.Toggle(ctx, d.ID, ""); err != nil {
			return 0, err
		}
		return 1, nil
	}
	return 0, fmt.Errorf("%w: unknown kind %q", models.ErrInvalidAction, a.Kind)
}

// update applies fn to every device under the write lock and counts hits.
func (r *DeviceRegistry) update(fn func(d *models.Device) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for i := range r.devices {
		if fn(&r.devices[i]) {
			n++
		}
	}
	return n
}

func (r *DeviceRegistry) record(ctx context.Context, msg string, meta map[string]any) {
	appendEvent(ctx, r.events, r.log, models.Event{
		EventID:     uuid.NewString(),
		Type:        models.EventDevice,
		Description: msg,
		Metadata:    identityMeta(ctx, meta),
	})
}

func resolveState(cur, forced models.PowerState) models.PowerState {
	if forced != "" {
		return forced
	}
	if cur == models.PowerOn {
		return models.PowerOff
	}
	return models.PowerOn
}
