package models

import (
	"errors"
	"fmt"
)

// ActionKind discriminates the Action variant.
type ActionKind string

const (
	// ActionSetType sets every device of DeviceType to State.
	ActionSetType ActionKind = "set_type"
	// ActionSetRoom sets every device in Room to State.
	ActionSetRoom ActionKind = "set_room"
	// ActionSetAll sets every device to State.
	ActionSetAll ActionKind = "set_all"
	// ActionSetRoomDevice sets the first DeviceType device in Room to State.
	ActionSetRoomDevice ActionKind = "set_room_device"
	// ActionSetModeByType sets Mode on every device of DeviceType.
	ActionSetModeByType ActionKind = "set_mode_by_type"
	// ActionToggleByName flips the first device whose name matches Name.
	ActionToggleByName ActionKind = "toggle_by_name"
)

// ErrInvalidAction is returned for an Action missing its payload.
var ErrInvalidAction = errors.New("invalid device action")

// Action is a device command produced by the assistant or an automation rule.
// Only the fields relevant to Kind are set.
type Action struct {
	Kind       ActionKind `json:"kind"`
	DeviceType DeviceType `json:"device_type,omitempty"`
	Room       string     `json:"room,omitempty"`
	Name       string     `json:"name,omitempty"`
	State      PowerState `json:"state,omitempty"`
	Mode       DeviceMode `json:"mode,omitempty"`
}

// SetType builds an ActionSetType.
func SetType(t DeviceType, s PowerState) *Action {
	return &Action{Kind: ActionSetType, DeviceType: t, State: s}
}

// SetRoom builds an ActionSetRoom.
func SetRoom(room string, s PowerState) *Action {
	return &Action{Kind: ActionSetRoom, Room: room, State: s}
}

// SetAll builds an ActionSetAll.
func SetAll(s PowerState) *Action {
	return &Action{Kind: ActionSetAll, State: s}
}

// SetRoomDevice builds an ActionSetRoomDevice.
func SetRoomDevice(room string, t DeviceType, s PowerState) *Action {
	return &Action{Kind: ActionSetRoomDevice, Room: room, DeviceType: t, State: s}
}

// SetModeByType builds an ActionSetModeByType.
func SetModeByType(t DeviceType, m DeviceMode) *Action {
	return &Action{Kind: ActionSetModeByType, DeviceType: t, Mode: m}
}

// ToggleByName builds an ActionToggleByName.
func ToggleByName(name string) *Action {
	return &Action{Kind: ActionToggleByName, Name: name}
}

// Validate checks that the payload required by Kind is present and that
// every state, type and mode is one the registry knows.
func (a Action) Validate() error {
	switch a.Kind {
	case ActionSetType:
		if a.DeviceType == "" || a.State == "" {
			return fmt.Errorf("%w: %s needs device_type and state", ErrInvalidAction, a.Kind)
		}
		return a.checkValues(true, true, false)
	case ActionSetRoom:
		if a.Room == "" || a.State == "" {
			return fmt.Errorf("%w: %s needs room and state", ErrInvalidAction, a.Kind)
		}
		return a.checkValues(false, true, false)
	case ActionSetAll:
		if a.State == "" {
			return fmt.Errorf("%w: %s needs state", ErrInvalidAction, a.Kind)
		}
		return a.checkValues(false, true, false)
	case ActionSetRoomDevice:
		if a.Room == "" || a.DeviceType == "" || a.State == "" {
			return fmt.Errorf("%w: %s needs room, device_type and state", ErrInvalidAction, a.Kind)
		}
		return a.checkValues(true, true, false)
	case ActionSetModeByType:
		if a.DeviceType == "" || a.Mode == "" {
			return fmt.Errorf("%w: %s needs device_type and mode", ErrInvalidAction, a.Kind)
		}
		return a.checkValues(true, false, true)
	case ActionToggleByName:
		if a.Name == "" {
			return fmt.Errorf("%w: %s needs name", ErrInvalidAction, a.Kind)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown kind %q", ErrInvalidAction, a.Kind)
}

func (a Action) checkValues(deviceType, state, mode bool) error {
	if deviceType {
		if _, err := ParseDeviceType(string(a.DeviceType)); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidAction, a.Kind, err)
		}
	}
	if state {
		if _, err := ParsePowerState(string(a.State)); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidAction, a.Kind, err)
		}
	}
	if mode {
		if _, err := ParseDeviceMode(string(a.Mode)); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidAction, a.Kind, err)
		}
	}
	return nil
}

// String renders the action for logs.
func (a Action) String() string {
	switch a.Kind {
	case ActionSetType:
		return fmt.Sprintf("%s(%s=%s)", a.Kind, a.DeviceType, a.State)
	case ActionSetRoom:
		return fmt.Sprintf("%s(%s=%s)", a.Kind, a.Room, a.State)
	case ActionSetAll:
		return fmt.Sprintf("%s(%s)", a.Kind, a.State)
	case ActionSetRoomDevice:
		return fmt.Sprintf("%s(%s/%s=%s)", a.Kind, a.Room, a.DeviceType, a.State)
	case ActionSetModeByType:
		return fmt.Sprintf("%s(%s=%s)", a.Kind, a.DeviceType, a.Mode)
	case ActionToggleByName:
		return fmt.Sprintf("%s(%s)", a.Kind, a.Name)
	}
	return string(a.Kind)
}
