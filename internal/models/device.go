package models

import "fmt"

// DeviceType is the kind of smart device.
type DeviceType string

const (
	DeviceLight    DeviceType = "light"
	DeviceFan      DeviceType = "fan"
	DeviceRelay    DeviceType = "relay"
	DevicePurifier DeviceType = "purifier"
)

// PowerState is on or off.
type PowerState string

const (
	PowerOn  PowerState = "on"
	PowerOff PowerState = "off"
)

// DeviceMode is the operating mode of a purifier.
type DeviceMode string

const (
	ModeAuto   DeviceMode = "auto"
	ModeManual DeviceMode = "manual"
	ModePower  DeviceMode = "power"
	ModeSleep  DeviceMode = "sleep"
)

// Device is a mock smart device held by the registry.
type Device struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Type   DeviceType `json:"type"`
	Status PowerState `json:"status"`
	Room   string     `json:"room"`
	Mode   DeviceMode `json:"mode,omitempty"`
}

// ParsePowerState validates "on"/"off".
func ParsePowerState(s string) (PowerState, error) {
	switch PowerState(s) {
	case PowerOn, PowerOff:
		return PowerState(s), nil
	}
	return "", fmt.Errorf("invalid power state %q: must be on or off", s)
}

// ParseDeviceType validates a device type name.
func ParseDeviceType(s string) (DeviceType, error) {
	switch DeviceType(s) {
	case DeviceLight, DeviceFan, DeviceRelay, DevicePurifier:
		return DeviceType(s), nil
	}
	return "", fmt.Errorf("invalid device type %q", s)
}

// ParseDeviceMode validates a purifier mode.
func ParseDeviceMode(s string) (DeviceMode, error) {
	switch DeviceMode(s) {
	case ModeAuto, ModeManual, ModePower, ModeSleep:
		return DeviceMode(s), nil
	}
	return "", fmt.Errorf("invalid device mode %q: must be auto, manual, power or sleep", s)
}
