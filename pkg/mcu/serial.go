package mcu

import (
	"errors"
	"fmt"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const (
	// DefaultBaudRate is the bit rate the firmware prints at.
	DefaultBaudRate = 115200
)

// ErrNotFound is returned by Locate when no port matches a known device.
var ErrNotFound = errors.New("no known microcontroller port found")

// KnownMarkers are description substrings of common USB-UART bridges.
// Matching is case-sensitive.
var KnownMarkers = []string{"USB-SERIAL", "CP210", "Arduino"}

// Port represents a serial port.
type Port struct {
	Name         string
	Description  string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
}

// listPorts and openPort are replaced in tests.
var (
	listPorts = enumerator.GetDetailedPortsList
	openPort  = serial.Open
)

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	details, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(details))
	for _, d := range details {
		if d == nil {
			continue
		}
		desc := d.Product
		if desc == "" {
			desc = d.Name
		}
		result = append(result, Port{
			Name:         d.Name,
			Description:  desc,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
		})
	}

	return result, nil
}

// Match returns the first port whose description contains any of markers.
func Match(ports []Port, markers []string) (Port, bool) {
	for _, p := range ports {
		for _, m := range markers {
			if m != "" && strings.Contains(p.Description, m) {
				return p, true
			}
		}
	}
	return Port{}, false
}

// Locate enumerates ports and returns the first one that looks like a
// known microcontroller. It returns ErrNotFound when nothing matches,
// including when no ports are present.
func Locate() (Port, error) {
	ports, err := Ports()
	if err != nil {
		return Port{}, err
	}
	if p, ok := Match(ports, KnownMarkers); ok {
		return p, nil
	}
	return Port{}, ErrNotFound
}

// OpenSerial opens a serial port at baudRate with 8-N-1 framing.
// Reads block without a timeout.
func OpenSerial(name string, baudRate int) (Conn, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}

	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := openPort(name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}

	// Discard whatever the OS buffered before we attached.
	if err := port.ResetInputBuffer(); err != nil {
		err = fmt.Errorf("failed to reset input buffer on %s: %w", name, err)
		if cerr := port.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close %s: %w", name, cerr))
		}
		return nil, err
	}

	return port, nil
}
