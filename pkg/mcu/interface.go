package mcu

import "io"

// Conn is an open byte stream from a microcontroller (real or mocked).
// Read blocks until at least one byte is available and returns everything
// the transport has buffered, up to len(p).
type Conn interface {
	io.Reader
	io.Closer
}

// Opener opens the named endpoint at the given bit rate.
type Opener func(name string, baudRate int) (Conn, error)

// Ensure the serial transport implements Opener.
var _ Opener = OpenSerial

// Ensure Mock implements Opener.
var _ Opener = (*Mock)(nil).Open
