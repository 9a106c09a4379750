// internal/transport/transport.go
package transport

import (
	"context"
	"time"

	"escpos-emulator/internal/model"
)

// ByteSource is a raw byte stream a session can be bound to: the host side
// of a serial line, USB bulk endpoint, or TCP socket feeding ESC/POS bytes
// to the emulator, and carrying status-response bytes back.
type ByteSource interface {
	// Connection lifecycle
	Open(ctx context.Context) error
	Close() error
	IsOpen() bool

	// Data communication
	Write(ctx context.Context, data []byte) error
	Read(ctx context.Context, maxBytes int) ([]byte, error)

	// Transport information
	GetTransportType() model.TransportType

	// Health and diagnostics
	Ping(ctx context.Context) error
}

// FaultSink receives transport-level errors (a dropped serial port, a reset
// TCP connection, a USB endpoint stall) as they happen, in addition to the
// error Open/Read/Write returns. session.Session.RecordTransportFault is the sink
// session_handler.go wires in, so a byte source's failures show up in a
// session's command history next to the commands it decoded, instead of
// only in the server log.
type FaultSink func(context string, err error)

// FaultReporting is implemented by every concrete ByteSource so a caller
// that opened one can observe its I/O failures through a callback, in
// addition to the errors returned from Open/Read/Write.
type FaultReporting interface {
	SetFaultSink(sink FaultSink)
}

// Stats provides transport-level statistics
type Stats struct {
	BytesWritten   int64         `json:"bytes_written"`
	BytesRead      int64         `json:"bytes_read"`
	OperationCount int64         `json:"operation_count"`
	ErrorCount     int64         `json:"error_count"`
	LastActivity   time.Time     `json:"last_activity"`
	AverageLatency time.Duration `json:"average_latency"`
	IsConnected    bool          `json:"is_connected"`
}
