// internal/transport/tcp.go
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"escpos-emulator/internal/model"
)

// TCPSource implements ByteSource over a TCP socket (e.g. a networked
// printer's port 9100 listener).
type TCPSource struct {
	config    *TCPConfig
	conn      net.Conn
	logger    *zap.Logger
	mutex     sync.RWMutex
	isOpen    bool
	stats     *Stats
	faultSink atomic.Value // FaultSink
}

// NewTCPSource creates a new TCP byte source.
func NewTCPSource(config *TCPConfig, logger *zap.Logger) ByteSource {
	return &TCPSource{
		config: config,
		logger: logger.With(
			zap.String("transport", "tcp"),
			zap.String("host", config.Host),
			zap.Int("port", config.Port),
		),
		stats: &Stats{IsConnected: false},
	}
}

// Open dials the TCP connection
func (tc *TCPSource) Open(ctx context.Context) error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if tc.isOpen {
		return nil
	}

	tc.logger.Info("opening tcp connection",
		zap.String("host", tc.config.Host),
		zap.Int("port", tc.config.Port),
		zap.Bool("ssl", tc.config.SSL),
	)

	dialer := &net.Dialer{
		Timeout:   tc.config.Timeout,
		KeepAlive: 30 * time.Second,
	}

	address := fmt.Sprintf("%s:%d", tc.config.Host, tc.config.Port)

	var conn net.Conn
	var err error

	if tc.config.SSL {
		tlsConfig := &tls.Config{
			ServerName:         tc.config.Host,
			InsecureSkipVerify: false,
		}
		conn, err = tls.DialWithDialer(dialer, "tcp", address, tlsConfig)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", address)
	}

	if err != nil {
		tc.logger.Error("failed to open tcp connection", zap.Error(err))
		tc.reportFault("open", err)
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok && tc.config.KeepAlive {
		tcpConn.SetKeepAlive(true)
		tcpConn.SetKeepAlivePeriod(30 * time.Second)
	}

	if tc.config.ReadTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(tc.config.ReadTimeout))
	}
	if tc.config.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(tc.config.WriteTimeout))
	}

	tc.conn = conn
	tc.isOpen = true
	tc.stats.IsConnected = true
	tc.stats.LastActivity = time.Now()

	tc.logger.Info("tcp connection opened")
	return nil
}

// Close closes the TCP connection
func (tc *TCPSource) Close() error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if !tc.isOpen || tc.conn == nil {
		return nil
	}

	if err := tc.conn.Close(); err != nil {
		tc.logger.Error("failed to close tcp connection", zap.Error(err))
		return fmt.Errorf("failed to close tcp connection: %w", err)
	}

	tc.conn = nil
	tc.isOpen = false
	tc.stats.IsConnected = false

	tc.logger.Info("tcp connection closed")
	return nil
}

// IsOpen returns whether the connection is open
func (tc *TCPSource) IsOpen() bool {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return tc.isOpen && tc.conn != nil
}

// Write writes data to the TCP connection
func (tc *TCPSource) Write(ctx context.Context, data []byte) error {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	if !tc.isOpen || tc.conn == nil {
		return fmt.Errorf("tcp connection not open")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if tc.config.WriteTimeout > 0 {
		tc.conn.SetWriteDeadline(time.Now().Add(tc.config.WriteTimeout))
	}

	startTime := time.Now()
	n, err := tc.conn.Write(data)
	if err != nil {
		tc.stats.ErrorCount++
		tc.logger.Error("tcp write failed", zap.Error(err))
		tc.reportFault("write", err)
		return fmt.Errorf("failed to write to tcp connection: %w", err)
	}

	if n != len(data) {
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	duration := time.Since(startTime)
	tc.stats.BytesWritten += int64(len(data))
	tc.stats.OperationCount++
	tc.stats.LastActivity = time.Now()
	tc.updateAverageLatency(duration)

	tc.logger.Debug("tcp write completed", zap.Int("bytes", len(data)))
	return nil
}

// Read reads data from the TCP connection
func (tc *TCPSource) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	if !tc.isOpen || tc.conn == nil {
		return nil, fmt.Errorf("tcp connection not open")
	}

	if tc.config.ReadTimeout > 0 {
		tc.conn.SetReadDeadline(time.Now().Add(tc.config.ReadTimeout))
	}

	buffer := make([]byte, maxBytes)

	done := make(chan struct {
		data []byte
		err  error
	}, 1)

	go func() {
		n, err := tc.conn.Read(buffer)
		result := struct {
			data []byte
			err  error
		}{}

		if err != nil {
			result.err = fmt.Errorf("failed to read from tcp connection: %w", err)
		} else {
			result.data = make([]byte, n)
			copy(result.data, buffer[:n])
		}
		done <- result
	}()

	select {
	case result := <-done:
		if result.err != nil {
			tc.stats.ErrorCount++
			tc.reportFault("read", result.err)
			return nil, result.err
		}

		tc.stats.BytesRead += int64(len(result.data))
		tc.stats.OperationCount++
		tc.stats.LastActivity = time.Now()

		return result.data, nil

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetTransportType returns the transport type
func (tc *TCPSource) GetTransportType() model.TransportType {
	return model.TransportTCP
}

// Ping sends a real-time status request (DLE EOT n) to confirm liveness
func (tc *TCPSource) Ping(ctx context.Context) error {
	if !tc.IsOpen() {
		return fmt.Errorf("tcp connection not open")
	}
	return tc.Write(ctx, []byte{0x10, 0x04, 0x01})
}

func (tc *TCPSource) updateAverageLatency(newLatency time.Duration) {
	if tc.stats.AverageLatency == 0 {
		tc.stats.AverageLatency = newLatency
	} else {
		tc.stats.AverageLatency = (tc.stats.AverageLatency + newLatency) / 2
	}
}

// SetFaultSink registers the callback notified of the I/O failures that
// Open/Read/Write also return as errors.
func (tc *TCPSource) SetFaultSink(sink FaultSink) {
	tc.faultSink.Store(sink)
}

func (tc *TCPSource) reportFault(context string, err error) {
	if sink, ok := tc.faultSink.Load().(FaultSink); ok && sink != nil {
		sink(context, err)
	}
}
