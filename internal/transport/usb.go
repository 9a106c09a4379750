// internal/transport/usb.go
package transport

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"escpos-emulator/internal/model"
)

// USBSource implements ByteSource over a USB bulk endpoint using
// github.com/google/gousb.
type USBSource struct {
	config    *USBConfig
	ctx       *gousb.Context
	device    *gousb.Device
	intf      *gousb.Interface
	outEndpt  *gousb.OutEndpoint
	inEndpt   *gousb.InEndpoint
	logger    *zap.Logger
	mutex     sync.RWMutex
	isOpen    bool
	stats     *Stats
	faultSink atomic.Value // FaultSink
}

// NewUSBSource creates a new USB byte source.
func NewUSBSource(config *USBConfig, logger *zap.Logger) ByteSource {
	return &USBSource{
		config: config,
		logger: logger.With(
			zap.String("transport", "usb"),
			zap.String("vendor_id", config.VendorID),
			zap.String("product_id", config.ProductID),
		),
		stats: &Stats{IsConnected: false},
	}
}

// Open claims the USB interface and endpoints
func (uc *USBSource) Open(ctx context.Context) error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if uc.isOpen {
		return nil
	}

	uc.logger.Info("opening usb connection",
		zap.String("vendor_id", uc.config.VendorID),
		zap.String("product_id", uc.config.ProductID),
		zap.Int("interface", uc.config.Interface),
	)

	vendorID, err := uc.parseHexID(uc.config.VendorID)
	if err != nil {
		return fmt.Errorf("invalid vendor ID: %w", err)
	}

	productID, err := uc.parseHexID(uc.config.ProductID)
	if err != nil {
		return fmt.Errorf("invalid product ID: %w", err)
	}

	uc.ctx = gousb.NewContext()

	device, err := uc.findAndOpenDevice(vendorID, productID)
	if err != nil {
		uc.ctx.Close()
		uc.reportFault("open", err)
		return fmt.Errorf("failed to find USB device: %w", err)
	}

	intf, done, err := device.DefaultInterface()
	if err != nil {
		device.Close()
		uc.ctx.Close()
		uc.reportFault("open", err)
		return fmt.Errorf("failed to claim interface: %w", err)
	}

	outEndpt, err := intf.OutEndpoint(uc.config.Endpoint)
	if err != nil {
		done()
		device.Close()
		uc.ctx.Close()
		uc.reportFault("open", err)
		return fmt.Errorf("failed to get out endpoint: %w", err)
	}

	inEndpt, err := intf.InEndpoint(uc.config.Endpoint)
	if err != nil {
		uc.logger.Warn("no in endpoint found", zap.Error(err))
	}

	uc.device = device
	uc.intf = intf
	uc.outEndpt = outEndpt
	uc.inEndpt = inEndpt
	uc.isOpen = true
	uc.stats.IsConnected = true
	uc.stats.LastActivity = time.Now()

	uc.logger.Info("usb connection opened")
	return nil
}

// Close releases the USB interface and context
func (uc *USBSource) Close() error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if !uc.isOpen {
		return nil
	}

	if uc.intf != nil {
		uc.intf.Close()
		uc.intf = nil
	}

	if uc.device != nil {
		uc.device.Close()
		uc.device = nil
	}

	if uc.ctx != nil {
		uc.ctx.Close()
		uc.ctx = nil
	}

	uc.outEndpt = nil
	uc.inEndpt = nil
	uc.isOpen = false
	uc.stats.IsConnected = false

	uc.logger.Info("usb connection closed")
	return nil
}

// IsOpen returns whether the connection is open
func (uc *USBSource) IsOpen() bool {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()
	return uc.isOpen && uc.device != nil && uc.outEndpt != nil
}

// Write writes data to the USB out endpoint
func (uc *USBSource) Write(ctx context.Context, data []byte) error {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()

	if !uc.isOpen || uc.outEndpt == nil {
		return fmt.Errorf("usb connection not open")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	startTime := time.Now()
	n, err := uc.outEndpt.Write(data)
	if err != nil {
		uc.stats.ErrorCount++
		uc.logger.Error("usb write failed", zap.Error(err))
		uc.reportFault("write", err)
		return fmt.Errorf("failed to write to USB device: %w", err)
	}

	if n != len(data) {
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	duration := time.Since(startTime)
	uc.stats.BytesWritten += int64(len(data))
	uc.stats.OperationCount++
	uc.stats.LastActivity = time.Now()
	uc.updateAverageLatency(duration)

	uc.logger.Debug("usb write completed", zap.Int("bytes", len(data)))
	return nil
}

// Read reads data from the USB in endpoint
func (uc *USBSource) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()

	if !uc.isOpen || uc.inEndpt == nil {
		return nil, fmt.Errorf("usb connection not open or no in endpoint")
	}

	buffer := make([]byte, maxBytes)

	done := make(chan struct {
		data []byte
		err  error
	}, 1)

	go func() {
		n, err := uc.inEndpt.Read(buffer)
		result := struct {
			data []byte
			err  error
		}{}

		if err != nil {
			result.err = fmt.Errorf("failed to read from USB device: %w", err)
		} else {
			result.data = make([]byte, n)
			copy(result.data, buffer[:n])
		}
		done <- result
	}()

	select {
	case result := <-done:
		if result.err != nil {
			uc.stats.ErrorCount++
			uc.reportFault("read", result.err)
			return nil, result.err
		}

		uc.stats.BytesRead += int64(len(result.data))
		uc.stats.OperationCount++
		uc.stats.LastActivity = time.Now()

		return result.data, nil

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetTransportType returns the transport type
func (uc *USBSource) GetTransportType() model.TransportType {
	return model.TransportUSB
}

// Ping sends a real-time status request (DLE EOT n) to confirm liveness
func (uc *USBSource) Ping(ctx context.Context) error {
	if !uc.IsOpen() {
		return fmt.Errorf("usb connection not open")
	}
	return uc.Write(ctx, []byte{0x10, 0x04, 0x01})
}

func (uc *USBSource) parseHexID(hexStr string) (gousb.ID, error) {
	if len(hexStr) > 2 && hexStr[:2] == "0x" {
		hexStr = hexStr[2:]
	}

	id, err := strconv.ParseUint(hexStr, 16, 16)
	if err != nil {
		return 0, err
	}

	return gousb.ID(id), nil
}

func (uc *USBSource) findAndOpenDevice(vendorID, productID gousb.ID) (*gousb.Device, error) {
	devices, err := uc.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == vendorID && desc.Product == productID
	})

	if err != nil {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("USB device not found (VID: %04X, PID: %04X)", vendorID, productID)
	}

	if len(devices) > 1 {
		for i := 1; i < len(devices); i++ {
			devices[i].Close()
		}
		uc.logger.Warn("multiple matching USB devices found, using first one")
	}

	return devices[0], nil
}

func (uc *USBSource) updateAverageLatency(newLatency time.Duration) {
	if uc.stats.AverageLatency == 0 {
		uc.stats.AverageLatency = newLatency
	} else {
		uc.stats.AverageLatency = (uc.stats.AverageLatency + newLatency) / 2
	}
}

// SetFaultSink registers the callback notified of the I/O failures that
// Open/Read/Write also return as errors.
func (uc *USBSource) SetFaultSink(sink FaultSink) {
	uc.faultSink.Store(sink)
}

func (uc *USBSource) reportFault(context string, err error) {
	if sink, ok := uc.faultSink.Load().(FaultSink); ok && sink != nil {
		sink(context, err)
	}
}
