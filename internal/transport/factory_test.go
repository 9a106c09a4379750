package transport

import (
	"testing"

	"escpos-emulator/internal/model"
)

func TestValidateConfigSerialRequiresPort(t *testing.T) {
	err := ValidateConfig(model.TransportSerial, map[string]interface{}{})
	if err == nil {
		t.Fatal("expected error for missing serial port")
	}
}

func TestValidateConfigSerialAcceptsKnownBaudRate(t *testing.T) {
	err := ValidateConfig(model.TransportSerial, map[string]interface{}{
		"port":      "/dev/ttyUSB0",
		"baud_rate": float64(9600),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateConfigSerialRejectsUnknownBaudRate(t *testing.T) {
	err := ValidateConfig(model.TransportSerial, map[string]interface{}{
		"port":      "/dev/ttyUSB0",
		"baud_rate": float64(31337),
	})
	if err == nil {
		t.Fatal("expected error for unsupported baud rate")
	}
}

func TestValidateConfigUnsupportedTransport(t *testing.T) {
	err := ValidateConfig(model.TransportType("BLUETOOTH"), map[string]interface{}{})
	if err == nil {
		t.Fatal("expected error for unsupported transport type")
	}
}
