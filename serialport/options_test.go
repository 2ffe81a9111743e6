package serialport

import (
	"testing"

	"go.bug.st/serial"
)

func TestNormalizeDefaults(t *testing.T) {
	opts, err := PortOptions{}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if opts.BaudRate != 57600 {
		t.Errorf("BaudRate = %d, want 57600", opts.BaudRate)
	}
	if opts.DataBits != 8 {
		t.Errorf("DataBits = %d, want 8", opts.DataBits)
	}
	if opts.StopBits != 1 {
		t.Errorf("StopBits = %d, want 1", opts.StopBits)
	}
	if opts.Parity != "N" {
		t.Errorf("Parity = %q, want N", opts.Parity)
	}
}

func TestNormalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    PortOptions
		wantErr bool
	}{
		{"valid explicit", PortOptions{BaudRate: 115200, DataBits: 8, StopBits: 1, Parity: "none"}, false},
		{"bad data bits", PortOptions{DataBits: 9}, true},
		{"bad stop bits", PortOptions{StopBits: 3}, true},
		{"bad parity", PortOptions{Parity: "M"}, true},
		{"even parity alias", PortOptions{Parity: "even"}, false},
		{"odd parity alias", PortOptions{Parity: "odd"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.opts.Normalize()
			if (err != nil) != tt.wantErr {
				t.Errorf("Normalize() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSerialMode(t *testing.T) {
	mode, err := PortOptions{BaudRate: 57600, Parity: "E", StopBits: 2}.SerialMode()
	if err != nil {
		t.Fatalf("SerialMode: %v", err)
	}
	if mode.BaudRate != 57600 {
		t.Errorf("BaudRate = %d, want 57600", mode.BaudRate)
	}
	if mode.Parity != serial.EvenParity {
		t.Errorf("Parity = %v, want EvenParity", mode.Parity)
	}
	if mode.StopBits != serial.TwoStopBits {
		t.Errorf("StopBits = %v, want TwoStopBits", mode.StopBits)
	}
	if mode.DataBits != 8 {
		t.Errorf("DataBits = %d, want 8", mode.DataBits)
	}
}

func TestEqual(t *testing.T) {
	a := PortOptions{}
	b := PortOptions{BaudRate: 57600, DataBits: 8, StopBits: 1, Parity: "NONE"}
	if !a.Equal(b) {
		t.Error("defaults should equal explicit 57600 8-N-1")
	}

	c := PortOptions{BaudRate: 9600}
	if a.Equal(c) {
		t.Error("different baud rates should not be equal")
	}
}
