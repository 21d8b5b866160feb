package config

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.NoDaemon {
		t.Error("daemon should be enabled by default")
	}
	if cfg.ReadTimeout != DefaultReadTimeout {
		t.Errorf("expected read timeout %v, got %v", DefaultReadTimeout, cfg.ReadTimeout)
	}
	if cfg.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("expected write timeout %v, got %v", DefaultWriteTimeout, cfg.WriteTimeout)
	}
}

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		noDaemon bool
		socket   string
		readTO   time.Duration
		writeTO  time.Duration
	}{
		{
			name:    "defaults",
			env:     map[string]string{},
			readTO:  DefaultReadTimeout,
			writeTO: DefaultWriteTimeout,
		},
		{
			name:     "no daemon via 1",
			env:      map[string]string{"MOSS_NO_DAEMON": "1"},
			noDaemon: true,
			readTO:   DefaultReadTimeout,
			writeTO:  DefaultWriteTimeout,
		},
		{
			name:     "no daemon via true",
			env:      map[string]string{"MOSS_NO_DAEMON": "TRUE"},
			noDaemon: true,
			readTO:   DefaultReadTimeout,
			writeTO:  DefaultWriteTimeout,
		},
		{
			name:    "socket override",
			env:     map[string]string{"MOSS_SOCKET": "/tmp/custom.sock"},
			socket:  "/tmp/custom.sock",
			readTO:  DefaultReadTimeout,
			writeTO: DefaultWriteTimeout,
		},
		{
			name:    "timeout overrides",
			env:     map[string]string{"MOSS_READ_TIMEOUT_SECS": "60", "MOSS_WRITE_TIMEOUT_SECS": "3"},
			readTO:  60 * time.Second,
			writeTO: 3 * time.Second,
		},
		{
			name:    "invalid timeout keeps default",
			env:     map[string]string{"MOSS_READ_TIMEOUT_SECS": "nope"},
			readTO:  DefaultReadTimeout,
			writeTO: DefaultWriteTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MOSS_NO_DAEMON", "")
			t.Setenv("MOSS_SOCKET", "")
			t.Setenv("MOSS_READ_TIMEOUT_SECS", "")
			t.Setenv("MOSS_WRITE_TIMEOUT_SECS", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg := LoadFromEnv()
			if cfg.NoDaemon != tt.noDaemon {
				t.Errorf("NoDaemon = %v, want %v", cfg.NoDaemon, tt.noDaemon)
			}
			if cfg.SocketPath != tt.socket {
				t.Errorf("SocketPath = %q, want %q", cfg.SocketPath, tt.socket)
			}
			if cfg.ReadTimeout != tt.readTO {
				t.Errorf("ReadTimeout = %v, want %v", cfg.ReadTimeout, tt.readTO)
			}
			if cfg.WriteTimeout != tt.writeTO {
				t.Errorf("WriteTimeout = %v, want %v", cfg.WriteTimeout, tt.writeTO)
			}
		})
	}
}
