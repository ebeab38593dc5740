package main

import (
	"log/slog"
	"os"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(t *testing.T, c *Config)
	}{
		{
			name: "defaults",
			check: func(t *testing.T, c *Config) {
				if c.Capacity != 1_000_000 || c.Rounds != 10_000 || c.FillCount != 100_000 {
					t.Errorf("unexpected defaults: %+v", c)
				}
				if c.Level() != slog.LevelWarn {
					t.Errorf("Level() = %v, want warn", c.Level())
				}
			},
		},
		{
			name: "overrides",
			env: map[string]string{
				"ORDERLY_CAPACITY":  "4096",
				"ORDERLY_SEED":      "7",
				"ORDERLY_LOG_LEVEL": "DEBUG",
			},
			check: func(t *testing.T, c *Config) {
				if c.Capacity != 4096 || c.Seed != 7 {
					t.Errorf("overrides not applied: %+v", c)
				}
				if c.Level() != slog.LevelDebug {
					t.Errorf("Level() = %v, want debug", c.Level())
				}
			},
		},
		{name: "zero capacity", env: map[string]string{"ORDERLY_CAPACITY": "0"}, wantErr: true},
		{name: "negative rounds", env: map[string]string{"ORDERLY_ROUNDS": "-1"}, wantErr: true},
		{name: "bad level", env: map[string]string{"ORDERLY_LOG_LEVEL": "loud"}, wantErr: true},
		{name: "not a number", env: map[string]string{"ORDERLY_CAPACITY": "lots"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{
				"ORDERLY_CAPACITY", "ORDERLY_FILL_COUNT", "ORDERLY_SEED",
				"ORDERLY_ROUNDS", "ORDERLY_LOG_LEVEL",
			} {
				t.Setenv(k, "")
				os.Unsetenv(k)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			c, err := LoadConfig()
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, c)
			}
		})
	}
}
