package config

import "testing"

func validConfig() Config {
	return Config{
		Server:       ServerConfig{Port: "8080", ShutdownTimeout: 30},
		Reaper:       ReaperConfig{IntervalMS: 1000, BatchSize: 128},
		Events:       EventsConfig{Enabled: true, StreamName: "inv:events"},
		Validation:   ValidationConfig{DefaultHoldTTLSecs: 600},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsNonPositiveReaperInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Reaper.IntervalMS = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for zero reaper interval")
	}
}

func TestValidateRejectsNonPositiveBatch(t *testing.T) {
	cfg := validConfig()
	cfg.Reaper.BatchSize = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for negative batch size")
	}
}

func TestValidateRejectsEmptyStreamNameWhenEventsEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Events.StreamName = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for empty stream name")
	}
}

func TestValidateAllowsEmptyStreamNameWhenEventsDisabled(t *testing.T) {
	cfg := validConfig()
	cfg.Events.Enabled = false
	cfg.Events.StreamName = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsShutdownTimeoutBelowOne(t *testing.T) {
	cfg := validConfig()
	cfg.Server.ShutdownTimeout = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for zero shutdown timeout")
	}
}

func TestReaperConfigIntervalConvertsMillisecondsToDuration(t *testing.T) {
	r := ReaperConfig{IntervalMS: 2500}
	if got := r.Interval(); got.Milliseconds() != 2500 {
		t.Fatalf("Interval() = %v, want 2500ms", got)
	}
}
