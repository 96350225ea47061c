package domain

import (
	"errors"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if got, want := cfg.PerEventNotionalUSD(), 500_000.0; got != want {
		t.Errorf("per-event notional = %v, want %v", got, want)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero notional", func(c *Config) { c.PortfolioNotionalUSD = 0 }},
		{"negative notional", func(c *Config) { c.PortfolioNotionalUSD = -1 }},
		{"zero allocation", func(c *Config) { c.AllocationFraction = 0 }},
		{"allocation above one", func(c *Config) { c.AllocationFraction = 1.5 }},
		{"negative per-share cost", func(c *Config) { c.PerShareCostUSD = -0.01 }},
		{"negative long spread", func(c *Config) { c.LongSpread = -0.001 }},
		{"negative short spread", func(c *Config) { c.ShortSpread = -0.001 }},
		{"zero participation", func(c *Config) { c.ParticipationFraction = 0 }},
		{"participation above one", func(c *Config) { c.ParticipationFraction = 1.01 }},
		{"zero volume window", func(c *Config) { c.VolumeWindowDays = 0 }},
		{"unknown day count", func(c *Config) { c.DayCountConvention = 252 }},
		{"zero reversion hold", func(c *Config) { c.ReversionHoldDays = 0 }},
		{"negative tolerance", func(c *Config) { c.DivergenceTolerance = -1e-9 }},
		{"empty benchmark", func(c *Config) { c.BenchmarkTicker = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("error should wrap ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestConfig_DayCount365Allowed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DayCountConvention = DayCount365
	if err := cfg.Validate(); err != nil {
		t.Fatalf("365 day count should validate, got %v", err)
	}
}
