// Package config provides tuning parameters for the simulation loop.
package config

import "time"

// Config holds the knobs for a running venue simulation.
type Config struct {
	// Simulation cadence
	TickRate            time.Duration // wall-clock interval between ticks
	RouterCadenceTicks  int           // adjacency recompute every N ticks
	AutosaveInterval    time.Duration
	Seed                int64 // RNG seed; whole sessions replay under a fixed seed

	// Channel buffer sizes
	BroadcastChannelBuffer int
	ClientSendBuffer       int

	// Persistence
	DBPath       string
	CatalogPath  string // entity influence catalog (JSON); missing = zero influence

	// Network
	ListenAddr string
}

// DefaultConfig returns sensible defaults for production.
func DefaultConfig() *Config {
	return &Config{
		TickRate:           250 * time.Millisecond,
		RouterCadenceTicks: 8,
		AutosaveInterval:   30 * time.Second,
		Seed:               1,

		BroadcastChannelBuffer: 256,
		ClientSendBuffer:       64,

		DBPath:      "vesper.db",
		CatalogPath: "catalog.json",

		ListenAddr: ":8080",
	}
}

// LowResourceConfig returns minimal settings for development.
func LowResourceConfig() *Config {
	cfg := DefaultConfig()
	cfg.TickRate = time.Second
	cfg.BroadcastChannelBuffer = 16
	cfg.ClientSendBuffer = 16
	return cfg
}
