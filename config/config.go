/*
NAME
  config.go

DESCRIPTION
  config.go contains the configuration settings for the TETRA decoder.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config holds the configuration settings for the decode pipeline.
package config

import (
	"time"

	"github.com/ausocean/utils/logging"
)

// GainMode selects between automatic and fixed-dB receiver gain.
type GainMode int

const (
	// GainAuto lets the IQ source choose gain automatically.
	GainAuto GainMode = iota
	// GainManual uses the dB value in Config.GainDB.
	GainManual
)

// Defaults for options not otherwise specified.
const (
	DefaultScanStepHz             = 25_000
	DefaultVoiceSilenceTimeoutMS  = 2000
	DefaultMinConfidence          = 0.5
	DefaultMinPowerDB             = -85.0
	defaultVerbosity              = logging.Error
	defaultEventQueueCapacity     = 256
	defaultCodecTimeout           = 5 * time.Second
)

// Config holds every tunable of the decode pipeline. It is the Go-native
// expression of spec.md §6's configuration option table.
type Config struct {
	// SampleRate is the IQ source's sample rate in Hz. The demodulator
	// derives samples-per-symbol as SampleRate/18000.
	SampleRate float64

	// CenterFreq is the initial tune frequency in Hz.
	CenterFreq uint64

	// Gain selects automatic or manual gain.
	Gain GainMode

	// GainDB is the manual gain value used when Gain is GainManual.
	GainDB float32

	// MinPowerDB and MinConfidence are the carrier scanner's detection
	// thresholds.
	MinPowerDB    float64
	MinConfidence float64

	// ScanStepHz is the carrier scanner's step size between tuned
	// frequencies. Defaults to 25 kHz.
	ScanStepHz uint64

	// AutoDecrypt enables the crypto trial engine (C7) for encrypted PDUs.
	AutoDecrypt bool

	// KeyFile is the path to a key file in the format documented in
	// spec.md §6.
	KeyFile string

	// CodecPath is the path to the external ACELP decoder executable.
	CodecPath string

	// VoiceSilenceTimeoutMS is the idle period, in milliseconds, before a
	// voice recording segment is considered closed.
	VoiceSilenceTimeoutMS uint

	// EventQueueCapacity bounds the orchestrator's event channel.
	EventQueueCapacity int

	// CodecTimeout bounds a single invocation of the external ACELP codec.
	CodecTimeout time.Duration

	// Logger holds an implementation of the Logger interface for the
	// decoder's routines to log to. This must be set for the decoder to
	// work correctly.
	Logger logging.Logger

	// LogLevel is the decoder's logging verbosity level. Valid values are
	// the enums from the logging package: logging.Debug, logging.Info,
	// logging.Warning, logging.Error, logging.Fatal.
	LogLevel int8
}

// Validate fills in defaults for zero-valued optional fields and returns an
// error if a required field is missing or out of range.
func (c *Config) Validate() error {
	if c.Logger == nil {
		return errConfigNoLogger
	}
	if c.SampleRate <= 0 {
		return errConfigBadSampleRate
	}
	if c.ScanStepHz == 0 {
		c.ScanStepHz = DefaultScanStepHz
	}
	if c.VoiceSilenceTimeoutMS == 0 {
		c.VoiceSilenceTimeoutMS = DefaultVoiceSilenceTimeoutMS
	}
	if c.MinConfidence == 0 {
		c.MinConfidence = DefaultMinConfidence
	}
	if c.MinPowerDB == 0 {
		c.MinPowerDB = DefaultMinPowerDB
	}
	if c.EventQueueCapacity == 0 {
		c.EventQueueCapacity = defaultEventQueueCapacity
	}
	if c.CodecTimeout == 0 {
		c.CodecTimeout = defaultCodecTimeout
	}
	if c.AutoDecrypt && c.CodecPath == "" {
		// Codec path absence is fine; only matters for voice, noted for
		// diagnostic purposes by the caller, not fatal here.
		c.Logger.Warning("config: auto_decrypt enabled with no codec_path set")
	}
	return nil
}
