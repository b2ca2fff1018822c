/*
NAME
  config_test.go

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package config

import (
	"bytes"
	"testing"

	"github.com/ausocean/utils/logging"
)

func TestValidateFillsDefaults(t *testing.T) {
	c := Config{
		SampleRate: 1_800_000,
		Logger:     logging.New(logging.Debug, &bytes.Buffer{}, true),
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ScanStepHz != DefaultScanStepHz {
		t.Errorf("ScanStepHz = %d, want %d", c.ScanStepHz, DefaultScanStepHz)
	}
	if c.VoiceSilenceTimeoutMS != DefaultVoiceSilenceTimeoutMS {
		t.Errorf("VoiceSilenceTimeoutMS = %d, want %d", c.VoiceSilenceTimeoutMS, DefaultVoiceSilenceTimeoutMS)
	}
}

func TestValidateRequiresLogger(t *testing.T) {
	c := Config{SampleRate: 1_800_000}
	if err := c.Validate(); err == nil {
		t.Error("expected error for missing Logger")
	}
}

func TestValidateRequiresSampleRate(t *testing.T) {
	c := Config{Logger: logging.New(logging.Debug, &bytes.Buffer{}, true)}
	if err := c.Validate(); err == nil {
		t.Error("expected error for missing SampleRate")
	}
}
