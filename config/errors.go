/*
NAME
  errors.go

DESCRIPTION
  errors.go defines the ConfigError kind from spec.md §7 and its sentinels.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package config

import "errors"

// ConfigError reports a fatal, session-ending configuration problem (e.g.
// an unreadable key file or a missing codec binary), per spec.md §7.
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string {
	return "config: " + e.Op + ": " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	errConfigNoLogger     = errors.New("config: no Logger set")
	errConfigBadSampleRate = errors.New("config: SampleRate must be positive")
)
