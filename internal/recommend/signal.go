// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

package recommend

import (
	"strconv"

	"github.com/goccy/go-json"
)

// Signal is a component score that is either available with a value in
// [0, 1] or unavailable because there was no data to compute it from.
// The zero Signal is unavailable.
type Signal struct {
	value     float64
	available bool
}

// Available returns a signal carrying v.
func Available(v float64) Signal {
	return Signal{value: v, available: true}
}

// Unavailable returns a signal with no value.
func Unavailable() Signal {
	return Signal{}
}

// Value returns the value and whether it is available.
func (s Signal) Value() (float64, bool) {
	return s.value, s.available
}

// IsAvailable reports whether the signal carries a value.
func (s Signal) IsAvailable() bool {
	return s.available
}

// Or returns the value, or fallback when unavailable.
func (s Signal) Or(fallback float64) float64 {
	if !s.available {
		return fallback
	}
	return s.value
}

// String implements fmt.Stringer.
func (s Signal) String() string {
	if !s.available {
		return "unavailable"
	}
	return strconv.FormatFloat(s.value, 'g', -1, 64)
}

// MarshalJSON encodes an unavailable signal as null.
func (s Signal) MarshalJSON() ([]byte, error) {
	if !s.available {
		return []byte("null"), nil
	}
	return json.Marshal(s.value)
}

// UnmarshalJSON decodes null as unavailable.
func (s *Signal) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Unavailable()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Available(v)
	return nil
}
