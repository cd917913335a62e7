// Helios - Video Recommendation Scoring and Sampling Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/helios

// Package normalize maps raw signal values onto a bounded output range.
//
// Every function returns a value inside [min, max] of its output range, which
// defaults to [0, 1] and is changed with WithRange. Invalid ranges and invalid
// distribution parameters are reported as errors wrapping ErrInvalidArgument.
package normalize

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidArgument is the parent of every error returned by this package.
	ErrInvalidArgument = errors.New("normalize: invalid argument")

	// ErrInvalidRange is returned when the output range is empty (min >= max).
	ErrInvalidRange = fmt.Errorf("%w: output range min must be below max", ErrInvalidArgument)

	// ErrInvalidParameter is returned for a non-positive sigma or an empty input domain.
	ErrInvalidParameter = fmt.Errorf("%w: invalid distribution parameter", ErrInvalidArgument)
)

// Range is a closed output interval.
type Range struct {
	Min, Max float64
}

// Unit is the default [0, 1] output range.
var Unit = Range{Min: 0, Max: 1}

// Option adjusts a normalization call.
type Option func(*Range)

// WithRange sets the output range.
func WithRange(minValue, maxValue float64) Option {
	return func(r *Range) {
		r.Min, r.Max = minValue, maxValue
	}
}

func outputRange(opts []Option) (Range, error) {
	r := Unit
	for _, opt := range opts {
		opt(&r)
	}
	if !(r.Min < r.Max) {
		return r, fmt.Errorf("%w: [%g, %g]", ErrInvalidRange, r.Min, r.Max)
	}
	return r, nil
}

// scale maps a unit-interval value onto r and clamps it.
func (r Range) scale(unit float64) float64 {
	return r.clamp(r.Min + (r.Max-r.Min)*unit)
}

// clamp maps NaN to the lower bound.
func (r Range) clamp(x float64) float64 {
	if math.IsNaN(x) {
		return r.Min
	}
	return math.Min(math.Max(r.Min, x), r.Max)
}

// Clamp restricts x to the output range.
func Clamp(x float64, opts ...Option) (float64, error) {
	r, err := outputRange(opts)
	if err != nil {
		return 0, err
	}
	return r.clamp(x), nil
}

// ZScore standardizes x against (mu, sigma) and maps the [-3, 3] band
// linearly onto the output range.
func ZScore(x, mu, sigma float64, opts ...Option) (float64, error) {
	if !(sigma > 0) {
		return 0, fmt.Errorf("%w: sigma %g must be positive", ErrInvalidParameter, sigma)
	}
	r, err := outputRange(opts)
	if err != nil {
		return 0, err
	}
	z := (x - mu) / sigma
	return r.scale((z + 3) / 6), nil
}

// MinMax rescales x from [lo, hi] onto the output range. The bounds map
// exactly onto the range ends.
func MinMax(x, lo, hi float64, opts ...Option) (float64, error) {
	if !(hi > lo) {
		return 0, fmt.Errorf("%w: max %g must be above min %g", ErrInvalidParameter, hi, lo)
	}
	r, err := outputRange(opts)
	if err != nil {
		return 0, err
	}
	switch x {
	case lo:
		return r.Min, nil
	case hi:
		return r.Max, nil
	}
	return r.scale((x - lo) / (hi - lo)), nil
}

// Sigmoid applies the logistic function 1/(1+e^-x) and rescales.
func Sigmoid(x float64, opts ...Option) (float64, error) {
	r, err := outputRange(opts)
	if err != nil {
		return 0, err
	}
	return r.scale(1 / (1 + math.Exp(-x))), nil
}

// Exponential applies 1-e^-x and rescales. Negative inputs land on the
// lower bound.
func Exponential(x float64, opts ...Option) (float64, error) {
	r, err := outputRange(opts)
	if err != nil {
		return 0, err
	}
	return r.scale(1 - math.Exp(-x)), nil
}

// Bell rescales the Gaussian probability density at x. The density itself
// is used, not a cumulative probability, so for sigma above 1/sqrt(2π) the
// result never reaches the upper bound.
func Bell(x, mu, sigma float64, opts ...Option) (float64, error) {
	if !(sigma > 0) {
		return 0, fmt.Errorf("%w: sigma %g must be positive", ErrInvalidParameter, sigma)
	}
	r, err := outputRange(opts)
	if err != nil {
		return 0, err
	}
	d := x - mu
	pdf := math.Exp(-(d*d)/(2*sigma*sigma)) / (sigma * math.Sqrt(2*math.Pi))
	return r.scale(pdf), nil
}

// ClampUnit is Clamp on the default range, which cannot fail.
func ClampUnit(x float64) float64 {
	return Unit.clamp(x)
}
