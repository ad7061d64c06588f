package derive

import (
	"fmt"
	"math"
)

// Formula selects the one-rep-max estimation method. The set is closed;
// ParseFormula rejects anything else rather than silently falling back.
type Formula int

const (
	Epley Formula = iota // default
	Brzycki
	Lombardi
)

// String returns the config/API name of the formula.
func (f Formula) String() string {
	switch f {
	case Epley:
		return "epley"
	case Brzycki:
		return "brzycki"
	case Lombardi:
		return "lombardi"
	}
	return fmt.Sprintf("Formula(%d)", int(f))
}

// ParseFormula maps a config string to a Formula. Empty means the default
// (Epley); anything unrecognized is an error.
func ParseFormula(s string) (Formula, error) {
	switch s {
	case "", "epley":
		return Epley, nil
	case "brzycki":
		return Brzycki, nil
	case "lombardi":
		return Lombardi, nil
	}
	return Epley, fmt.Errorf("unsupported 1RM formula %q", s)
}

// OneRepMax estimates the single-repetition maximum for a set of weight×reps.
//
// A single rep is already a measured 1RM, so reps == 1 returns the weight
// unchanged for every formula. Brzycki divides by (37 − reps) and is
// undefined at reps >= 37.
func OneRepMax(f Formula, weightKg float64, reps int) (float64, error) {
	if reps < 1 {
		return 0, fmt.Errorf("reps must be >= 1, got %d", reps)
	}
	if weightKg < 0 {
		return 0, fmt.Errorf("weight must be >= 0, got %g", weightKg)
	}
	if reps == 1 {
		return weightKg, nil
	}

	switch f {
	case Epley:
		return weightKg * (1 + float64(reps)/30), nil
	case Brzycki:
		if reps >= 37 {
			return 0, fmt.Errorf("brzycki formula undefined for reps >= 37, got %d", reps)
		}
		return weightKg * 36 / float64(37-reps), nil
	case Lombardi:
		return weightKg * math.Pow(float64(reps), 0.1), nil
	}
	return 0, fmt.Errorf("unknown formula %v", f)
}
