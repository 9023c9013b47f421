package network

import (
	"fmt"
	"math"
)

// LawKind identifies a rate-law variant. The string values double as the
// wire names accepted by model definition files.
type LawKind string

const (
	// LawConstantProduction contributes a constant C regardless of the
	// source level. Parameters: [C].
	LawConstantProduction LawKind = "const_prod"

	// LawLinearActivation contributes C*x. Parameters: [C].
	LawLinearActivation LawKind = "lin_activ"

	// LawHillActivation contributes C*(x/A)^n / (1 + (x/A)^n).
	// Parameters: [C, A, n].
	LawHillActivation LawKind = "hill_activ"

	// LawHillInactivation contributes D - C*(x/A)^n / (1 + (x/A)^n).
	// Parameters: [D, C, A, n].
	LawHillInactivation LawKind = "hill_inactiv"

	// LawLinearDegradation contributes -C*x. Parameters: [C].
	LawLinearDegradation LawKind = "linear"

	// LawParabolicDegradation contributes -C*x^2. Parameters: [C].
	LawParabolicDegradation LawKind = "parabolic"
)

// ModKind is the modifier role of a rate law. Only the activation family may
// take a role; the zero value means the law feeds a species directly.
type ModKind string

const (
	// ModNone marks a regular contribution (edge targets a species).
	ModNone ModKind = ""

	// ModInput gates another edge's input: the modifier's resolved value
	// multiplies the source level before the target edge's law runs.
	ModInput ModKind = "intern"

	// ModOutput gates another edge's output: the modifier's resolved value
	// multiplies the target edge's contribution after its law runs.
	ModOutput ModKind = "mult"
)

// ParseModKind maps a wire name to a ModKind. The empty string is ModNone.
func ParseModKind(s string) (ModKind, error) {
	switch ModKind(s) {
	case ModNone, ModInput, ModOutput:
		return ModKind(s), nil
	}
	return ModNone, fmt.Errorf("network: unknown modifier kind %q", s)
}

// lawParams maps each law kind to its required parameter count.
var lawParams = map[LawKind]int{
	LawConstantProduction:   1,
	LawLinearActivation:     1,
	LawHillActivation:       3,
	LawHillInactivation:     4,
	LawLinearDegradation:    1,
	LawParabolicDegradation: 1,
}

// modCapable reports whether the kind may act as a modifier.
func (k LawKind) modCapable() bool {
	switch k {
	case LawLinearActivation, LawHillActivation, LawHillInactivation:
		return true
	}
	return false
}

// RateLaw is a pure element-wise transfer function: given an array of source
// levels it produces a same-shaped array of contributions. A law is a tagged
// variant; Apply dispatches on the kind. Parameters may be left unset at
// construction and provided once via SetParams; applying an unset law is an
// error, and readiness checks gate integration on every law being set.
type RateLaw struct {
	kind   LawKind
	mod    ModKind
	params []float64
	set    bool
}

// NewRateLaw constructs a rate law of the given kind and modifier role.
// params may be nil to defer SetParams. Production and degradation kinds
// reject any role other than ModNone.
func NewRateLaw(kind LawKind, mod ModKind, params []float64) (*RateLaw, error) {
	if _, ok := lawParams[kind]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLaw, kind)
	}
	if mod != ModNone && !kind.modCapable() {
		return nil, fmt.Errorf("%w: %s", ErrModifierRole, kind)
	}
	l := &RateLaw{kind: kind, mod: mod}
	if params != nil {
		if err := l.SetParams(params); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Kind returns the law variant.
func (l *RateLaw) Kind() LawKind { return l.kind }

// Mod returns the law's modifier role, ModNone for regular contributions.
func (l *RateLaw) Mod() ModKind { return l.mod }

// NumParams returns the number of scalar parameters the kind requires.
func (l *RateLaw) NumParams() int { return lawParams[l.kind] }

// ParamsSet reports whether SetParams has been called.
func (l *RateLaw) ParamsSet() bool { return l.set }

// Params returns a copy of the law's parameters, nil when unset.
func (l *RateLaw) Params() []float64 {
	if !l.set {
		return nil
	}
	out := make([]float64, len(l.params))
	copy(out, l.params)
	return out
}

// SetParams provides the law's scalar parameters. The count must match
// NumParams exactly.
func (l *RateLaw) SetParams(params []float64) error {
	if len(params) != lawParams[l.kind] {
		return fmt.Errorf("%w: %s wants %d, got %d", ErrParameterCount, l.kind, lawParams[l.kind], len(params))
	}
	l.params = make([]float64, len(params))
	copy(l.params, params)
	l.set = true
	return nil
}

// Apply evaluates the law element-wise over x and returns a fresh slice of
// the same length. NaN inputs propagate; they are never coerced to zero.
func (l *RateLaw) Apply(x []float64) ([]float64, error) {
	if !l.set {
		return nil, fmt.Errorf("%w: %s", ErrParametersNotSet, l.kind)
	}
	out := make([]float64, len(x))
	switch l.kind {
	case LawConstantProduction:
		c := l.params[0]
		for i := range out {
			out[i] = c
		}
	case LawLinearActivation:
		c := l.params[0]
		for i, v := range x {
			out[i] = c * v
		}
	case LawHillActivation:
		c, a, n := l.params[0], l.params[1], l.params[2]
		for i, v := range x {
			r := math.Pow(v/a, n)
			out[i] = c * r / (1 + r)
		}
	case LawHillInactivation:
		d, c, a, n := l.params[0], l.params[1], l.params[2], l.params[3]
		for i, v := range x {
			r := math.Pow(v/a, n)
			out[i] = d - c*r/(1+r)
		}
	case LawLinearDegradation:
		c := l.params[0]
		for i, v := range x {
			out[i] = -c * v
		}
	case LawParabolicDegradation:
		c := l.params[0]
		for i, v := range x {
			out[i] = -c * v * v
		}
	}
	return out, nil
}
