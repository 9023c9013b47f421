package network

import "errors"

// Sentinel errors for network construction and lookup. Call sites wrap these
// with fmt.Errorf("...: %w", err) to add the species/edge involved.
var (
	// ErrUnknownSpecies indicates a species name or id not present in the network.
	ErrUnknownSpecies = errors.New("network: unknown species")

	// ErrDuplicateSpecies indicates a species name registered twice.
	ErrDuplicateSpecies = errors.New("network: duplicate species")

	// ErrUnknownEdge indicates an edge id not present in the network.
	ErrUnknownEdge = errors.New("network: unknown edge")

	// ErrUnknownLaw indicates a rate-law kind with no implementation.
	ErrUnknownLaw = errors.New("network: unknown rate law kind")

	// ErrParameterCount indicates SetParams was called with the wrong number
	// of parameters for the law kind.
	ErrParameterCount = errors.New("network: parameter count mismatch")

	// ErrParametersNotSet indicates a rate law was applied before its
	// parameters were provided.
	ErrParametersNotSet = errors.New("network: parameters not set")

	// ErrModifierRole indicates a modifier role requested on a law kind that
	// cannot act as a modifier (production and degradation laws).
	ErrModifierRole = errors.New("network: law cannot act as a modifier")

	// ErrTargetKind indicates an edge whose target kind contradicts its law:
	// modifier laws must target edges, all others must target species.
	ErrTargetKind = errors.New("network: edge target does not match law role")

	// ErrModifierCycle indicates a set of modifier edges whose target chain
	// loops back on itself. Edges added one at a time cannot express a cycle
	// (targets must already exist); this is surfaced when building a network
	// from an edge set with symbolic references, e.g. a model file.
	ErrModifierCycle = errors.New("network: modifier cycle")

	// ErrDegradationSet indicates a second degradation registered for a
	// species that already has one.
	ErrDegradationSet = errors.New("network: degradation already set")

	// ErrDegradationKind indicates a degradation registered with a law kind
	// outside the degradation family.
	ErrDegradationKind = errors.New("network: not a degradation law")
)
