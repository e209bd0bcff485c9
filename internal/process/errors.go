package process

import (
	"fmt"
	"strings"
)

// All process errors are model-definition errors: fail-fast,
// non-retryable, and never suppressed internally. A failed constructor
// or mutator leaves no partial state behind.

// MalformedStoichiometryError indicates the parser returned a vector
// whose length does not match the catalog.
type MalformedStoichiometryError struct {
	Got  int
	Want int
}

func (e *MalformedStoichiometryError) Error() string {
	return fmt.Sprintf("stoichiometry has %d coefficients, catalog has %d species", e.Got, e.Want)
}

// UndefinedSymbolError indicates the rate-equation text references a
// name that is neither a species nor a declared parameter.
type UndefinedSymbolError struct {
	Name string
}

func (e *UndefinedSymbolError) Error() string {
	return fmt.Sprintf("rate equation references undefined name %q", e.Name)
}

// DuplicateParameterError indicates a parameter name collides with an
// existing parameter or a species in the catalog.
type DuplicateParameterError struct {
	Name string
}

func (e *DuplicateParameterError) Error() string {
	return fmt.Sprintf("parameter %q collides with an existing parameter or species", e.Name)
}

// NonNumericStoichiometryError indicates an operation that needs numeric
// coefficients was attempted while the vector is still symbolic.
type NonNumericStoichiometryError struct {
	Op string
}

func (e *NonNumericStoichiometryError) Error() string {
	return fmt.Sprintf("%s requires numeric stoichiometric coefficients; vector is symbolic", e.Op)
}

// Violation is one unconserved quantity: a positive residual means the
// reaction creates the quantity, a negative one means it destroys it.
type Violation struct {
	Quantity string  `json:"quantity"`
	Residual float64 `json:"residual"`
}

// ConservationViolationError carries every violating quantity, not just
// the first.
type ConservationViolationError struct {
	Violations []Violation
}

func (e *ConservationViolationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = fmt.Sprintf("%s: %.6g", v.Quantity, v.Residual)
	}
	return "unconserved quantities (positive = created, negative = destroyed): " + strings.Join(parts, ", ")
}

// UnknownReferenceComponentError indicates the reference component is
// not in the catalog.
type UnknownReferenceComponentError struct {
	Name string
}

func (e *UnknownReferenceComponentError) Error() string {
	return fmt.Sprintf("reference component %q is not in the catalog", e.Name)
}

// ZeroReferenceCoefficientError indicates the reference component's
// stoichiometric coefficient is exactly zero, so normalization against
// it is undefined.
type ZeroReferenceCoefficientError struct {
	Name string
}

func (e *ZeroReferenceCoefficientError) Error() string {
	return fmt.Sprintf("reference component %q has a zero stoichiometric coefficient", e.Name)
}
