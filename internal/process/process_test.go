package process_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrolab/stoich/internal/components"
	"github.com/hydrolab/stoich/internal/expr"
	"github.com/hydrolab/stoich/internal/process"
	"github.com/hydrolab/stoich/internal/reaction"
	"github.com/hydrolab/stoich/internal/stoich"
)

// testCatalog mirrors a small activated-sludge component set.
// i_COD of S_O2 is 1 so oxygen self-cancellation conserves COD exactly.
func testCatalog(t *testing.T) *components.Catalog {
	t.Helper()
	c, err := components.NewCatalog(
		components.Species{ID: "S_O2", Factors: map[string]float64{"COD": 1}},
		components.Species{ID: "S_S", Factors: map[string]float64{"COD": 1}},
		components.Species{ID: "S_NH4", Factors: map[string]float64{"N": 1, "charge": 0.0714}},
		components.Species{ID: "X_B", Factors: map[string]float64{"COD": 1.42, "N": 0.086}},
	)
	require.NoError(t, err)
	return c
}

func mustNew(t *testing.T, def process.Definition, catalog *components.Catalog) *process.Process {
	t.Helper()
	p, err := process.New(def, catalog, reaction.Parser{})
	require.NoError(t, err)
	return p
}

// vectorParser returns a fixed vector regardless of input, for
// exercising validation of the parser contract.
type vectorParser struct {
	vec stoich.Vector
	err error
}

func (p vectorParser) Parse(_, _ string, _ *components.Catalog, _ []string, _ map[string]expr.Expr) (stoich.Vector, error) {
	return p.vec, p.err
}

func TestNew_NumericStoichiometry(t *testing.T) {
	p := mustNew(t, process.Definition{
		Reaction:     "-1 S_S -> 0.6 X_B",
		RefComponent: "S_S",
		RateEquation: "mu*S_S*X_B",
		Conserved:    []string{"COD"},
		Parameters:   []string{"mu"},
	}, testCatalog(t))

	assert.Equal(t, "S_S", p.RefComponent())
	assert.Equal(t, []string{"mu"}, p.Parameters())
	assert.True(t, stoich.Equal(stoich.Numeric{0, -1, 0, 0.6}, p.Dense()))
	require.NotNil(t, p.RateEquation())
	assert.Equal(t, "mu*S_S*X_B", p.RateEquation().String())
}

func TestNew_DefaultConservedSet(t *testing.T) {
	p := mustNew(t, process.Definition{
		Reaction:     "1 S_O2 -> -1 S_O2",
		RefComponent: "S_O2",
	}, testCatalog(t))
	assert.Equal(t, []string{"COD", "N", "P", "charge"}, p.Conserved())
}

func TestNew_RatelessProcess(t *testing.T) {
	p := mustNew(t, process.Definition{
		Reaction:     "1 S_O2 -> -1 S_O2",
		RefComponent: "S_O2",
		Conserved:    []string{"COD"},
	}, testCatalog(t))
	assert.Nil(t, p.RateEquation(), "empty rate text leaves the process rate-less")
}

func TestNew_DuplicateParameterAgainstSpecies(t *testing.T) {
	_, err := process.New(process.Definition{
		Reaction:     "-1 S_S -> X_B",
		RefComponent: "S_S",
		Parameters:   []string{"S_O2"},
	}, testCatalog(t), reaction.Parser{})

	var dup *process.DuplicateParameterError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "S_O2", dup.Name)
}

func TestNew_DuplicateParameterAgainstParameter(t *testing.T) {
	_, err := process.New(process.Definition{
		Reaction:     "-1 S_S -> X_B",
		RefComponent: "S_S",
		Parameters:   []string{"mu", "mu"},
	}, testCatalog(t), reaction.Parser{})

	var dup *process.DuplicateParameterError
	assert.ErrorAs(t, err, &dup)
}

func TestNew_UndefinedRateSymbol(t *testing.T) {
	_, err := process.New(process.Definition{
		Reaction:     "-1 S_S -> X_B",
		RefComponent: "S_S",
		RateEquation: "mu*S_S",
	}, testCatalog(t), reaction.Parser{})

	var undef *process.UndefinedSymbolError
	require.ErrorAs(t, err, &undef)
	assert.Equal(t, "mu", undef.Name)
}

func TestNew_UnknownReferenceComponent(t *testing.T) {
	_, err := process.New(process.Definition{
		Reaction:     "-1 S_S -> X_B",
		RefComponent: "S_NO3",
	}, testCatalog(t), reaction.Parser{})

	var unknown *process.UnknownReferenceComponentError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "S_NO3", unknown.Name)
}

func TestNew_WrongLengthVector(t *testing.T) {
	_, err := process.New(process.Definition{
		Reaction:     "-1 S_S -> X_B",
		RefComponent: "S_S",
	}, testCatalog(t), vectorParser{vec: stoich.Numeric{1, 2}})

	var malformed *process.MalformedStoichiometryError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 2, malformed.Got)
	assert.Equal(t, 4, malformed.Want)
}

func TestCheckConservation_SelfCancelingOxygen(t *testing.T) {
	p := mustNew(t, process.Definition{
		Reaction:     "1 S_O2 -> -1 S_O2",
		RefComponent: "S_O2",
		Conserved:    []string{"COD"},
	}, testCatalog(t))

	assert.NoError(t, p.CheckConservation(1e-8))
}

func TestCheckConservation_DetectsCreation(t *testing.T) {
	// Biomass appears from nothing: net COD and N are created.
	p := mustNew(t, process.Definition{
		Reaction:     "1 S_O2 -> -1 S_O2 + 1 X_B",
		RefComponent: "X_B",
		Conserved:    []string{"COD", "N"},
	}, testCatalog(t))

	err := p.CheckConservation(1e-8)
	var violation *process.ConservationViolationError
	require.ErrorAs(t, err, &violation)
	require.Len(t, violation.Violations, 2)
	assert.Equal(t, "COD", violation.Violations[0].Quantity)
	assert.InDelta(t, 1.42, violation.Violations[0].Residual, 1e-12, "positive residual = net creation")
	assert.Equal(t, "N", violation.Violations[1].Quantity)
	assert.InDelta(t, 0.086, violation.Violations[1].Residual, 1e-12)
}

func TestCheckConservation_SymbolicVectorRejected(t *testing.T) {
	p := mustNew(t, process.Definition{
		Reaction:     "-1 S_S -> Y_H X_B",
		RefComponent: "S_S",
		Conserved:    []string{"COD"},
		Parameters:   []string{"Y_H"},
	}, testCatalog(t))

	var nonNumeric *process.NonNumericStoichiometryError
	assert.ErrorAs(t, p.CheckConservation(0), &nonNumeric)
}

func TestCheckConservation_EmptyConservedSetDisablesCheck(t *testing.T) {
	p := mustNew(t, process.Definition{
		Reaction:     "-1 S_S -> X_B",
		RefComponent: "S_S",
		Conserved:    []string{},
	}, testCatalog(t))

	assert.Nil(t, p.ConversionFactors())
	assert.Nil(t, p.SymbolicConversionFactors())
	assert.NoError(t, p.CheckConservation(0), "no conserved quantities means nothing to violate")
}

func TestConversionFactors(t *testing.T) {
	p := mustNew(t, process.Definition{
		Reaction:     "-1 S_S -> X_B",
		RefComponent: "S_S",
		Conserved:    []string{"COD", "N"},
	}, testCatalog(t))

	factors := p.ConversionFactors()
	require.NotNil(t, factors)
	rows, cols := factors.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 4, cols)
	assert.Equal(t, 1.42, factors.At(0, 3))
	assert.Equal(t, 1.0, factors.At(1, 2))

	sym := p.SymbolicConversionFactors()
	require.NotNil(t, sym)
	symRows, symCols := sym.Dims()
	assert.Equal(t, rows, symRows)
	assert.Equal(t, cols, symCols)
	assert.True(t, expr.Equal(expr.Num(1.42), sym.At(0, 3)))
}

func TestReverse_RoundTripNumeric(t *testing.T) {
	p := mustNew(t, process.Definition{
		Reaction:     "-1 S_S -> 0.6 X_B",
		RefComponent: "S_S",
		RateEquation: "mu*S_S",
		Conserved:    []string{},
		Parameters:   []string{"mu"},
	}, testCatalog(t))

	original := p.Dense()
	originalRate := p.RateEquation()

	p.Reverse()
	assert.True(t, stoich.Equal(stoich.Numeric{0, 1, 0, -0.6}, p.Dense()))
	assert.True(t, expr.Equal(expr.Neg(originalRate), p.RateEquation()))

	p.Reverse()
	assert.True(t, stoich.Equal(original, p.Dense()))
	assert.True(t, expr.Equal(originalRate, p.RateEquation()), "double reversal restores the rate equation structurally")
}

func TestReverse_RoundTripSymbolic(t *testing.T) {
	p := mustNew(t, process.Definition{
		Reaction:     "-1 S_S -> Y_H X_B",
		RefComponent: "S_S",
		Conserved:    []string{},
		Parameters:   []string{"Y_H"},
	}, testCatalog(t))

	original := p.Dense()
	p.Reverse()
	p.Reverse()
	assert.True(t, stoich.Equal(original, p.Dense()))
}

func TestReverse_NoRateEquation(t *testing.T) {
	p := mustNew(t, process.Definition{
		Reaction:     "-1 S_S -> X_B",
		RefComponent: "S_S",
		Conserved:    []string{},
	}, testCatalog(t))

	p.Reverse()
	assert.Nil(t, p.RateEquation())
	assert.True(t, stoich.Equal(stoich.Numeric{0, 1, 0, -1}, p.Dense()))
}

func TestSetRefComponent_NormalizesStoichiometryAndRate(t *testing.T) {
	p := mustNew(t, process.Definition{
		Reaction:     "-2 S_S -> 0.5 X_B",
		RefComponent: "S_S",
		RateEquation: "mu*S_S",
		Conserved:    []string{},
		Parameters:   []string{"mu"},
	}, testCatalog(t))

	require.NoError(t, p.SetRefComponent("X_B"))

	// Stoichiometry divided by |0.5|; rate multiplied by signed 0.5.
	assert.Equal(t, "X_B", p.RefComponent())
	assert.True(t, stoich.Equal(stoich.Numeric{0, -4, 0, 1}, p.Dense()))
	assert.Equal(t, "0.5*mu*S_S", p.RateEquation().String())
}

func TestSetRefComponent_NegativeCoefficientKeepsSign(t *testing.T) {
	p := mustNew(t, process.Definition{
		Reaction:     "-2 S_S -> 0.5 X_B",
		RefComponent: "X_B",
		RateEquation: "mu*X_B",
		Conserved:    []string{},
		Parameters:   []string{"mu"},
	}, testCatalog(t))

	require.NoError(t, p.SetRefComponent("S_S"))

	// Divided by |-2| = 2; the reference keeps its sign, magnitude 1.
	assert.True(t, stoich.Equal(stoich.Numeric{0, -1, 0, 0.25}, p.Dense()))
	// Rate rescaled by the signed coefficient -2.
	assert.Equal(t, "-2*mu*X_B", p.RateEquation().String())
}

func TestSetRefComponent_ReferenceLandsOnExactUnit(t *testing.T) {
	// 1/49 is not exactly representable, so a reciprocal-based
	// normalization would leave the reference at -0.9999999999999999.
	p := mustNew(t, process.Definition{
		Reaction:     "-49 S_S -> X_B",
		RefComponent: "X_B",
		Conserved:    []string{},
	}, testCatalog(t))

	require.NoError(t, p.SetRefComponent("S_S"))

	num, ok := p.Dense().(stoich.Numeric)
	require.True(t, ok)
	assert.Equal(t, -1.0, num.At(1), "reference coefficient must be exactly -1")
}

func TestSetRefComponent_Idempotence(t *testing.T) {
	p := mustNew(t, process.Definition{
		Reaction:     "-1 S_S -> 0.6 X_B",
		RefComponent: "S_S",
		RateEquation: "mu*S_S",
		Conserved:    []string{},
		Parameters:   []string{"mu"},
	}, testCatalog(t))

	before := p.Dense()
	rateBefore := p.RateEquation()
	require.NoError(t, p.SetRefComponent("S_S"))
	assert.True(t, stoich.Equal(before, p.Dense()), "re-normalizing against the current reference is a factor-of-1 no-op")
	assert.True(t, expr.Equal(expr.Neg(rateBefore), p.RateEquation()), "rate is rescaled by the signed coefficient -1")
}

func TestSetRefComponent_UnknownSpecies(t *testing.T) {
	p := mustNew(t, process.Definition{
		Reaction:     "-1 S_S -> X_B",
		RefComponent: "S_S",
		Conserved:    []string{},
	}, testCatalog(t))

	var unknown *process.UnknownReferenceComponentError
	assert.ErrorAs(t, p.SetRefComponent("S_NO3"), &unknown)
	assert.Equal(t, "S_S", p.RefComponent(), "failed reassignment leaves state unchanged")
}

func TestSetRefComponent_ZeroCoefficient(t *testing.T) {
	p := mustNew(t, process.Definition{
		Reaction:     "-1 S_S -> X_B",
		RefComponent: "S_S",
		Conserved:    []string{},
	}, testCatalog(t))
	before := p.Dense()

	var zero *process.ZeroReferenceCoefficientError
	require.ErrorAs(t, p.SetRefComponent("S_O2"), &zero)
	assert.Equal(t, "S_O2", zero.Name)
	assert.Equal(t, "S_S", p.RefComponent())
	assert.True(t, stoich.Equal(before, p.Dense()), "failed reassignment leaves stoichiometry unchanged")
}

func TestSetRefComponent_SymbolicReferenceRejected(t *testing.T) {
	p := mustNew(t, process.Definition{
		Reaction:     "-1 S_S -> Y_H X_B",
		RefComponent: "S_S",
		Conserved:    []string{},
		Parameters:   []string{"Y_H"},
	}, testCatalog(t))

	var nonNumeric *process.NonNumericStoichiometryError
	assert.ErrorAs(t, p.SetRefComponent("X_B"), &nonNumeric)
}

func TestStoichiometry_SparseViewOmitsZeros(t *testing.T) {
	p := mustNew(t, process.Definition{
		Reaction:     "-1 S_S -> 0.6 X_B",
		RefComponent: "S_S",
		Conserved:    []string{},
	}, testCatalog(t))

	sparse := p.Stoichiometry()
	assert.Len(t, sparse, 2)
	assert.True(t, expr.Equal(expr.Num(-1), sparse["S_S"]))
	assert.True(t, expr.Equal(expr.Num(0.6), sparse["X_B"]))

	numeric, err := p.NumericStoichiometry()
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"S_S": -1, "X_B": 0.6}, numeric)
}

func TestStoichiometry_SymbolicSparseView(t *testing.T) {
	p := mustNew(t, process.Definition{
		Reaction:     "-1 S_S -> Y_H X_B",
		RefComponent: "S_S",
		Conserved:    []string{},
		Parameters:   []string{"Y_H"},
	}, testCatalog(t))

	sparse := p.Stoichiometry()
	assert.Len(t, sparse, 2, "zero constants are omitted from the symbolic view too")
	assert.True(t, expr.Equal(expr.Sym("Y_H"), sparse["X_B"]))

	_, err := p.NumericStoichiometry()
	var nonNumeric *process.NonNumericStoichiometryError
	assert.ErrorAs(t, err, &nonNumeric)
}

func TestAppendParameters(t *testing.T) {
	p := mustNew(t, process.Definition{
		Reaction:     "-1 S_S -> X_B",
		RefComponent: "S_S",
		Conserved:    []string{},
		Parameters:   []string{"mu"},
	}, testCatalog(t))

	require.NoError(t, p.AppendParameters("K_S", "b"))
	assert.Equal(t, []string{"K_S", "b", "mu"}, p.Parameters())
}

func TestAppendParameters_CollidesWithSpecies(t *testing.T) {
	p := mustNew(t, process.Definition{
		Reaction:     "-1 S_S -> X_B",
		RefComponent: "S_S",
		Conserved:    []string{},
	}, testCatalog(t))

	var dup *process.DuplicateParameterError
	require.ErrorAs(t, p.AppendParameters("S_O2"), &dup)
	assert.Equal(t, "S_O2", dup.Name)
}

func TestAppendParameters_NoPartialCommit(t *testing.T) {
	p := mustNew(t, process.Definition{
		Reaction:     "-1 S_S -> X_B",
		RefComponent: "S_S",
		Conserved:    []string{},
	}, testCatalog(t))

	err := p.AppendParameters("K_S", "K_S")
	assert.Error(t, err)
	assert.Empty(t, p.Parameters(), "a failing append must not register any of its names")
}

func TestSetConserved_WholesaleReassignment(t *testing.T) {
	p := mustNew(t, process.Definition{
		Reaction:     "1 S_O2 -> -1 S_O2 + 1 X_B",
		RefComponent: "X_B",
		Conserved:    []string{"COD"},
	}, testCatalog(t))

	require.Error(t, p.CheckConservation(0))
	p.SetConserved(nil)
	assert.NoError(t, p.CheckConservation(0))
	p.SetConserved([]string{"N"})
	assert.Error(t, p.CheckConservation(0))
}
