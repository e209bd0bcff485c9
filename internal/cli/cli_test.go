package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testCatalogYAML = `
species:
  - id: S_O2
    factors: {COD: 1}
  - id: S_S
    factors: {COD: 1}
  - id: X_B
    factors: {COD: 1.42}
`

// conservedModelCUE balances COD in every process.
const conservedModelCUE = `
model: {
	name:    "asm_mini"
	catalog: "catalog.yaml"
	conserved: ["COD"]
	processes: [{
		id:            "oxygen_cycle"
		reaction:      "1 S_O2 -> -1 S_O2"
		ref_component: "S_O2"
	}, {
		id:            "hydrolysis"
		reaction:      "-1 X_B -> 1.42 S_S"
		ref_component: "X_B"
		rate_equation: "k_h*X_B"
		parameters: ["k_h"]
	}]
}
`

// violatedModelCUE loses 0.42 COD in bad_growth.
const violatedModelCUE = `
model: {
	name:    "leaky"
	catalog: "catalog.yaml"
	conserved: ["COD"]
	processes: [{
		id:            "bad_growth"
		reaction:      "-1 S_S -> 1 X_B"
		ref_component: "S_S"
	}]
}
`

func writeModelDir(t *testing.T, modelCUE string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.yaml"), []byte(testCatalogYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.cue"), []byte(modelCUE), 0o644))
	return dir
}
