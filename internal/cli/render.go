package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/hydrolab/stoich/internal/store"
)

// RenderModel renders a stored model snapshot as a Petersen matrix
// table. Rows are processes, columns are species in catalog order, and
// absent coefficients print as ".". Symbolic coefficients print as
// their expression text.
func RenderModel(rec *store.ModelRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Model %q (%d species, %d processes)\n\n", rec.Name, len(rec.Species), len(rec.Processes))

	tw := tabwriter.NewWriter(&sb, 2, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Process\t%s\tRate\n", strings.Join(rec.Species, "\t"))

	for _, proc := range rec.Processes {
		cells := make([]string, len(rec.Species))
		for i := range cells {
			cells[i] = "."
		}
		for _, coeff := range proc.Coefficients {
			i := speciesIndex(rec.Species, coeff.Species)
			if i < 0 {
				continue
			}
			cells[i] = renderCoefficient(coeff)
		}
		rate := proc.RateEquation
		if rate == "" {
			rate = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", proc.ProcessID, strings.Join(cells, "\t"), rate)
	}
	tw.Flush()
	return sb.String()
}

func renderCoefficient(coeff store.CoefficientRecord) string {
	if coeff.Numeric != nil {
		return strconv.FormatFloat(*coeff.Numeric, 'g', -1, 64)
	}
	return coeff.Symbolic
}

func speciesIndex(species []string, id string) int {
	for i, s := range species {
		if s == id {
			return i
		}
	}
	return -1
}
