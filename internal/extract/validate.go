package extract

import (
	"fmt"
	"math"

	"github.com/dgallion1/partidas/internal/budget"
)

// Relative and absolute slack allowed between cantidad×precio and total.
const (
	totalRelTolerance = 0.01
	totalAbsTolerance = 0.01
)

// Check returns advisory warnings for a record. It never modifies the record
// and an empty result does not mean the row is correct.
func Check(r budget.Record) []string {
	var warnings []string
	if r.Clave == "" {
		warnings = append(warnings, "missing clave")
	}
	if r.Total == nil {
		warnings = append(warnings, "missing total")
	}
	if r.Cantidad != nil && *r.Cantidad < 0 {
		warnings = append(warnings, "negative cantidad")
	}
	if r.Cantidad != nil && r.PrecioUnitario != nil && r.Total != nil {
		want := *r.Cantidad * *r.PrecioUnitario
		diff := math.Abs(want - *r.Total)
		if diff > totalAbsTolerance && diff > math.Abs(*r.Total)*totalRelTolerance {
			warnings = append(warnings, fmt.Sprintf("cantidad x precio_unitario = %.2f, total = %.2f", want, *r.Total))
		}
	}
	return warnings
}
