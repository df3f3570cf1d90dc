package scoring

import "github.com/mind-engage/plant-eval/internal/evaluation"

// PassThresholds holds the pass/fail gate per evaluation type. Types missing
// from the map have no gate and are only reported by band.
var PassThresholds = map[evaluation.Type]int{
	evaluation.TypePersonal:   91,
	evaluation.TypeJefePlanta: 91,
}

// Threshold returns the pass gate for t, if it has one.
func Threshold(t evaluation.Type) (int, bool) {
	v, ok := PassThresholds[t]
	return v, ok
}

// Band is an advisory display band; it never decides pass/fail.
type Band string

const (
	BandExcellent Band = "EXCELENTE"
	BandGood      Band = "BUENO"
	BandFair      Band = "REGULAR"
	BandPoor      Band = "DEFICIENTE"
)

func BandFor(score int) Band {
	switch {
	case score >= 80:
		return BandExcellent
	case score >= 60:
		return BandGood
	case score >= 40:
		return BandFair
	default:
		return BandPoor
	}
}
