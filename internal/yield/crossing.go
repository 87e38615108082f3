package yield

import (
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/elastic"
)

// #region crossing
// FindCrossing scans the raw curve from start for the first interval where
// the curve passes from on-or-below the offset line to strictly above it.
// The offset line is the elastic line shifted by OffsetStrain along strain.
// Intervals that merely touch the line (zero difference at an end) are not
// accepted. The crossing strain is linearly interpolated between samples
// and the strength is the offset line evaluated there.
func FindCrossing(stress, strain []float64, line elastic.Line, start int) (Point, bool) {
	if start < 0 {
		start = 0
	}
	n := len(stress)
	if len(strain) < n {
		n = len(strain)
	}
	for i := start; i < n-1; i++ {
		off1 := line.At(strain[i] + OffsetStrain)
		off2 := line.At(strain[i+1] + OffsetStrain)
		if !(stress[i] <= off1 && stress[i+1] > off2) {
			continue
		}
		d1 := stress[i] - off1
		d2 := stress[i+1] - off2
		if d1*d2 >= 0 {
			continue
		}
		t := -d1 / (d2 - d1)
		at := strain[i] + t*(strain[i+1]-strain[i])
		return Point{Strength: line.At(at + OffsetStrain), Strain: at}, true
	}
	return Point{}, false
}
// #endregion crossing
