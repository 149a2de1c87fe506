package otquery

import (
	"fmt"

	"github.com/npillmayer/fontmerge/ot"
)

// Weight classes of table 'OS/2'.
const (
	WeightThin       = 100
	WeightExtraLight = 200
	WeightLight      = 300
	WeightRegular    = 400
)

// WeightClass returns usWeightClass of table 'OS/2'.
func WeightClass(otf *ot.Font) (int, bool) {
	os2 := otf.Table(ot.TagOS2)
	if len(os2) < 6 {
		return 0, false
	}
	return int(u16(os2[4:])), true
}

// SetWeightClass patches usWeightClass of table 'OS/2'. The table is copied,
// not modified in place.
func SetWeightClass(otf *ot.Font, weight int) error {
	os2 := otf.Table(ot.TagOS2)
	if len(os2) < 6 {
		return fmt.Errorf("font has no usable OS/2 table")
	}
	if weight < 1 || weight > 1000 {
		return fmt.Errorf("weight class %d out of range", weight)
	}
	patched := append([]byte(nil), os2...)
	patched[4], patched[5] = byte(weight>>8), byte(weight)
	otf.SetTable(ot.TagOS2, patched)
	return nil
}
