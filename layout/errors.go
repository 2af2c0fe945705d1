package layout

import (
	"errors"
	"fmt"
)

// ErrLayoutImpossible is matched by every ImpossibleError.
var ErrLayoutImpossible = errors.New("layout impossible")

// ImpossibleError reports a block whose smallest unbreakable part is taller than an
// empty page.
type ImpossibleError struct {
	Block     int
	ID        string
	Kind      Kind
	Need      float64
	Available float64
}

func (e *ImpossibleError) Error() string {
	return fmt.Sprintf("layout impossible: %s block %q (#%d) needs %.1fmm but a page holds %.1fmm",
		e.Kind, e.ID, e.Block, e.Need, e.Available)
}

func (e *ImpossibleError) Is(target error) bool { return target == ErrLayoutImpossible }
