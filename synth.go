package rtlsyn

import (
	"github.com/hwtoolkit/rtlsyn/rtl"
	"github.com/pkg/errors"
)

// Synthesize runs the full pipeline on a design: elaboration, module
// validation, bit blasting, netlist validation. It returns the
// gate-level netlist or the first error encountered; no partial output
// is produced on failure.
//
func Synthesize(d *rtl.Design) (*Netlist, error) {
	m, err := Elaborate(d)
	if err != nil {
		return nil, err
	}
	if err := ValidateModule(m); err != nil {
		return nil, errors.Wrap(err, "after elaboration")
	}
	n, err := BitBlast(m)
	if err != nil {
		return nil, err
	}
	if err := ValidateNetlist(n); err != nil {
		return nil, errors.Wrap(err, "after bit blasting")
	}
	return n, nil
}
