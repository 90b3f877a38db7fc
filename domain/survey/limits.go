package survey

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Limits defines the acceptance region in (p, effect) space, enforced with the
// Acceptable method.
//
// A highest p-value is enforced, in such a way that it is only allowed to be
// achieved at a given (extreme) effect size. Similarly a lowest effect size is
// enforced, in such a way that it is only allowed to be achieved at a given
// (extreme) p-value. Linear interpolation between these two extrema creates the
// threshold of tradeoff between borderline insignificant cases. Separately,
// the hard limits (max p-value and min effect size) are also enforced.
type Limits struct {
	EffectMin            float64
	PRequiredAtEffectMin float64
	PMax                 float64
	EffectRequiredAtPMax float64

	// Coefficients of the interpolated line c0*p + c1*effect = 1.
	c0 float64
	c1 float64
}

// NewLimits solves for the tradeoff-line coefficients passing through both
// extrema points. It fails with ErrDegenerateCalibration when the two points
// make the 2x2 system singular.
func NewLimits(effectMin, pRequiredAtEffectMin, pMax, effectRequiredAtPMax float64) (Limits, error) {
	a := mat.NewDense(2, 2, []float64{
		pMax, effectRequiredAtPMax,
		pRequiredAtEffectMin, effectMin,
	})
	b := mat.NewVecDense(2, []float64{1, 1})
	var c mat.VecDense
	if err := c.SolveVec(a, b); err != nil {
		return Limits{}, fmt.Errorf("%w: %v", ErrDegenerateCalibration, err)
	}
	return Limits{
		EffectMin:            effectMin,
		PRequiredAtEffectMin: pRequiredAtEffectMin,
		PMax:                 pMax,
		EffectRequiredAtPMax: effectRequiredAtPMax,
		c0:                   c.AtVec(0),
		c1:                   c.AtVec(1),
	}, nil
}

// MustLimits unwraps NewLimits for known-good calibrations.
func MustLimits(l Limits, err error) Limits {
	if err != nil {
		panic(err)
	}
	return l
}

// DefaultLimits is the standard survey calibration.
var DefaultLimits = MustLimits(NewLimits(1.3, 0.01, 0.2, 2.0))

// SevereProximityLimits is a stricter calibration applied as a secondary filter
// over accepted proximity results before final reporting.
var SevereProximityLimits = MustLimits(NewLimits(1.5, 0.005, 0.2, 3.0))

// Coefficients returns the derived tradeoff-line coefficients.
func (l Limits) Coefficients() (float64, float64) {
	return l.c0, l.c1
}

// Acceptable reports whether the significance measures jointly clear the
// region: the hard effect floor, the hard p ceiling, and strictly the good
// side of the interpolated tradeoff line. Points on any boundary are rejected.
func (l Limits) Acceptable(s ResultSignificance) bool {
	linearTerm := l.c0*s.P + l.c1*s.Effect - 1
	return s.Effect > l.EffectMin && s.P < l.PMax && linearTerm > 0
}
