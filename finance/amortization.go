package finance

import (
	"github.com/shopspring/decimal"
)

// All amortization helpers take an annual nominal rate and compound
// monthly: the per-period rate is rate/12.

func periodRate(rate decimal.Decimal) decimal.Decimal {
	return rate.DivRound(twelve, WorkPrecision)
}

// growth returns (1+r)**nper and ((1+r)**nper - 1)/r for a non-zero r.
func growth(r, nper decimal.Decimal) (f, annuity decimal.Decimal, err error) {
	f, err = Pow(one.Add(r), nper)
	if err != nil {
		return
	}
	annuity, err = Div(f.Sub(one), r)
	return
}

// Pmt is the level payment that amortizes pv to fv over nper periods.
// With a zero rate the balance is amortized linearly.
func Pmt(rate, nper, pv, fv decimal.Decimal) (decimal.Decimal, error) {
	if rate.IsZero() {
		q, err := Div(pv.Add(fv), nper)
		return q.Neg(), err
	}
	f, annuity, err := growth(periodRate(rate), nper)
	if err != nil {
		return decimal.Zero, err
	}
	q, err := Div(pv.Mul(f).Add(fv), annuity)
	return q.Neg(), err
}

// FV is the balance after nper payments of pmt on a starting balance pv.
func FV(rate, nper, pmt, pv decimal.Decimal) (decimal.Decimal, error) {
	if rate.IsZero() {
		return pv.Add(pmt.Mul(nper)), nil
	}
	f, annuity, err := growth(periodRate(rate), nper)
	if err != nil {
		return decimal.Zero, err
	}
	return CheckRange(pv.Mul(f).Add(pmt.Mul(annuity)))
}

// PV is the present value implied by a payment stream and a target fv.
func PV(rate, nper, pmt, fv decimal.Decimal) (decimal.Decimal, error) {
	if rate.IsZero() {
		return fv.Add(pmt.Mul(nper)), nil
	}
	f, annuity, err := growth(periodRate(rate), nper)
	if err != nil {
		return decimal.Zero, err
	}
	return Div(fv.Add(pmt.Mul(annuity)), f)
}

// NPer is the number of periods needed to move from pv to fv under pmt.
func NPer(rate, pmt, pv, fv decimal.Decimal) (decimal.Decimal, error) {
	if rate.IsZero() {
		q, err := Div(pv.Add(fv), pmt)
		return q.Neg(), err
	}
	r := periodRate(rate)
	ratio, err := Div(pmt.Sub(fv.Mul(r)), pmt.Add(pv.Mul(r)))
	if err != nil {
		return decimal.Zero, err
	}
	num, err := Ln(ratio)
	if err != nil {
		return decimal.Zero, err
	}
	den, err := Ln(one.Add(r))
	if err != nil {
		return decimal.Zero, err
	}
	return Div(num, den)
}

var (
	rateTolerance = decimal.New(1, -14)
	rateStep      = decimal.New(1, -4)
)

const rateMaxIter = 100

// balance evaluates pv*(1+r)**n + pmt*((1+r)**n-1)/r + fv, the residual
// that Rate drives to zero.
func balance(r, nper, pmt, pv, fv decimal.Decimal) (decimal.Decimal, error) {
	if r.IsZero() {
		return pv.Add(pmt.Mul(nper)).Add(fv), nil
	}
	f, annuity, err := growth(r, nper)
	if err != nil {
		return decimal.Zero, err
	}
	return pv.Mul(f).Add(pmt.Mul(annuity)).Add(fv), nil
}

// Rate solves for the annual nominal rate with the secant method, starting
// from guess. It returns ErrNoConvergence when the iteration stalls.
func Rate(nper, pmt, pv, fv, guess decimal.Decimal) (decimal.Decimal, error) {
	r0 := periodRate(guess)
	r1 := r0.Add(rateStep)

	g0, err := balance(r0, nper, pmt, pv, fv)
	if err != nil {
		return decimal.Zero, err
	}
	for i := 0; i < rateMaxIter; i++ {
		g1, err := balance(r1, nper, pmt, pv, fv)
		if err != nil {
			return decimal.Zero, err
		}
		if g1.IsZero() {
			return r1.Mul(twelve), nil
		}
		slope := g1.Sub(g0)
		if slope.IsZero() {
			return decimal.Zero, ErrNoConvergence
		}
		step := g1.Mul(r1.Sub(r0)).DivRound(slope, WorkPrecision)
		r2 := r1.Sub(step)
		if r2.LessThanOrEqual(one.Neg()) {
			return decimal.Zero, ErrNoConvergence
		}
		if step.Abs().LessThan(rateTolerance) {
			return r2.Mul(twelve), nil
		}
		r0, g0, r1 = r1, g1, r2
	}
	return decimal.Zero, ErrNoConvergence
}
