package finance

import (
	"errors"
	"math"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrDomain         = errors.New("math domain error")
	ErrOverflow       = errors.New("numeric result out of range")
	ErrNoConvergence  = errors.New("solver did not converge")
)

// WorkPrecision is the number of decimal places kept by intermediate
// divisions and irrational results. Callers round final values themselves.
const WorkPrecision int32 = 32

// DefaultMaxExponent bounds integer exponents accepted by Pow. Larger
// exponents are rejected instead of materializing enormous intermediates.
const DefaultMaxExponent int64 = 10000

// maxDigits caps the integer digits of any result, roughly matching the
// range of a float64 so formulas overflow instead of exhausting memory.
const maxDigits = 400

var (
	one    = decimal.NewFromInt(1)
	two    = decimal.NewFromInt(2)
	twelve = decimal.NewFromInt(12)

	// Pi and E to 36 places.
	Pi = decimal.RequireFromString("3.141592653589793238462643383279502884")
	E  = decimal.RequireFromString("2.718281828459045235360287471352662498")

	expLimit = decimal.NewFromInt(709)
)

// Div divides at working precision.
func Div(x, y decimal.Decimal) (decimal.Decimal, error) {
	if y.IsZero() {
		return decimal.Zero, ErrDivisionByZero
	}
	return x.DivRound(y, WorkPrecision), nil
}

// CheckRange reports ErrOverflow when d has more integer digits than any
// result may carry.
func CheckRange(d decimal.Decimal) (decimal.Decimal, error) {
	if intDigits(d) > maxDigits {
		return decimal.Zero, ErrOverflow
	}
	return d, nil
}

func intDigits(d decimal.Decimal) int {
	n := int(d.NumDigits()) + int(d.Exponent())
	if n < 0 {
		return 0
	}
	return n
}

// Pow raises base to exp with the default exponent cap.
func Pow(base, exp decimal.Decimal) (decimal.Decimal, error) {
	return PowLimit(base, exp, DefaultMaxExponent)
}

// PowLimit raises base to exp. Integer exponents are computed by repeated
// squaring; fractional exponents go through exp(y*ln(x)).
func PowLimit(base, exp decimal.Decimal, maxExp int64) (decimal.Decimal, error) {
	if exp.IsInteger() {
		if exp.Abs().GreaterThan(decimal.NewFromInt(maxExp)) {
			return decimal.Zero, ErrOverflow
		}
		n := exp.IntPart()
		if n < 0 {
			if base.IsZero() {
				return decimal.Zero, ErrDivisionByZero
			}
			p, err := powInt(base, -n)
			if err != nil {
				return decimal.Zero, err
			}
			return Div(one, p)
		}
		return powInt(base, n)
	}

	switch base.Sign() {
	case -1:
		return decimal.Zero, ErrDomain
	case 0:
		if exp.IsNegative() {
			return decimal.Zero, ErrDivisionByZero
		}
		return decimal.Zero, nil
	}
	l, err := Ln(base)
	if err != nil {
		return decimal.Zero, err
	}
	return Exp(l.Mul(exp))
}

func powInt(base decimal.Decimal, n int64) (decimal.Decimal, error) {
	result := one
	b := base
	exact := base.IsInteger()
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(b)
			if !exact {
				result = result.Round(WorkPrecision)
			}
			if _, err := CheckRange(result); err != nil {
				return decimal.Zero, err
			}
		}
		n >>= 1
		if n == 0 {
			break
		}
		b = b.Mul(b)
		if !exact {
			b = b.Round(WorkPrecision)
		}
		if _, err := CheckRange(b); err != nil {
			return decimal.Zero, err
		}
	}
	return result, nil
}

// Sqrt uses Newton's method seeded from the float64 estimate.
func Sqrt(x decimal.Decimal) (decimal.Decimal, error) {
	switch x.Sign() {
	case -1:
		return decimal.Zero, ErrDomain
	case 0:
		return decimal.Zero, nil
	}

	g := x.Div(two)
	if f := math.Sqrt(x.InexactFloat64()); f > 0 && !math.IsInf(f, 0) {
		g = decimal.NewFromFloat(f)
	}
	eps := decimal.New(1, -WorkPrecision)
	for i := 0; i < 100; i++ {
		next := g.Add(x.DivRound(g, WorkPrecision)).DivRound(two, WorkPrecision)
		if next.Sub(g).Abs().LessThanOrEqual(eps) {
			return next, nil
		}
		g = next
	}
	return g, nil
}

// Ln is the natural logarithm.
func Ln(x decimal.Decimal) (decimal.Decimal, error) {
	if x.Sign() <= 0 {
		return decimal.Zero, ErrDomain
	}
	if x.Equal(one) {
		return decimal.Zero, nil
	}
	l, err := x.Ln(WorkPrecision)
	if err != nil {
		return decimal.Zero, ErrDomain
	}
	return l, nil
}

// Log returns the logarithm of x in the given base.
func Log(x, base decimal.Decimal) (decimal.Decimal, error) {
	lx, err := Ln(x)
	if err != nil {
		return decimal.Zero, err
	}
	lb, err := Ln(base)
	if err != nil {
		return decimal.Zero, err
	}
	return Div(lx, lb)
}

// Exp is e**x. Inputs above 709 overflow, as they would in float64.
func Exp(x decimal.Decimal) (decimal.Decimal, error) {
	if x.IsZero() {
		return one, nil
	}
	if x.GreaterThan(expLimit) {
		return decimal.Zero, ErrOverflow
	}
	if x.LessThan(expLimit.Neg()) {
		return decimal.Zero, nil
	}
	r, err := x.ExpTaylor(WorkPrecision)
	if err != nil {
		return decimal.Zero, ErrOverflow
	}
	return r, nil
}

// trigPlaces is how many places of pi are needed to reduce any argument
// CheckRange admits and still keep WorkPrecision places of the remainder.
const trigPlaces = maxDigits + WorkPrecision + 16

var (
	tauOnce sync.Once
	tau     decimal.Decimal
)

// longTau is 2*pi to trigPlaces places, computed once with Machin's formula
// pi = 16*atan(1/5) - 4*atan(1/239).
func longTau() decimal.Decimal {
	tauOnce.Do(func() {
		pi := arctanInv(5, trigPlaces).Mul(decimal.NewFromInt(16)).
			Sub(arctanInv(239, trigPlaces).Mul(decimal.NewFromInt(4)))
		tau = pi.Mul(two).Round(trigPlaces)
	})
	return tau
}

// arctanInv sums the alternating series for atan(1/n).
func arctanInv(n int64, places int32) decimal.Decimal {
	places += 8
	x := decimal.NewFromInt(n)
	x2 := x.Mul(x)
	eps := decimal.New(1, -places)
	power := one.DivRound(x, places)
	sum := power
	for k := int64(1); ; k++ {
		power = power.DivRound(x2, places)
		if power.LessThan(eps) {
			return sum
		}
		t := power.DivRound(decimal.NewFromInt(2*k+1), places)
		if k&1 == 1 {
			sum = sum.Sub(t)
		} else {
			sum = sum.Add(t)
		}
	}
}

// reduceAngle maps x into [-pi, pi] by subtracting the nearest multiple
// of 2*pi.
func reduceAngle(x decimal.Decimal) (decimal.Decimal, error) {
	if _, err := CheckRange(x); err != nil {
		return decimal.Zero, err
	}
	t := longTau()
	k := x.DivRound(t, 0)
	if k.IsZero() {
		return x, nil
	}
	return x.Sub(k.Mul(t)).Round(WorkPrecision + 8), nil
}

// taylor sums x**start/start! - x**(start+2)/(start+2)! + ... for |x| <= pi.
func taylor(x decimal.Decimal, start int64) decimal.Decimal {
	places := WorkPrecision + 8
	eps := decimal.New(1, -places)
	x2 := x.Mul(x).Round(places)
	term := one
	if start == 1 {
		term = x
	}
	sum := term
	for n := start; term.Abs().GreaterThanOrEqual(eps); n += 2 {
		term = term.Mul(x2).DivRound(decimal.NewFromInt((n+1)*(n+2)), places).Neg()
		sum = sum.Add(term)
	}
	return sum
}

// Sin is the sine of x radians.
func Sin(x decimal.Decimal) (decimal.Decimal, error) {
	r, err := reduceAngle(x)
	if err != nil {
		return decimal.Zero, err
	}
	return taylor(r, 1).Round(WorkPrecision), nil
}

// Cos is the cosine of x radians.
func Cos(x decimal.Decimal) (decimal.Decimal, error) {
	r, err := reduceAngle(x)
	if err != nil {
		return decimal.Zero, err
	}
	return taylor(r, 0).Round(WorkPrecision), nil
}

// Tan is Sin/Cos of the same reduced angle.
func Tan(x decimal.Decimal) (decimal.Decimal, error) {
	r, err := reduceAngle(x)
	if err != nil {
		return decimal.Zero, err
	}
	return Div(taylor(r, 1), taylor(r, 0))
}
