package formula

import (
	"errors"
	"sort"
	"strings"

	"github.com/rustyeddy/forecast/finance"
	"github.com/shopspring/decimal"
)

// function is one entry of the closed function table. Parameters after the
// first len(params)-len(defaults) are optional. Variadic functions accept
// any number of positional arguments, at least len(params).
type function struct {
	params   []string
	defaults []decimal.Decimal
	variadic bool
	call     func(e *Engine, args []decimal.Decimal) (decimal.Decimal, error)
}

func (f function) required() int { return len(f.params) - len(f.defaults) }

var (
	zero       = decimal.Zero
	ten        = decimal.NewFromInt(10)
	tenPercent = decimal.New(1, -1)
)

func unaryFunc(fn func(decimal.Decimal) (decimal.Decimal, error)) function {
	return function{
		params: []string{"x"},
		call: func(_ *Engine, a []decimal.Decimal) (decimal.Decimal, error) {
			return fn(a[0])
		},
	}
}

func exact(fn func(decimal.Decimal) decimal.Decimal) function {
	return unaryFunc(func(x decimal.Decimal) (decimal.Decimal, error) { return fn(x), nil })
}

// registry is the only code a formula can reach besides the operators.
// It is never modified after initialization.
var registry = map[string]function{
	"abs":   exact(decimal.Decimal.Abs),
	"ceil":  exact(decimal.Decimal.Ceil),
	"floor": exact(decimal.Decimal.Floor),
	"sqrt":  unaryFunc(finance.Sqrt),
	"exp":   unaryFunc(finance.Exp),
	"log10": unaryFunc(func(x decimal.Decimal) (decimal.Decimal, error) { return finance.Log(x, ten) }),
	"sin":   unaryFunc(finance.Sin),
	"cos":   unaryFunc(finance.Cos),
	"tan":   unaryFunc(finance.Tan),

	"round": {
		params:   []string{"number", "ndigits"},
		defaults: []decimal.Decimal{zero},
		call: func(_ *Engine, a []decimal.Decimal) (decimal.Decimal, error) {
			if !a[1].IsInteger() {
				return zero, evalError(ErrTypeMismatch, "round() ndigits must be an integer")
			}
			return a[0].RoundBank(int32(a[1].IntPart())), nil
		},
	},
	"log": {
		params:   []string{"x", "base"},
		defaults: []decimal.Decimal{finance.E},
		call: func(_ *Engine, a []decimal.Decimal) (decimal.Decimal, error) {
			if a[1].Equal(finance.E) {
				return finance.Ln(a[0])
			}
			return finance.Log(a[0], a[1])
		},
	},
	"pow": {
		params: []string{"base", "exp"},
		call: func(e *Engine, a []decimal.Decimal) (decimal.Decimal, error) {
			return e.pow(a[0], a[1])
		},
	},
	"min": {
		params:   []string{"x", "y"},
		variadic: true,
		call: func(_ *Engine, a []decimal.Decimal) (decimal.Decimal, error) {
			return decimal.Min(a[0], a[1:]...), nil
		},
	},
	"max": {
		params:   []string{"x", "y"},
		variadic: true,
		call: func(_ *Engine, a []decimal.Decimal) (decimal.Decimal, error) {
			return decimal.Max(a[0], a[1:]...), nil
		},
	},
	"sum": {
		params:   []string{"x"},
		variadic: true,
		call: func(_ *Engine, a []decimal.Decimal) (decimal.Decimal, error) {
			return decimal.Sum(a[0], a[1:]...), nil
		},
	},

	"pmt": {
		params:   []string{"rate", "nper", "pv", "fv"},
		defaults: []decimal.Decimal{zero},
		call: func(_ *Engine, a []decimal.Decimal) (decimal.Decimal, error) {
			return finance.Pmt(a[0], a[1], a[2], a[3])
		},
	},
	"fv": {
		params:   []string{"rate", "nper", "pmt", "pv"},
		defaults: []decimal.Decimal{zero},
		call: func(_ *Engine, a []decimal.Decimal) (decimal.Decimal, error) {
			return finance.FV(a[0], a[1], a[2], a[3])
		},
	},
	"pv": {
		params:   []string{"rate", "nper", "pmt", "fv"},
		defaults: []decimal.Decimal{zero},
		call: func(_ *Engine, a []decimal.Decimal) (decimal.Decimal, error) {
			return finance.PV(a[0], a[1], a[2], a[3])
		},
	},
	"nper": {
		params:   []string{"rate", "pmt", "pv", "fv"},
		defaults: []decimal.Decimal{zero},
		call: func(_ *Engine, a []decimal.Decimal) (decimal.Decimal, error) {
			return finance.NPer(a[0], a[1], a[2], a[3])
		},
	},
	"rate": {
		params:   []string{"nper", "pmt", "pv", "fv", "guess"},
		defaults: []decimal.Decimal{zero, tenPercent},
		call: func(_ *Engine, a []decimal.Decimal) (decimal.Decimal, error) {
			return finance.Rate(a[0], a[1], a[2], a[3], a[4])
		},
	},
}

var constants = map[string]decimal.Decimal{
	"pi": finance.Pi,
	"e":  finance.E,
}

// Functions lists the registered function names in sorted order.
func Functions() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// bind maps positional and keyword arguments onto the parameter list,
// filling defaults.
func (f function) bind(fname string, args []decimal.Decimal, kwargs map[string]decimal.Decimal, order []string) ([]decimal.Decimal, error) {
	if f.variadic {
		if len(order) > 0 {
			return nil, evalError(ErrEvaluation, "%s() takes no keyword arguments", fname)
		}
		if len(args) < len(f.params) {
			return nil, evalError(ErrEvaluation, "%s() expected at least %d arguments, got %d", fname, len(f.params), len(args))
		}
		return args, nil
	}

	if len(args) > len(f.params) {
		return nil, evalError(ErrEvaluation, "%s() takes at most %d arguments (%d given)", fname, len(f.params), len(args))
	}
	out := make([]decimal.Decimal, len(f.params))
	set := make([]bool, len(f.params))
	copy(out, args)
	for i := range args {
		set[i] = true
	}
	for _, k := range order {
		i := indexOf(f.params, k)
		if i < 0 {
			return nil, evalError(ErrEvaluation, "%s() got an unexpected keyword argument '%s'", fname, k)
		}
		if set[i] {
			return nil, evalError(ErrEvaluation, "%s() got multiple values for argument '%s'", fname, k)
		}
		out[i] = kwargs[k]
		set[i] = true
	}
	req := f.required()
	var missing []string
	for i := range f.params {
		switch {
		case set[i]:
		case i < req:
			missing = append(missing, "'"+f.params[i]+"'")
		default:
			out[i] = f.defaults[i-req]
		}
	}
	if len(missing) > 0 {
		return nil, evalError(ErrEvaluation, "%s() missing required argument %s", fname, strings.Join(missing, ", "))
	}
	return out, nil
}

func indexOf(xs []string, s string) int {
	for i, x := range xs {
		if x == s {
			return i
		}
	}
	return -1
}

// mathError converts a finance failure into a user-facing evaluation error.
func mathError(fname string, err error) error {
	var ee *EvaluationError
	switch {
	case errors.As(err, &ee):
		return ee
	case errors.Is(err, finance.ErrDivisionByZero):
		return evalError(ErrDivisionByZero, "in %s()", fname)
	case errors.Is(err, finance.ErrDomain):
		return evalError(ErrEvaluation, "math domain error in %s()", fname)
	case errors.Is(err, finance.ErrOverflow):
		return evalError(ErrEvaluation, "numeric result out of range in %s()", fname)
	case errors.Is(err, finance.ErrNoConvergence):
		return evalError(ErrEvaluation, "%s() did not converge", fname)
	}
	return evalError(ErrEvaluation, "%s() failed", fname)
}
