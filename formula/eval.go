package formula

import (
	"errors"

	"github.com/rustyeddy/forecast/finance"
	"github.com/shopspring/decimal"
)

// run walks a validated tree. Cases mirror check; anything check would
// reject is an evaluation error here as well.
type run struct {
	e    *Engine
	vars Vars
}

func (r *run) eval(n node) (Value, error) {
	switch n := n.(type) {
	case *numberLit:
		return Number(n.val), nil
	case *stringLit:
		return String(n.val), nil
	case *boolLit:
		return Bool(n.val), nil
	case *noneLit:
		return Value{}, nil

	case *name:
		if v, ok := r.vars[n.id]; ok {
			return v, nil
		}
		if c, ok := constants[n.id]; ok {
			return Number(c), nil
		}
		return Value{}, evalError(ErrUnboundVariable, "name '%s' is not defined", n.id)

	case *unary:
		v, err := r.eval(n.operand)
		if err != nil {
			return Value{}, err
		}
		d, err := operand(n.op, v)
		if err != nil {
			return Value{}, err
		}
		switch n.op {
		case "+":
			return Number(d), nil
		case "-":
			return Number(d.Neg()), nil
		}

	case *binary:
		lv, err := r.eval(n.left)
		if err != nil {
			return Value{}, err
		}
		rv, err := r.eval(n.right)
		if err != nil {
			return Value{}, err
		}
		return r.arith(n.op, lv, rv)

	case *compare:
		left, err := r.eval(n.left)
		if err != nil {
			return Value{}, err
		}
		for i, op := range n.ops {
			right, err := r.eval(n.comparators[i])
			if err != nil {
				return Value{}, err
			}
			ok, err := compareValues(op, left, right)
			if err != nil {
				return Value{}, err
			}
			if !ok {
				return Bool(false), nil
			}
			left = right
		}
		return Bool(true), nil

	case *conditional:
		t, err := r.eval(n.test)
		if err != nil {
			return Value{}, err
		}
		if t.truthy() {
			return r.eval(n.body)
		}
		return r.eval(n.orelse)

	case *call:
		return r.call(n)
	}
	return Value{}, evalError(ErrEvaluation, "unsupported expression")
}

func (r *run) call(n *call) (Value, error) {
	fn, ok := n.fn.(*name)
	if !ok {
		return Value{}, evalError(ErrEvaluation, "unsupported call")
	}
	f, ok := registry[fn.id]
	if !ok {
		return Value{}, evalError(ErrEvaluation, "function '%s' is not allowed", fn.id)
	}

	args := make([]decimal.Decimal, 0, len(n.args))
	for _, a := range n.args {
		v, err := r.eval(a)
		if err != nil {
			return Value{}, err
		}
		d, err := argument(fn.id, v)
		if err != nil {
			return Value{}, err
		}
		args = append(args, d)
	}
	var (
		kwargs map[string]decimal.Decimal
		order  []string
	)
	for _, kw := range n.keywords {
		if kw.name == "" {
			return Value{}, evalError(ErrEvaluation, "unsupported call")
		}
		v, err := r.eval(kw.value)
		if err != nil {
			return Value{}, err
		}
		d, err := argument(fn.id, v)
		if err != nil {
			return Value{}, err
		}
		if kwargs == nil {
			kwargs = make(map[string]decimal.Decimal, len(n.keywords))
		}
		if _, dup := kwargs[kw.name]; dup {
			return Value{}, evalError(ErrEvaluation, "keyword argument repeated: %s", kw.name)
		}
		kwargs[kw.name] = d
		order = append(order, kw.name)
	}

	bound, err := f.bind(fn.id, args, kwargs, order)
	if err != nil {
		return Value{}, err
	}
	out, err := f.call(r.e, bound)
	if err != nil {
		return Value{}, mathError(fn.id, err)
	}
	if _, err := finance.CheckRange(out); err != nil {
		return Value{}, mathError(fn.id, err)
	}
	return Number(out), nil
}

func (r *run) arith(op string, lv, rv Value) (Value, error) {
	a, err := operand(op, lv)
	if err != nil {
		return Value{}, err
	}
	b, err := operand(op, rv)
	if err != nil {
		return Value{}, err
	}

	var out decimal.Decimal
	switch op {
	case "+":
		out = a.Add(b)
	case "-":
		out = a.Sub(b)
	case "*":
		out = a.Mul(b)
	case "/":
		if b.IsZero() {
			return Value{}, &EvaluationError{Kind: ErrDivisionByZero}
		}
		out = a.DivRound(b, finance.WorkPrecision)
	case "%":
		if b.IsZero() {
			return Value{}, evalError(ErrDivisionByZero, "modulo by zero")
		}
		out = a.Mod(b)
		if !out.IsZero() && out.Sign() != b.Sign() {
			out = out.Add(b)
		}
	case "**":
		p, err := r.e.pow(a, b)
		if err != nil {
			return Value{}, mathPowError(err)
		}
		out = p
	default:
		return Value{}, evalError(ErrEvaluation, "unsupported operator %s", op)
	}
	if _, err := finance.CheckRange(out); err != nil {
		return Value{}, evalError(ErrEvaluation, "numeric result out of range")
	}
	return Number(out), nil
}

func mathPowError(err error) error {
	switch {
	case errors.Is(err, finance.ErrDivisionByZero):
		return evalError(ErrDivisionByZero, "zero cannot be raised to a negative power")
	case errors.Is(err, finance.ErrDomain):
		return evalError(ErrEvaluation, "math domain error in power")
	}
	return evalError(ErrEvaluation, "numeric result out of range")
}

func operand(op string, v Value) (decimal.Decimal, error) {
	d, ok := v.Decimal()
	if !ok {
		return decimal.Zero, evalError(ErrTypeMismatch, "unsupported operand type for %s: '%s'", op, v.Kind())
	}
	return d, nil
}

func argument(fname string, v Value) (decimal.Decimal, error) {
	d, ok := v.Decimal()
	if !ok {
		return decimal.Zero, evalError(ErrTypeMismatch, "%s() argument must be a number, not '%s'", fname, v.Kind())
	}
	return d, nil
}

func compareValues(op string, a, b Value) (bool, error) {
	switch op {
	case "==":
		return a.Equal(b), nil
	case "!=":
		return !a.Equal(b), nil
	}

	var c int
	ad, aok := a.Decimal()
	bd, bok := b.Decimal()
	as, asok := a.Str()
	bs, bsok := b.Str()
	switch {
	case aok && bok:
		c = ad.Cmp(bd)
	case asok && bsok:
		switch {
		case as < bs:
			c = -1
		case as > bs:
			c = 1
		}
	default:
		return false, evalError(ErrTypeMismatch, "'%s' not supported between '%s' and '%s'", op, a.Kind(), b.Kind())
	}

	switch op {
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case ">":
		return c > 0, nil
	case ">=":
		return c >= 0, nil
	}
	return false, evalError(ErrEvaluation, "unsupported comparison %s", op)
}
