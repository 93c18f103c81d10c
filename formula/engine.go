package formula

import (
	"strconv"
	"unicode/utf8"

	"github.com/rustyeddy/forecast/finance"
	"github.com/shopspring/decimal"
)

// Options bound what a formula may do.
type Options struct {
	MaxLength   int   `yaml:"max_length" json:"max_length"`
	MaxDepth    int   `yaml:"max_depth" json:"max_depth"`
	Precision   int32 `yaml:"precision" json:"precision"`
	MaxExponent int64 `yaml:"max_exponent" json:"max_exponent"`
}

func DefaultOptions() Options {
	return Options{
		MaxLength:   1000,
		MaxDepth:    64,
		Precision:   16,
		MaxExponent: finance.DefaultMaxExponent,
	}
}

// Engine validates and evaluates formulas. It holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	opts Options
}

// NewEngine returns an engine; zero option fields take their defaults.
func NewEngine(opts Options) *Engine {
	def := DefaultOptions()
	if opts.MaxLength <= 0 {
		opts.MaxLength = def.MaxLength
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = def.MaxDepth
	}
	if opts.Precision <= 0 {
		opts.Precision = def.Precision
	}
	if opts.MaxExponent <= 0 {
		opts.MaxExponent = def.MaxExponent
	}
	return &Engine{opts: opts}
}

func (e *Engine) Options() Options { return e.opts }

// Program is a formula that passed validation. Only Compile creates one.
type Program struct {
	src  string
	root node
}

func (p *Program) Source() string { return p.src }

// Validate reports whether src is an acceptable formula. The returned error
// is always a *SecurityError.
func (e *Engine) Validate(src string) error {
	_, err := e.Compile(src)
	return err
}

func (e *Engine) Compile(src string) (*Program, error) {
	if n := utf8.RuneCountInString(src); n > e.opts.MaxLength {
		return nil, &SecurityError{
			Kind:   ErrFormulaTooLong,
			Detail: "maximum length is " + strconv.Itoa(e.opts.MaxLength) + " characters",
		}
	}
	root, err := parse(src, e.opts.MaxDepth)
	if err != nil {
		return nil, err
	}
	if err := check(root); err != nil {
		return nil, err
	}
	return &Program{src: src, root: root}, nil
}

// Evaluate validates src and runs it against vars.
func (e *Engine) Evaluate(src string, vars Vars) (decimal.Decimal, error) {
	p, err := e.Compile(src)
	if err != nil {
		return decimal.Zero, err
	}
	return e.Run(p, vars)
}

// Run evaluates a compiled program. The result is rounded to the engine
// precision.
func (e *Engine) Run(p *Program, vars Vars) (result decimal.Decimal, err error) {
	if p == nil || p.root == nil {
		return decimal.Zero, evalError(ErrEvaluation, "no program")
	}
	defer func() {
		if rec := recover(); rec != nil {
			result, err = decimal.Zero, evalError(ErrEvaluation, "unexpected failure")
		}
	}()

	r := &run{e: e, vars: vars}
	v, err := r.eval(p.root)
	if err != nil {
		return decimal.Zero, err
	}
	if v.Kind() != KindNumber {
		return decimal.Zero, evalError(ErrTypeMismatch, "formula must return a number, got %s", v.Kind())
	}
	d, _ := v.Decimal()
	return d.Round(e.opts.Precision), nil
}

func (e *Engine) pow(base, exp decimal.Decimal) (decimal.Decimal, error) {
	return finance.PowLimit(base, exp, e.opts.MaxExponent)
}

// TestResult is the outcome of one TestFormula case. Case is 1-based.
type TestResult struct {
	Case      int              `json:"case" yaml:"case"`
	Variables Vars             `json:"variables" yaml:"variables"`
	Result    *decimal.Decimal `json:"result" yaml:"result"`
	Error     string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// TestFormula evaluates src once per case and records each outcome. A
// formula that fails validation fails every case with the same error.
func (e *Engine) TestFormula(src string, cases []Vars) []TestResult {
	results := make([]TestResult, len(cases))
	p, cerr := e.Compile(src)
	for i, vars := range cases {
		res := TestResult{Case: i + 1, Variables: vars}
		if cerr != nil {
			res.Error = cerr.Error()
			results[i] = res
			continue
		}
		d, err := e.Run(p, vars)
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Result = &d
		}
		results[i] = res
	}
	return results
}
