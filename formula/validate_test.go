package formula

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAccepts(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultOptions())
	tests := []string{
		"a + b * 2",
		"max(a, b)",
		"pmt(rate, nper, pv)",
		"pmt(rate, nper, pv, fv=1000)",
		"a if a > 0 else 0",
		"-x ** 2",
		"(salary * 12) / 12",
		"1_000 + .5 + 1e3 + 1.",
		"0 < a <= 10",
		"base * 1.1 if month_name == 'december' else base",
		"round(abs(x), 2)",
		"min(a, b, c, 100)",
		"sqrt(pi) + e",
		"True + None if x else False",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			assert.NoError(t, e.Validate(src))
		})
	}
}

func TestValidateRejects(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultOptions())
	tests := []struct {
		name      string
		src       string
		kind      error
		construct string
	}{
		{"attribute", "x.y", ErrUnsafeConstruct, "Attribute"},
		{"import call", "__import__('os')", ErrUnsafeConstruct, "Call"},
		{"dunder attribute", "().__class__", ErrUnsafeConstruct, "Attribute"},
		{"list comprehension", "[x for x in y]", ErrUnsafeConstruct, "ListComp"},
		{"generator argument", "sum(x for x in y)", ErrUnsafeConstruct, "GeneratorExp"},
		{"set comprehension", "{x for x in y}", ErrUnsafeConstruct, "SetComp"},
		{"dict comprehension", "{k: v for k in y}", ErrUnsafeConstruct, "DictComp"},
		{"lambda", "(lambda: 1)()", ErrUnsafeConstruct, "Call"},
		{"bare lambda", "lambda x: x", ErrUnsafeConstruct, "Lambda"},
		{"walrus", "(y := 5)", ErrUnsafeConstruct, "NamedExpr"},
		{"method callee", "a.b(1)", ErrUnsafeConstruct, "Call"},
		{"subscript callee", "f[0](1)", ErrUnsafeConstruct, "Call"},
		{"unknown function", "open('x')", ErrUnsafeConstruct, "Call"},
		{"eval function", "eval('1')", ErrUnsafeConstruct, "Call"},
		{"subscript", "x[0]", ErrUnsafeConstruct, "Subscript"},
		{"list", "[1, 2]", ErrUnsafeConstruct, "List"},
		{"tuple", "1, 2", ErrUnsafeConstruct, "Tuple"},
		{"set", "{1}", ErrUnsafeConstruct, "Set"},
		{"dict", "{'a': 1}", ErrUnsafeConstruct, "Dict"},
		{"empty dict", "{}", ErrUnsafeConstruct, "Dict"},
		{"and", "a and b", ErrUnsafeConstruct, "BoolOp"},
		{"or", "a or b", ErrUnsafeConstruct, "BoolOp"},
		{"not", "not a", ErrUnsafeConstruct, "Not"},
		{"invert", "~a", ErrUnsafeConstruct, "Invert"},
		{"floor division", "a // b", ErrUnsafeConstruct, "FloorDiv"},
		{"bit and", "a & b", ErrUnsafeConstruct, "BitAnd"},
		{"shift", "a << 2", ErrUnsafeConstruct, "LShift"},
		{"matmul", "a @ b", ErrUnsafeConstruct, "MatMult"},
		{"in", "a in b", ErrUnsafeConstruct, "In"},
		{"not in", "a not in b", ErrUnsafeConstruct, "NotIn"},
		{"is", "a is None", ErrUnsafeConstruct, "Is"},
		{"is not", "a is not None", ErrUnsafeConstruct, "IsNot"},
		{"starred argument", "max(*a)", ErrUnsafeConstruct, "Starred"},
		{"keyword unpacking", "max(**a)", ErrUnsafeConstruct, "Starred"},
		{"nested unsafe argument", "max(a, b.c)", ErrUnsafeConstruct, "Attribute"},
		{"unsafe in conditional", "1 if x.y else 2", ErrUnsafeConstruct, "Attribute"},
		{"assignment", "x = 1", ErrSyntax, ""},
		{"statement", "import os", ErrSyntax, ""},
		{"trailing tokens", "1 2", ErrSyntax, ""},
		{"unbalanced", "(1 + 2", ErrSyntax, ""},
		{"empty", "", ErrSyntax, ""},
		{"blank", "   ", ErrSyntax, ""},
		{"bad number", "1__0", ErrSyntax, ""},
		{"number suffix", "12abc", ErrSyntax, ""},
		{"unterminated string", "'abc", ErrSyntax, ""},
		{"semicolon", "1; 2", ErrSyntax, ""},
		{"missing else", "a if b", ErrSyntax, ""},
		{"keyword then positional", "max(a=1, 2)", ErrSyntax, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.Validate(tt.src)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var se *SecurityError
			require.True(t, errors.As(err, &se))
			if tt.construct != "" {
				assert.Equal(t, tt.construct, se.Construct)
			}
		})
	}
}

func TestValidateUnknownFunctionMessage(t *testing.T) {
	err := NewEngine(DefaultOptions()).Validate("system(1)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "function 'system' is not allowed")
}

func TestValidateLength(t *testing.T) {
	t.Parallel()

	e := NewEngine(Options{MaxLength: 10})
	assert.NoError(t, e.Validate("1234567890"))

	err := e.Validate("12345678901")
	assert.ErrorIs(t, err, ErrFormulaTooLong)

	// Code points are counted, not bytes.
	assert.NoError(t, e.Validate("'éééééééé'"))
}

func TestValidateDefaultLength(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultOptions())
	ok := strings.Repeat("1+", 499) + "1"
	assert.NoError(t, e.Validate(ok))
	assert.ErrorIs(t, e.Validate(ok+"+1"), ErrFormulaTooLong)
}

func TestValidateDepth(t *testing.T) {
	t.Parallel()

	e := NewEngine(Options{MaxDepth: 16})
	assert.NoError(t, e.Validate("((1))"))

	deep := strings.Repeat("(", 40) + "1" + strings.Repeat(")", 40)
	err := e.Validate(deep)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsafeConstruct)
	var se *SecurityError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Depth", se.Construct)

	assert.ErrorIs(t, e.Validate(strings.Repeat("-", 40)+"1"), ErrUnsafeConstruct)
}

func TestValidateNestedBracesLinear(t *testing.T) {
	t.Parallel()

	// Deep brace nesting must fail fast on depth, not backtrack.
	e := NewEngine(DefaultOptions())
	src := strings.Repeat("{", 400) + strings.Repeat("}", 400)
	assert.ErrorIs(t, e.Validate(src), ErrUnsafeConstruct)
}
