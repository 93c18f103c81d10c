package formula

import "github.com/shopspring/decimal"

// node is the typed syntax tree produced by the parser. Every form the
// parser can recognize has its own type so the validator can accept or
// reject it by name; nothing is represented generically.
type node interface {
	kind() string
	pos() int
}

type at int

func (p at) pos() int { return int(p) }

type (
	numberLit struct {
		at
		val decimal.Decimal
	}
	stringLit struct {
		at
		val string
	}
	boolLit struct {
		at
		val bool
	}
	noneLit struct{ at }

	name struct {
		at
		id string
	}

	unary struct {
		at
		op      string // "+", "-", "~", "not"
		operand node
	}

	binary struct {
		at
		op          string // "+", "-", "*", "/", "%", "**", "//", "@", "&", "|", "^", "<<", ">>"
		left, right node
	}

	boolOp struct {
		at
		op     string // "and", "or"
		values []node
	}

	compare struct {
		at
		left        node
		ops         []string // "<", "<=", ">", ">=", "==", "!=", "in", "not in", "is", "is not"
		comparators []node
	}

	conditional struct {
		at
		test, body, orelse node
	}

	keyword struct {
		name  string // empty for **spread
		value node
	}

	call struct {
		at
		fn       node
		args     []node
		keywords []keyword
	}

	attribute struct {
		at
		value node
		attr  string
	}

	subscript struct {
		at
		value, index node
	}

	slice struct {
		at
		lower, upper, step node
	}

	starred struct {
		at
		value node
	}

	collection struct {
		at
		typ   string // "List", "Tuple", "Set"
		elems []node
	}

	dict struct {
		at
		keys, values []node
	}

	comprehension struct {
		at
		typ  string // "ListComp", "SetComp", "DictComp", "GeneratorExp"
		elt  node
		iter []node
	}

	lambda struct {
		at
		params []string
		body   node
	}

	namedExpr struct {
		at
		target string
		value  node
	}
)

func (numberLit) kind() string       { return "Constant" }
func (stringLit) kind() string       { return "Constant" }
func (boolLit) kind() string         { return "Constant" }
func (noneLit) kind() string         { return "Constant" }
func (name) kind() string            { return "Name" }
func (unary) kind() string           { return "UnaryOp" }
func (binary) kind() string          { return "BinOp" }
func (boolOp) kind() string          { return "BoolOp" }
func (compare) kind() string         { return "Compare" }
func (conditional) kind() string     { return "IfExp" }
func (call) kind() string            { return "Call" }
func (attribute) kind() string       { return "Attribute" }
func (subscript) kind() string       { return "Subscript" }
func (slice) kind() string           { return "Slice" }
func (starred) kind() string         { return "Starred" }
func (n collection) kind() string    { return n.typ }
func (dict) kind() string            { return "Dict" }
func (n comprehension) kind() string { return n.typ }
func (lambda) kind() string          { return "Lambda" }
func (namedExpr) kind() string       { return "NamedExpr" }

// Operator names used in UnsafeConstruct errors.
var binaryOpNames = map[string]string{
	"+": "Add", "-": "Sub", "*": "Mult", "/": "Div", "%": "Mod", "**": "Pow",
	"//": "FloorDiv", "@": "MatMult", "&": "BitAnd", "|": "BitOr", "^": "BitXor",
	"<<": "LShift", ">>": "RShift",
}

var unaryOpNames = map[string]string{
	"+": "UAdd", "-": "USub", "~": "Invert", "not": "Not",
}

var compareOpNames = map[string]string{
	"<": "Lt", "<=": "LtE", ">": "Gt", ">=": "GtE", "==": "Eq", "!=": "NotEq",
	"in": "In", "not in": "NotIn", "is": "Is", "is not": "IsNot",
}
