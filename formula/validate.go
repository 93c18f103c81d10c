package formula

import "fmt"

// check walks the tree and accepts only the closed formula grammar. Every
// node type has an explicit case; the default case rejects.
func check(n node) error {
	switch n := n.(type) {
	case *numberLit, *stringLit, *boolLit, *noneLit:
		return nil

	case *name:
		return nil

	case *unary:
		if n.op != "+" && n.op != "-" {
			return unsafe(unaryOpNames[n.op], n.pos(), "unsafe unary operation")
		}
		return check(n.operand)

	case *binary:
		switch n.op {
		case "+", "-", "*", "/", "%", "**":
		default:
			return unsafe(binaryOpNames[n.op], n.pos(), "unsafe binary operation")
		}
		if err := check(n.left); err != nil {
			return err
		}
		return check(n.right)

	case *compare:
		for _, op := range n.ops {
			switch op {
			case "<", "<=", ">", ">=", "==", "!=":
			default:
				return unsafe(compareOpNames[op], n.pos(), "unsafe comparison")
			}
		}
		if err := check(n.left); err != nil {
			return err
		}
		for _, c := range n.comparators {
			if err := check(c); err != nil {
				return err
			}
		}
		return nil

	case *conditional:
		for _, c := range []node{n.test, n.body, n.orelse} {
			if err := check(c); err != nil {
				return err
			}
		}
		return nil

	case *call:
		fn, ok := n.fn.(*name)
		if !ok {
			return unsafe(n.kind(), n.pos(), "function calls must use simple names")
		}
		if _, ok := registry[fn.id]; !ok {
			return unsafe(n.kind(), n.pos(), fmt.Sprintf("function '%s' is not allowed", fn.id))
		}
		for _, a := range n.args {
			if err := check(a); err != nil {
				return err
			}
		}
		for _, kw := range n.keywords {
			if err := check(kw.value); err != nil {
				return err
			}
		}
		return nil

	case *boolOp, *attribute, *subscript, *slice, *starred, *collection,
		*dict, *comprehension, *lambda, *namedExpr:
		return unsafe(n.kind(), n.pos(), "")
	}
	return unsafe(fmt.Sprintf("%T", n), n.pos(), "unknown construct")
}
