package parser

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	sitter "github.com/smacker/go-tree-sitter"
)

var errNotConstant = errors.New("not an integral constant")

// enumEval evaluates enumerator initializers: integer and character literals,
// references to earlier enumerators, and arithmetic over those.
type enumEval struct {
	src    []byte
	values map[string]int64
}

func (e *enumEval) eval(n *sitter.Node) (int64, error) {
	if n == nil {
		return 0, errNotConstant
	}
	switch n.Type() {
	case "number_literal":
		return parseIntLiteral(n.Content(e.src))
	case "char_literal":
		return parseCharLiteral(n.Content(e.src))
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	case "identifier":
		if v, ok := e.values[n.Content(e.src)]; ok {
			return v, nil
		}
	case "qualified_identifier":
		// Color::RED inside Color
		if name := n.ChildByFieldName("name"); name != nil {
			return e.eval(name)
		}
	case "parenthesized_expression":
		if n.NamedChildCount() == 1 {
			return e.eval(n.NamedChild(0))
		}
	case "cast_expression":
		return e.eval(n.ChildByFieldName("value"))
	case "unary_expression":
		return e.unary(n)
	case "binary_expression":
		return e.binary(n)
	}
	return 0, errors.Wrapf(errNotConstant, "%s %q", n.Type(), n.Content(e.src))
}

func (e *enumEval) unary(n *sitter.Node) (int64, error) {
	v, err := e.eval(n.ChildByFieldName("argument"))
	if err != nil {
		return 0, err
	}
	switch operatorOf(n) {
	case "-":
		return -v, nil
	case "+":
		return v, nil
	case "~":
		return ^v, nil
	case "!":
		if v == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return 0, errNotConstant
}

func (e *enumEval) binary(n *sitter.Node) (int64, error) {
	l, err := e.eval(n.ChildByFieldName("left"))
	if err != nil {
		return 0, err
	}
	r, err := e.eval(n.ChildByFieldName("right"))
	if err != nil {
		return 0, err
	}
	switch operatorOf(n) {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, errNotConstant
		}
		return l / r, nil
	case "%":
		if r == 0 {
			return 0, errNotConstant
		}
		return l % r, nil
	case "<<":
		return l << uint64(r), nil
	case ">>":
		return l >> uint64(r), nil
	case "|":
		return l | r, nil
	case "&":
		return l & r, nil
	case "^":
		return l ^ r, nil
	}
	return 0, errNotConstant
}

// parseIntLiteral reads decimal, hex, octal and binary literals with digit
// separators and integer suffixes.
func parseIntLiteral(lit string) (int64, error) {
	s := strings.ReplaceAll(lit, "'", "")
	isHex := strings.HasPrefix(strings.ToLower(s), "0x")
	s = strings.TrimRightFunc(s, func(r rune) bool {
		switch r {
		case 'u', 'U', 'l', 'L', 'z', 'Z':
			return true
		}
		return false
	})
	if !isHex && strings.ContainsAny(s, ".eE") {
		return 0, errors.Wrapf(errNotConstant, "floating literal %q", lit)
	}
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		u, uerr := strconv.ParseUint(s, 0, 64)
		if uerr != nil {
			return 0, errors.Wrapf(errNotConstant, "literal %q", lit)
		}
		return int64(u), nil
	}
	return v, nil
}

func parseCharLiteral(lit string) (int64, error) {
	i := strings.IndexByte(lit, '\'')
	if i < 0 {
		return 0, errNotConstant
	}
	body := strings.TrimSuffix(lit[i+1:], "'")
	if body == `\0` {
		return 0, nil
	}
	r, _, _, err := strconv.UnquoteChar(body, '\'')
	if err != nil {
		return 0, errors.Wrapf(errNotConstant, "character literal %q", lit)
	}
	return int64(r), nil
}

func operatorOf(n *sitter.Node) string {
	if op := n.ChildByFieldName("operator"); op != nil {
		return op.Type()
	}
	return ""
}
