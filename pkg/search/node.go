// SPDX-License-Identifier: Apache-2.0

package search

import (
	"strings"
)

// Node is an element of the predicate tree. The set of node types is closed:
// combinators (AndNode, OrNode, GroupNode) and the field predicates declared
// in this package.
type Node interface {
	String() string
	isNode()
}

// AndNode matches documents matching both operands. It renders as the two
// operands separated by a space.
type AndNode struct {
	Left  Node
	Right Node
}

// OrNode matches documents matching either operand. It renders as the two
// operands separated by |.
type OrNode struct {
	Left  Node
	Right Node
}

// GroupNode is the root of a sub search combined into its parent. It always
// renders within parentheses.
type GroupNode struct {
	Inner Node
}

func (n *AndNode) String() string {
	var sb strings.Builder
	writeOperand(&sb, n.Left, isOr)
	sb.WriteByte(' ')
	writeOperand(&sb, n.Right, isOr)
	return sb.String()
}

func (n *OrNode) String() string {
	var sb strings.Builder
	writeOperand(&sb, n.Left, isAnd)
	sb.WriteByte('|')
	writeOperand(&sb, n.Right, isAnd)
	return sb.String()
}

func (n *GroupNode) String() string {
	return "(" + n.Inner.String() + ")"
}

func (*AndNode) isNode()   {}
func (*OrNode) isNode()    {}
func (*GroupNode) isNode() {}

// writeOperand parenthesizes combinators of the other kind, so that the
// rendering does not depend on the engine operator precedence.
func writeOperand(sb *strings.Builder, n Node, needsParens func(Node) bool) {
	if needsParens(n) {
		sb.WriteByte('(')
		sb.WriteString(n.String())
		sb.WriteByte(')')
		return
	}
	sb.WriteString(n.String())
}

func isOr(n Node) bool {
	_, ok := n.(*OrNode)
	return ok
}

func isAnd(n Node) bool {
	_, ok := n.(*AndNode)
	return ok
}

func and(left, right Node) Node {
	if left == nil {
		return right
	}
	return &AndNode{Left: left, Right: right}
}

func or(left, right Node) Node {
	if left == nil {
		return right
	}
	return &OrNode{Left: left, Right: right}
}

// validate walks the tree and returns an error for the first field
// predicate that has not been given a value.
func validate(n Node) error {
	switch n := n.(type) {
	case nil:
		return nil
	case *AndNode:
		if err := validate(n.Left); err != nil {
			return err
		}
		return validate(n.Right)
	case *OrNode:
		if err := validate(n.Left); err != nil {
			return err
		}
		return validate(n.Right)
	case *GroupNode:
		return validate(n.Inner)
	case predicate:
		if !n.ready() {
			return &IncompletePredicateError{Field: n.Field().Path}
		}
		return nil
	default:
		return nil
	}
}
