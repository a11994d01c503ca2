package metrics

import (
	"bytes"

	"github.com/open-rust-Initiative/cargo-plugins/internal/types"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
)

var rustLanguage = tree_sitter.NewLanguage(tree_sitter_rust.Language())

const functionNode = "function_item"

// Decision points for cyclomatic complexity. Boolean operators are handled
// separately.
var branchKinds = map[string]bool{
	"if_expression":    true,
	"for_expression":   true,
	"while_expression": true,
	"loop_expression":  true,
	"match_arm":        true,
	"try_expression":   true,
}

// Structures that increase cognitive complexity and nest their bodies.
var nestingKinds = map[string]bool{
	"match_expression": true,
	"for_expression":   true,
	"while_expression": true,
	"loop_expression":  true,
}

// AnalyzeFile returns one file unit followed by one unit per function,
// including methods and nested functions. ok is false when the source could
// not be parsed at all.
func AnalyzeFile(relPath string, content []byte) (units []types.CodeUnit, ok bool) {
	units = append(units, types.CodeUnit{
		Name:      relPath,
		Path:      relPath,
		StartLine: 1,
		EndLine:   lineCount(content),
		Kind:      types.UnitFile,
	})
	if len(content) == 0 {
		return units, true
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(rustLanguage); err != nil {
		return nil, false
	}
	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, false
	}
	defer tree.Close()

	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		if n.Kind() == functionNode {
			units = append(units, functionUnit(n, relPath, content))
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(tree.RootNode())
	return units, true
}

func functionUnit(n *tree_sitter.Node, relPath string, content []byte) types.CodeUnit {
	name := "<anonymous>"
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		name = nameNode.Utf8Text(content)
	}
	c := &cognitive{}
	if body := n.ChildByFieldName("body"); body != nil {
		c.children(body, 0)
	}
	return types.CodeUnit{
		Name:       name,
		Path:       relPath,
		StartLine:  uint64(n.StartPosition().Row) + 1,
		EndLine:    uint64(n.EndPosition().Row) + 1,
		Kind:       types.UnitFunction,
		Cyclomatic: cyclomatic(n),
		Cognitive:  c.score,
	}
}

func lineCount(content []byte) uint64 {
	if len(content) == 0 {
		return 1
	}
	n := uint64(bytes.Count(content, []byte{'\n'}))
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}

// cyclomatic is 1 plus every decision point in the function, not counting
// nested functions.
func cyclomatic(fn *tree_sitter.Node) uint64 {
	total := uint64(1)
	var count func(n *tree_sitter.Node)
	count = func(n *tree_sitter.Node) {
		kind := n.Kind()
		if branchKinds[kind] || (kind == "binary_expression" && isLogical(n)) {
			total++
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			child := n.Child(i)
			if child.Kind() == functionNode {
				continue
			}
			count(child)
		}
	}
	for i := uint(0); i < fn.ChildCount(); i++ {
		count(fn.Child(i))
	}
	return total
}

func operator(n *tree_sitter.Node) string {
	if op := n.ChildByFieldName("operator"); op != nil {
		return op.Kind()
	}
	return ""
}

func isLogical(n *tree_sitter.Node) bool {
	op := operator(n)
	return op == "&&" || op == "||"
}

// cognitive follows the usual rules: structures add 1 plus their nesting
// level, else and else-if add 1 flat, a run of the same boolean operator adds
// 1, and labeled jumps add 1.
type cognitive struct {
	score uint64
}

func (c *cognitive) children(n *tree_sitter.Node, nesting uint64) {
	for i := uint(0); i < n.ChildCount(); i++ {
		c.walk(n.Child(i), nesting)
	}
}

func (c *cognitive) walk(n *tree_sitter.Node, nesting uint64) {
	kind := n.Kind()
	switch {
	case kind == functionNode:
		return
	case kind == "if_expression":
		c.ifExpr(n, nesting, false)
		return
	case nestingKinds[kind]:
		c.score += 1 + nesting
		c.children(n, nesting+1)
		return
	case kind == "closure_expression":
		c.children(n, nesting+1)
		return
	case kind == "binary_expression" && isLogical(n):
		parent := n.Parent()
		if parent == nil || parent.Kind() != "binary_expression" || operator(parent) != operator(n) {
			c.score++
		}
	case kind == "break_expression" || kind == "continue_expression":
		for i := uint(0); i < n.ChildCount(); i++ {
			if n.Child(i).Kind() == "label" {
				c.score++
				break
			}
		}
	}
	c.children(n, nesting)
}

func (c *cognitive) ifExpr(n *tree_sitter.Node, nesting uint64, elseIf bool) {
	if elseIf {
		c.score++
	} else {
		c.score += 1 + nesting
	}
	cond := n.ChildByFieldName("condition")
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if cond != nil && sameNode(child, cond) {
			c.walk(child, nesting)
			continue
		}
		if child.Kind() != "else_clause" {
			c.walk(child, nesting+1)
			continue
		}
		for j := uint(0); j < child.ChildCount(); j++ {
			branch := child.Child(j)
			switch branch.Kind() {
			case "if_expression":
				c.ifExpr(branch, nesting, true)
			case "block":
				c.score++
				c.children(branch, nesting+1)
			}
		}
	}
}

func sameNode(a, b *tree_sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Kind() == b.Kind()
}
