package locator

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// walker collects named function declarations from a syntax tree.
type walker struct {
	lang   Language
	source []byte
}

// functionNode is a named function found in the tree.
type functionNode struct {
	name      string
	startByte int
	endByte   int
	startRow  int
	endRow    int
}

// collect returns every named function in depth-first order.
func (w walker) collect(root *sitter.Node) []functionNode {
	if root == nil {
		return nil
	}

	var out []functionNode
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if w.lang.IsFunctionNode(node.Type()) {
			if name := w.name(node); name != "" {
				out = append(out, functionNode{
					name:      name,
					startByte: int(node.StartByte()),
					endByte:   int(node.EndByte()),
					startRow:  int(node.StartPoint().Row),
					endRow:    int(node.EndPoint().Row),
				})
			}
		}

		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			if child := node.Child(i); child != nil {
				stack = append(stack, child)
			}
		}
	}
	return out
}

// name resolves the declared name of a function node. Anonymous functions
// take the name of the variable or property they are assigned to.
func (w walker) name(node *sitter.Node) string {
	if n := node.ChildByFieldName("name"); n != nil {
		return w.text(n)
	}

	if d := node.ChildByFieldName("declarator"); d != nil {
		for {
			inner := d.ChildByFieldName("declarator")
			if inner == nil {
				break
			}
			d = inner
		}
		return w.text(d)
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Type() == "simple_identifier" {
			return w.text(child)
		}
	}

	parent := node.Parent()
	if parent == nil {
		return ""
	}
	switch parent.Type() {
	case "variable_declarator", "public_field_definition", "field_definition":
		if n := parent.ChildByFieldName("name"); n != nil {
			return w.text(n)
		}
	case "pair":
		if n := parent.ChildByFieldName("key"); n != nil {
			return w.text(n)
		}
	case "assignment_expression":
		if n := parent.ChildByFieldName("left"); n != nil {
			return w.text(n)
		}
	}
	return ""
}

func (w walker) text(node *sitter.Node) string {
	start, end := node.StartByte(), node.EndByte()
	if start >= end || end > uint32(len(w.source)) {
		return ""
	}
	return string(w.source[start:end])
}
