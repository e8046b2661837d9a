// Copyright Ad Astra Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package syntax

import (
	"strings"
)

// Parser builds a CST (a slice of Node, referenced by NodeRef) from source
// text, grounded on pkg/sexp.Parser's recursive-descent shape but
// elaborating recognized leading symbols (let, fn, if, import) into
// dedicated NodeKinds rather than leaving everything as an untyped list,
// the way pkg/corset/parser.go elaborates raw S-expressions into AST nodes.
type Parser struct {
	lexer *Lexer
	look  *Token
	nodes []Node
}

// NewParser constructs a Parser over source text.
func NewParser(text string) *Parser {
	return &Parser{lexer: NewLexer(text)}
}

func (p *Parser) next() Token {
	if p.look != nil {
		t := *p.look
		p.look = nil

		return t
	}

	return p.lexer.Next()
}

func (p *Parser) peek() Token {
	if p.look == nil {
		t := p.lexer.Next()
		p.look = &t
	}

	return *p.look
}

func (p *Parser) push(n Node) NodeRef {
	p.nodes = append(p.nodes, n)

	return NodeRef(len(p.nodes) - 1)
}

// ParseModule parses the entirety of text as a sequence of top-level forms
// under a synthetic NodeRoot, returning the finished node arena and the
// root reference, or a SyntaxError.
func ParseModule(text string) ([]Node, NodeRef, error) {
	p := NewParser(text)

	root := p.push(Node{Kind: NodeRoot, Parent: Invalid})

	var children []NodeRef

	for p.peek().Kind != TokEOF {
		child, err := p.parseForm(root)
		if err != nil {
			return nil, Invalid, err
		}

		children = append(children, child)
	}

	p.nodes[root].Children = children
	p.nodes[root].Span = Span{0, len(p.lexer.text)}

	return p.nodes, root, nil
}

func (p *Parser) parseForm(parent NodeRef) (NodeRef, error) {
	tok := p.next()

	switch tok.Kind {
	case TokLParen:
		return p.parseList(parent, tok)
	case TokString:
		return p.push(Node{Kind: NodeStringLit, Span: tok.Span, Text: tok.Text, Parent: parent}), nil
	case TokNumber:
		return p.push(Node{Kind: NodeNumberLit, Span: tok.Span, Text: tok.Text, Parent: parent}), nil
	case TokAtom:
		return p.parseAtom(parent, tok), nil
	case TokRParen:
		return Invalid, &SyntaxError{Span: tok.Span, Message: "unexpected ')'"}
	default:
		return Invalid, &SyntaxError{Span: tok.Span, Message: "unexpected end of input"}
	}
}

func (p *Parser) parseAtom(parent NodeRef, tok Token) NodeRef {
	switch tok.Text {
	case "this":
		return p.push(Node{Kind: NodeThis, Span: tok.Span, Parent: parent})
	case "nil":
		return p.push(Node{Kind: NodeNilLit, Span: tok.Span, Parent: parent})
	case "true", "false":
		return p.push(Node{Kind: NodeBoolLit, Span: tok.Span, Text: tok.Text, Parent: parent})
	}

	if strings.HasPrefix(tok.Text, "crate::") {
		return p.push(Node{Kind: NodeCrate, Span: tok.Span, Text: strings.TrimPrefix(tok.Text, "crate::"), Parent: parent})
	}

	if idx := strings.IndexByte(tok.Text, '.'); idx > 0 {
		base := Node{Kind: NodeIdent, Span: Span{tok.Span.Start, tok.Span.Start + idx}, Text: tok.Text[:idx], Parent: parent}
		cur := p.push(base)

		rest := tok.Text[idx+1:]
		offset := tok.Span.Start + idx + 1

		for _, field := range strings.Split(rest, ".") {
			fieldSpan := Span{offset, offset + len(field)}
			fieldNode := Node{Kind: NodeField, Span: fieldSpan, Text: field, Children: []NodeRef{cur}, Parent: parent}
			next := p.push(fieldNode)
			p.nodes[cur].Parent = next
			cur = next
			offset += len(field) + 1
		}

		return cur
	}

	return p.push(Node{Kind: NodeIdent, Span: tok.Span, Text: tok.Text, Parent: parent})
}

func (p *Parser) parseList(parent NodeRef, open Token) (NodeRef, error) {
	self := p.push(Node{Parent: parent})

	var elements []NodeRef

	for {
		if p.peek().Kind == TokRParen {
			p.next()

			break
		}

		if p.peek().Kind == TokEOF {
			return Invalid, &SyntaxError{Span: open.Span, Message: "unterminated list"}
		}

		child, err := p.parseForm(self)
		if err != nil {
			return Invalid, err
		}

		elements = append(elements, child)
	}

	kind, text := classifyList(p.nodes, elements)
	p.nodes[self].Kind = kind
	p.nodes[self].Text = text

	// A recognized special form's leading symbol (let, fn, if, ...) is what
	// drove classifyList's decision; it carries no further information once
	// the Kind itself records the form, so Children holds operands only,
	// matching the generic NodeCall case's Children[0] being the callee
	// rather than a bare keyword. NodeList (an unrecognized or empty list)
	// keeps every element since it has no keyword to drop.
	children := elements
	if kind != NodeCall && kind != NodeList && len(elements) > 0 {
		children = elements[1:]
	}

	p.nodes[self].Children = children
	p.nodes[self].Span = Span{open.Span.Start, p.lastEnd(elements, open.Span.End)}

	return self, nil
}

func (p *Parser) lastEnd(elements []NodeRef, fallback int) int {
	if len(elements) == 0 {
		return fallback
	}

	return p.nodes[elements[len(elements)-1]].Span.End
}

// classifyList inspects a parsed list's leading element to decide whether
// it is a recognized special form (let, fn, if, import) or a generic call,
// grounded on pkg/corset/translator.go's symbol-driven dispatch.
func classifyList(nodes []Node, elements []NodeRef) (NodeKind, string) {
	if len(elements) == 0 {
		return NodeList, ""
	}

	head := nodes[elements[0]]
	if head.Kind != NodeIdent {
		return NodeCall, ""
	}

	switch head.Text {
	case "let":
		return NodeLet, ""
	case "fn":
		return NodeFn, ""
	case "if":
		return NodeIf, ""
	case "import":
		return NodeImport, ""
	case "field":
		return NodeField, ""
	case "while":
		return NodeWhile, ""
	case "set":
		return NodeSet, ""
	default:
		return NodeCall, head.Text
	}
}
