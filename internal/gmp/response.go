// Package gmp implements a minimal client for the Greenbone Management
// Protocol, the XML-over-TLS protocol spoken by the OpenVAS scan engine.
//
// Every engine call yields a Response, a tagged variant over the shapes the
// engine can hand back: the raw document text, a parsed element tree, a
// scalar status code, or nothing at all. Interpreting a Response is the job
// of the normalize package.
package gmp

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
)

// Kind identifies which variant a Response holds.
type Kind int

const (
	KindAbsent Kind = iota
	KindDocument
	KindTree
	KindScalar
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindTree:
		return "tree"
	case KindScalar:
		return "scalar"
	default:
		return "absent"
	}
}

// Response is the result of a single engine command.
type Response struct {
	kind       Kind
	raw        string
	root       *etree.Element
	code       int
	statusText string
}

// Document wraps unparsed response text.
func Document(raw string) Response {
	return Response{kind: KindDocument, raw: raw}
}

// Tree wraps a parsed response root element.
func Tree(root *etree.Element) Response {
	if root == nil {
		return Absent()
	}
	return Response{kind: KindTree, root: root}
}

// Scalar wraps a bare status code, as returned for rejected commands.
func Scalar(code int, statusText string) Response {
	return Response{kind: KindScalar, code: code, statusText: statusText}
}

// Absent is the empty response.
func Absent() Response {
	return Response{}
}

// Kind returns the variant held by r.
func (r Response) Kind() Kind { return r.kind }

// Raw returns the document text for KindDocument responses.
func (r Response) Raw() string { return r.raw }

// Root returns the element tree for KindTree responses.
func (r Response) Root() *etree.Element { return r.root }

// Code returns the status code and status text for KindScalar responses.
func (r Response) Code() (int, string) { return r.code, r.statusText }

// String describes the response for log output.
func (r Response) String() string {
	switch r.kind {
	case KindDocument:
		return fmt.Sprintf("document(%d bytes)", len(r.raw))
	case KindTree:
		return fmt.Sprintf("tree(<%s>)", r.root.Tag)
	case KindScalar:
		return fmt.Sprintf("scalar(%d %s)", r.code, r.statusText)
	default:
		return "absent"
	}
}

// fromRaw classifies a raw engine reply. Rejected commands, whose status
// attribute is not 2xx, become Scalar. Text that is not well-formed XML is
// kept as a Document so callers can still salvage identifiers from it.
func fromRaw(raw []byte) Response {
	if len(raw) == 0 {
		return Absent()
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return Document(string(raw))
	}
	root := doc.Root()
	if root == nil {
		return Document(string(raw))
	}

	if status := root.SelectAttrValue("status", ""); status != "" && status[0] != '2' {
		code, err := strconv.Atoi(status)
		if err != nil {
			code = 0
		}
		return Scalar(code, root.SelectAttrValue("status_text", ""))
	}

	return Tree(root)
}
