// Package xmldoc is the immutable document model shared by every
// checker family: a parsed XML tree with cp1251/utf-8 origin encoding
// preserved, and the narrow XPath-1.0-like lookups (§4.2, §4.5) the
// expression engines need. It is deliberately not a general XPath
// engine (spec Non-goals) — just descendant/child/attribute navigation
// over "//a/b/@c"-shaped paths, the only shapes Grammar A and the
// assertion harvester ever build.
package xmldoc

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Attr is one element attribute, order preserved as written.
type Attr struct {
	Space string
	Local string
	Value string
}

// Node is one element in the parsed tree.
type Node struct {
	Space    string
	Local    string
	Attrs    []Attr
	Children []*Node
	Parent   *Node
	Text     string

	// Segments holds the mixed-content text runs interleaved with
	// Children: Segments[i] is the text immediately before
	// Children[i], and the final entry is the text after the last
	// child (or the whole text, for a childless node). Harvest's
	// error-template rendering needs this split to interpolate each
	// child's "select" attribute in its original position; Text is
	// the flattened concatenation for callers that don't care.
	Segments []string
}

// Attr returns the value of the named attribute on n, ignoring namespace.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Ancestors returns n's ancestor chain, nearest first, not including n.
func (n *Node) Ancestors() []*Node {
	var out []*Node
	for p := n.Parent; p != nil; p = p.Parent {
		out = append(out, p)
	}
	return out
}

// HasAncestorWithAttr reports whether any ancestor carries attribute
// name with the given value.
func (n *Node) HasAncestorWithAttr(name, value string) bool {
	for _, a := range n.Ancestors() {
		if v, ok := a.Attr(name); ok && v == value {
			return true
		}
	}
	return false
}

// HasAncestorNamed reports whether any ancestor has local name local
// (namespace ignored — good enough for "xs:choice" style checks since
// the compendium's XSDs only ever declare one schema namespace).
func (n *Node) HasAncestorNamed(local string) bool {
	for _, a := range n.Ancestors() {
		if a.Local == local {
			return true
		}
	}
	return false
}

// FindDescendants returns every descendant (not including self) whose
// local name equals name, in document order.
func (n *Node) FindDescendants(name string) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(cur *Node) {
		for _, c := range cur.Children {
			if c.Local == name {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// Document is an immutable parsed XML tree plus its origin bytes and
// detected charset. Owned by the request; there is nothing to release
// explicitly in Go, the garbage collector does that job.
type Document struct {
	Filename string
	Content  []byte
	Charset  string
	Root     *Node
}

// Parse builds a Document from raw bytes, trying utf-8 first and
// falling back to cp1251 if the utf-8 parse fails, per spec §6.
func Parse(filename string, content []byte) (*Document, error) {
	if root, err := parseTree(content, ""); err == nil {
		return &Document{Filename: filename, Content: content, Charset: "utf-8", Root: root}, nil
	}
	root, err := parseTree(content, "windows-1251")
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s as utf-8 or cp1251: %w", filename, err)
	}
	return &Document{Filename: filename, Content: content, Charset: "cp1251", Root: root}, nil
}

// parseTree decodes content with encoding/xml and builds the Node tree.
// A cp1251 forceCharset decodes the whole content as cp1251, whatever
// encoding the document declares; forceCharset == "" lets the
// declared/default encoding win.
func parseTree(content []byte, forceCharset string) (*Node, error) {
	var src io.Reader = bytes.NewReader(content)
	forced := false
	switch strings.ToLower(forceCharset) {
	case "windows-1251", "cp1251", "cp-1251":
		src = charmap.Windows1251.NewDecoder().Reader(src)
		forced = true
	}
	dec := xml.NewDecoder(src)
	dec.Strict = false
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		if forced {
			return input, nil
		}
		switch strings.ToLower(charset) {
		case "windows-1251", "cp1251", "cp-1251":
			return charmap.Windows1251.NewDecoder().Reader(input), nil
		default:
			return input, nil
		}
	}

	var root *Node
	var stack []*Node
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Space: t.Name.Space, Local: t.Name.Local, Segments: []string{""}}
			for _, a := range t.Attr {
				n.Attrs = append(n.Attrs, Attr{Space: a.Name.Space, Local: a.Name.Local, Value: a.Value})
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				n.Parent = parent
				parent.Children = append(parent.Children, n)
				parent.Segments = append(parent.Segments, "")
			} else {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				top.Text += string(t)
				top.Segments[len(top.Segments)-1] += string(t)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("document has no root element")
	}
	return root, nil
}
