package maven

import (
	"encoding/xml"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// element is a minimal DOM node. Names are local names; namespaces are ignored.
type element struct {
	name     string
	text     strings.Builder
	children []*element
}

// parseDocument reads an XML document into a tree and returns its root.
func parseDocument(r io.Reader) (*element, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var (
		root  *element
		stack []*element
	)
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
			e := &element{name: t.Name.Local}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, e)
			} else if root == nil {
				root = e
			}
			stack = append(stack, e)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			// Text content includes the text of every descendant.
			for _, e := range stack {
				e.text.Write(t)
			}
		}
	}

	if root == nil {
		return nil, io.ErrUnexpectedEOF
	}
	return root, nil
}

// find returns every descendant named name in document order, the receiver
// included, at any depth.
func (e *element) find(name string) []*element {
	var out []*element
	var walk func(*element)
	walk = func(n *element) {
		if n.name == name {
			out = append(out, n)
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(e)
	return out
}

// findBelow is like find but excludes the receiver.
func (e *element) findBelow(name string) []*element {
	var out []*element
	for _, c := range e.children {
		out = append(out, c.find(name)...)
	}
	return out
}

// textContent returns the text content as written, surrounding whitespace included.
func (e *element) textContent() string {
	return e.text.String()
}

// content returns the trimmed text content.
func (e *element) content() string {
	return strings.TrimSpace(e.textContent())
}
