package rdf

import "fmt"

// blankNodeGenerator hands out blank nodes for one parse. Labels found in the
// document keep their name; anonymous nodes get fresh "genid" labels. Every ID
// carries the configured prefix.
type blankNodeGenerator struct {
	prefix  string
	counter int
}

func newBlankNodeGenerator(prefix string) *blankNodeGenerator {
	return &blankNodeGenerator{prefix: prefix}
}

// next returns a fresh anonymous blank node.
func (g *blankNodeGenerator) next() BlankNode {
	g.counter++
	return BlankNode{ID: fmt.Sprintf("%sgenid%d", g.prefix, g.counter)}
}

// labeled returns the blank node for a document label.
func (g *blankNodeGenerator) labeled(label string) BlankNode {
	return BlankNode{ID: g.prefix + label}
}
