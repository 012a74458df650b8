// xmpmeta.dev/xmp - Extensible Metadata Platform in Go
// Copyright (C) 2024  The xmpmeta.dev Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package xmp

import "strconv"

// Iterator performs a pre-order, depth-first walk of a [Document] (or a
// single [Node] subtree). It is a plain state
// machine, not a goroutine/channel generator: Next must be called
// repeatedly until it returns false, and SkipSubtree/SkipSiblings affect
// only the walk still to come.
//
// The iterator is a read view: mutating the graph while iterating is
// undefined.
type Iterator struct {
	reg   *Registry
	opts  IterOptions
	stack []iterFrame

	cur        iterItem
	havePushed bool
}

type iterItem struct {
	node   *Node
	ns     string
	path   string
	isQual bool
}

type iterFrame struct {
	items []iterItem
	idx   int
}

// NewNodeIterator walks the subtree rooted at n (n itself is not visited).
// ns is the owning schema's namespace URI, reported by [Iterator.NS];
// basePath is the path prefix reported for n's children.
func NewNodeIterator(reg *Registry, n *Node, ns, basePath string, opts IterOptions) *Iterator {
	it := &Iterator{reg: reg, opts: opts}
	it.stack = []iterFrame{{items: it.buildItems(n, ns, basePath)}}
	return it
}

// NewDocumentIterator walks every schema of d, in the order returned by
// [Document.Schemas].
func NewDocumentIterator(reg *Registry, d *Document, opts IterOptions) *Iterator {
	it := &Iterator{reg: reg, opts: opts}
	var items []iterItem
	for _, ns := range d.Schemas() {
		items = append(items, it.buildItems(d.schemas[ns], ns, "")...)
	}
	it.stack = []iterFrame{{items: items}}
	return it
}

func (it *Iterator) buildItems(n *Node, ns, basePath string) []iterItem {
	var items []iterItem
	for i, c := range n.Children {
		items = append(items, iterItem{node: c, ns: ns, path: it.childPath(basePath, n, c, i)})
	}
	if it.opts&OmitQualifiers == 0 {
		for _, q := range n.Qualifiers {
			items = append(items, iterItem{node: q, ns: ns, path: it.qualPath(basePath, q), isQual: true})
		}
	}
	return items
}

func (it *Iterator) qname(ns, name string) string {
	if pfx, ok := it.reg.PrefixForURI(ns); ok {
		return pfx + name
	}
	return name
}

func (it *Iterator) childPath(basePath string, parent, c *Node, i int) string {
	if parent.Options.IsArray() {
		return basePath + "[" + strconv.Itoa(i+1) + "]"
	}
	if basePath == "" {
		return it.qname(c.NS, c.Name)
	}
	return basePath + "/" + it.qname(c.NS, c.Name)
}

func (it *Iterator) qualPath(basePath string, q *Node) string {
	return basePath + "/?" + it.qname(q.NS, q.Name)
}

// Next advances the iterator, returning false once the walk is exhausted.
func (it *Iterator) Next() bool {
	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]
		if top.idx >= len(top.items) {
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}
		item := top.items[top.idx]
		top.idx++
		it.cur = item
		it.havePushed = false

		if !item.isQual && it.opts&JustChildren == 0 {
			sub := it.buildItems(item.node, item.ns, item.path)
			if len(sub) > 0 {
				it.stack = append(it.stack, iterFrame{items: sub})
				it.havePushed = true
			}
		}

		if it.opts&JustLeafNodes != 0 && !item.isQual && len(item.node.Children) > 0 {
			continue // descend silently, don't yield structural nodes
		}
		return true
	}
	return false
}

// Node returns the node the iterator is currently positioned on. Valid
// only after Next has returned true.
func (it *Iterator) Node() *Node { return it.cur.node }

// NS returns the namespace URI of the schema the current node descends
// from.
func (it *Iterator) NS() string { return it.cur.ns }

// Path returns the path expression addressing the current node. With
// [JustLeafName] set, only the node's own qualified name is reported
// instead of the full path; array items, which have no name of their own,
// still report the full indexed path.
func (it *Iterator) Path() string {
	if it.opts&JustLeafName != 0 && it.cur.node.Name != "" {
		return it.qname(it.cur.node.NS, it.cur.node.Name)
	}
	return it.cur.path
}

// IsQualifier reports whether the current node is a qualifier rather than
// a struct field/array item.
func (it *Iterator) IsQualifier() bool { return it.cur.isQual }

// SkipSubtree prevents the iterator from descending into the current
// node's children/qualifiers.
func (it *Iterator) SkipSubtree() {
	if it.havePushed && len(it.stack) > 0 {
		it.stack = it.stack[:len(it.stack)-1]
		it.havePushed = false
	}
}

// SkipSiblings abandons the remaining siblings of the current node (those
// still pending in its parent frame), without affecting ancestors above
// that.
func (it *Iterator) SkipSiblings() {
	i := len(it.stack) - 1
	if it.havePushed {
		i-- // stack top is the current node's own children; its siblings
		// are one frame further down.
	}
	if i < 0 {
		return
	}
	it.stack[i].idx = len(it.stack[i].items)
}
