package depot

type Operation int

const (
	OpAnd Operation = iota
	OpOr
	OpNot
)

type Predicate int

const (
	PredContains Predicate = iota
	PredAdded
	PredModified
)

// Filter is a row predicate over component presence and change state. Filters
// never borrow the components they name.
type Filter interface {
	Evaluate(arch Archetype, row int) bool
	// Structural reports whether the outcome depends only on the archetype mask
	Structural() bool
}

type compositeNode struct {
	op       Operation
	children []Filter
}

type leafNode struct {
	pred       Predicate
	components []Component
	mask       Mask
}

func newCompositeNode(op Operation, children []Filter) *compositeNode {
	return &compositeNode{op: op, children: children}
}

func newLeafNode(pred Predicate, components []Component) *leafNode {
	var m Mask
	for _, c := range components {
		m = m.Or(c.Mask())
	}
	return &leafNode{pred: pred, components: components, mask: m}
}

// And passes rows that pass every filter; an empty And passes everything
func And(filters ...Filter) Filter {
	return newCompositeNode(OpAnd, filters)
}

// Or passes rows that pass any filter; an empty Or passes nothing
func Or(filters ...Filter) Filter {
	return newCompositeNode(OpOr, filters)
}

// Not passes rows that pass none of the filters
func Not(filters ...Filter) Filter {
	return newCompositeNode(OpNot, filters)
}

// Contains passes rows whose archetype holds every component
func Contains(components ...Component) Filter {
	return newLeafNode(PredContains, components)
}

// Added passes rows where every component was attached or inserted since the last prepare
func Added(components ...Component) Filter {
	return newLeafNode(PredAdded, components)
}

// Modified passes rows where every component was exclusively accessed since the last prepare
func Modified(components ...Component) Filter {
	return newLeafNode(PredModified, components)
}

func (n *compositeNode) Evaluate(arch Archetype, row int) bool {
	switch n.op {
	case OpAnd:
		for _, child := range n.children {
			if !child.Evaluate(arch, row) {
				return false
			}
		}
		return true

	case OpOr:
		for _, child := range n.children {
			if child.Evaluate(arch, row) {
				return true
			}
		}
		return false

	case OpNot:
		for _, child := range n.children {
			if child.Evaluate(arch, row) {
				return false
			}
		}
		return true
	}
	return false
}

func (n *compositeNode) Structural() bool {
	for _, child := range n.children {
		if !child.Structural() {
			return false
		}
	}
	return true
}

func (n *leafNode) Evaluate(arch Archetype, row int) bool {
	if !arch.Mask().Contains(n.mask) {
		return false
	}
	if n.pred == PredContains {
		return true
	}
	a := arch.(*archetype)
	for _, c := range n.components {
		col, _ := a.column(c.Bit())
		state := col.State(row)
		switch n.pred {
		case PredAdded:
			if !state.Added() {
				return false
			}
		case PredModified:
			if !state.Modified() {
				return false
			}
		}
	}
	return true
}

func (n *leafNode) Structural() bool {
	return n.pred == PredContains
}
