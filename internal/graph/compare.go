package graph

// Divergence measures how far graph B strays from a reference graph A.
// Building the same input in N chunks instead of one is expected to give
// EdgesOnlyInB == 0, NodesOnlyInB == 0 and MaxDeficit <= N-1.
type Divergence struct {
	NodesOnlyInA, NodesOnlyInB int
	EdgesOnlyInA, EdgesOnlyInB int
	// MaxDeficit is the largest A-minus-B multiplicity over A's edges, an
	// edge missing from B counting as 0.
	MaxDeficit uint64
	// MaxSurplus is the largest B-minus-A multiplicity over B's edges.
	MaxSurplus uint64
}

// SameSets reports whether both graphs hold exactly the same nodes and edges.
func (d Divergence) SameSets() bool {
	return d.NodesOnlyInA == 0 && d.NodesOnlyInB == 0 && d.EdgesOnlyInA == 0 && d.EdgesOnlyInB == 0
}

// Compare returns the Divergence of b from a.
func Compare(a, b *Graph) Divergence {
	var d Divergence
	for seq := range a.nodes {
		if _, ok := b.nodes[seq]; !ok {
			d.NodesOnlyInA++
		}
	}
	for seq := range b.nodes {
		if _, ok := a.nodes[seq]; !ok {
			d.NodesOnlyInB++
		}
	}
	for key, ea := range a.edges {
		var mb uint64
		if eb, ok := b.edges[key]; ok {
			mb = eb.Multiplicity
		} else {
			d.EdgesOnlyInA++
		}
		if ea.Multiplicity > mb && ea.Multiplicity-mb > d.MaxDeficit {
			d.MaxDeficit = ea.Multiplicity - mb
		}
	}
	for key, eb := range b.edges {
		var ma uint64
		if ea, ok := a.edges[key]; ok {
			ma = ea.Multiplicity
		} else {
			d.EdgesOnlyInB++
		}
		if eb.Multiplicity > ma && eb.Multiplicity-ma > d.MaxSurplus {
			d.MaxSurplus = eb.Multiplicity - ma
		}
	}
	return d
}
