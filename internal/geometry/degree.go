package geometry

import "math"

// Node is a network intersection point.
type Node struct {
	X, Y float64
}

// NodeKey snaps a coordinate to a node. With tolerance <= 0 the coordinate
// is used as is.
func NodeKey(x, y, tolerance float64) Node {
	if tolerance <= 0 {
		return Node{X: x, Y: y}
	}
	return Node{
		X: math.Round(x/tolerance) * tolerance,
		Y: math.Round(y/tolerance) * tolerance,
	}
}

// DegreeMap maps nodes to the number of incident feature ends. Nodes keep
// the order in which they were first seen.
type DegreeMap struct {
	order  []Node
	degree map[Node]int
}

// NewDegreeMap creates an empty degree map.
func NewDegreeMap() *DegreeMap {
	return &DegreeMap{degree: make(map[Node]int)}
}

// Add increments the degree of a node.
func (d *DegreeMap) Add(n Node) {
	if _, ok := d.degree[n]; !ok {
		d.order = append(d.order, n)
	}
	d.degree[n]++
}

// Len returns the number of nodes.
func (d *DegreeMap) Len() int {
	return len(d.order)
}

// Degree returns the degree of a node, 0 if unknown.
func (d *DegreeMap) Degree(n Node) int {
	return d.degree[n]
}

// Nodes returns all nodes in first-seen order.
func (d *DegreeMap) Nodes() []Node {
	out := make([]Node, len(d.order))
	copy(out, d.order)
	return out
}

// Min returns the smallest degree present, false when the map is empty.
func (d *DegreeMap) Min() (int, bool) {
	if len(d.order) == 0 {
		return 0, false
	}
	lowest := math.MaxInt
	for _, n := range d.order {
		if v := d.degree[n]; v < lowest {
			lowest = v
		}
	}
	return lowest, true
}

// AtDegree returns the nodes with exactly the given degree, in first-seen order.
func (d *DegreeMap) AtDegree(degree int) []Node {
	var out []Node
	for _, n := range d.order {
		if d.degree[n] == degree {
			out = append(out, n)
		}
	}
	return out
}
