package ensemble

// Node is one node of a regression tree. Leaves have Left == Right == -1.
type Node struct {
	Feature   int     // split feature (internal nodes)
	Threshold float64 // rows with x[Feature] <= Threshold go left
	Gain      float64 // split gain
	Left      int
	Right     int
	Value     float64 // leaf output, shrinkage already applied
	Count     int     // in-bag rows that reached the node
}

// IsLeaf returns true if the node is a leaf node
func (n *Node) IsLeaf() bool {
	return n.Left == -1 && n.Right == -1
}

// Tree is one boosting stage. Nodes[0] is the root.
type Tree struct {
	Nodes []Node
}

// Predict returns the tree output for a single row.
func (t *Tree) Predict(row []float64) float64 {
	id := 0
	for {
		n := &t.Nodes[id]
		if n.IsLeaf() {
			return n.Value
		}
		if row[n.Feature] <= n.Threshold {
			id = n.Left
		} else {
			id = n.Right
		}
	}
}

// NumLeaves counts terminal nodes.
func (t *Tree) NumLeaves() int {
	leaves := 0
	for i := range t.Nodes {
		if t.Nodes[i].IsLeaf() {
			leaves++
		}
	}
	return leaves
}
