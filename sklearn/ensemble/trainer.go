package ensemble

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

// hessEpsilon keeps leaf values finite when a leaf is almost pure.
const hessEpsilon = 1e-10

// splitInfo is the best split found for one leaf.
type splitInfo struct {
	feature   int
	threshold float64
	gain      float64
	leftGrad  float64
	leftHess  float64
	rightGrad float64
	rightHess float64
	ok        bool
}

// trainer runs Bernoulli-deviance boosting. It owns all mutable state of a
// single Fit call and is discarded afterwards.
type trainer struct {
	params Params
	rng    *rand.Rand

	n, d   int
	cols   [][]float64 // column-major copy of X
	rows   [][]float64 // row-major copy of X, for prediction
	y      []float64
	orders [][]int // row indices sorted by each feature

	score     []float64
	gradients []float64
	hessians  []float64
	leafOf    []int // current leaf of every row; -1 when out of bag

	importance []float64
}

func newTrainer(X mat.Matrix, y []int, params Params, seed uint64) *trainer {
	n, d := X.Dims()
	t := &trainer{
		params:     params,
		rng:        rand.New(rand.NewPCG(seed, 0x6762_6d)),
		n:          n,
		d:          d,
		cols:       make([][]float64, d),
		rows:       make([][]float64, n),
		y:          make([]float64, n),
		orders:     make([][]int, d),
		score:      make([]float64, n),
		gradients:  make([]float64, n),
		hessians:   make([]float64, n),
		leafOf:     make([]int, n),
		importance: make([]float64, d),
	}
	for i := 0; i < n; i++ {
		t.rows[i] = mat.Row(nil, i, X)
		t.y[i] = float64(y[i])
	}
	for j := 0; j < d; j++ {
		col := mat.Col(nil, j, X)
		t.cols[j] = col
		order := make([]int, n)
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return col[order[a]] < col[order[b]] })
		t.orders[j] = order
	}
	return t
}

// initScore is the log-odds of the positive class rate.
func (t *trainer) initScore() float64 {
	sum := 0.0
	for _, v := range t.y {
		sum += v
	}
	return errors.Logit(sum/float64(t.n), 1e-6)
}

func (t *trainer) run() (*GradientBoostingClassifier, error) {
	init := t.initScore()
	for i := range t.score {
		t.score[i] = init
	}

	trees := make([]Tree, 0, t.params.NTrees)
	for iter := 0; iter < t.params.NTrees; iter++ {
		t.calculateGradients()
		t.drawBag()
		tree := t.buildTree()
		for i := range tree.Nodes {
			if err := errors.CheckScalar("GradientBoosting.Fit", tree.Nodes[i].Value, iter); err != nil {
				return nil, err
			}
		}
		for i, row := range t.rows {
			t.score[i] += tree.Predict(row)
		}
		trees = append(trees, tree)
	}

	return &GradientBoostingClassifier{
		params:     t.params,
		initScore:  init,
		trees:      trees,
		nFeatures:  t.d,
		importance: normalizeImportance(t.importance),
	}, nil
}

// calculateGradients computes first and second derivatives of the
// Bernoulli deviance at the current scores.
func (t *trainer) calculateGradients() {
	for i, f := range t.score {
		p := errors.Sigmoid(f)
		t.gradients[i] = p - t.y[i]
		t.hessians[i] = p * (1 - p)
	}
}

// drawBag marks the in-bag rows of this iteration with leaf 0.
func (t *trainer) drawBag() {
	if t.params.BagFraction >= 1 {
		for i := range t.leafOf {
			t.leafOf[i] = 0
		}
		return
	}
	for i := range t.leafOf {
		t.leafOf[i] = -1
	}
	k := max(1, int(math.Floor(t.params.BagFraction*float64(t.n))))
	for _, i := range t.rng.Perm(t.n)[:k] {
		t.leafOf[i] = 0
	}
}

// buildTree grows one tree leaf-wise: each step splits the leaf with the
// highest gain until InteractionDepth splits are made or no leaf can split.
func (t *trainer) buildTree() Tree {
	tree := Tree{Nodes: []Node{t.newLeaf(0)}}
	candidates := map[int]splitInfo{0: t.findBestSplit(0)}

	for s := 0; s < t.params.InteractionDepth; s++ {
		best, bestSplit := -1, splitInfo{}
		// 決定的にするためノード番号順に走査する
		for id := 0; id < len(tree.Nodes); id++ {
			info, ok := candidates[id]
			if !ok || !info.ok {
				continue
			}
			if best == -1 || info.gain > bestSplit.gain {
				best, bestSplit = id, info
			}
		}
		if best == -1 {
			break
		}
		delete(candidates, best)

		left, right := len(tree.Nodes), len(tree.Nodes)+1
		tree.Nodes[best].Feature = bestSplit.feature
		tree.Nodes[best].Threshold = bestSplit.threshold
		tree.Nodes[best].Gain = bestSplit.gain
		tree.Nodes[best].Left = left
		tree.Nodes[best].Right = right
		t.importance[bestSplit.feature] += bestSplit.gain

		col := t.cols[bestSplit.feature]
		for i, leaf := range t.leafOf {
			if leaf != best {
				continue
			}
			if col[i] <= bestSplit.threshold {
				t.leafOf[i] = left
			} else {
				t.leafOf[i] = right
			}
		}
		tree.Nodes = append(tree.Nodes,
			t.leafNode(left, bestSplit.leftGrad, bestSplit.leftHess),
			t.leafNode(right, bestSplit.rightGrad, bestSplit.rightHess))
		candidates[left] = t.findBestSplit(left)
		candidates[right] = t.findBestSplit(right)
	}
	return tree
}

func (t *trainer) newLeaf(id int) Node {
	g, h := 0.0, 0.0
	for i, leaf := range t.leafOf {
		if leaf == id {
			g += t.gradients[i]
			h += t.hessians[i]
		}
	}
	return t.leafNode(id, g, h)
}

func (t *trainer) leafNode(id int, grad, hess float64) Node {
	count := 0
	for _, leaf := range t.leafOf {
		if leaf == id {
			count++
		}
	}
	return Node{
		Feature: -1,
		Left:    -1,
		Right:   -1,
		Value:   t.params.Shrinkage * t.calculateLeafValue(grad, hess),
		Count:   count,
	}
}

// calculateLeafValue is the Newton step -G/(H+lambda).
func (t *trainer) calculateLeafValue(grad, hess float64) float64 {
	return -grad / (hess + t.params.Lambda + hessEpsilon)
}

func (t *trainer) calculateSplitGain(leftGrad, leftHess, rightGrad, rightHess, totalGrad, totalHess float64) float64 {
	lambda := t.params.Lambda + hessEpsilon
	leftScore := (leftGrad * leftGrad) / (leftHess + lambda)
	rightScore := (rightGrad * rightGrad) / (rightHess + lambda)
	totalScore := (totalGrad * totalGrad) / (totalHess + lambda)
	return 0.5 * (leftScore + rightScore - totalScore)
}

// findBestSplit scans every feature of a leaf. Both children must hold at
// least MinObsInNode in-bag rows; the threshold is the midpoint between
// adjacent distinct values.
func (t *trainer) findBestSplit(leaf int) splitInfo {
	var totalGrad, totalHess float64
	count := 0
	for i, l := range t.leafOf {
		if l == leaf {
			totalGrad += t.gradients[i]
			totalHess += t.hessians[i]
			count++
		}
	}
	best := splitInfo{}
	if count < 2*t.params.MinObsInNode {
		return best
	}

	idx := make([]int, 0, count)
	for j := 0; j < t.d; j++ {
		idx = idx[:0]
		for _, i := range t.orders[j] {
			if t.leafOf[i] == leaf {
				idx = append(idx, i)
			}
		}
		col := t.cols[j]
		var leftGrad, leftHess float64
		for k := 0; k < len(idx)-1; k++ {
			i := idx[k]
			leftGrad += t.gradients[i]
			leftHess += t.hessians[i]
			if col[i] == col[idx[k+1]] {
				continue
			}
			nLeft := k + 1
			if nLeft < t.params.MinObsInNode || count-nLeft < t.params.MinObsInNode {
				continue
			}
			rightGrad, rightHess := totalGrad-leftGrad, totalHess-leftHess
			gain := t.calculateSplitGain(leftGrad, leftHess, rightGrad, rightHess, totalGrad, totalHess)
			if gain > 0 && (!best.ok || gain > best.gain) {
				best = splitInfo{
					feature:   j,
					threshold: (col[i] + col[idx[k+1]]) / 2,
					gain:      gain,
					leftGrad:  leftGrad,
					leftHess:  leftHess,
					rightGrad: rightGrad,
					rightHess: rightHess,
					ok:        true,
				}
			}
		}
	}
	return best
}

// normalizeImportance scales total gains to sum to 100, like gbm's
// relative influence.
func normalizeImportance(gains []float64) []float64 {
	total := 0.0
	for _, g := range gains {
		total += g
	}
	out := make([]float64, len(gains))
	if total == 0 {
		return out
	}
	for j, g := range gains {
		out[j] = 100 * g / total
	}
	return out
}
