package dataset

import (
	"math"
	"math/rand/v2"
	"strconv"

	"gonum.org/v1/gonum/stat/distuv"
)

// Synthetic class labels. Class1 sorts first and is the positive class.
const (
	SyntheticPositive = "Class1"
	SyntheticNegative = "Class2"
)

// SyntheticFeatures is the number of numeric columns Synthetic generates.
const SyntheticFeatures = 4

// Synthetic generates n records of a two-class problem: round(positive·n)
// records of Class1, the rest Class2. Numeric features x1..x4 are Gaussian
// with class-dependent means (x4 is pure noise); the categorical feature
// "group" leans towards level "a" for Class1.
func Synthetic(n int, positive float64, seed uint64) (*Dataset, error) {
	src := rand.NewPCG(seed, seed+1)
	rng := rand.New(src)
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(seed^0x5eed, seed+2)}

	nPos := int(math.Round(positive * float64(n)))
	labels := make([]string, n)
	for i := range labels {
		labels[i] = SyntheticNegative
		if i < nPos {
			labels[i] = SyntheticPositive
		}
	}
	rng.Shuffle(n, func(i, j int) { labels[i], labels[j] = labels[j], labels[i] })

	shift := [SyntheticFeatures]float64{1.2, -0.8, 0.5, 0}
	cols := make([][]float64, SyntheticFeatures)
	for j := range cols {
		cols[j] = make([]float64, n)
	}
	group := make([]string, n)
	for i, l := range labels {
		sign := -0.5
		if l == SyntheticPositive {
			sign = 0.5
		}
		for j := range cols {
			cols[j][i] = norm.Rand() + sign*shift[j]
		}
		// x3 には x1 との交互作用を入れる
		cols[2][i] += 0.4 * cols[0][i] * sign
		u := rng.Float64()
		switch {
		case l == SyntheticPositive && u < 0.5, l != SyntheticPositive && u < 0.2:
			group[i] = "a"
		case u < 0.75:
			group[i] = "b"
		default:
			group[i] = "c"
		}
	}

	features := make([]Feature, 0, SyntheticFeatures+1)
	for j, c := range cols {
		features = append(features, NumericFeature("x"+strconv.Itoa(j+1), c))
	}
	features = append(features, Feature{Name: "group", Kind: Categorical, Cat: group, Levels: []string{"a", "b", "c"}})
	return New(features, "Class", labels)
}
