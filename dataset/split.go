package dataset

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

// Split is a stratified train/test partition. Train and Test are disjoint and
// together hold every record of the source dataset exactly once.
type Split struct {
	Train *Dataset
	Test  *Dataset

	// TrainRows and TestRows are positions in the source dataset.
	TrainRows []int
	TestRows  []int
}

// StratifiedSplit puts round(p·n_c) records of every label class c into the
// training set (at least one, and at least one left for testing), chosen by
// a shuffle seeded with seed. Both parts keep the source record order.
//
// The training size is normally within one record of round(p·n). At
// extreme fractions on small classes the one-record-per-class minimum wins:
// two records per class at p = 0.1 still put one of each into training.
//
// The same dataset, p and seed always produce the same split.
func StratifiedSplit(ds *Dataset, p float64, seed uint64) (*Split, error) {
	if !(p > 0 && p < 1) {
		return nil, errors.NewInvalidFractionError(p)
	}
	if !ds.HasLabels() {
		return nil, errors.NewValueError("StratifiedSplit", "dataset has no labels")
	}

	byClass := make(map[string][]int, 2)
	for i, l := range ds.labels {
		byClass[l] = append(byClass[l], i)
	}
	for _, lvl := range ds.levels {
		if n := len(byClass[lvl]); n < 2 {
			return nil, errors.NewInsufficientDataError("StratifiedSplit", lvl, n, 2)
		}
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	var train, test []int
	// Levels in fixed order so the random stream is consumed deterministically.
	for _, lvl := range ds.levels {
		rows := append([]int(nil), byClass[lvl]...)
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })

		nc := len(rows)
		k := int(math.Round(p * float64(nc)))
		if k < 1 {
			k = 1
		}
		if k > nc-1 {
			k = nc - 1
		}
		train = append(train, rows[:k]...)
		test = append(test, rows[k:]...)
	}
	sort.Ints(train)
	sort.Ints(test)

	trainDS, err := ds.Subset(train)
	if err != nil {
		return nil, err
	}
	testDS, err := ds.Subset(test)
	if err != nil {
		return nil, err
	}
	return &Split{Train: trainDS, Test: testDS, TrainRows: train, TestRows: test}, nil
}
