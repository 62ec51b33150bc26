package model_selection

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/YuminosukeSato/tuneflow/pkg/errors"
)

// Resample is one fit/evaluate cycle: fit on Train, score on HoldOut.
// Indices are row positions in the training data, ascending.
type Resample struct {
	Repeat    int // 1-based
	Fold      int // 1-based; bootstrap iteration for boot
	Bootstrap bool
	Train     []int
	HoldOut   []int
}

// Name is the caret-style label, "Fold03.Rep02" or "Resample07".
func (r Resample) Name() string {
	if r.Bootstrap {
		return fmt.Sprintf("Resample%02d", r.Fold)
	}
	return fmt.Sprintf("Fold%02d.Rep%02d", r.Fold, r.Repeat)
}

// StratifiedKFold partitions rows into k folds with class proportions
// preserved. Each class is shuffled with PCG(seed, repeat) and dealt
// round-robin, the deal continuing across classes, so fold sizes differ by
// at most one. A class smaller than k leaves some folds without it.
func StratifiedKFold(codes []int, k int, seed uint64, repeat int) ([]Resample, error) {
	n := len(codes)
	if k < 2 {
		return nil, errors.NewValidationError("number", "k-fold needs at least 2 folds", k)
	}
	if k > n {
		return nil, errors.NewInsufficientDataError("StratifiedKFold", "", n, k)
	}

	rng := rand.New(rand.NewPCG(seed, uint64(repeat)))
	fold := make([]int, n)
	next := 0
	for _, class := range []int{1, 0} {
		var rows []int
		for i, c := range codes {
			if c == class {
				rows = append(rows, i)
			}
		}
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
		for _, r := range rows {
			fold[r] = next % k
			next++
		}
	}

	out := make([]Resample, k)
	for f := range out {
		out[f] = Resample{Repeat: repeat, Fold: f + 1}
	}
	for i, f := range fold {
		for g := range out {
			if g == f {
				out[g].HoldOut = append(out[g].HoldOut, i)
			} else {
				out[g].Train = append(out[g].Train, i)
			}
		}
	}
	return out, nil
}

// Bootstrap draws iterations samples of size n with replacement; each
// hold-out is the out-of-bag rows of its sample. Train keeps duplicates.
func Bootstrap(n, iterations int, seed uint64) ([]Resample, error) {
	if n < 2 {
		return nil, errors.NewInsufficientDataError("Bootstrap", "", n, 2)
	}
	rng := rand.New(rand.NewPCG(seed, 0xb007))
	out := make([]Resample, iterations)
	for b := range out {
		inBag := make([]bool, n)
		train := make([]int, n)
		for i := range train {
			train[i] = rng.IntN(n)
			inBag[train[i]] = true
		}
		slices.Sort(train)
		var oob []int
		for i, in := range inBag {
			if !in {
				oob = append(oob, i)
			}
		}
		out[b] = Resample{Repeat: 1, Fold: b + 1, Bootstrap: true, Train: train, HoldOut: oob}
	}
	return out, nil
}

// Resamples builds every cycle control asks for over the labels codes.
// The result depends only on codes and control, so every configuration and
// every model trained with the same control sees the same resamples.
func Resamples(codes []int, control Control) ([]Resample, error) {
	if err := control.Validate(); err != nil {
		return nil, err
	}
	if control.Method == MethodBoot {
		return Bootstrap(len(codes), control.Number, control.Seed)
	}
	var out []Resample
	for rep := 1; rep <= control.EffectiveRepeats(); rep++ {
		folds, err := StratifiedKFold(codes, control.Number, control.Seed, rep)
		if err != nil {
			return nil, err
		}
		out = append(out, folds...)
	}
	return out, nil
}
