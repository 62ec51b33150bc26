package model_selection_test

import (
	"fmt"

	ms "github.com/YuminosukeSato/tuneflow/sklearn/model_selection"
)

func ExampleNewControl() {
	c := ms.NewControl(
		ms.WithNumber(10),
		ms.WithRepeats(3),
		ms.WithSummary(ms.TwoClassSummary),
	)
	fmt.Println(c.Validate() == nil, c.Cycles(), c.Summary.DefaultMetric())
	// Output: true 30 ROC
}

func ExampleStratifiedKFold() {
	codes := []int{1, 1, 1, 1, 0, 0, 0, 0, 0, 0}
	folds, err := ms.StratifiedKFold(codes, 2, 42, 1)
	if err != nil {
		panic(err)
	}
	for _, f := range folds {
		fmt.Println(f.Name(), len(f.Train), len(f.HoldOut))
	}
	// Output:
	// Fold01.Rep01 5 5
	// Fold02.Rep01 5 5
}
