package model_test

import (
	"fmt"

	"github.com/YuminosukeSato/tuneflow/core/model"
)

func ExampleGrid_Configs() {
	g := model.NewGrid().
		Add("interaction_depth", 1, 2).
		Add("n_trees", 50, 100)
	for _, cfg := range g.Configs() {
		fmt.Println(cfg)
	}
	// Output:
	// interaction_depth=1, n_trees=50
	// interaction_depth=2, n_trees=50
	// interaction_depth=1, n_trees=100
	// interaction_depth=2, n_trees=100
}
