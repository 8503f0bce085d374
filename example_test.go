package refmap_test

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/refbio/refmap"
	"github.com/refbio/refmap/reference"
)

func Example() {
	// A tiny two-component basis over four features.
	loadings := mat.NewDense(4, 2, []float64{
		1, 0,
		0, 1,
		0, 0,
		0, 0,
	})
	basis, err := reference.NewBasis(loadings, nil)
	if err != nil {
		panic(err)
	}

	// Reference embedding: two well-separated groups.
	refEmbedding := mat.NewDense(4, 2, []float64{
		10, 0,
		10.2, 0.1,
		0, 10,
		0.1, 10.2,
	})

	ref, err := reference.New(basis, refEmbedding, []string{"A", "A", "B", "B"}, nil)
	if err != nil {
		panic(err)
	}

	m, err := refmap.New(ref, refmap.WithK(2), refmap.WithSeed(42))
	if err != nil {
		panic(err)
	}

	// Query features aligned to the same four features; the projection keeps
	// the first two.
	queryFeatures := mat.NewDense(2, 4, []float64{
		10.1, 0, 3, 7,
		0, 10.1, 2, 5,
	})

	queryEmbedding, err := m.Project(queryFeatures)
	if err != nil {
		panic(err)
	}

	results, err := m.TransferKNN(context.Background(), queryEmbedding)
	if err != nil {
		panic(err)
	}

	for i, r := range results {
		fmt.Printf("query %d -> %s\n", i, r.Label)
	}
	// Output:
	// query 0 -> A
	// query 1 -> B
}
