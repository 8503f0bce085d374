// Package refmap annotates unlabeled query samples with categorical labels
// from a labeled reference dataset, without retraining any model.
//
// A reference dataset contributes three frozen inputs: an embedding basis
// (the feature loadings of a principal-component decomposition), the
// reference sample embedding, and per-sample labels. Query feature vectors,
// aligned to the same feature set and centered with the reference means, are
// projected through the basis into the shared embedding space. Labels are
// then transferred from the nearest reference samples under angular
// distance, using either one-sided k-nearest-neighbor majority voting or
// mutual-nearest-neighbor anchors with a scored fallback.
//
// # Quick Start
//
//	ref, err := reference.New(basis, refEmbedding, refLabels, refMeans)
//	if err != nil {
//	    panic(err)
//	}
//
//	m, err := refmap.New(ref,
//	    refmap.WithK(30),
//	    refmap.WithTrees(10),
//	)
//	if err != nil {
//	    panic(err)
//	}
//
//	queryEmbedding, err := m.Project(queryFeatures)
//	if err != nil {
//	    panic(err)
//	}
//
//	results, err := m.TransferMNN(ctx, queryEmbedding)
//	if err != nil {
//	    panic(err)
//	}
//	for i, r := range results {
//	    fmt.Printf("sample %d: %s (%.2f)\n", i, r.Label, r.Confidence)
//	}
//
// # Packages
//
//   - reference: validated basis, reference embedding, labels and means
//   - projection: centering and basis projection (gonum)
//   - index/annoy: angular-distance random-projection forest
//   - transfer: kNN and MNN label transfer engines
//   - dataset: CSV/zstd matrix and label I/O for the CLI
//
// All operations are deterministic given fixed inputs and a fixed seed.
package refmap
