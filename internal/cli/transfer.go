package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/refbio/refmap/dataset"
	"github.com/refbio/refmap/matrix"
	"github.com/refbio/refmap/transfer"
)

var (
	transferRefPath    string
	transferLabelsPath string
	transferQueryPath  string
	transferOutPath    string
	transferMethod     string
	transferK          int
	transferTrees      int
	transferSeed       int64
	transferWorkers    int
)

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Transfer reference labels to a projected query embedding",
	Long: `Transfer labels from reference samples to query samples.

Both embeddings must live in the same reference-derived component space (see
'refmap project'). Method "knn" votes over the k nearest reference neighbors
per query sample; "mnn" anchors on mutual nearest neighbors and reports a
confidence per sample, falling back to the single nearest neighbor at
confidence 0.01 for unanchored samples.

Examples:
  refmap transfer --ref-embedding ref.csv --labels labels.txt --query-embedding query.csv --out results.csv
  refmap transfer --method knn -k 15 --ref-embedding ref.csv --labels labels.txt --query-embedding query.csv --out results.csv`,
	RunE: runTransfer,
}

func init() {
	rootCmd.AddCommand(transferCmd)
	transferCmd.Flags().StringVar(&transferRefPath, "ref-embedding", "", "reference embedding CSV, samples x components (required)")
	transferCmd.Flags().StringVar(&transferLabelsPath, "labels", "", "reference labels, one per line (required)")
	transferCmd.Flags().StringVar(&transferQueryPath, "query-embedding", "", "query embedding CSV, samples x components (required)")
	transferCmd.Flags().StringVar(&transferOutPath, "out", "", "output results CSV (required)")
	transferCmd.Flags().StringVar(&transferMethod, "method", "", `transfer algorithm: "knn" or "mnn" (default from config)`)
	transferCmd.Flags().IntVarP(&transferK, "neighbors", "k", 0, "neighbors per query point (default from config)")
	transferCmd.Flags().IntVar(&transferTrees, "trees", 0, "random-projection trees per index (default from config)")
	transferCmd.Flags().Int64Var(&transferSeed, "seed", 0, "index construction seed (default from config)")
	transferCmd.Flags().IntVar(&transferWorkers, "workers", 0, "concurrent neighbor retrievals (default all cores)")
	_ = transferCmd.MarkFlagRequired("ref-embedding")
	_ = transferCmd.MarkFlagRequired("labels")
	_ = transferCmd.MarkFlagRequired("query-embedding")
	_ = transferCmd.MarkFlagRequired("out")
}

func runTransfer(cmd *cobra.Command, args []string) error {
	method := transferMethod
	if method == "" {
		method = cfg.Transfer.Method
	}
	if method != "knn" && method != "mnn" {
		return fmt.Errorf("unknown transfer method %q", method)
	}

	refEmbedding, err := dataset.ReadMatrix(transferRefPath)
	if err != nil {
		return err
	}

	labels, err := dataset.ReadLabels(transferLabelsPath)
	if err != nil {
		return err
	}

	refRows := matrix.Rows32(refEmbedding)
	if len(labels) != len(refRows) {
		return fmt.Errorf("%d labels for %d reference samples", len(labels), len(refRows))
	}

	queryEmbedding, err := dataset.ReadMatrix(transferQueryPath)
	if err != nil {
		return err
	}
	queryRows := matrix.Rows32(queryEmbedding)

	_, rc := refEmbedding.Dims()
	_, qc := queryEmbedding.Dims()
	if rc != qc {
		return fmt.Errorf("reference has %d components, query has %d", rc, qc)
	}

	k := transferK
	if k == 0 {
		k = cfg.Transfer.K
	}
	trees := transferTrees
	if trees == 0 {
		trees = cfg.Transfer.Trees
	}
	seed := transferSeed
	if seed == 0 {
		seed = cfg.Transfer.Seed
	}

	// knn retrieves one neighbor list per query point; mnn additionally
	// retrieves one per reference point for the mutuality test.
	total := len(queryRows)
	if method == "mnn" {
		total += len(refRows)
	}
	bar := progressbar.Default(int64(total), "transferring")

	engine := transfer.NewEngine(func(o *transfer.Options) {
		o.K = k
		o.Trees = trees
		o.SearchK = cfg.Transfer.SearchK
		o.Seed = seed
		o.Workers = transferWorkers
		o.Logger = logger.Logger
		o.OnProgress = func() { _ = bar.Add(1) }
	})

	logger.WithK(k).WithSamples(len(refRows), len(queryRows)).Info("transferring labels", "method", method)

	ctx := cmd.Context()

	var results []transfer.Result
	if method == "knn" {
		results, err = engine.KNN(ctx, refRows, labels, queryRows)
	} else {
		results, err = engine.MNN(ctx, refRows, labels, queryRows)
	}
	if err != nil {
		return err
	}
	_ = bar.Finish()

	if err := dataset.WriteResults(transferOutPath, results); err != nil {
		return err
	}

	fmt.Printf("labeled %d query samples -> %s\n", len(results), transferOutPath)

	return nil
}
