package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/refbio/refmap/dataset"
	"github.com/refbio/refmap/projection"
	"github.com/refbio/refmap/reference"
)

var (
	projectBasisPath string
	projectMeansPath string
	projectQueryPath string
	projectOutPath   string
	projectComps     int
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project query features into the reference embedding space",
	Long: `Project a query feature matrix through a reference loading matrix.

The query matrix must be restricted to the reference's feature set, in the
same feature order. When --means is given the query is centered with the
reference per-feature means before projection; without it the input is
assumed to be centered already.

Examples:
  refmap project --basis loadings.csv --means means.txt --query query.csv --out embedding.csv
  refmap project --basis loadings.csv.zst --query query.csv --components 50 --out embedding.csv`,
	RunE: runProject,
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.Flags().StringVar(&projectBasisPath, "basis", "", "loading matrix CSV, features x components (required)")
	projectCmd.Flags().StringVar(&projectMeansPath, "means", "", "reference per-feature means, one per line")
	projectCmd.Flags().StringVar(&projectQueryPath, "query", "", "query feature matrix CSV, samples x features (required)")
	projectCmd.Flags().StringVar(&projectOutPath, "out", "", "output embedding CSV (required)")
	projectCmd.Flags().IntVar(&projectComps, "components", 0, "retained components (default from config)")
	_ = projectCmd.MarkFlagRequired("basis")
	_ = projectCmd.MarkFlagRequired("query")
	_ = projectCmd.MarkFlagRequired("out")
}

func runProject(cmd *cobra.Command, args []string) error {
	loadings, err := dataset.ReadMatrix(projectBasisPath)
	if err != nil {
		return err
	}

	components := projectComps
	if components == 0 {
		components = cfg.Project.Components
	}
	loadings = truncateColumns(loadings, components)

	basis, err := reference.NewBasis(loadings, nil)
	if err != nil {
		return err
	}

	features, err := dataset.ReadMatrix(projectQueryPath)
	if err != nil {
		return err
	}

	if projectMeansPath != "" {
		means, err := dataset.ReadVector(projectMeansPath)
		if err != nil {
			return err
		}
		if err := projection.CenterInPlace(features, means); err != nil {
			return err
		}
	} else {
		logger.Warn("no reference means supplied; assuming query is centered with reference statistics")
	}

	embedding, err := projection.Project(features, basis)
	if err != nil {
		return err
	}

	if err := dataset.WriteMatrix(projectOutPath, embedding); err != nil {
		return err
	}

	n, c := embedding.Dims()
	fmt.Printf("projected %d samples into %d components -> %s\n", n, c, projectOutPath)

	return nil
}

// truncateColumns keeps the first r columns of m; r <= 0 or r >= cols keeps all.
func truncateColumns(m *mat.Dense, r int) *mat.Dense {
	rows, cols := m.Dims()
	if r <= 0 || r >= cols {
		return m
	}
	return m.Slice(0, rows, 0, r).(*mat.Dense)
}
