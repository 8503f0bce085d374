// Package cli implements the refmap command line interface.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/refbio/refmap"
	"github.com/refbio/refmap/config"
)

var (
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *refmap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "refmap",
	Short: "Project query samples into a reference embedding and transfer labels",
	Long: `refmap annotates unlabeled query samples using a labeled reference dataset.

Query feature vectors are projected into the reference's principal-component
embedding space, then labels are transferred from the nearest reference
samples by approximate nearest-neighbor search under angular distance.

Example usage:
  refmap project --basis loadings.csv --means means.txt --query query.csv --out query_embedding.csv
  refmap transfer --ref-embedding ref.csv --labels labels.txt --query-embedding query_embedding.csv --out results.csv`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return err
			}
		} else {
			cfg = config.Default()
		}

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = refmap.NewTextLogger(level)

		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
