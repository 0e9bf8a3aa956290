package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/newsverdict/internal/artifact"
	"github.com/ppiankov/newsverdict/internal/model"
)

var (
	artifactsDir   string
	artifactsStore string
)

// artifactsCmd represents the artifacts command
var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "Manage the vectorizer and classifier artifacts",
	Long: `Artifacts are two JSON files exported from the training pipeline:
<dir>/vectorizer.json (vocabulary, idf weights, n-gram range, norm) and
<dir>/classifier.json (classes, coefficients, intercepts).

They can be loaded from the directory directly or imported into a single
bbolt store file (model.store).`,
}

var artifactsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Validate JSON artifacts and import them into a bbolt store",
	Long: `Import validates that the vectorizer and classifier load and share a feature
space, then writes both into the store file.

Example:
  newsverdict artifacts import --dir ./artifacts --store ./model.db`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir := firstNonEmpty(artifactsDir, cfg.Model.Dir)
		store := firstNonEmpty(artifactsStore, cfg.Model.Store)
		if store == "" {
			return fmt.Errorf("--store is required (or set model.store)")
		}

		if err := artifact.ImportDir(dir, store, artifactNames(cfg.Model)); err != nil {
			return fmt.Errorf("import artifacts: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported artifacts from %s into %s\n", dir, store)
		return nil
	},
}

var artifactsInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Load the artifacts and print their shape",
	Long: `Inspect loads the artifacts from --store, --dir or the configuration and
prints the feature count, n-gram range, norm and classes.

Example:
  newsverdict artifacts inspect
  newsverdict artifacts inspect --store ./model.db --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var (
			m      *artifact.Model
			source string
		)
		names := artifactNames(cfg.Model)
		switch {
		case artifactsStore != "" || (artifactsDir == "" && cfg.Model.Store != ""):
			source = firstNonEmpty(artifactsStore, cfg.Model.Store)
			m, err = artifact.LoadBolt(source, names)
		default:
			source = firstNonEmpty(artifactsDir, cfg.Model.Dir)
			m, err = artifact.LoadDir(source, names)
		}
		if err != nil {
			return fmt.Errorf("load artifacts: %w", err)
		}

		info := m.Info()
		info["source"] = source
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, info)
		}
		fmt.Fprintf(out, "Source:      %s\n", source)
		fmt.Fprintf(out, "Features:    %v\n", info["features"])
		fmt.Fprintf(out, "N-gram:      %v\n", info["ngram_range"])
		fmt.Fprintf(out, "Norm:        %v\n", info["norm"])
		fmt.Fprintf(out, "Classes:     %v\n", info["classes"])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(artifactsCmd)
	artifactsCmd.AddCommand(artifactsImportCmd)
	artifactsCmd.AddCommand(artifactsInspectCmd)

	artifactsCmd.PersistentFlags().StringVar(&artifactsDir, "dir", "", "artifact directory (default: model.dir)")
	artifactsCmd.PersistentFlags().StringVar(&artifactsStore, "store", "", "bbolt store file (default: model.store)")
}

func artifactNames(cfg model.ModelConfig) artifact.Names {
	return artifact.Names{Vectorizer: cfg.VectorizerName, Classifier: cfg.ClassifierName}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
