package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dfornika/irida/internal/config"
	"github.com/dfornika/irida/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var noTUI bool

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&noTUI, "no-tui", false, "Skip the interactive prompt and use defaults")
}

var initCmd = &cobra.Command{
	Use:   "init [workspace-name]",
	Args:  cobra.MaximumNArgs(1),
	Short: "Scaffold a new irida workspace",
	Long: `Initialize a new irida workspace by scaffolding the required structure:
  - A starter irida.yml configuration file
  - An example submission.yml manifest
  - A .irida/ directory for provenance, execution records and logs

This command launches an interactive prompt to collect your Galaxy URL, API key
and workspace name. Use --no-tui with an optional [workspace-name] for scripting.`,
	Run: func(cmd *cobra.Command, args []string) {
		workspaceArg := ""
		if len(args) > 0 {
			workspaceArg = args[0]
		}

		var answers initAnswers
		if noTUI {
			answers = initialInitModel(workspaceArg).answers()
		} else {
			var canceled bool
			answers, canceled = RunInitTUI(workspaceArg)
			if canceled {
				fmt.Println("✖ irida init canceled.")
				return
			}
		}

		targetDir := answers.WorkspaceName
		name := answers.WorkspaceName
		if name == "." {
			cwd, _ := os.Getwd()
			name = filepath.Base(cwd)
		}

		if targetDir != "." {
			cobra.CheckErr(mustNotExist(targetDir))
			cobra.CheckErr(os.MkdirAll(targetDir, 0755))
		}

		fmt.Printf("↪ scaffolding new workspace %q ...\n", name)

		cobra.CheckErr(mustNotExist(filepath.Join(targetDir, ".irida")))
		for _, dir := range []string{"records", "logs"} {
			cobra.CheckErr(os.MkdirAll(filepath.Join(targetDir, ".irida", dir), 0755))
		}
		cobra.CheckErr(os.MkdirAll(filepath.Join(targetDir, "data"), 0755))

		files := map[string]any{
			config.DefaultConfigPath: starterConfig(answers),
			"submission.yml":         starterManifest(name),
		}
		for outName, doc := range files {
			cobra.CheckErr(writeYAML(filepath.Join(targetDir, outName), doc))
		}

		fmt.Printf("✓ workspace %q initialized!\n", name)
	},
}

func starterConfig(a initAnswers) *types.Config {
	cfg := &types.Config{}
	cfg.Galaxy.URL = a.GalaxyURL
	cfg.Galaxy.APIKey = a.APIKey
	cfg.Config.Concurrency = 5
	cfg.Storage.ProvenanceDB = config.DefaultProvenanceDB
	return cfg
}

func starterManifest(name string) *types.Manifest {
	return &types.Manifest{
		Name:      name,
		Reference: "data/reference.fasta",
		Workflow: types.ManifestWorkflow{
			ID:                 "<workflow-id>",
			SequenceFilesLabel: "sequence_reads_paired",
			ReferenceFileLabel: "reference",
		},
		Samples: []types.ManifestSample{
			{Name: "sample1", Files: []string{"data/sample1.fastq"}},
		},
	}
}

func mustNotExist(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return fmt.Errorf("refusing to overwrite %q: it already exists", path)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func writeYAML(path string, doc any) error {
	if err := mustNotExist(path); err != nil {
		return err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
