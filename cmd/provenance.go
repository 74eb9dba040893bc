package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(provenanceCmd)
	provenanceCmd.AddCommand(provenanceListCmd, provenanceShowCmd)
}

var provenanceCmd = &cobra.Command{
	Use:   "provenance",
	Short: "Inspect the recorded tool executions of prepared submissions",
}

var provenanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded provenance graphs, newest first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := newConsole()
		db, err := loadDependencies().openStore()
		cobra.CheckErr(err)
		defer db.Close()

		runs, err := db.Runs(cmd.Context())
		cobra.CheckErr(err)

		for _, run := range runs {
			out.Info("%s  %s  %-24s %d steps", run.RunID, run.CreatedAt.Format(time.RFC3339), run.Name, run.Steps)
		}
		cobra.CheckErr(out.Json(runs))
	},
}

var provenanceShowCmd = &cobra.Command{
	Use:   "show <provenance-id>",
	Short: "Show every tool execution of a graph and the steps it consumed",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		out := newConsole()
		db, err := loadDependencies().openStore()
		cobra.CheckErr(err)
		defer db.Close()

		g, err := db.LoadGraph(cmd.Context(), args[0])
		cobra.CheckErr(err)

		for _, step := range g.All() {
			out.Info("[%d] %s %s (%s)", step.ID(), step.ToolName(), step.ToolVersion(), step.ExecutionManagerID())
			out.Verbose("    created: %s", step.CreatedAt().Format(time.RFC3339))
			if params := formatParams(step.ExecutionTimeParameters()); params != "" {
				out.Info("    params: %s", params)
			}
			if step.IsInputTool() {
				continue
			}
			ancestors, err := g.Ancestors(step.ID())
			cobra.CheckErr(err)
			ids := make([]string, len(ancestors))
			for i, a := range ancestors {
				ids[i] = fmt.Sprintf("%d", a.ID())
			}
			out.Info("    consumed: %s", strings.Join(ids, ", "))
		}
		cobra.CheckErr(out.Json(g.Records()))
	},
}

func formatParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + params[k]
	}
	return strings.Join(pairs, " ")
}
