package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := s.Stats(cmd.Context(), getDBPath())
	if err != nil {
		exitErr("stats", err)
	}

	if textOutput() {
		fmt.Printf("%s (%d bytes)\n", stats.DBPath, stats.DBSizeBytes)
		fmt.Printf("patients %d, tests %d, analyses %d\n", stats.TotalPatients, stats.TotalTests, stats.TotalAnalyses)
		for _, p := range stats.Patients {
			fmt.Printf("  %s\t%d tests\t%d analyzed\n", p.Username, p.Tests, p.Analyzed)
		}
		return
	}
	printJSON(stats)
}
