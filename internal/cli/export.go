package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export patients and tests as JSON",
		Long:  "Export all patients with their tests as a JSON array, the format read by import.",
		Run:   runExport,
	}

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	patients, err := s.ExportAll(cmd.Context())
	if err != nil {
		exitErr("export", err)
	}
	printJSON(patients)
}
