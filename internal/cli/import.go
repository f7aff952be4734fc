package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/ekg-analyzer/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import patients and tests from JSON",
		Long:  "Import patients and tests from JSON (file or stdin). Expects the format produced by export; existing records are skipped.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func readAllStdin() ([]byte, error) {
	return io.ReadAll(os.Stdin)
}

func runImport(cmd *cobra.Command, args []string) {
	var data []byte
	var err error
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = readAllStdin()
	}
	if err != nil {
		exitErr("read input", err)
	}

	var patients []model.Patient
	if err := json.Unmarshal(data, &patients); err != nil {
		exitErr("parse json", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	imported, err := s.Import(cmd.Context(), patients)
	if err != nil {
		exitErr("import", err)
	}

	fmt.Printf(`{"ok":true,"imported":%d}`+"\n", imported)
}
