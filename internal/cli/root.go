// Package cli implements the ekg CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/ekg-analyzer/internal/config"
	"github.com/rcliao/ekg-analyzer/internal/ekg"
	"github.com/rcliao/ekg-analyzer/internal/logging"
	"github.com/rcliao/ekg-analyzer/internal/store"
)

var (
	dbPath     string
	configPath string
	formatFlag string
	verbose    bool

	cfg    = config.Default()
	logger = zap.NewNop()
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "ekg",
	Short: "EKG recording analysis",
	Long:  "Detect R-peaks in EKG recordings, compute heart-rate statistics and flag anomalies. Patients and tests are kept in SQLite.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = c

		l, err := logging.New(verbose)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $EKG_DB or ~/.ekg/ekg.db)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $EKG_CONFIG or ~/.ekg/config.yaml)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging to stderr")
	RootCmd.PersistentFlags().Int("distance", ekg.DefaultMinDistance, "Minimum samples between R-peaks")
	RootCmd.PersistentFlags().Float64("height", ekg.DefaultMinHeight, "Minimum R-peak amplitude in mV")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return cfg.DB
}

func openStore() (*store.SQLiteStore, error) {
	logger.Debug("open store", zap.String("path", getDBPath()))
	return store.NewSQLiteStore(getDBPath())
}

// peakParams returns the configured detection parameters with any
// --distance/--height flag given on the command line applied on top.
func peakParams(cmd *cobra.Command, base ekg.PeakParams) (ekg.PeakParams, error) {
	p := base
	if f := cmd.Flags().Lookup("distance"); f != nil && f.Changed {
		p.MinDistance, _ = cmd.Flags().GetInt("distance")
	}
	if f := cmd.Flags().Lookup("height"); f != nil && f.Changed {
		p.MinHeight, _ = cmd.Flags().GetFloat64("height")
	}
	return p, p.Validate()
}

func textOutput() bool {
	return formatFlag == "text"
}

func printJSON(v interface{}) {
	if err := writeJSON(os.Stdout, v); err != nil {
		exitErr("encode output", err)
	}
}

// writeJSON writes v indented, followed by a newline.
func writeJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func exitErr(msg string, err error) {
	logger.Sync()
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
