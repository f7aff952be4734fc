package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/ekg-analyzer/internal/ekg"
	"github.com/rcliao/ekg-analyzer/internal/report"
)

func init() {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the report of a stored test",
		Long:  "Print patient, test date, heart-rate statistics, anomalies and the clinician's comment for a test.",
		Run:   runReport,
	}
	cmd.Flags().StringP("test", "t", "", "Test ID (required)")
	cmd.Flags().Duration("segments", 0, "Also summarize windows of this length, e.g. 60s")
	cmd.MarkFlagRequired("test")
	RootCmd.AddCommand(cmd)
}

func runReport(cmd *cobra.Command, args []string) {
	segments, _ := cmd.Flags().GetDuration("segments")
	params, err := peakParams(cmd, cfg.Peaks)
	if err != nil {
		exitErr("report", err)
	}

	s, closeStore := sourceStore(cmd)
	defer closeStore()
	src := loadSource(cmd, s, nil)

	p, err := s.GetPatient(cmd.Context(), src.test.PatientID)
	if err != nil {
		exitErr("report", err)
	}
	res, err := report.Analyze(ekg.NewAnalyzer(src.rec), params, segments)
	if err != nil {
		exitErr("report", err)
	}
	r := report.New(*p, *src.test, res, time.Now())

	if !textOutput() {
		printJSON(r)
		return
	}
	if err := r.WriteText(os.Stdout); err != nil {
		exitErr("write", err)
	}
}
