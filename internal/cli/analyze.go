package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/ekg-analyzer/internal/ekg"
	"github.com/rcliao/ekg-analyzer/internal/loader"
	"github.com/rcliao/ekg-analyzer/internal/model"
	"github.com/rcliao/ekg-analyzer/internal/report"
	"github.com/rcliao/ekg-analyzer/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze a recording",
		Long:  "Detect R-peaks and report heart-rate statistics and anomalies for a recording file or a stored test.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runAnalyze,
	}

	addSourceFlags(cmd)
	cmd.Flags().Bool("save", false, "Store the result with the test (requires --test)")
	cmd.Flags().Duration("segments", 0, "Also summarize windows of this length, e.g. 60s")

	RootCmd.AddCommand(cmd)
}

// addSourceFlags lets a command read a stored test instead of a file.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("test", "t", "", "Test ID to analyze instead of a file")
}

// source is a loaded recording and, when read from the store, its test.
type source struct {
	rec  *ekg.Recording
	test *model.Test
}

func loadSource(cmd *cobra.Command, s store.Store, args []string) source {
	testID, _ := cmd.Flags().GetString("test")

	var src source
	path := ""
	switch {
	case testID != "" && len(args) > 0:
		exitErr(cmd.Name(), fmt.Errorf("give either a file or --test, not both"))
	case testID != "":
		t, err := s.GetTest(cmd.Context(), testID)
		if err != nil {
			exitErr(cmd.Name(), err)
		}
		src.test = t
		path = t.ResultPath
	case len(args) == 1:
		path = args[0]
	default:
		exitErr(cmd.Name(), fmt.Errorf("a recording file or --test is required"))
	}

	rec, err := loader.Load(path)
	if err != nil {
		exitErr("load recording", err)
	}
	logger.Debug("loaded recording",
		zap.String("path", path),
		zap.Int("samples", rec.Len()),
		zap.Float64("duration_min", rec.DurationMin()))
	src.rec = rec
	return src
}

// sourceStore opens the store only when --test needs it.
func sourceStore(cmd *cobra.Command) (store.Store, func()) {
	if testID, _ := cmd.Flags().GetString("test"); testID == "" {
		return nil, func() {}
	}
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	return s, func() { s.Close() }
}

func runAnalyze(cmd *cobra.Command, args []string) {
	save, _ := cmd.Flags().GetBool("save")
	segments, _ := cmd.Flags().GetDuration("segments")

	params, err := peakParams(cmd, cfg.Peaks)
	if err != nil {
		exitErr("analyze", err)
	}

	s, closeStore := sourceStore(cmd)
	defer closeStore()
	src := loadSource(cmd, s, args)
	if save && src.test == nil {
		exitErr("analyze", fmt.Errorf("--save requires --test"))
	}

	res, err := report.Analyze(ekg.NewAnalyzer(src.rec), params, segments)
	if err != nil {
		exitErr("analyze", err)
	}
	logger.Debug("analyzed",
		zap.Int("peaks", res.Summary.PeakCount),
		zap.Float64("avg_bpm", res.Summary.AverageBPM),
		zap.Strings("anomalies", res.Anomalies))

	if save {
		a, err := s.SaveAnalysis(cmd.Context(), store.SaveAnalysisParams{
			TestID:    src.test.ID,
			Params:    res.Params,
			Summary:   res.Summary,
			Anomalies: res.Anomalies,
		})
		if err != nil {
			exitErr("save analysis", err)
		}
		logger.Info("analysis saved", zap.String("id", a.ID), zap.String("test", a.TestID))
	}

	if !textOutput() {
		printJSON(res)
		return
	}
	// Text mode reuses the report layout without patient details.
	t := model.Test{ResultPath: "-"}
	if src.test != nil {
		t = *src.test
	} else if len(args) == 1 {
		t.ResultPath = args[0]
	}
	r := report.Report{Test: t, Result: res}
	if err := r.WriteText(os.Stdout); err != nil {
		exitErr("write", err)
	}
}
