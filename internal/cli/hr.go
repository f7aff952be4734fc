package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/ekg-analyzer/internal/ekg"
)

func init() {
	cmd := &cobra.Command{
		Use:   "hr [file]",
		Short: "Print the instantaneous heart rate over time",
		Long:  "Print the beat-to-beat heart rate with its 5-beat moving average, optionally limited to --start/--end seconds.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runHR,
	}
	addSourceFlags(cmd)
	cmd.Flags().Float64("start", 0, "Start of the range in seconds")
	cmd.Flags().Float64("end", 0, "End of the range in seconds (default: end of recording)")
	RootCmd.AddCommand(cmd)
}

func runHR(cmd *cobra.Command, args []string) {
	params, err := peakParams(cmd, cfg.Peaks)
	if err != nil {
		exitErr("hr", err)
	}

	s, closeStore := sourceStore(cmd)
	defer closeStore()
	src := loadSource(cmd, s, args)

	series, err := hrSeries(cmd, src.rec, params)
	if err != nil {
		exitErr("hr", err)
	}

	if textOutput() {
		for i := range series.TimeS {
			fmt.Printf("%.3f\t%.1f\t%.1f\n", series.TimeS[i], series.BPM[i], series.Smoothed[i])
		}
		return
	}
	printJSON(series)
}

// hrSeries computes the heart-rate series limited by --start/--end.
func hrSeries(cmd *cobra.Command, rec *ekg.Recording, params ekg.PeakParams) (ekg.HRSeries, error) {
	a := ekg.NewAnalyzer(rec)
	if _, err := a.DetectPeaks(params); err != nil {
		return ekg.HRSeries{}, err
	}
	series := a.InstantaneousHR()

	start, _ := cmd.Flags().GetFloat64("start")
	end, _ := cmd.Flags().GetFloat64("end")
	if !cmd.Flags().Changed("end") {
		end = rec.TimeMS[rec.Len()-1] / 1000
	}
	if end < start {
		return ekg.HRSeries{}, fmt.Errorf("end %.2fs is before start %.2fs", end, start)
	}
	return series.Between(start, end), nil
}
