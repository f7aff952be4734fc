package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/ekg-analyzer/internal/ekg"
)

func init() {
	cmd := &cobra.Command{
		Use:   "peaks [file]",
		Short: "List detected R-peaks",
		Args:  cobra.MaximumNArgs(1),
		Run:   runPeaks,
	}
	addSourceFlags(cmd)
	RootCmd.AddCommand(cmd)
}

func runPeaks(cmd *cobra.Command, args []string) {
	params, err := peakParams(cmd, cfg.Peaks)
	if err != nil {
		exitErr("peaks", err)
	}

	s, closeStore := sourceStore(cmd)
	defer closeStore()
	src := loadSource(cmd, s, args)

	a := ekg.NewAnalyzer(src.rec)
	if _, err := a.DetectPeaks(params); err != nil {
		exitErr("peaks", err)
	}
	points := a.PeakOverlay()

	if textOutput() {
		for _, p := range points {
			fmt.Printf("%d\t%.3f\t%.3f\n", p.Index, p.TimeS, p.AmplitudeMV)
		}
		return
	}
	printJSON(points)
}
