package cli

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/ekg-analyzer/internal/ekg"
	"github.com/rcliao/ekg-analyzer/internal/plot"
)

func init() {
	plotCmd := &cobra.Command{
		Use:   "plot",
		Short: "Render recordings as PNG charts",
	}

	stripCmd := &cobra.Command{
		Use:   "strip [file]",
		Short: "Plot the first seconds of a recording with R-peaks marked",
		Args:  cobra.MaximumNArgs(1),
		Run:   runPlotStrip,
	}
	stripCmd.Flags().Duration("window", 0, "Length of the strip (default from config, 10s)")

	hrCmd := &cobra.Command{
		Use:   "hr [file]",
		Short: "Plot the heart rate and its moving average over time",
		Args:  cobra.MaximumNArgs(1),
		Run:   runPlotHR,
	}
	hrCmd.Flags().Float64("start", 0, "Start of the range in seconds")
	hrCmd.Flags().Float64("end", 0, "End of the range in seconds (default: end of recording)")

	for _, c := range []*cobra.Command{stripCmd, hrCmd} {
		addSourceFlags(c)
		c.Flags().StringP("output", "o", "", "Output PNG file (required)")
		c.Flags().Int("width", 0, "Image width in pixels")
		c.Flags().Int("height-px", 0, "Image height in pixels")
		c.MarkFlagRequired("output")
	}

	plotCmd.AddCommand(stripCmd, hrCmd)
	RootCmd.AddCommand(plotCmd)
}

func plotOptions(cmd *cobra.Command) plot.Options {
	opts := plot.Options{
		Width:  cfg.Plot.Width,
		Height: cfg.Plot.Height,
		Window: cfg.Plot.Window,
	}
	if w, _ := cmd.Flags().GetInt("width"); w > 0 {
		opts.Width = w
	}
	if h, _ := cmd.Flags().GetInt("height-px"); h > 0 {
		opts.Height = h
	}
	if cmd.Flags().Lookup("window") != nil {
		if d, _ := cmd.Flags().GetDuration("window"); d > 0 {
			opts.Window = d
		}
	}
	return opts
}

// writePNG creates path and hands it to render.
func writePNG(path string, render func(w *bufio.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := render(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

func runPlotStrip(cmd *cobra.Command, args []string) {
	output, _ := cmd.Flags().GetString("output")
	params, err := peakParams(cmd, cfg.Peaks)
	if err != nil {
		exitErr("plot strip", err)
	}

	s, closeStore := sourceStore(cmd)
	defer closeStore()
	src := loadSource(cmd, s, args)

	a := ekg.NewAnalyzer(src.rec)
	peaks, err := a.DetectPeaks(params)
	if err != nil {
		exitErr("plot strip", err)
	}

	opts := plotOptions(cmd)
	opts.Title = "EKG"
	if src.test != nil {
		opts.Title = fmt.Sprintf("EKG %s", src.test.Date)
	}
	err = writePNG(output, func(w *bufio.Writer) error {
		return plot.Strip(w, src.rec, peaks, opts)
	})
	if err != nil {
		exitErr("plot strip", err)
	}
	fmt.Printf(`{"ok":true,"output":%q,"peaks":%d}`+"\n", output, len(peaks))
}

func runPlotHR(cmd *cobra.Command, args []string) {
	output, _ := cmd.Flags().GetString("output")
	params, err := peakParams(cmd, cfg.Peaks)
	if err != nil {
		exitErr("plot hr", err)
	}

	s, closeStore := sourceStore(cmd)
	defer closeStore()
	src := loadSource(cmd, s, args)

	series, err := hrSeries(cmd, src.rec, params)
	if err != nil {
		exitErr("plot hr", err)
	}

	opts := plotOptions(cmd)
	opts.Title = "Heart rate"
	err = writePNG(output, func(w *bufio.Writer) error {
		return plot.HeartRate(w, series, opts)
	})
	if err != nil {
		exitErr("plot hr", err)
	}
	fmt.Printf(`{"ok":true,"output":%q,"samples":%d}`+"\n", output, series.Len())
}
