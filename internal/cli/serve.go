package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/rcliao/ekg-analyzer/internal/api"
	"github.com/rcliao/ekg-analyzer/internal/logging"
	"github.com/rcliao/ekg-analyzer/internal/plot"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Long:  "Serve patients, tests and analyses over HTTP under /api/v1 until interrupted.",
		Run:   runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default from config, :8080)")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.Server.Addr
	}
	params, err := peakParams(cmd, cfg.Peaks)
	if err != nil {
		exitErr("serve", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	log, err := logging.NewServer(verbose)
	if err != nil {
		exitErr("init logger", err)
	}
	defer log.Sync()
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	opts := plot.Options{Width: cfg.Plot.Width, Height: cfg.Plot.Height, Window: cfg.Plot.Window}
	h := api.NewHandler(s, params, opts, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := api.Serve(ctx, addr, api.NewRouter(h), log); err != nil {
		exitErr("serve", err)
	}
}
