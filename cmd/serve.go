package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/dsdash/internal/server"
)

var (
	srvPipe pipelineFlags
	srvAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve [file]",
	Short: "Serve the dashboard as a JSON API",
	Long: `Serve the dashboard sections over HTTP. Every /api endpoint accepts the filter
parameters as query strings; flags set the defaults. /metrics exposes Prometheus metrics.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := config()
		if err != nil {
			return err
		}
		addr := c.ListenAddr
		if cmd.Flags().Changed("addr") {
			addr = srvAddr
		}
		p, err := srvPipe.params(cmd)
		if err != nil {
			return err
		}
		ds, err := srvPipe.load(cmd.Context(), args)
		if err != nil {
			return err
		}

		var log *zap.Logger
		if debug {
			log, err = zap.NewDevelopment()
		} else {
			gin.SetMode(gin.ReleaseMode)
			log, err = zap.NewProduction()
		}
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		srv := server.New(ds, server.Options{
			Defaults:      p,
			MaxIndustries: c.MaxIndustries,
			MaxCities:     c.MaxCities,
		}, log)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addPipelineFlags(serveCmd, &srvPipe)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (default listen_addr)")
}
