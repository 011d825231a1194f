/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/startup-vidyapith/apiserver/config"
	"github.com/startup-vidyapith/apiserver/internal/logger"
	"github.com/startup-vidyapith/apiserver/internal/server"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the Startup Vidyapith API server",
	Long: `Starts the Startup Vidyapith API server. Usage:

	vidyapith server

With MQ_BACKEND=local (the default) or MQ_EMBEDDED_WORKER=true the job
worker runs inside the server process.
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		log, err := logger.New(cfg.Env)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer log.Sync()

		srv, err := server.New(cmd.Context(), cfg, log)
		if err != nil {
			log.Error("failed to start server", "error", err)
			return err
		}
		if err := srv.Start(cmd.Context()); err != nil {
			log.Error("server error", "error", err)
			return err
		}
		log.Info("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
