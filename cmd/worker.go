/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/startup-vidyapith/apiserver/config"
	"github.com/startup-vidyapith/apiserver/internal/logger"
	"github.com/startup-vidyapith/apiserver/internal/mq"
	"github.com/startup-vidyapith/apiserver/internal/server"
	"golang.org/x/sync/errgroup"
)

var workerConcurrency int

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Runs the background job worker",
	Long: `Consumes jobs (email delivery, last-login updates) from the configured
message queue. Requires a networked MQ backend such as rabbitmq or pubsub.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		if mq.IsLocal(cfg.MQ) {
			return errors.New("the local MQ backend only delivers inside the server process; set MQ_BACKEND")
		}

		log, err := logger.New(cfg.Env)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer log.Sync()

		backend, err := server.OpenBackend(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer backend.Close()

		worker := backend.NewWorker(cfg, log)
		g, ctx := errgroup.WithContext(cmd.Context())
		for i := 0; i < max(workerConcurrency, 1); i++ {
			g.Go(func() error {
				return worker.Run(ctx)
			})
		}
		if err := g.Wait(); err != nil {
			log.Error("worker stopped", "error", err)
			return err
		}
		log.Info("worker stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.Flags().IntVarP(&workerConcurrency, "concurrency", "c", 1, "number of concurrent consumers")
}
