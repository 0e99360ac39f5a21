// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/arvobill/installer/internal"
	"github.com/arvobill/installer/internal/config"
	"github.com/arvobill/installer/internal/orchestrator"
	"github.com/arvobill/installer/internal/steps"
	"github.com/arvobill/installer/internal/targets"
)

type flag struct {
	ConfigPath string
	LogLevel   string
	LogDir     string
	DryRun     bool
	Labels     []string
}

var flags flag

// Answers collected from the config file and the interactive forms.
var input config.InstallConfig

// answersLoaded records that an answers file provided the inputs, so the
// forms only ask for what is still missing.
var answersLoaded bool

func main() {
	rootCmd := &cobra.Command{
		Use:           "arvobill-installer",
		Short:         "Provision or update an ArvoBill host",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "", "answers file (YAML); prompts fill anything missing")
	rootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flags.LogDir, "log-dir", "/var/log/arvobill-installer", "directory for the run log")
	rootCmd.PersistentFlags().BoolVar(&flags.DryRun, "dry-run", false, "log external commands instead of executing them")
	rootCmd.PersistentFlags().StringSliceVar(&flags.Labels, "label", nil, "run only steps carrying one of these labels")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "install",
		Short: "Fresh installation: packages, database, web server, TLS, cron, queue worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction("install")
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "update",
		Short: "Update an existing installation, preserving local configuration and data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction("update")
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runAction(action string) error {
	if err := internal.InitLogger(flags.LogLevel, flags.LogDir); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	logger := internal.Logger()

	if err := loadAnswers(); err != nil {
		return err
	}
	if err := collectAnswers(action); err != nil {
		return err
	}
	if err := collectConfirmations(action); err != nil {
		return err
	}

	input.Version = config.ConfigVersion
	input.Generated = config.RuntimeState{
		Action: action,
		LogDir: flags.LogDir,
		DryRun: flags.DryRun,
	}

	shell := steps.CreateShellRunner(flags.DryRun)
	var stepList []steps.Step
	switch action {
	case "install":
		stepList = targets.InstallSteps(shell)
	case "update":
		stepList = targets.UpdateSteps(shell)
	}
	stepList = steps.FilterSteps(stepList, flags.Labels)

	orch := orchestrator.CreateOrchestrator(stepList)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		orch.Cancel()
	}()

	if err := orch.Run(ctx, &input); err != nil {
		logger.Errorf("Run aborted:\n%s", err.ErrorMsg)
		return err
	}

	if err := saveAnswers(); err != nil {
		logger.Warnf("cannot save answers file: %v", err)
	}
	printSummary(action, input)
	return nil
}

func loadAnswers() error {
	if flags.ConfigPath == "" {
		return nil
	}
	data, err := os.ReadFile(flags.ConfigPath)
	if err != nil {
		if os.IsNotExist(err) {
			// A fresh answers file will be written after a successful run.
			return nil
		}
		return fmt.Errorf("read answers file: %w", err)
	}
	if err := yaml.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("decode answers file: %w", err)
	}
	answersLoaded = true
	return nil
}

func saveAnswers() error {
	if flags.ConfigPath == "" {
		return nil
	}
	// Secrets carry a `yaml:"-"` tag and never reach this file.
	data, err := config.SerializeToYAML(input)
	if err != nil {
		return err
	}
	return os.WriteFile(flags.ConfigPath, data, 0o600)
}
