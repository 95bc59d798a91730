// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/relabs-tech/led_compass/internal/app"
	"github.com/relabs-tech/led_compass/internal/config"
)

var (
	configPath string
	verbose    bool
	logger     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "compass",
	Short: "LED compass: a magnetometer-driven arrow that points north",
	Long: `compass reads a 3-axis magnetometer, removes hard- and soft-iron
distortion with a stored calibration, and shows an arrow pointing at magnetic
north on a 5x5 pixel display.

Headings can optionally be published over MQTT and watched from a console or
a browser.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		if err := config.InitGlobal(configPath); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the compass display loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.Sugar().Named("compass")
		log.Info("starting led compass")
		return app.RunCompass(config.Get(), log)
	},
}

var sweepSeconds int

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Derive a calibration from a rotation sweep",
	Long: `calibrate samples the magnetometer while the device is rotated through
every orientation, then prints a calibration block for the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		if sweepSeconds > 0 {
			cfg.Calibrate.DurationSec = sweepSeconds
		}
		return app.RunCalibration(cfg, cmd.OutOrStdout(), logger.Sugar().Named("calibrate"))
	},
}

var glyphs bool

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Print headings published by a running compass",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunConsoleMQTT(config.Get(), glyphs, logger.Sugar().Named("console"))
	},
}

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Serve a live heading page fed from MQTT",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunWeb(config.Get(), logger.Sugar().Named("web"))
	},
}

var regsCmd = &cobra.Command{
	Use:   "regs",
	Short: "Dump the magnetometer configuration registers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunRegisterDump(config.Get(), cmd.OutOrStdout(), logger.Sugar().Named("regs"))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "compass.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	calibrateCmd.Flags().IntVar(&sweepSeconds, "duration", 0, "sweep length in seconds (overrides calibrate.duration_sec)")
	consoleCmd.Flags().BoolVar(&glyphs, "glyphs", false, "print the arrow under each heading")

	rootCmd.AddCommand(runCmd, calibrateCmd, consoleCmd, webCmd, regsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
