// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/relabs-tech/led_compass/internal/config"
	"github.com/relabs-tech/led_compass/internal/telemetry"
)

// FormatHeading renders one heading message as a console line.
func FormatHeading(p telemetry.HeadingPayload) string {
	return fmt.Sprintf("[%-2s] theta=%7.2f°  raw=(%7d %7d %7d)  cal=(%6d %6d %6d)  |B|=%.0fnT",
		p.Sector, p.ThetaDeg,
		p.Raw.X, p.Raw.Y, p.Raw.Z,
		p.Calibrated.X, p.Calibrated.Y, p.Calibrated.Z,
		p.Norm)
}

// printHeadings returns the subscriber callback used by RunConsoleMQTT. With
// glyphs set the arrow is printed under each line.
func printHeadings(w io.Writer, glyphs bool) func(telemetry.HeadingPayload) {
	return func(p telemetry.HeadingPayload) {
		fmt.Fprintln(w, FormatHeading(p))
		if glyphs && len(p.Glyph) > 0 {
			fmt.Fprintln(w, strings.Join(p.Glyph, "\n"))
		}
	}
}

// RunConsoleMQTT prints every heading published by a running compass until
// SIGINT or SIGTERM.
func RunConsoleMQTT(cfg *config.Config, glyphs bool, log *zap.SugaredLogger) error {
	client, err := telemetry.Connect(cfg.MQTT.Broker, cfg.MQTT.ClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Infof("connected to MQTT broker at %s", cfg.MQTT.Broker)

	if err := telemetry.SubscribeHeadings(client, cfg.MQTT.TopicHeading, log, printHeadings(os.Stdout, glyphs)); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	return nil
}
