// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry publishes compass headings over MQTT and decodes them
// on the subscriber side.
package telemetry

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/relabs-tech/led_compass/internal/compass"
)

const publishTimeout = 250 * time.Millisecond

// HeadingPayload is the JSON schema published per display cycle.
// Field values are in nanotesla, theta in degrees, time is RFC3339Nano.
type HeadingPayload struct {
	Raw        compass.Measurement `json:"raw"`
	Calibrated compass.Measurement `json:"calibrated"`
	ThetaDeg   float64             `json:"theta_deg"`
	Sector     string              `json:"sector"`
	Glyph      []string            `json:"glyph"`
	Norm       float64             `json:"norm_nt"`
	Time       string              `json:"time"`
}

// NewHeadingPayload builds the wire form of r taken at t.
func NewHeadingPayload(r compass.Reading, t time.Time) HeadingPayload {
	g := compass.GlyphFor(r.Sector)
	rows := make([]string, 0, compass.GlyphSize)
	for _, row := range g {
		b := make([]byte, 0, compass.GlyphSize)
		for _, px := range row {
			b = append(b, '0'+px)
		}
		rows = append(rows, string(b))
	}
	return HeadingPayload{
		Raw:        r.Raw,
		Calibrated: r.Calibrated,
		ThetaDeg:   r.Theta * 180 / math.Pi,
		Sector:     r.Sector.String(),
		Glyph:      rows,
		Norm:       compass.Magnitude(r.Calibrated),
		Time:       t.UTC().Format(time.RFC3339Nano),
	}
}

// Publishing is the part of mqtt.Client the publisher needs.
type Publishing interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Publisher sends every observed reading to one topic.
// Failures are logged and dropped; they never reach the display loop.
type Publisher struct {
	client Publishing
	topic  string
	log    *zap.SugaredLogger
	now    func() time.Time
}

// NewPublisher publishes to topic through client.
func NewPublisher(client Publishing, topic string, log *zap.SugaredLogger) *Publisher {
	return &Publisher{client: client, topic: topic, log: log, now: time.Now}
}

// Observe publishes r.
func (p *Publisher) Observe(r compass.Reading) {
	b, err := json.Marshal(NewHeadingPayload(r, p.now()))
	if err != nil {
		p.log.Warnf("heading marshal error: %v", err)
		return
	}
	t := p.client.Publish(p.topic, 0, false, b)
	if !t.WaitTimeout(publishTimeout) {
		p.log.Debugf("publish to %s still pending after %s", p.topic, publishTimeout)
		return
	}
	if err := t.Error(); err != nil {
		p.log.Warnf("publish error (%s): %v", p.topic, err)
	}
}

// PublishCalibration sends cal as a retained message so late subscribers
// see the last derived calibration.
func PublishCalibration(client Publishing, topic string, cal compass.Calibration) error {
	b, err := json.Marshal(cal)
	if err != nil {
		return fmt.Errorf("calibration marshal: %w", err)
	}
	t := client.Publish(topic, 1, true, b)
	t.Wait()
	return t.Error()
}

// Subscribing is the part of mqtt.Client the subscribers need.
type Subscribing interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// SubscribeHeadings calls fn with every decodable heading on topic.
// Undecodable payloads are logged and skipped.
func SubscribeHeadings(client Subscribing, topic string, log *zap.SugaredLogger, fn func(HeadingPayload)) error {
	t := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p HeadingPayload
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Warnf("heading unmarshal error on %s: %v", msg.Topic(), err)
			return
		}
		fn(p)
	})
	t.Wait()
	if err := t.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	log.Infof("subscribed to %s", topic)
	return nil
}

// Connect opens an MQTT client to broker.
func Connect(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	return client, nil
}
