// Package feed receives vessel telemetry from the operator's PubNub feed and
// turns it into position samples for the tracking service. When no feed is
// configured the simulator covers the fleet instead.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	pubnub "github.com/pubnub/go/v7"

	"ferry-system/models"
)

type Config struct {
	SubscribeKey string
	Channel      string
	UUID         string
}

type Client struct {
	channel string
	pn      *pubnub.PubNub
	lis     *pubnub.Listener
	ch      chan models.FerryPosition
}

// payload is the operator feed's wire format for one telemetry sample.
type payload struct {
	VesselID   string  `json:"vesselId"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Heading    float64 `json:"heading"`
	SpeedKnots float64 `json:"speedKnots"`
	ReportedAt string  `json:"reportedAt"`
}

func (p *payload) toPosition() (models.FerryPosition, error) {
	if p.VesselID == "" {
		return models.FerryPosition{}, fmt.Errorf("telemetry sample without vessel id")
	}

	at, err := time.Parse(time.RFC3339, p.ReportedAt)
	if err != nil {
		return models.FerryPosition{}, fmt.Errorf("parse reportedAt %q: %w", p.ReportedAt, err)
	}

	return models.FerryPosition{
		FerryID:    p.VesselID,
		Lat:        p.Lat,
		Lng:        p.Lng,
		Heading:    p.Heading,
		SpeedKnots: p.SpeedKnots,
		At:         at,
	}, nil
}

// New builds the feed client. The connection is not opened until Run.
func New(cfg *Config) *Client {
	pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.UUID))
	pnCfg.SubscribeKey = cfg.SubscribeKey

	c := &Client{
		channel: cfg.Channel,
		pn:      pubnub.NewPubNub(pnCfg),
		lis:     pubnub.NewListener(),
		ch:      make(chan models.FerryPosition, 16),
	}
	c.pn.AddListener(c.lis)

	return c
}

// Positions is the stream of decoded telemetry samples.
func (c *Client) Positions() <-chan models.FerryPosition {
	return c.ch
}

// Run subscribes to the feed channel and pumps samples until the context is
// cancelled.
func (c *Client) Run(ctx context.Context) {
	c.pn.Subscribe().Channels([]string{c.channel}).Execute()
	defer c.pn.Unsubscribe().Channels([]string{c.channel}).Execute()

	for {
		select {
		case st := <-c.lis.Status:
			switch st.Category {
			case pubnub.PNConnectedCategory:
				slog.Info("connected to telemetry feed")

			case pubnub.PNReconnectedCategory:
				slog.Info("reconnected to telemetry feed")

			case pubnub.PNDisconnectedCategory:
				slog.Warn("disconnected from telemetry feed")

			case pubnub.PNAccessDeniedCategory:
				slog.Error("access denied by telemetry feed")

			case pubnub.PNTimeoutCategory:
				slog.Warn("telemetry feed timeout")

			case pubnub.PNReconnectionAttemptsExhausted:
				slog.Error("telemetry feed reconnection attempts exhausted")

			default:
				slog.Debug("telemetry feed status", "category", st.Category)
			}

		case message := <-c.lis.Message:
			sample, err := decodeSample(message.Message)
			if err != nil {
				slog.Warn("skipping telemetry sample", "err", err)
				continue
			}

			select {
			case c.ch <- sample:
			default:
				// Consumer is behind; drop the oldest to keep the stream fresh.
				select {
				case <-c.ch:
				default:
				}
				c.ch <- sample
			}

		case <-ctx.Done():
			slog.Info("telemetry feed closed")
			return
		}
	}
}

func decodeSample(raw any) (models.FerryPosition, error) {
	var p payload

	switch msg := raw.(type) {
	case string:
		dec := json.NewDecoder(strings.NewReader(msg))
		if err := dec.Decode(&p); err != nil {
			return models.FerryPosition{}, err
		}
	case map[string]any:
		buf, err := json.Marshal(msg)
		if err != nil {
			return models.FerryPosition{}, err
		}
		if err := json.Unmarshal(buf, &p); err != nil {
			return models.FerryPosition{}, err
		}
	default:
		return models.FerryPosition{}, fmt.Errorf("unexpected telemetry message type %T", raw)
	}

	return p.toPosition()
}
