// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package gcp

import (
	"fmt"
	"strings"
	"time"
)

type pubSubConfig struct {
	ProjectID      string `env:"GOOGLE_CLOUD_PUBSUB_PROJECT"`
	SubscriptionID string `env:"GOOGLE_CLOUD_PUBSUB_SUBSCRIPTION"`

	// MaxMessages caps the number of messages assembled in one delivery.
	MaxMessages int `env:"INGEST_DELIVERY_MAX_MESSAGES" envDefault:"10"`
	// Window is how long to wait for more messages after the first one of a delivery.
	Window time.Duration `env:"INGEST_DELIVERY_WINDOW" envDefault:"1s"`
}

// checkPubSubConfig validates the required configuration for Pub/Sub clients.
func checkPubSubConfig(cfg pubSubConfig) error {
	missingEnvs := make([]string, 0)
	if cfg.ProjectID == "" {
		missingEnvs = append(missingEnvs, "GOOGLE_CLOUD_PUBSUB_PROJECT")
	}
	if cfg.SubscriptionID == "" {
		missingEnvs = append(missingEnvs, "GOOGLE_CLOUD_PUBSUB_SUBSCRIPTION")
	}

	if len(missingEnvs) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingEnvVariable, strings.Join(missingEnvs, ", "))
	}

	if cfg.MaxMessages < 1 {
		return fmt.Errorf("%w: INGEST_DELIVERY_MAX_MESSAGES must be greater than zero", ErrInvalidEnvVariable)
	}
	if cfg.Window <= 0 {
		return fmt.Errorf("%w: INGEST_DELIVERY_WINDOW must be a positive duration", ErrInvalidEnvVariable)
	}
	return nil
}
