// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package main

import (
	"context"

	"github.com/tomtom215/cartographus/internal/streamqueue"
)

// streamConsumerService adapts a *streamqueue.Consumer's blocking Run
// method to suture.Service, mirroring internal/supervisor/services'
// BrokerService adapter for the broker side of the pipeline.
type streamConsumerService struct {
	name     string
	consumer *streamqueue.Consumer
}

func newStreamConsumerService(name string, consumer *streamqueue.Consumer) *streamConsumerService {
	return &streamConsumerService{name: name, consumer: consumer}
}

// Serve implements suture.Service.
func (s *streamConsumerService) Serve(ctx context.Context) error {
	return s.consumer.Run(ctx)
}

// String implements fmt.Stringer for logging.
func (s *streamConsumerService) String() string {
	return s.name
}
