//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2026 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

package monitoring

import "github.com/prometheus/client_golang/prometheus"

// NoopRegistry accepts every collector and exposes none of them. It is used
// when metrics are disabled, so that components can always register.
type NoopRegistry struct{}

func NewNoopRegistry() prometheus.Registerer {
	return &NoopRegistry{}
}

func (n *NoopRegistry) Register(prometheus.Collector) error {
	return nil
}

func (n *NoopRegistry) MustRegister(...prometheus.Collector) {
}

func (n *NoopRegistry) Unregister(prometheus.Collector) bool {
	return true
}
