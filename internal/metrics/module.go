package metrics

import (
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/usecase"
)

// Module provides the metrics registry and exposes it as the order observer.
var Module = fx.Provide(
	New,
	func(m *Metrics) usecase.OrderObserver { return m },
)
