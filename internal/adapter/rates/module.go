package rates

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/usecase"
)

// Module exposes the charges calculator to fx graph.
var Module = fx.Provide(newCalculator)

type calculatorParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newCalculator(p calculatorParams) (usecase.ChargesCalculator, error) {
	if p.Config.RatesServiceAddress == "" {
		p.Logger.Info("rates service not configured, shipping and tax are zero")
		return ZeroCalculator{}, nil
	}
	return NewHTTPClient(p.Config.RatesServiceAddress, p.Logger)
}
