package usecase

import (
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
)

// Module provides core business use cases to the fx container.
var Module = fx.Options(
	fx.Provide(
		newAuthOptions,
		newPromotionPolicy,
		NewAuthUseCase,
		NewCatalogReader,
		NewPromotionResolver,
		NewOrderUseCase,
		NewCartUseCase,
	),
)

func newAuthOptions(cfg *config.Config) AuthOptions {
	return AuthOptions{AdminLogins: cfg.AdminLogins}
}

func newPromotionPolicy(cfg *config.Config) PromotionPolicy {
	if cfg.PromotionPolicy == config.PromotionPolicyLenient {
		return PromotionLenient
	}
	return PromotionStrict
}
