package repository

// Factory describes access to different domain repositories.
type Factory interface {
	Users() UserRepository
	Catalog() CatalogRepository
	Promotions() PromotionRepository
	Orders() OrderRepository
	Carts() CartRepository
	Outbox() OutboxRepository
}
