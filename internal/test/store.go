package test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
	"github.com/polkiloo/storefront/internal/tracing"
)

// Store is an in-memory catalog, promotion, order, cart and outbox backend.
// Place is all-or-nothing under a single mutex, mirroring the transactional storage.
type Store struct {
	mu sync.Mutex

	products   map[int64]model.Product
	variants   map[int64]model.Variant
	promotions map[int64]model.Promotion
	orders     map[int64]model.Order
	numbers    map[string]int64
	carts      map[int64]*model.Cart
	events     []model.OrderEvent
	published  map[string]bool

	nextOrderID int64
	nextItemID  int64
	nextCartID  int64

	// PlaceErrs are returned by successive Place calls before any work is done.
	PlaceErrs []error
	// Now stamps created orders; defaults to time.Now.
	Now func() time.Time
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		products:   make(map[int64]model.Product),
		variants:   make(map[int64]model.Variant),
		promotions: make(map[int64]model.Promotion),
		orders:     make(map[int64]model.Order),
		numbers:    make(map[string]int64),
		carts:      make(map[int64]*model.Cart),
		published:  make(map[string]bool),
		Now:        time.Now,
	}
}

// AddProduct stores or replaces a product.
func (s *Store) AddProduct(p model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// AddVariant stores or replaces a variant.
func (s *Store) AddVariant(v model.Variant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variants[v.ID] = v
}

// AddPromotion stores or replaces a promotion.
func (s *Store) AddPromotion(p model.Promotion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promotions[p.ID] = p
}

// ProductStock returns current product stock.
func (s *Store) ProductStock(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

// VariantStock returns current variant stock.
func (s *Store) VariantStock(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.variants[id].Stock
}

// PromotionUsage returns how many times a promotion was redeemed.
func (s *Store) PromotionUsage(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.promotions[id].UsageCount
}

// OrderCount returns the number of stored orders.
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// Events returns recorded outbox events.
func (s *Store) Events() []model.OrderEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.OrderEvent(nil), s.events...)
}

func (s *Store) Catalog() repository.CatalogRepository      { return storeCatalog{s} }
func (s *Store) Promotions() repository.PromotionRepository { return storePromotions{s} }
func (s *Store) Orders() repository.OrderRepository         { return storeOrders{s} }
func (s *Store) Carts() repository.CartRepository           { return storeCarts{s} }
func (s *Store) Outbox() repository.OutboxRepository        { return storeOutbox{s} }

type storeCatalog struct{ s *Store }

func (c storeCatalog) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	p, ok := c.s.products[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &p, nil
}

func (c storeCatalog) GetVariant(ctx context.Context, id int64) (*model.Variant, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	v, ok := c.s.variants[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &v, nil
}

type storePromotions struct{ s *Store }

func (p storePromotions) GetByID(ctx context.Context, id int64) (*model.Promotion, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	promo, ok := p.s.promotions[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &promo, nil
}

type storeOrders struct{ s *Store }

type stockKey struct {
	product int64
	variant int64
}

func (o storeOrders) Place(ctx context.Context, order *model.Order) (*model.Order, error) {
	s := o.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.PlaceErrs) > 0 {
		err := s.PlaceErrs[0]
		s.PlaceErrs = s.PlaceErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	need := make(map[stockKey]int)
	for _, item := range order.Items {
		key := stockKey{product: item.ProductID}
		if item.VariantID != nil {
			key.variant = *item.VariantID
		}
		need[key] += item.Quantity
	}
	for key, qty := range need {
		if key.variant != 0 {
			if v, ok := s.variants[key.variant]; !ok || v.ProductID != key.product || v.Stock < qty {
				variant := key.variant
				return nil, &domainErrors.InsufficientStockError{ProductID: key.product, VariantID: &variant, Requested: qty}
			}
			continue
		}
		if p, ok := s.products[key.product]; !ok || p.Stock < qty {
			return nil, &domainErrors.InsufficientStockError{ProductID: key.product, Requested: qty}
		}
	}

	if order.PromotionID != nil {
		promo, ok := s.promotions[*order.PromotionID]
		if !ok || !promo.Redeemable(s.Now()) {
			return nil, fmt.Errorf("promotion %d is no longer redeemable: %w", *order.PromotionID, domainErrors.ErrNotFound)
		}
	}
	if _, taken := s.numbers[order.Number]; taken {
		return nil, fmt.Errorf("order number %s: %w", order.Number, domainErrors.ErrConflict)
	}

	for key, qty := range need {
		if key.variant != 0 {
			v := s.variants[key.variant]
			v.Stock -= qty
			s.variants[key.variant] = v
			continue
		}
		p := s.products[key.product]
		p.Stock -= qty
		s.products[key.product] = p
	}
	if order.PromotionID != nil {
		promo := s.promotions[*order.PromotionID]
		promo.UsageCount++
		s.promotions[promo.ID] = promo
	}

	s.nextOrderID++
	placed := *order
	placed.ID = s.nextOrderID
	placed.CreatedAt = s.Now()
	placed.UpdatedAt = placed.CreatedAt
	placed.Items = make([]model.OrderItem, len(order.Items))
	for i, item := range order.Items {
		s.nextItemID++
		item.ID = s.nextItemID
		item.OrderID = placed.ID
		placed.Items[i] = item
	}
	s.orders[placed.ID] = placed
	s.numbers[placed.Number] = placed.ID
	s.recordEvent(ctx, placed.ID, model.OrderEventCreated)

	out := cloneOrder(placed)
	return &out, nil
}

func (o storeOrders) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	order, ok := o.s.orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	out := cloneOrder(order)
	return &out, nil
}

func (o storeOrders) ListByUser(ctx context.Context, userID int64, page, limit int) (*model.OrderPage, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	var all []model.Order
	for _, order := range o.s.orders {
		if order.UserID == userID {
			all = append(all, cloneOrder(order))
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	result := &model.OrderPage{Orders: []model.Order{}, Total: len(all), Page: page, Limit: limit}
	start := (page - 1) * limit
	if start >= len(all) {
		return result, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	result.Orders = append(result.Orders, all[start:end]...)
	return result, nil
}

func (o storeOrders) UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	s := o.s
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if !status.CanTransition(order.Status) {
		return nil, fmt.Errorf("order %d is %s: %w", id, order.Status, domainErrors.ErrInvalidTransition)
	}
	if status == model.OrderStatusCancelled {
		for _, item := range order.Items {
			if item.VariantID != nil {
				v := s.variants[*item.VariantID]
				v.Stock += item.Quantity
				s.variants[v.ID] = v
				continue
			}
			p := s.products[item.ProductID]
			p.Stock += item.Quantity
			s.products[p.ID] = p
		}
	}
	order.Status = status
	order.UpdatedAt = s.Now()
	s.orders[id] = order
	s.recordEvent(ctx, id, model.OrderEventStatusChanged)

	out := cloneOrder(order)
	return &out, nil
}

func (o storeOrders) UpdatePaymentStatus(ctx context.Context, id int64, status model.PaymentStatus) (*model.Order, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	order, ok := o.s.orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if status != model.PaymentStatusPaid || order.PaymentStatus != model.PaymentStatusUnpaid {
		return nil, domainErrors.ErrInvalidTransition
	}
	order.PaymentStatus = status
	order.UpdatedAt = o.s.Now()
	o.s.orders[id] = order

	out := cloneOrder(order)
	return &out, nil
}

func (s *Store) recordEvent(ctx context.Context, orderID int64, eventType model.OrderEventType) {
	s.events = append(s.events, model.OrderEvent{
		ID:           fmt.Sprintf("evt-%d", len(s.events)+1),
		OrderID:      orderID,
		Type:         eventType,
		Payload:      []byte(fmt.Sprintf(`{"orderId":%d}`, orderID)),
		CreatedAt:    s.Now(),
		TraceContext: tracing.Inject(ctx),
	})
}

func cloneOrder(order model.Order) model.Order {
	order.Items = append([]model.OrderItem(nil), order.Items...)
	return order
}

type storeCarts struct{ s *Store }

func (c storeCarts) GetOrCreate(ctx context.Context, userID int64) (*model.Cart, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	cart, ok := c.s.carts[userID]
	if !ok {
		c.s.nextCartID++
		cart = &model.Cart{ID: c.s.nextCartID, UserID: userID, UpdatedAt: c.s.Now()}
		c.s.carts[userID] = cart
	}
	out := *cart
	out.Items = append([]model.CartItem{}, cart.Items...)
	return &out, nil
}

func (c storeCarts) cartByID(cartID int64) *model.Cart {
	for _, cart := range c.s.carts {
		if cart.ID == cartID {
			return cart
		}
	}
	return nil
}

func (c storeCarts) AddItem(ctx context.Context, cartID int64, item model.CartItem) (*model.CartItem, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	cart := c.cartByID(cartID)
	if cart == nil {
		return nil, domainErrors.ErrNotFound
	}
	for i := range cart.Items {
		existing := &cart.Items[i]
		if existing.ProductID == item.ProductID && sameVariant(existing.VariantID, item.VariantID) {
			existing.Quantity += item.Quantity
			existing.UnitPrice = item.UnitPrice
			out := *existing
			return &out, nil
		}
	}
	c.s.nextItemID++
	item.ID = c.s.nextItemID
	item.CartID = cartID
	cart.Items = append(cart.Items, item)
	return &item, nil
}

func (c storeCarts) RemoveItem(ctx context.Context, cartID, itemID int64) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	cart := c.cartByID(cartID)
	if cart == nil {
		return domainErrors.ErrNotFound
	}
	for i, item := range cart.Items {
		if item.ID == itemID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			return nil
		}
	}
	return domainErrors.ErrNotFound
}

func (c storeCarts) Clear(ctx context.Context, cartID int64) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if cart := c.cartByID(cartID); cart != nil {
		cart.Items = nil
	}
	return nil
}

func sameVariant(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type storeOutbox struct{ s *Store }

func (o storeOutbox) ClaimBatch(ctx context.Context, limit int, lease time.Duration) ([]model.OrderEvent, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	var batch []model.OrderEvent
	for _, event := range o.s.events {
		if len(batch) == limit {
			break
		}
		if !o.s.published[event.ID] {
			batch = append(batch, event)
		}
	}
	return batch, nil
}

func (o storeOutbox) MarkPublished(ctx context.Context, id string) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	o.s.published[id] = true
	return nil
}
