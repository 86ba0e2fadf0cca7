package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/domain/repository"
	pkgAuth "github.com/polkiloo/storefront/internal/pkg/auth"
	testhelpers "github.com/polkiloo/storefront/internal/test"
)

var testAddress = model.Address{FullName: "Ann Lee", Line1: "Main 1", City: "Riga", PostalCode: "LV-1001", Country: "LV"}

type orderFixture struct {
	store    *testhelpers.Store
	charges  *testhelpers.ChargesStub
	observer *testhelpers.ObserverStub
	uc       *OrderUseCase
}

func newOrderFixture(t *testing.T, policy PromotionPolicy) *orderFixture {
	t.Helper()
	store := testhelpers.NewStore()
	store.AddProduct(model.Product{ID: 1, Name: "Mug", BasePrice: decimal.RequireFromString("12.50"), Stock: 5, IsActive: true})
	store.AddProduct(model.Product{ID: 2, Name: "Shirt", BasePrice: decimal.RequireFromString("20.00"), Stock: 0, IsActive: true})
	store.AddProduct(model.Product{ID: 3, Name: "Retired", BasePrice: decimal.RequireFromString("5.00"), Stock: 10, IsActive: false})
	store.AddVariant(model.Variant{ID: 21, ProductID: 2, Name: "L", Price: decimal.RequireFromString("22.00"), Stock: 4})

	charges := &testhelpers.ChargesStub{}
	observer := &testhelpers.ObserverStub{}
	uc := NewOrderUseCase(
		store.Orders(),
		NewCatalogReader(store.Catalog()),
		NewPromotionResolver(store.Promotions()),
		charges,
		policy,
		observer,
	)
	return &orderFixture{store: store, charges: charges, observer: observer, uc: uc}
}

func orderInput(userID int64, lines ...OrderLine) CreateOrderInput {
	return CreateOrderInput{
		UserID:          userID,
		Items:           lines,
		ShippingAddress: testAddress,
		BillingAddress:  testAddress,
		PaymentMethod:   "card",
	}
}

func int64Ptr(v int64) *int64 { return &v }

func TestOrderUseCaseCreateReservesStock(t *testing.T) {
	f := newOrderFixture(t, PromotionStrict)

	order, err := f.uc.Create(context.Background(), orderInput(7, OrderLine{ProductID: 1, Quantity: 3}))
	require.NoError(t, err)

	require.Equal(t, 2, f.store.ProductStock(1))
	require.True(t, order.FinalTotal().Equal(decimal.RequireFromString("37.50")), "final total %s", order.FinalTotal())
	require.Equal(t, model.OrderStatusPending, order.Status)
	require.Equal(t, model.PaymentStatusUnpaid, order.PaymentStatus)
	require.Regexp(t, `^ORD-\d+-[0-9a-f]{8}$`, order.Number)
	require.Len(t, order.Items, 1)
	require.True(t, order.Items[0].UnitPrice.Equal(decimal.RequireFromString("12.50")))
	require.Equal(t, testAddress, order.ShippingAddress)
	require.Equal(t, 1, f.observer.Placed())
	require.Len(t, f.store.Events(), 1)
}

func TestOrderUseCaseCreateConcurrentLastUnits(t *testing.T) {
	f := newOrderFixture(t, PromotionStrict)

	const attempts = 2
	var (
		wg   sync.WaitGroup
		errs = make(chan error, attempts)
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			_, err := f.uc.Create(context.Background(), orderInput(user, OrderLine{ProductID: 1, Quantity: 3}))
			errs <- err
		}(int64(i + 1))
	}
	wg.Wait()
	close(errs)

	var succeeded, insufficient int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domainErrors.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, 1, insufficient)
	require.Equal(t, 2, f.store.ProductStock(1))
	require.Equal(t, 1, f.store.OrderCount())
}

func TestOrderUseCaseCreateUsesVariantPrice(t *testing.T) {
	f := newOrderFixture(t, PromotionStrict)
	f.charges.Charges = model.Charges{ShippingFee: decimal.RequireFromString("4.99"), TaxAmount: decimal.RequireFromString("1.01")}

	order, err := f.uc.Create(context.Background(), orderInput(7,
		OrderLine{ProductID: 2, VariantID: int64Ptr(21), Quantity: 2},
		OrderLine{ProductID: 1, Quantity: 1},
	))
	require.NoError(t, err)

	require.True(t, order.Totals.Subtotal.Equal(decimal.RequireFromString("56.50")))
	require.True(t, order.FinalTotal().Equal(decimal.RequireFromString("62.50")))
	require.Equal(t, 2, f.store.VariantStock(21))
	require.Equal(t, 0, f.store.ProductStock(2))

	requests := f.charges.Requests()
	require.Len(t, requests, 1)
	require.True(t, requests[0].Subtotal.Equal(decimal.RequireFromString("56.50")))
}

func TestOrderUseCaseCreateRejectsInvalidItems(t *testing.T) {
	cases := map[string][]OrderLine{
		"no items":                    nil,
		"zero quantity":               {{ProductID: 1, Quantity: 0}},
		"negative quantity":           {{ProductID: 1, Quantity: -1}},
		"quantity above int32":        {{ProductID: 1, Quantity: 3_000_000_000}},
		"merged quantity above int32": {{ProductID: 1, Quantity: MaxLineQuantity}, {ProductID: 1, Quantity: MaxLineQuantity}},
		"merged variant above int32":  {{ProductID: 2, VariantID: int64Ptr(21), Quantity: MaxLineQuantity}, {ProductID: 2, VariantID: int64Ptr(21), Quantity: 1}},
		"missing product":             {{ProductID: 99, Quantity: 1}},
		"inactive product":            {{ProductID: 1, Quantity: 1}, {ProductID: 3, Quantity: 1}},
		"foreign variant":             {{ProductID: 1, VariantID: int64Ptr(21), Quantity: 1}},
		"missing variant":             {{ProductID: 2, VariantID: int64Ptr(99), Quantity: 1}},
	}

	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			f := newOrderFixture(t, PromotionStrict)

			_, err := f.uc.Create(context.Background(), orderInput(7, lines...))
			require.ErrorIs(t, err, domainErrors.ErrInvalidItem)
			require.Equal(t, 5, f.store.ProductStock(1))
			require.Equal(t, 4, f.store.VariantStock(21))
			require.Zero(t, f.store.OrderCount())
			require.Empty(t, f.charges.Requests())
			require.Equal(t, []string{"invalid_item"}, f.observer.Rejected())
		})
	}
}

func TestOrderUseCaseCreateInsufficientStockKeepsOtherLines(t *testing.T) {
	f := newOrderFixture(t, PromotionStrict)

	_, err := f.uc.Create(context.Background(), orderInput(7,
		OrderLine{ProductID: 1, Quantity: 2},
		OrderLine{ProductID: 2, VariantID: int64Ptr(21), Quantity: 5},
	))

	var stockErr *domainErrors.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, int64(2), stockErr.ProductID)
	require.Equal(t, 5, stockErr.Requested)
	require.Equal(t, 5, f.store.ProductStock(1))
	require.Equal(t, 4, f.store.VariantStock(21))
	require.Zero(t, f.store.OrderCount())
}

func TestOrderUseCaseCreatePromotions(t *testing.T) {
	now := time.Now()
	save10 := model.Promotion{
		ID:             1,
		Code:           "SAVE10",
		DiscountType:   model.DiscountPercentage,
		DiscountValue:  decimal.NewFromInt(10),
		MinOrderAmount: decimal.NewFromInt(100),
		StartDate:      now.Add(-time.Hour),
		EndDate:        now.Add(time.Hour),
		IsActive:       true,
	}
	flat := model.Promotion{
		ID:             2,
		Code:           "FLAT5",
		DiscountType:   model.DiscountFixed,
		DiscountValue:  decimal.NewFromInt(5),
		MinOrderAmount: decimal.Zero,
		StartDate:      now.Add(-time.Hour),
		EndDate:        now.Add(time.Hour),
		IsActive:       true,
	}

	t.Run("below minimum is not eligible", func(t *testing.T) {
		f := newOrderFixture(t, PromotionStrict)
		f.store.AddPromotion(save10)

		in := orderInput(7, OrderLine{ProductID: 1, Quantity: 4})
		in.PromotionID = int64Ptr(1)
		_, err := f.uc.Create(context.Background(), in)
		require.ErrorIs(t, err, domainErrors.ErrNotEligible)
		require.Equal(t, 5, f.store.ProductStock(1))
		require.Zero(t, f.store.PromotionUsage(1))
	})

	t.Run("fixed discount is redeemed once", func(t *testing.T) {
		f := newOrderFixture(t, PromotionStrict)
		f.store.AddPromotion(flat)

		in := orderInput(7, OrderLine{ProductID: 1, Quantity: 2})
		in.PromotionID = int64Ptr(2)
		order, err := f.uc.Create(context.Background(), in)
		require.NoError(t, err)
		require.True(t, order.Totals.DiscountAmount.Equal(decimal.NewFromInt(5)))
		require.True(t, order.FinalTotal().Equal(decimal.NewFromInt(20)))
		require.NotNil(t, order.PromotionID)
		require.Equal(t, 1, f.store.PromotionUsage(2))
	})

	t.Run("missing promotion fails under strict policy", func(t *testing.T) {
		f := newOrderFixture(t, PromotionStrict)

		in := orderInput(7, OrderLine{ProductID: 1, Quantity: 1})
		in.PromotionID = int64Ptr(42)
		_, err := f.uc.Create(context.Background(), in)
		require.ErrorIs(t, err, domainErrors.ErrNotFound)
		require.Equal(t, []string{"promotion_not_found"}, f.observer.Rejected())
	})

	t.Run("lenient policy drops the discount", func(t *testing.T) {
		f := newOrderFixture(t, PromotionLenient)
		f.store.AddPromotion(save10)

		in := orderInput(7, OrderLine{ProductID: 1, Quantity: 2})
		in.PromotionID = int64Ptr(1)
		order, err := f.uc.Create(context.Background(), in)
		require.NoError(t, err)
		require.True(t, order.Totals.DiscountAmount.IsZero())
		require.Nil(t, order.PromotionID)
		require.Zero(t, f.store.PromotionUsage(1))
	})
}

// exhaustingOrders uses up the promotion right before the first placement.
type exhaustingOrders struct {
	repository.OrderRepository
	store *testhelpers.Store
	promo model.Promotion
	once  sync.Once
}

func (o *exhaustingOrders) Place(ctx context.Context, order *model.Order) (*model.Order, error) {
	o.once.Do(func() {
		used := o.promo
		used.UsageCount = *used.UsageLimit
		o.store.AddPromotion(used)
	})
	return o.OrderRepository.Place(ctx, order)
}

func TestOrderUseCaseCreatePromotionExhaustedBeforePlacement(t *testing.T) {
	limit := 1
	promo := model.Promotion{
		ID:             3,
		Code:           "LAST1",
		DiscountType:   model.DiscountFixed,
		DiscountValue:  decimal.NewFromInt(5),
		MinOrderAmount: decimal.Zero,
		StartDate:      time.Now().Add(-time.Hour),
		EndDate:        time.Now().Add(time.Hour),
		IsActive:       true,
		UsageLimit:     &limit,
	}

	t.Run("lenient places without the discount", func(t *testing.T) {
		f := newOrderFixture(t, PromotionLenient)
		f.store.AddPromotion(promo)
		f.uc.orders = &exhaustingOrders{OrderRepository: f.store.Orders(), store: f.store, promo: promo}

		in := orderInput(7, OrderLine{ProductID: 1, Quantity: 2})
		in.PromotionID = int64Ptr(3)
		order, err := f.uc.Create(context.Background(), in)
		require.NoError(t, err)
		require.Nil(t, order.PromotionID)
		require.True(t, order.Totals.DiscountAmount.IsZero())
		require.True(t, order.FinalTotal().Equal(decimal.NewFromInt(25)))
		require.Equal(t, 3, f.store.ProductStock(1))
		require.Equal(t, 1, f.store.PromotionUsage(3))
		require.Equal(t, 1, f.store.OrderCount())
	})

	t.Run("strict fails the order", func(t *testing.T) {
		f := newOrderFixture(t, PromotionStrict)
		f.store.AddPromotion(promo)
		f.uc.orders = &exhaustingOrders{OrderRepository: f.store.Orders(), store: f.store, promo: promo}

		in := orderInput(7, OrderLine{ProductID: 1, Quantity: 2})
		in.PromotionID = int64Ptr(3)
		_, err := f.uc.Create(context.Background(), in)
		require.ErrorIs(t, err, domainErrors.ErrNotFound)
		require.Equal(t, 5, f.store.ProductStock(1))
		require.Zero(t, f.store.OrderCount())
	})
}

func TestOrderUseCaseCreateRetriesNumberConflictOnce(t *testing.T) {
	f := newOrderFixture(t, PromotionStrict)
	var generated []string
	f.uc.newNumber = func() string {
		number := fmt.Sprintf("ORD-1-%08d", len(generated))
		generated = append(generated, number)
		return number
	}

	f.store.PlaceErrs = []error{domainErrors.ErrConflict}
	order, err := f.uc.Create(context.Background(), orderInput(7, OrderLine{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)
	require.Equal(t, "ORD-1-00000001", order.Number)
	require.Len(t, generated, 2)

	f.store.PlaceErrs = []error{domainErrors.ErrConflict, domainErrors.ErrConflict}
	_, err = f.uc.Create(context.Background(), orderInput(7, OrderLine{ProductID: 1, Quantity: 1}))
	require.ErrorIs(t, err, domainErrors.ErrConflict)
	require.Len(t, generated, 4)
	require.Equal(t, 4, f.store.ProductStock(1))
}

func TestOrderUseCaseCreateChargesFailure(t *testing.T) {
	f := newOrderFixture(t, PromotionStrict)
	f.charges.Err = fmt.Errorf("rates down: %w", domainErrors.ErrUnavailable)

	_, err := f.uc.Create(context.Background(), orderInput(7, OrderLine{ProductID: 1, Quantity: 1}))
	require.ErrorIs(t, err, domainErrors.ErrUnavailable)
	require.Equal(t, 5, f.store.ProductStock(1))
	require.Equal(t, []string{"unavailable"}, f.observer.Rejected())
}

func TestOrderUseCaseGet(t *testing.T) {
	f := newOrderFixture(t, PromotionStrict)
	ctx := context.Background()

	order, err := f.uc.Create(ctx, orderInput(7, OrderLine{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)

	got, err := f.uc.Get(ctx, order.ID, pkgAuth.Claims{UserID: 7, Role: model.RoleCustomer})
	require.NoError(t, err)
	require.Equal(t, order.Number, got.Number)

	_, err = f.uc.Get(ctx, order.ID, pkgAuth.Claims{UserID: 8, Role: model.RoleCustomer})
	require.ErrorIs(t, err, domainErrors.ErrForbidden)

	_, err = f.uc.Get(ctx, order.ID, pkgAuth.Claims{UserID: 8, Role: model.RoleAdmin})
	require.NoError(t, err)

	_, err = f.uc.Get(ctx, 999, pkgAuth.Claims{UserID: 7})
	require.ErrorIs(t, err, domainErrors.ErrNotFound)
}

func TestOrderUseCaseList(t *testing.T) {
	f := newOrderFixture(t, PromotionStrict)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.uc.Create(ctx, orderInput(7, OrderLine{ProductID: 1, Quantity: 1}))
		require.NoError(t, err)
	}

	page, err := f.uc.List(ctx, 7, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 1, page.Page)
	require.Equal(t, DefaultPageLimit, page.Limit)
	require.Equal(t, 3, page.Total)
	require.Len(t, page.Orders, 3)
	require.Greater(t, page.Orders[0].ID, page.Orders[2].ID)

	page, err = f.uc.List(ctx, 7, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	require.Equal(t, 2, page.Pages())

	page, err = f.uc.List(ctx, 7, 1, 1000)
	require.NoError(t, err)
	require.Equal(t, MaxPageLimit, page.Limit)

	page, err = f.uc.List(ctx, 7, math.MaxInt, MaxPageLimit)
	require.NoError(t, err)
	require.Empty(t, page.Orders)
	require.Equal(t, math.MaxInt, page.Page)
	require.Equal(t, 3, page.Total)
}

func TestOrderUseCaseUpdateStatus(t *testing.T) {
	f := newOrderFixture(t, PromotionStrict)
	ctx := context.Background()

	order, err := f.uc.Create(ctx, orderInput(7, OrderLine{ProductID: 1, Quantity: 3}))
	require.NoError(t, err)

	_, err = f.uc.UpdateStatus(ctx, order.ID, "archived")
	require.ErrorIs(t, err, domainErrors.ErrInvalidStatus)
	unchanged, err := f.uc.Get(ctx, order.ID, pkgAuth.Claims{UserID: 7})
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusPending, unchanged.Status)

	_, err = f.uc.UpdateStatus(ctx, order.ID, "shipped")
	require.ErrorIs(t, err, domainErrors.ErrInvalidTransition)

	updated, err := f.uc.UpdateStatus(ctx, order.ID, "processing")
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusProcessing, updated.Status)

	cancelled, err := f.uc.UpdateStatus(ctx, order.ID, "cancelled")
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusCancelled, cancelled.Status)
	require.Equal(t, 5, f.store.ProductStock(1))

	_, err = f.uc.UpdateStatus(ctx, order.ID, "processing")
	require.ErrorIs(t, err, domainErrors.ErrInvalidTransition)

	require.Equal(t, []model.OrderStatus{model.OrderStatusProcessing, model.OrderStatusCancelled}, f.observer.Statuses())
}

func TestOrderUseCaseUpdatePayment(t *testing.T) {
	f := newOrderFixture(t, PromotionStrict)
	ctx := context.Background()

	order, err := f.uc.Create(ctx, orderInput(7, OrderLine{ProductID: 1, Quantity: 1}))
	require.NoError(t, err)

	_, err = f.uc.UpdatePayment(ctx, order.ID, "refunded")
	require.ErrorIs(t, err, domainErrors.ErrInvalidStatus)

	_, err = f.uc.UpdatePayment(ctx, order.ID, "unpaid")
	require.ErrorIs(t, err, domainErrors.ErrInvalidTransition)

	paid, err := f.uc.UpdatePayment(ctx, order.ID, "paid")
	require.NoError(t, err)
	require.Equal(t, model.PaymentStatusPaid, paid.PaymentStatus)
	require.Equal(t, model.OrderStatusPending, paid.Status)

	_, err = f.uc.UpdatePayment(ctx, order.ID, "paid")
	require.ErrorIs(t, err, domainErrors.ErrInvalidTransition)
}
