package service

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/SiddharthaDhakal2/Agri-Backend/internal/models"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/repo"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/transport"
)

type testEnv struct {
	DB      *gorm.DB
	Catalog *CatalogService
	Orders  *OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	))

	products := &repo.ProductRepo{DB: db}
	orders := &repo.OrderRepo{DB: db}

	return &testEnv{
		DB:      db,
		Catalog: &CatalogService{Products: products},
		Orders:  &OrderService{DB: db, Orders: orders, Products: products},
	}
}

func (env *testEnv) seedProduct(t *testing.T, name string, price float64, quantity int) *models.Product {
	t.Helper()
	p, err := env.Catalog.CreateProduct(context.Background(), transport.ProductRequest{
		Name:        name,
		Description: "test product",
		Category:    models.CategoryVegetables,
		Price:       price,
		Unit:        "kg",
		Quantity:    quantity,
	})
	require.NoError(t, err)
	return p
}

func orderRequest(p *models.Product, quantity int) transport.CreateOrderRequest {
	lineTotal := p.Price * float64(quantity)
	return transport.CreateOrderRequest{
		Items: []transport.OrderItemInput{
			{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: quantity, Total: lineTotal},
		},
		Total:         lineTotal,
		CustomerName:  "Asha",
		CustomerEmail: "asha@example.com",
		Phone:         "9800000000",
		Address:       "Kathmandu",
	}
}

func paidPatch(reference string) repo.PaymentPatch {
	return repo.PaymentPatch{
		Method:      models.PaymentMethodKhalti,
		Status:      models.PaymentStatusPaid,
		Reference:   reference,
		OrderStatus: models.OrderStatusProcessing,
	}
}

func TestCreateOrderValidatesTotals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.seedProduct(t, "carrots", 10, 50)

	req := orderRequest(p, 2)
	req.Total = 25 // does not match 10 * 2

	_, err := env.Orders.CreateOrder(ctx, 1, req, nil)
	require.ErrorIs(t, err, ErrValidation)

	req.Total = 20
	order, err := env.Orders.CreateOrder(ctx, 1, req, nil)
	require.NoError(t, err)
	require.Equal(t, float64(20), order.Total)
	require.Equal(t, models.OrderStatusPending, order.Status)
	require.Equal(t, models.PaymentStatusUnpaid, order.PaymentStatus)
}

func TestCreateOrderLineTotalMismatchRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.seedProduct(t, "carrots", 10, 50)

	req := orderRequest(p, 2)
	req.Items[0].Total = 30
	req.Total = 30

	_, err := env.Orders.CreateOrder(ctx, 1, req, nil)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateOrderDoesNotTouchStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.seedProduct(t, "apples", 5, 5)

	_, err := env.Orders.CreateOrder(ctx, 1, orderRequest(p, 5), nil)
	require.NoError(t, err)

	got, err := env.Catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 5, got.Quantity)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.seedProduct(t, "apples", 5, 3)

	_, err := env.Orders.CreateOrder(ctx, 1, orderRequest(p, 4), nil)
	require.ErrorIs(t, err, repo.ErrInsufficientStock)
}

func TestPaidTransitionCommitsStockOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.seedProduct(t, "rice", 10, 5)

	order, err := env.Orders.CreateOrder(ctx, 1, orderRequest(p, 5), nil)
	require.NoError(t, err)

	updated, err := env.Orders.UpdatePaymentInfo(ctx, order.ID, paidPatch("txn-1"))
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPaid, updated.PaymentStatus)
	require.Equal(t, models.OrderStatusProcessing, updated.Status)

	got, err := env.Catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 0, got.Quantity)
	require.Equal(t, models.AvailabilityOutOfStock, got.Availability)

	// a retried verification must not decrement again
	updated, err = env.Orders.UpdatePaymentInfo(ctx, order.ID, paidPatch("txn-1"))
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPaid, updated.PaymentStatus)

	got, err = env.Catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 0, got.Quantity)
}

func TestSecondOrderLosesCommitRace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.seedProduct(t, "beans", 10, 5)

	// both validate against quantity 5, neither commits yet
	first, err := env.Orders.CreateOrder(ctx, 1, orderRequest(p, 3), nil)
	require.NoError(t, err)
	second, err := env.Orders.CreateOrder(ctx, 2, orderRequest(p, 3), nil)
	require.NoError(t, err)

	_, err = env.Orders.UpdatePaymentInfo(ctx, first.ID, paidPatch("txn-1"))
	require.NoError(t, err)

	got, err := env.Catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.Quantity)

	// the re-check inside the commit rejects the second order
	_, err = env.Orders.UpdatePaymentInfo(ctx, second.ID, paidPatch("txn-2"))
	require.ErrorIs(t, err, repo.ErrInsufficientStock)

	got, err = env.Catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.Quantity)

	loser, err := env.Orders.GetOrder(ctx, second.ID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusFailed, loser.PaymentStatus)
}

func TestFailedPaymentNeverCommits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.seedProduct(t, "corn", 10, 5)

	order, err := env.Orders.CreateOrder(ctx, 1, orderRequest(p, 2), nil)
	require.NoError(t, err)

	updated, err := env.Orders.UpdatePaymentInfo(ctx, order.ID, repo.PaymentPatch{
		Method: models.PaymentMethodKhalti,
		Status: models.PaymentStatusFailed,
	})
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusFailed, updated.PaymentStatus)

	got, err := env.Catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 5, got.Quantity)
}

func TestListingsHidePendingCheckouts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.seedProduct(t, "squash", 10, 50)

	unpaid, err := env.Orders.CreateOrder(ctx, 1, orderRequest(p, 1), nil)
	require.NoError(t, err)
	paid, err := env.Orders.CreateOrder(ctx, 1, orderRequest(p, 2), nil)
	require.NoError(t, err)

	_, err = env.Orders.UpdatePaymentInfo(ctx, paid.ID, paidPatch("txn-1"))
	require.NoError(t, err)

	mine, err := env.Orders.ListOrdersByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, paid.ID, mine[0].ID)

	all, err := env.Orders.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	// direct lookup still works for the abandoned checkout
	got, err := env.Orders.GetOrder(ctx, unpaid.ID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusUnpaid, got.PaymentStatus)
}

func TestDeleteOrderDoesNotRestock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.seedProduct(t, "potatoes", 10, 5)

	order, err := env.Orders.CreateOrder(ctx, 1, orderRequest(p, 3), nil)
	require.NoError(t, err)
	_, err = env.Orders.UpdatePaymentInfo(ctx, order.ID, paidPatch("txn-1"))
	require.NoError(t, err)

	require.NoError(t, env.Orders.DeleteOrder(ctx, order.ID))

	got, err := env.Catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.Quantity)
}

func TestUpdateStatusIsPermissive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.seedProduct(t, "onions", 10, 50)

	order, err := env.Orders.CreateOrder(ctx, 1, orderRequest(p, 1), nil)
	require.NoError(t, err)

	got, err := env.Orders.UpdateStatus(ctx, order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusCancelled, got.Status)

	// no transition table: even reopening a cancelled order passes
	got, err = env.Orders.UpdateStatus(ctx, order.ID, models.OrderStatusShipped)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusShipped, got.Status)

	_, err = env.Orders.UpdateStatus(ctx, order.ID, "lost")
	require.ErrorIs(t, err, ErrValidation)

	_, err = env.Orders.UpdateStatus(ctx, 9999, models.OrderStatusShipped)
	require.ErrorIs(t, err, repo.ErrOrderNotFound)
}
