package repo

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/SiddharthaDhakal2/Agri-Backend/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one in-memory database, one connection
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, quantity int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:         name,
		Description:  "test product",
		Category:     models.CategoryVegetables,
		Price:        10,
		Unit:         "kg",
		Quantity:     quantity,
		Availability: models.AvailabilityFor(quantity),
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestValidateStockDoesNotMutate(t *testing.T) {
	db := testDB(t)
	r := &ProductRepo{DB: db}
	ctx := context.Background()

	p := seedProduct(t, db, "carrots", 5)

	require.NoError(t, r.ValidateStock(ctx, []StockItem{{ProductID: p.ID, Quantity: 5}}))

	err := r.ValidateStock(ctx, []StockItem{{ProductID: p.ID, Quantity: 6}})
	require.ErrorIs(t, err, ErrInsufficientStock)

	err = r.ValidateStock(ctx, []StockItem{{ProductID: 999, Quantity: 1}})
	require.ErrorIs(t, err, ErrProductNotFound)

	got, err := r.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 5, got.Quantity)
	require.Equal(t, models.AvailabilityLowStock, got.Availability)
}

func TestCommitStockDecrementsAndRederivesAvailability(t *testing.T) {
	db := testDB(t)
	r := &ProductRepo{DB: db}
	ctx := context.Background()

	p := seedProduct(t, db, "apples", 25)

	require.NoError(t, r.CommitStock(ctx, db, []StockItem{{ProductID: p.ID, Quantity: 10}}))

	got, err := r.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 15, got.Quantity)
	require.Equal(t, models.AvailabilityLowStock, got.Availability)

	require.NoError(t, r.CommitStock(ctx, db, []StockItem{{ProductID: p.ID, Quantity: 15}}))

	got, err = r.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 0, got.Quantity)
	require.Equal(t, models.AvailabilityOutOfStock, got.Availability)
}

func TestCommitStockRejectsOverdraw(t *testing.T) {
	db := testDB(t)
	r := &ProductRepo{DB: db}
	ctx := context.Background()

	p := seedProduct(t, db, "rice", 5)

	err := r.CommitStock(ctx, db, []StockItem{{ProductID: p.ID, Quantity: 6}})
	require.ErrorIs(t, err, ErrInsufficientStock)

	got, err := r.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 5, got.Quantity)

	err = r.CommitStock(ctx, db, []StockItem{{ProductID: 12345, Quantity: 1}})
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestSetStockUsesSameTierFunction(t *testing.T) {
	db := testDB(t)
	r := &ProductRepo{DB: db}
	ctx := context.Background()

	p := seedProduct(t, db, "lentils", 0)

	got, err := r.SetStock(ctx, p.ID, 100)
	require.NoError(t, err)
	require.Equal(t, 100, got.Quantity)
	require.Equal(t, models.AvailabilityInStock, got.Availability)

	got, err = r.SetStock(ctx, p.ID, 20)
	require.NoError(t, err)
	require.Equal(t, models.AvailabilityLowStock, got.Availability)

	_, err = r.SetStock(ctx, 999, 10)
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestPaidOnlyListings(t *testing.T) {
	db := testDB(t)
	r := &OrderRepo{DB: db}
	ctx := context.Background()

	paid := &models.Order{
		UserID: 1, Total: 20, Status: models.OrderStatusProcessing,
		PaymentStatus: models.PaymentStatusPaid,
		CustomerName:  "a", CustomerEmail: "a@example.com", Phone: "1", Address: "x",
	}
	unpaid := &models.Order{
		UserID: 1, Total: 30, Status: models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusUnpaid,
		CustomerName:  "a", CustomerEmail: "a@example.com", Phone: "1", Address: "x",
	}
	failed := &models.Order{
		UserID: 2, Total: 40, Status: models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusFailed,
		CustomerName:  "b", CustomerEmail: "b@example.com", Phone: "2", Address: "y",
	}
	require.NoError(t, r.Create(ctx, paid))
	require.NoError(t, r.Create(ctx, unpaid))
	require.NoError(t, r.Create(ctx, failed))

	all, err := r.ListPaid(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, paid.ID, all[0].ID)

	mine, err := r.ListPaidByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	othres, err := r.ListPaidByUser(ctx, 2)
	require.NoError(t, err)
	require.Empty(t, othres)

	byStatus, err := r.ListPaidByStatus(ctx, models.OrderStatusProcessing)
	require.NoError(t, err)
	require.Len(t, byStatus, 1)

	// abandoned checkouts stay reachable by id
	got, err := r.GetByID(ctx, unpaid.ID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusUnpaid, got.PaymentStatus)
}

func TestMarkPaidOnce(t *testing.T) {
	db := testDB(t)
	r := &OrderRepo{DB: db}
	ctx := context.Background()

	order := &models.Order{
		UserID: 1, Total: 20, Status: models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusUnpaid,
		CustomerName:  "a", CustomerEmail: "a@example.com", Phone: "1", Address: "x",
	}
	require.NoError(t, r.Create(ctx, order))

	patch := PaymentPatch{Status: models.PaymentStatusPaid, Reference: "txn-1"}

	transitioned, err := r.MarkPaidOnce(ctx, db, order.ID, patch)
	require.NoError(t, err)
	require.True(t, transitioned)

	transitioned, err = r.MarkPaidOnce(ctx, db, order.ID, patch)
	require.NoError(t, err)
	require.False(t, transitioned)
}

func TestDeleteOrderRemovesItems(t *testing.T) {
	db := testDB(t)
	r := &OrderRepo{DB: db}
	ctx := context.Background()

	order := &models.Order{
		UserID: 1, Total: 20, Status: models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusUnpaid,
		Items: []models.OrderItem{
			{ProductID: 1, Name: "carrots", Price: 10, Quantity: 2, Total: 20},
		},
		CustomerName: "a", CustomerEmail: "a@example.com", Phone: "1", Address: "x",
	}
	require.NoError(t, r.Create(ctx, order))

	require.NoError(t, r.Delete(ctx, order.ID))

	_, err := r.GetByID(ctx, order.ID)
	require.ErrorIs(t, err, ErrOrderNotFound)

	var count int64
	require.NoError(t, db.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&count).Error)
	require.Zero(t, count)

	require.ErrorIs(t, r.Delete(ctx, order.ID), ErrOrderNotFound)
}
