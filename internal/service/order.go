package service

import (
	"context"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/SiddharthaDhakal2/Agri-Backend/internal/models"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/repo"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/transport"
	"github.com/SiddharthaDhakal2/Agri-Backend/pkg/logging"
)

// amounts are currency values, compare within a hair's width
const amountEpsilon = 1e-6

type CreateOrderOptions struct {
	PaymentMethod string
	PaymentStatus string
}

// OrderService owns the order lifecycle and the stock commit rule:
// stock is decremented at most once per order, exactly on the first
// transition into paid.
type OrderService struct {
	DB       *gorm.DB
	Orders   *repo.OrderRepo
	Products *repo.ProductRepo
}

// CreateOrder validates the requested quantities against current stock
// and persists the order with snapshot line items. Stock is not
// touched here.
func (s *OrderService) CreateOrder(ctx context.Context, userID uint, req transport.CreateOrderRequest, opts *CreateOrderOptions) (*models.Order, error) {
	if err := validateOrderInput(req); err != nil {
		return nil, err
	}

	if err := s.Products.ValidateStock(ctx, stockItemsFromInput(req.Items)); err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, models.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Total:     it.Total,
		})
	}

	order := &models.Order{
		UserID:        userID,
		Items:         items,
		Total:         req.Total,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusUnpaid,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Phone:         req.Phone,
		Address:       req.Address,
	}
	if opts != nil {
		if opts.PaymentMethod != "" {
			order.PaymentMethod = opts.PaymentMethod
		}
		if opts.PaymentStatus != "" {
			order.PaymentStatus = opts.PaymentStatus
		}
	}

	if err := s.Orders.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	return s.Orders.GetByID(ctx, id)
}

func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.Orders.ListPaid(ctx)
}

func (s *OrderService) ListOrdersByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.Orders.ListPaidByUser(ctx, userID)
}

func (s *OrderService) ListOrdersByStatus(ctx context.Context, status string) ([]models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return s.Orders.ListPaidByStatus(ctx, status)
}

// UpdateStatus overwrites the fulfillment status. Transitions are
// deliberately unrestricted; a transition table (no reopening
// cancelled or delivered orders) is a candidate follow-up.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, status string) (*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return s.Orders.UpdateStatus(ctx, id, status)
}

func (s *OrderService) DeleteOrder(ctx context.Context, id uint) error {
	return s.Orders.Delete(ctx, id)
}

// UpdatePaymentInfo merges payment fields into the order. When the
// patch moves the order into paid for the first time, the order's
// stock is committed inside the same transaction; the conditional
// update in MarkPaidOnce makes a retried verification a no-op, so a
// transport-level retry can never decrement stock twice. If the stock
// re-check loses the race, the paid transition rolls back, the order
// is marked failed and the error surfaces to the caller.
func (s *OrderService) UpdatePaymentInfo(ctx context.Context, orderID uint, patch repo.PaymentPatch) (*models.Order, error) {
	order, err := s.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if patch.Status != models.PaymentStatusPaid {
		if err := s.Orders.ApplyPaymentPatch(ctx, s.DB, orderID, patch); err != nil {
			return nil, err
		}
		return s.Orders.GetByID(ctx, orderID)
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		transitioned, err := s.Orders.MarkPaidOnce(ctx, tx, orderID, patch)
		if err != nil {
			return err
		}
		if !transitioned {
			// Already paid: apply the rest of the patch, skip the commit.
			return s.Orders.ApplyPaymentPatch(ctx, tx, orderID, patch)
		}
		return s.Products.CommitStock(ctx, tx, stockItemsFromOrder(order.Items))
	})
	if err != nil {
		if ferr := s.Orders.ApplyPaymentPatch(ctx, s.DB, orderID, repo.PaymentPatch{
			Status: models.PaymentStatusFailed,
		}); ferr != nil {
			logging.FromContext(ctx).Error("mark order payment failed", "order_id", orderID, "error", ferr)
		}
		return nil, err
	}

	return s.Orders.GetByID(ctx, orderID)
}

func validateOrderInput(req transport.CreateOrderRequest) error {
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: items required", ErrValidation)
	}
	if req.CustomerName == "" || req.CustomerEmail == "" || req.Phone == "" || req.Address == "" {
		return fmt.Errorf("%w: customer info required", ErrValidation)
	}

	var sum float64
	for _, it := range req.Items {
		if it.ProductID == 0 {
			return fmt.Errorf("%w: productId required", ErrValidation)
		}
		if it.Name == "" {
			return fmt.Errorf("%w: item name required", ErrValidation)
		}
		if it.Quantity < 1 {
			return fmt.Errorf("%w: quantity must be >= 1", ErrValidation)
		}
		if it.Price < 0 {
			return fmt.Errorf("%w: price must be >= 0", ErrValidation)
		}
		if math.Abs(it.Price*float64(it.Quantity)-it.Total) > amountEpsilon {
			return fmt.Errorf("%w: line total mismatch for product %d", ErrValidation, it.ProductID)
		}
		sum += it.Total
	}
	if math.Abs(sum-req.Total) > amountEpsilon {
		return fmt.Errorf("%w: order total %.2f does not match line totals %.2f", ErrValidation, req.Total, sum)
	}
	return nil
}

func stockItemsFromInput(items []transport.OrderItemInput) []repo.StockItem {
	out := make([]repo.StockItem, 0, len(items))
	for _, it := range items {
		out = append(out, repo.StockItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

func stockItemsFromOrder(items []models.OrderItem) []repo.StockItem {
	out := make([]repo.StockItem, 0, len(items))
	for _, it := range items {
		out = append(out, repo.StockItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}
