package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SiddharthaDhakal2/Agri-Backend/internal/models"
)

var ErrOrderNotFound = errors.New("order not found")

// PaymentPatch merges payment fields into an order. Zero values are
// left alone.
type PaymentPatch struct {
	Method      string
	Status      string
	Pidx        string
	Reference   string
	PaidAt      *time.Time
	OrderStatus string
}

func (p PaymentPatch) columns() map[string]any {
	cols := map[string]any{}
	if p.Method != "" {
		cols["payment_method"] = p.Method
	}
	if p.Status != "" {
		cols["payment_status"] = p.Status
	}
	if p.Pidx != "" {
		cols["payment_pidx"] = p.Pidx
	}
	if p.Reference != "" {
		cols["payment_reference"] = p.Reference
	}
	if p.PaidAt != nil {
		cols["paid_at"] = p.PaidAt
	}
	if p.OrderStatus != "" {
		cols["status"] = p.OrderStatus
	}
	return cols
}

type OrderRepo struct {
	DB *gorm.DB
}

func (r *OrderRepo) Create(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *OrderRepo) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrOrderNotFound, id)
		}
		return nil, err
	}
	return &order, nil
}

// The listings below only surface paid orders. Unpaid and failed
// checkouts stay reachable by direct id lookup but never show up in
// order history.

func (r *OrderRepo) ListPaid(ctx context.Context) ([]models.Order, error) {
	return r.listPaid(ctx, r.DB.WithContext(ctx))
}

func (r *OrderRepo) ListPaidByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	return r.listPaid(ctx, r.DB.WithContext(ctx).Where("user_id = ?", userID))
}

func (r *OrderRepo) ListPaidByStatus(ctx context.Context, status string) ([]models.Order, error) {
	return r.listPaid(ctx, r.DB.WithContext(ctx).Where("status = ?", status))
}

func (r *OrderRepo) listPaid(ctx context.Context, q *gorm.DB) ([]models.Order, error) {
	var orders []models.Order
	if err := q.Where("payment_status = ?", models.PaymentStatusPaid).
		Order("created_at DESC").Preload("Items").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id uint, status string) (*models.Order, error) {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: %d", ErrOrderNotFound, id)
	}
	return r.GetByID(ctx, id)
}

// Deleting an order never restores decremented stock.
func (r *OrderRepo) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Order{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %d", ErrOrderNotFound, id)
		}
		return tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error
	})
}

// ApplyPaymentPatch writes the patch unconditionally (id match only).
func (r *OrderRepo) ApplyPaymentPatch(ctx context.Context, tx *gorm.DB, id uint, patch PaymentPatch) error {
	cols := patch.columns()
	if len(cols) == 0 {
		return nil
	}
	res := tx.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", ErrOrderNotFound, id)
	}
	return nil
}

// MarkPaidOnce applies the patch only if the order is not already
// paid. Reports whether this call performed the unpaid->paid
// transition; the conditional update makes the check-and-set a single
// statement, so a concurrent retry cannot win twice.
func (r *OrderRepo) MarkPaidOnce(ctx context.Context, tx *gorm.DB, id uint, patch PaymentPatch) (bool, error) {
	res := tx.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status <> ?", id, models.PaymentStatusPaid).
		Updates(patch.columns())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
