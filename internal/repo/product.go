package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/SiddharthaDhakal2/Agri-Backend/internal/models"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type StockItem struct {
	ProductID uint
	Quantity  int
}

type ProductRepo struct {
	DB *gorm.DB
}

func (r *ProductRepo) Create(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *ProductRepo) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrProductNotFound, id)
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepo) List(ctx context.Context, offset, limit int) ([]models.Product, int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Product
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).
		Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *ProductRepo) ListByCategory(ctx context.Context, category string) ([]models.Product, error) {
	var items []models.Product
	if err := r.DB.WithContext(ctx).Where("category = ?", category).
		Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ProductRepo) Save(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Save(p).Error
}

func (r *ProductRepo) Delete(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", ErrProductNotFound, id)
	}
	return nil
}

// SearchLike is the database search used when Elasticsearch is not
// configured. Case-insensitive match on name, description and farm.
func (r *ProductRepo) SearchLike(ctx context.Context, query string) ([]models.Product, error) {
	pattern := "%" + query + "%"
	var items []models.Product
	if err := r.DB.WithContext(ctx).
		Where("LOWER(name) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?) OR LOWER(farm) LIKE LOWER(?)",
			pattern, pattern, pattern).
		Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ValidateStock checks every requested line against current stock and
// never mutates anything. Orders are only accepted after it passes.
func (r *ProductRepo) ValidateStock(ctx context.Context, items []StockItem) error {
	for _, it := range items {
		var p models.Product
		if err := r.DB.WithContext(ctx).First(&p, it.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrProductNotFound, it.ProductID)
			}
			return err
		}
		if p.Quantity < it.Quantity {
			return fmt.Errorf("%w for %s: available %d, requested %d",
				ErrInsufficientStock, p.Name, p.Quantity, it.Quantity)
		}
	}
	return nil
}

// CommitStock decrements stock for the given lines inside tx. The
// decrement is a conditional update (quantity >= requested) so two
// concurrent commits for the same product cannot both win; the loser
// gets ErrInsufficientStock and the row is left untouched. Availability
// is recomputed from the post-decrement quantity.
func (r *ProductRepo) CommitStock(ctx context.Context, tx *gorm.DB, items []StockItem) error {
	for _, it := range items {
		res := tx.WithContext(ctx).Model(&models.Product{}).
			Where("id = ? AND quantity >= ?", it.ProductID, it.Quantity).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", it.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var p models.Product
			if err := tx.WithContext(ctx).First(&p, it.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %d", ErrProductNotFound, it.ProductID)
				}
				return err
			}
			return fmt.Errorf("%w for %s: available %d, requested %d",
				ErrInsufficientStock, p.Name, p.Quantity, it.Quantity)
		}

		var p models.Product
		if err := tx.WithContext(ctx).First(&p, it.ProductID).Error; err != nil {
			return err
		}
		if err := tx.WithContext(ctx).Model(&models.Product{}).
			Where("id = ?", p.ID).
			UpdateColumn("availability", models.AvailabilityFor(p.Quantity)).Error; err != nil {
			return err
		}
	}
	return nil
}

// SetStock replaces the quantity on hand (admin restock) and rederives
// availability with the same tier function the commit path uses.
func (r *ProductRepo) SetStock(ctx context.Context, id uint, quantity int) (*models.Product, error) {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"quantity":     quantity,
			"availability": models.AvailabilityFor(quantity),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: %d", ErrProductNotFound, id)
	}
	return r.GetByID(ctx, id)
}
