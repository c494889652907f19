package service

import (
	"context"
	"fmt"

	"github.com/SiddharthaDhakal2/Agri-Backend/internal/models"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/repo"
	"github.com/SiddharthaDhakal2/Agri-Backend/internal/transport"
)

// CatalogService owns product metadata and stock levels. Quantity only
// ever changes through the order payment commit or an explicit
// restock; availability is always rederived, never set directly.
type CatalogService struct {
	Products *repo.ProductRepo
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.ProductRequest) (*models.Product, error) {
	if err := validateProduct(req); err != nil {
		return nil, err
	}

	p := &models.Product{
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Price:        req.Price,
		Unit:         req.Unit,
		Quantity:     req.Quantity,
		Image:        req.Image,
		Supplier:     req.Supplier,
		Farm:         req.Farm,
		Availability: models.AvailabilityFor(req.Quantity),
	}
	if err := s.Products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	return s.Products.GetByID(ctx, id)
}

func (s *CatalogService) ListProducts(ctx context.Context, offset, limit int) ([]models.Product, int64, error) {
	return s.Products.List(ctx, offset, limit)
}

func (s *CatalogService) ListByCategory(ctx context.Context, category string) ([]models.Product, error) {
	if !models.ValidCategory(category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, category)
	}
	return s.Products.ListByCategory(ctx, category)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, req transport.ProductRequest) (*models.Product, error) {
	if err := validateProduct(req); err != nil {
		return nil, err
	}

	p, err := s.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Name = req.Name
	p.Description = req.Description
	p.Category = req.Category
	p.Price = req.Price
	p.Unit = req.Unit
	p.Quantity = req.Quantity
	p.Image = req.Image
	p.Supplier = req.Supplier
	p.Farm = req.Farm
	p.Availability = models.AvailabilityFor(req.Quantity)

	if err := s.Products.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) UpdateStock(ctx context.Context, id uint, quantity int) (*models.Product, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must be >= 0", ErrValidation)
	}
	return s.Products.SetStock(ctx, id, quantity)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	return s.Products.Delete(ctx, id)
}

func validateProduct(req transport.ProductRequest) error {
	if req.Name == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}
	if !models.ValidCategory(req.Category) {
		return fmt.Errorf("%w: unknown category %q", ErrValidation, req.Category)
	}
	if req.Price < 0 {
		return fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	if req.Quantity < 0 {
		return fmt.Errorf("%w: quantity must be >= 0", ErrValidation)
	}
	if req.Unit == "" {
		return fmt.Errorf("%w: unit required", ErrValidation)
	}
	return nil
}
