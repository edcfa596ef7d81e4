package service

import (
	"context"
	"errors"
	"time"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// CreateProductInput carries the caller-supplied fields of a new product.
// The slug is always derived from Name, never caller-supplied.
type CreateProductInput struct {
	Name        string
	Description string
	Price       float64
	ImageURL    string
}

// ProductService defines the interface for catalog business logic
type ProductService interface {
	GetAllProducts(ctx context.Context, filter repository.ListFilter, sort repository.ListSort) ([]*domain.Product, error)
	GetDetailProduct(ctx context.Context, productSlug string) (*domain.Product, error)
	CreateProduct(ctx context.Context, input CreateProductInput, ownerID uuid.UUID) (*domain.Product, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) (*domain.Product, error)
	PublishProduct(ctx context.Context, productID uuid.UUID) (*domain.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

// GetAllProducts returns the products matching filter, ordered per sort
func (s *productService) GetAllProducts(ctx context.Context, filter repository.ListFilter, sort repository.ListSort) ([]*domain.Product, error) {
	products, err := s.productRepo.List(ctx, filter, sort)
	if err != nil {
		return nil, domain.StoreError("failed to list products", err)
	}
	return products, nil
}

// GetDetailProduct returns the product with the given slug
func (s *productService) GetDetailProduct(ctx context.Context, productSlug string) (*domain.Product, error) {
	product, err := s.productRepo.FindBySlug(ctx, productSlug)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, domain.NotFoundError("no product with slug " + productSlug)
		}
		return nil, domain.StoreError("failed to get product", err)
	}
	return product, nil
}

// CreateProduct allocates a new product owned by ownerID. The slug is
// derived from the name; a collision with an existing product is a conflict.
func (s *productService) CreateProduct(ctx context.Context, input CreateProductInput, ownerID uuid.UUID) (*domain.Product, error) {
	productSlug := slug.Make(input.Name)
	if productSlug == "" {
		// A symbols-only name survives the length check at the boundary
		// but derives nothing usable as a public lookup key.
		return nil, domain.ValidationError("name must contain slug-able characters")
	}

	now := time.Now()
	product := &domain.Product{
		ID:          uuid.New(),
		Slug:        productSlug,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		ImageURL:    input.ImageURL,
		Published:   false,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrSlugExists) {
			return nil, domain.ConflictError("product with slug " + product.Slug + " already exists")
		}
		return nil, domain.StoreError("failed to create product", err)
	}

	return product, nil
}

// DeleteProduct removes the product and returns the pre-deletion record
func (s *productService) DeleteProduct(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.Delete(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, domain.NotFoundError("no product with id " + productID.String())
		}
		return nil, domain.StoreError("failed to delete product", err)
	}
	return product, nil
}

// PublishProduct marks the product as published. Publishing an
// already-published product is not an error; there is no reverse path.
func (s *productService) PublishProduct(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.Publish(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, domain.NotFoundError("no product with id " + productID.String())
		}
		return nil, domain.StoreError("failed to publish product", err)
	}
	return product, nil
}
