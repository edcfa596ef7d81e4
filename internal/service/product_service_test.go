package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"product-catalog/internal/domain"
	"product-catalog/internal/repository"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock repository backed by an in-memory map. Mirrors the provider's
// semantics: unique slug, delete/publish as single conditional operations.
type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products: make(map[uuid.UUID]*domain.Product),
	}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	for _, existing := range m.products {
		if existing.Slug == product.Slug {
			return repository.ErrSlugExists
		}
	}
	copied := *product
	m.products[product.ID] = &copied
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, exists := m.products[id]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	copied := *product
	return &copied, nil
}

func (m *mockProductRepository) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	for _, product := range m.products {
		if product.Slug == slug {
			copied := *product
			return &copied, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, exists := m.products[id]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	delete(m.products, id)
	return product, nil
}

func (m *mockProductRepository) Publish(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, exists := m.products[id]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	product.Published = true
	copied := *product
	return &copied, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ListFilter, listSort repository.ListSort) ([]*domain.Product, error) {
	var result []*domain.Product
	for _, product := range m.products {
		if filter.Published != nil && product.Published != *filter.Published {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(product.Name), strings.ToLower(filter.Name)) {
			continue
		}
		copied := *product
		result = append(result, &copied)
	}
	if listSort.Field == "name" {
		sort.Slice(result, func(i, j int) bool {
			if listSort.Order == repository.SortOrderDesc {
				return result[i].Name > result[j].Name
			}
			return result[i].Name < result[j].Name
		})
	}
	return result, nil
}

func TestCreateProductDefaults(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewProductService(repo)
	ctx := context.Background()

	ownerID := uuid.New()
	product, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:        "Widget",
		Description: "A widget",
		Price:       9.99,
	}, ownerID)
	require.NoError(t, err)

	assert.Equal(t, "widget", product.Slug)
	assert.False(t, product.Published)
	assert.Equal(t, ownerID, product.OwnerID)
	assert.NotEqual(t, uuid.Nil, product.ID)
}

func TestCreateSymbolsOnlyNameIsRejected(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewProductService(repo)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:        "!!!",
		Description: "No letters at all",
	}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	// Nothing should have been persisted under an empty slug.
	assert.Empty(t, repo.products)
}

func TestCreateThenDetailRoundTrip(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewProductService(repo)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:        "Blue Widget",
		Description: "A blue widget",
	}, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "blue-widget", created.Slug)

	found, err := svc.GetDetailProduct(ctx, created.Slug)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, created.OwnerID, found.OwnerID)
}

func TestCreateDuplicateNameConflicts(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewProductService(repo)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Widget"}, uuid.New())
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, CreateProductInput{Name: "Widget"}, uuid.New())
	require.Error(t, err)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestDetailMissingSlugIsNotFound(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewProductService(repo)

	_, err := svc.GetDetailProduct(context.Background(), "nonexistent-slug")
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestPublishIsIdempotent(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewProductService(repo)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Widget"}, uuid.New())
	require.NoError(t, err)

	first, err := svc.PublishProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, first.Published)

	second, err := svc.PublishProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, second.Published)
}

func TestDeleteTwiceIsNotFound(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewProductService(repo)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Widget"}, uuid.New())
	require.NoError(t, err)

	deleted, err := svc.DeleteProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	_, err = svc.DeleteProduct(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestDeletePublishedProduct(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewProductService(repo)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Widget"}, uuid.New())
	require.NoError(t, err)

	_, err = svc.PublishProduct(ctx, created.ID)
	require.NoError(t, err)

	deleted, err := svc.DeleteProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted.Published)

	_, err = svc.PublishProduct(ctx, created.ID)
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestPublishedFilterScenario(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewProductService(repo)
	ctx := context.Background()

	widget, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Widget"}, uuid.New())
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, CreateProductInput{Name: "Gadget"}, uuid.New())
	require.NoError(t, err)

	_, err = svc.PublishProduct(ctx, widget.ID)
	require.NoError(t, err)

	published := true
	listed, err := svc.GetAllProducts(ctx, repository.ListFilter{Published: &published}, repository.ListSort{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, widget.ID, listed[0].ID)

	unpublished := false
	listed, err = svc.GetAllProducts(ctx, repository.ListFilter{Published: &unpublished}, repository.ListSort{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.NotEqual(t, widget.ID, listed[0].ID)
}

func TestStoreFailureSurfacesAsStoreError(t *testing.T) {
	svc := NewProductService(failingRepository{})

	_, err := svc.GetAllProducts(context.Background(), repository.ListFilter{}, repository.ListSort{})
	require.Error(t, err)
	assert.Equal(t, domain.KindStore, domain.KindOf(err))
}

type failingRepository struct{}

var errProviderDown = errors.New("connection refused")

func (failingRepository) Create(context.Context, *domain.Product) error { return errProviderDown }
func (failingRepository) FindByID(context.Context, uuid.UUID) (*domain.Product, error) {
	return nil, errProviderDown
}
func (failingRepository) FindBySlug(context.Context, string) (*domain.Product, error) {
	return nil, errProviderDown
}
func (failingRepository) Delete(context.Context, uuid.UUID) (*domain.Product, error) {
	return nil, errProviderDown
}
func (failingRepository) Publish(context.Context, uuid.UUID) (*domain.Product, error) {
	return nil, errProviderDown
}
func (failingRepository) List(context.Context, repository.ListFilter, repository.ListSort) ([]*domain.Product, error) {
	return nil, errProviderDown
}

func TestProperty_CreatedProductsHaveUniqueIDsAndSlugs(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("ids and slugs stay unique across creations", prop.ForAll(
		func(names []string) bool {
			repo := newMockProductRepository()
			svc := NewProductService(repo)
			ctx := context.Background()

			seenIDs := make(map[uuid.UUID]bool)
			seenSlugs := make(map[string]bool)

			for _, name := range names {
				product, err := svc.CreateProduct(ctx, CreateProductInput{Name: name}, uuid.New())
				if err != nil {
					// Duplicate-derived slugs must be rejected as conflicts
					if domain.KindOf(err) != domain.KindConflict {
						return false
					}
					continue
				}

				if seenIDs[product.ID] || seenSlugs[product.Slug] {
					return false
				}
				seenIDs[product.ID] = true
				seenSlugs[product.Slug] = true
			}

			return true
		},
		gen.SliceOf(gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 })),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_PublishNeverReverts(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("repeated publishes keep published true", prop.ForAll(
		func(publishCount int) bool {
			if publishCount < 1 {
				publishCount = 1
			}
			if publishCount > 10 {
				publishCount = 10
			}

			repo := newMockProductRepository()
			svc := NewProductService(repo)
			ctx := context.Background()

			created, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Widget"}, uuid.New())
			if err != nil {
				return false
			}
			if created.Published {
				return false
			}

			for i := 0; i < publishCount; i++ {
				product, err := svc.PublishProduct(ctx, created.ID)
				if err != nil || !product.Published {
					return false
				}
			}

			return true
		},
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
