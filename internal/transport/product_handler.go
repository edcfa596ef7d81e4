package transport

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"product-catalog/internal/domain"
	"product-catalog/internal/middleware"
	"product-catalog/internal/repository"
	"product-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required,min=3,max=120"`
	Description string  `json:"description" validate:"required,max=2000"`
	Price       float64 `json:"price" validate:"gte=0"`
	ImageURL    string  `json:"image_url" validate:"omitempty,url"`
}

// DeleteProductResponse is the deleted record plus a confirmation message
type DeleteProductResponse struct {
	*domain.Product
	Message string `json:"message"`
}

type paramKey string

const (
	createRequestKey paramKey = "create_request"
	productIDKey     paramKey = "product_id"
)

// ProductHandler handles HTTP requests for catalog operations
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers the catalog routes. Each mutating route runs an
// explicit pipeline: validate, authenticate, authorize, rate-limit, execute.
// Validation rejects a request before the credential is even looked at, and
// the rate limiter runs after authentication so it can key on the principal.
// Public reads are never rate limited.
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware, roleMiddleware, rateLimitMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		// Public routes
		r.Get("/", h.List)
		r.Get("/{slug}", h.Detail)

		// Mutating routes
		r.With(h.validateCreateRequest, authMiddleware, roleMiddleware, rateLimitMiddleware).Post("/create", h.Create)
		r.With(h.validateProductID, authMiddleware, roleMiddleware, rateLimitMiddleware).Delete("/{productId}", h.Delete)
		r.With(h.validateProductID, authMiddleware, roleMiddleware, rateLimitMiddleware).Patch("/{productId}", h.Publish)
	})
}

// validateCreateRequest decodes and validates the creation payload, then
// threads the typed request through the context.
func (h *ProductHandler) validateCreateRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req CreateProductRequest

		if err := middleware.DecodeAndValidate(r, &req); err != nil {
			h.logger.Debug("Create product validation failed", zap.Error(err))

			if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
				middleware.RespondWithValidationErrors(w, validationErrors)
				return
			}

			middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ctx := context.WithValue(r.Context(), createRequestKey, req)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validateProductID checks that the productId path segment is a well-formed
// identifier before any credential handling.
func (h *ProductHandler) validateProductID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			middleware.RespondWithDomainError(w, domain.ValidationError("invalid product id"))
			return
		}

		ctx := context.WithValue(r.Context(), productIDKey, productID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// parseListQuery turns the raw query string into a typed filter and sort.
// Unrecognized values are rejected before the service is invoked.
func parseListQuery(r *http.Request) (repository.ListFilter, repository.ListSort, error) {
	var filter repository.ListFilter
	var sort repository.ListSort

	query := r.URL.Query()

	if raw := query.Get("published"); raw != "" {
		published, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, sort, domain.ValidationError("published must be true or false")
		}
		filter.Published = &published
	}

	filter.Name = query.Get("name")

	if raw := query.Get("sort"); raw != "" {
		field, order := raw, ""
		if i := strings.IndexByte(raw, ':'); i >= 0 {
			field, order = raw[:i], raw[i+1:]
		}

		if !repository.ListSortFields[field] {
			return filter, sort, domain.ValidationError("unknown sort field " + field)
		}
		sort.Field = field

		switch strings.ToLower(order) {
		case "", "asc":
			sort.Order = repository.SortOrderAsc
		case "desc":
			sort.Order = repository.SortOrderDesc
		default:
			return filter, sort, domain.ValidationError("sort order must be asc or desc")
		}
	}

	return filter, sort, nil
}

// List handles listing products with optional filter and sort
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, sort, err := parseListQuery(r)
	if err != nil {
		h.logger.Debug("List query validation failed", zap.Error(err))
		middleware.RespondWithDomainError(w, err)
		return
	}

	products, err := h.productService.GetAllProducts(r.Context(), filter, sort)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithDomainError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// Detail handles product lookup by slug
func (h *ProductHandler) Detail(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	product, err := h.productService.GetDetailProduct(r.Context(), slug)
	if err != nil {
		h.logger.Debug("Product detail lookup failed", zap.String("slug", slug), zap.Error(err))
		middleware.RespondWithDomainError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Create handles product creation
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := r.Context().Value(createRequestKey).(CreateProductRequest)
	if !ok {
		h.logger.Error("Create request not found in context")
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// Owner is the authenticated principal resolved by the auth middleware
	userIDStr, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Error("Principal id not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	ownerID, err := uuid.Parse(userIDStr)
	if err != nil {
		h.logger.Error("Invalid principal id", zap.Error(err))
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	input := service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
	}

	product, err := h.productService.CreateProduct(r.Context(), input, ownerID)
	if err != nil {
		h.logger.Error("Failed to create product", zap.Error(err))
		middleware.RespondWithDomainError(w, err)
		return
	}

	h.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("slug", product.Slug),
		zap.String("owner_id", product.OwnerID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// productID returns the identifier validated earlier in the pipeline.
func productID(r *http.Request) (uuid.UUID, bool) {
	id, ok := r.Context().Value(productIDKey).(uuid.UUID)
	return id, ok
}

// Delete handles product deletion
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		h.logger.Error("Product id not found in context")
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	product, err := h.productService.DeleteProduct(r.Context(), id)
	if err != nil {
		h.logger.Debug("Failed to delete product", zap.String("product_id", id.String()), zap.Error(err))
		middleware.RespondWithDomainError(w, err)
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, DeleteProductResponse{
		Product: product,
		Message: "product deleted successfully",
	})
}

// Publish handles the one-way publish transition
func (h *ProductHandler) Publish(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		h.logger.Error("Product id not found in context")
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	product, err := h.productService.PublishProduct(r.Context(), id)
	if err != nil {
		h.logger.Debug("Failed to publish product", zap.String("product_id", id.String()), zap.Error(err))
		middleware.RespondWithDomainError(w, err)
		return
	}

	h.logger.Info("Product published", zap.String("product_id", id.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}
