package echo

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	app "github.com/mohammadpnp/catalog-import/internal/application/product"
)

type ProductHandler struct {
	createProduct app.CreateProduct
	getProduct    app.GetProduct
}

func NewProductHandler(createProduct app.CreateProduct, getProduct app.GetProduct) *ProductHandler {
	return &ProductHandler{createProduct: createProduct, getProduct: getProduct}
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req app.CreateProductInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse("bad_request", "invalid request body"))
	}

	out, err := h.createProduct.Execute(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, app.ErrInvalidProduct) {
			return c.JSON(http.StatusBadRequest, errorResponse("invalid_product", "sku and name are required"))
		}
		if errors.Is(err, app.ErrProductConflict) {
			return c.JSON(http.StatusConflict, errorResponse("conflict", "a product with this sku already exists"))
		}
		return c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "failed to create product"))
	}

	return c.JSON(http.StatusCreated, apiResponse{Data: out})
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	out, err := h.getProduct.Execute(c.Request().Context(), app.GetProductInput{ID: c.Param("id")})
	if err != nil {
		if errors.Is(err, app.ErrInvalidProductID) {
			return c.JSON(http.StatusBadRequest, errorResponse("invalid_product_id", "id must be a positive integer"))
		}
		if errors.Is(err, app.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, errorResponse("not_found", "product not found"))
		}
		return c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "failed to get product"))
	}

	return c.JSON(http.StatusOK, apiResponse{Data: out})
}
