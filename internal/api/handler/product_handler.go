package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/catalog-api/internal/api/response"
	"github.com/storefront/catalog-api/internal/core/ports"
)

// ProductHandler handles HTTP requests for product operations.
type ProductHandler struct {
	service  ports.ProductService
	uploader *ImageUploader
}

func NewProductHandler(service ports.ProductService, uploader *ImageUploader) *ProductHandler {
	return &ProductHandler{service: service, uploader: uploader}
}

// bindForm parses and validates the scalar fields. It runs before any file
// is saved so a rejected form never leaves files behind.
func (h *ProductHandler) bindForm(c echo.Context) (ports.ProductInput, error) {
	var form productForm
	if err := c.Bind(&form); err != nil {
		return ports.ProductInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid form").SetInternal(err)
	}
	if err := c.Validate(&form); err != nil {
		return ports.ProductInput{}, err
	}
	return form.toInput()
}

// Create handles POST /api/products.
//
// @Summary      Create a product
// @Tags         products
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        sku          formData  string  true   "Unique SKU"
// @Param        name         formData  string  true   "Name"
// @Param        description  formData  string  true   "Description"
// @Param        quantity     formData  int     true   "Quantity in stock"
// @Param        price        formData  number  true   "Unit price"
// @Param        mainImage    formData  string  true   "Original file name of one upload, or a stored image path"
// @Param        images       formData  file    true   "Up to 5 jpeg/png images"
// @Success      201  {object}  response.Envelope
// @Failure      400  {object}  response.Envelope
// @Failure      401  {object}  response.Envelope
// @Failure      500  {object}  response.Envelope
// @Router       /api/products [post]
func (h *ProductHandler) Create(c echo.Context) error {
	in, err := h.bindForm(c)
	if err != nil {
		return err
	}
	uploads, err := h.uploader.Accept(c)
	if err != nil {
		return err
	}

	p, err := h.service.Create(c.Request().Context(), in, uploads)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusCreated, response.Envelope{Product: p})
}

// GetAll handles GET /api/products.
//
// @Summary      List products
// @Tags         products
// @Produce      json
// @Success      200  {object}  response.Envelope
// @Router       /api/products [get]
func (h *ProductHandler) GetAll(c echo.Context) error {
	products, err := h.service.GetAll(c.Request().Context())
	if err != nil {
		return err
	}
	return response.List(c, http.StatusOK, products)
}

// GetByID handles GET /api/products/:id.
//
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "Product id"
// @Success      200  {object}  response.Envelope
// @Failure      404  {object}  response.Envelope
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c echo.Context) error {
	p, err := h.service.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, response.Envelope{Product: p})
}

// Update handles PUT /api/products/:id. Every field is optional; omitting
// images keeps the current image set.
//
// @Summary      Update a product
// @Tags         products
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id           path      string  true   "Product id"
// @Param        sku          formData  string  false  "Unique SKU"
// @Param        name         formData  string  false  "Name"
// @Param        description  formData  string  false  "Description"
// @Param        quantity     formData  int     false  "Quantity in stock"
// @Param        price        formData  number  false  "Unit price"
// @Param        mainImage    formData  string  false  "Original file name of one upload, or a stored image path"
// @Param        images       formData  file    false  "Replacement images, up to 5"
// @Success      200  {object}  response.Envelope
// @Failure      400  {object}  response.Envelope
// @Failure      401  {object}  response.Envelope
// @Failure      404  {object}  response.Envelope
// @Router       /api/products/{id} [put]
func (h *ProductHandler) Update(c echo.Context) error {
	in, err := h.bindForm(c)
	if err != nil {
		return err
	}
	uploads, err := h.uploader.Accept(c)
	if err != nil {
		return err
	}

	p, err := h.service.Update(c.Request().Context(), c.Param("id"), in, uploads)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, response.Envelope{Product: p})
}

// Delete handles DELETE /api/products/:id.
//
// @Summary      Delete a product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product id"
// @Success      200  {object}  response.Envelope
// @Failure      401  {object}  response.Envelope
// @Failure      404  {object}  response.Envelope
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, response.Envelope{Message: "product removed"})
}

// Search handles GET /api/products/search?query=.
//
// @Summary      Search products
// @Description  Full-text search over name, description and sku, best match first. No match is an empty list.
// @Tags         products
// @Produce      json
// @Param        query  query     string  true  "Search terms"
// @Success      200    {object}  response.Envelope
// @Failure      400    {object}  response.Envelope
// @Router       /api/products/search [get]
func (h *ProductHandler) Search(c echo.Context) error {
	products, err := h.service.Search(c.Request().Context(), c.QueryParam("query"))
	if err != nil {
		return err
	}
	return response.List(c, http.StatusOK, products)
}
