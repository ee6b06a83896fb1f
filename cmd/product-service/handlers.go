package main

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/MikeMC777/product-catalog/internal/category"
	"github.com/MikeMC777/product-catalog/internal/httpx"
	"github.com/MikeMC777/product-catalog/internal/product"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// DBChecker reports whether the database answers right now.
type DBChecker interface {
	Check(ctx context.Context) error
}

func parsePageSize(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxPageSize {
		return defaultPageSize
	}
	return n
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpx.Fail(c, http.StatusBadRequest, "Invalid id", nil)
		return uuid.Nil, false
	}
	return id, true
}

// searchProductsHandler godoc
// @Summary  Search products with cursor pagination
// @Tags     products
// @Produce  json
// @Param    query   query  string  false  "substring of the product name, surrounding blanks ignored"
// @Param    cursor  query  string  false  "nextCursor of the previous page"
// @Param    size    query  int     false  "page size (1-100, default 10)"
// @Success  200  {object}  httpx.Envelope
// @Router   /products/search [get]
func searchProductsHandler(svc *product.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := strings.TrimSpace(c.Query("query"))
		page := svc.Search(c.Request.Context(), query, c.Query("cursor"), parsePageSize(c.Query("size")))
		httpx.Success(c, http.StatusOK, "Products retrieved successfully", page)
	}
}

// @Summary  Get a product
// @Tags     products
// @Produce  json
// @Param    id  path  string  true  "product id"
// @Success  200  {object}  httpx.Envelope
// @Failure  404  {object}  httpx.Envelope
// @Router   /products/{id} [get]
func getProductHandler(svc *product.Service, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		p, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			writeError(c, log, err)
			return
		}
		httpx.Success(c, http.StatusOK, "Product retrieved successfully", product.ToResponse(*p))
	}
}

// @Summary  Create a product
// @Tags     products
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body  body  product.CreateProductRequest  true  "product"
// @Success  201  {object}  httpx.Envelope
// @Failure  400  {object}  httpx.Envelope
// @Failure  403  {object}  httpx.Envelope
// @Router   /products [post]
func createProductHandler(svc *product.Service, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in product.CreateProductRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			writeBindError(c, err)
			return
		}
		p, err := svc.Create(c.Request.Context(), in)
		if err != nil {
			writeError(c, log, err)
			return
		}
		httpx.Success(c, http.StatusCreated, "Product created successfully", product.ToResponse(*p))
	}
}

// @Summary  Update a product (partial)
// @Tags     products
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id    path  string                        true  "product id"
// @Param    body  body  product.UpdateProductRequest  true  "fields to change"
// @Success  200  {object}  httpx.Envelope
// @Router   /products/{id} [put]
func updateProductHandler(svc *product.Service, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		var in product.UpdateProductRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			writeBindError(c, err)
			return
		}
		p, err := svc.Update(c.Request.Context(), id, in)
		if err != nil {
			writeError(c, log, err)
			return
		}
		httpx.Success(c, http.StatusOK, "Product updated successfully", product.ToResponse(*p))
	}
}

// @Summary  Delete a product
// @Tags     products
// @Security BearerAuth
// @Param    id  path  string  true  "product id"
// @Success  200  {object}  httpx.Envelope
// @Router   /products/{id} [delete]
func deleteProductHandler(svc *product.Service, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			writeError(c, log, err)
			return
		}
		httpx.Success(c, http.StatusOK, "Product deleted successfully", nil)
	}
}

// @Summary  Create a category
// @Tags     categories
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body  body  category.CreateCategoryRequest  true  "category"
// @Success  201  {object}  httpx.Envelope
// @Router   /categories [post]
func createCategoryHandler(svc *category.Service, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in category.CreateCategoryRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			writeBindError(c, err)
			return
		}
		cat, err := svc.Create(c.Request.Context(), in)
		if err != nil {
			writeError(c, log, err)
			return
		}
		httpx.Success(c, http.StatusCreated, "Category created successfully", cat)
	}
}

// @Summary  List categories
// @Tags     categories
// @Produce  json
// @Security BearerAuth
// @Success  200  {object}  httpx.Envelope
// @Router   /categories [get]
func listCategoriesHandler(svc *category.Service, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cats, err := svc.List(c.Request.Context())
		if err != nil {
			writeError(c, log, err)
			return
		}
		httpx.Success(c, http.StatusOK, "Categories retrieved successfully", cats)
	}
}

// @Summary  Delete a category
// @Tags     categories
// @Security BearerAuth
// @Param    id  path  string  true  "category id"
// @Success  200  {object}  httpx.Envelope
// @Router   /categories/{id} [delete]
func deleteCategoryHandler(svc *category.Service, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			writeError(c, log, err)
			return
		}
		httpx.Success(c, http.StatusOK, "Category deleted successfully", nil)
	}
}

func healthzHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// dbHealthHandler answers {"database":"UP","status":200} or 503 with the error.
func dbHealthHandler(db DBChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Check(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"database": "DOWN",
				"status":   http.StatusServiceUnavailable,
				"error":    err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"database": "UP", "status": http.StatusOK})
	}
}
