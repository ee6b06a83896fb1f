package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/MikeMC777/product-catalog/internal/category"
	"github.com/MikeMC777/product-catalog/internal/httpx"
	"github.com/MikeMC777/product-catalog/internal/product"
)

// statusFor maps domain errors to HTTP status codes. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, product.ErrNotFound), errors.Is(err, category.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, product.ErrInvalidCategory), errors.Is(err, product.ErrInvalidProduct),
		errors.Is(err, category.ErrDuplicateName):
		return http.StatusBadRequest
	case errors.Is(err, product.ErrDuplicateSKU), errors.Is(err, category.ErrInUse):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, log logrus.FieldLogger, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		rid, _ := c.Get("rid")
		log.WithError(err).WithField("rid", rid).Error("request failed")
		httpx.Fail(c, code, httpx.MsgUnexpected, nil)
		return
	}
	httpx.Fail(c, code, err.Error(), nil)
}

// writeBindError answers 400, with a field map when the body failed validation.
func writeBindError(c *gin.Context, err error) {
	if fields, ok := httpx.FieldErrors(err); ok {
		httpx.Fail(c, http.StatusBadRequest, "Validation failed", fields)
		return
	}
	httpx.Fail(c, http.StatusBadRequest, "Invalid request body", nil)
}
