package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/MikeMC777/product-catalog/internal/auth"
	"github.com/MikeMC777/product-catalog/internal/category"
	"github.com/MikeMC777/product-catalog/internal/httpx"
	"github.com/MikeMC777/product-catalog/internal/product"

	_ "github.com/MikeMC777/product-catalog/docs"
)

type deps struct {
	products   *product.Service
	categories *category.Service
	db         DBChecker
	verifier   *auth.Verifier
	log        logrus.FieldLogger
}

// route is one entry of the static route table. A nil roles slice means public.
type route struct {
	method  string
	path    string
	roles   []string
	handler gin.HandlerFunc
}

var managerOnly = []string{auth.RoleManager}

func routeTable(d deps) []route {
	return []route{
		{http.MethodGet, "/healthz", nil, healthzHandler},
		{http.MethodGet, "/health/db", nil, dbHealthHandler(d.db)},
		{http.MethodGet, "/swagger/*any", nil, ginSwagger.WrapHandler(swaggerFiles.Handler)},

		{http.MethodGet, "/api/v1/products/search", nil, searchProductsHandler(d.products)},
		{http.MethodGet, "/api/v1/products/:id", nil, getProductHandler(d.products, d.log)},
		{http.MethodPost, "/api/v1/products", managerOnly, createProductHandler(d.products, d.log)},
		{http.MethodPut, "/api/v1/products/:id", managerOnly, updateProductHandler(d.products, d.log)},
		{http.MethodDelete, "/api/v1/products/:id", managerOnly, deleteProductHandler(d.products, d.log)},

		{http.MethodPost, "/api/v1/categories", managerOnly, createCategoryHandler(d.categories, d.log)},
		{http.MethodGet, "/api/v1/categories", managerOnly, listCategoriesHandler(d.categories, d.log)},
		{http.MethodDelete, "/api/v1/categories/:id", managerOnly, deleteCategoryHandler(d.categories, d.log)},
	}
}

func newRouter(d deps) *gin.Engine {
	httpx.SetupValidator()

	r := gin.New()
	r.Use(httpx.RequestID(), httpx.Recovery(d.log), httpx.Tracing(), httpx.Logger(d.log))
	r.NoRoute(func(c *gin.Context) {
		httpx.Fail(c, http.StatusNotFound, "Resource not found", nil)
	})

	authn := auth.Authenticate(d.verifier, d.log)
	for _, rt := range routeTable(d) {
		chain := make([]gin.HandlerFunc, 0, 3)
		if rt.roles != nil {
			chain = append(chain, authn, auth.RequireRole(rt.roles...))
		}
		chain = append(chain, rt.handler)
		r.Handle(rt.method, rt.path, chain...)
	}
	return r
}
