// Package docs registers the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/products/search": {
            "get": {
                "tags": ["products"],
                "summary": "Search products with cursor pagination",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "query", "in": "query", "description": "substring of the product name, surrounding blanks ignored"},
                    {"type": "string", "name": "cursor", "in": "query", "description": "nextCursor of the previous page"},
                    {"type": "integer", "name": "size", "in": "query", "description": "page size (1-100, default 10)"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpx.Envelope"}}}
            }
        },
        "/products": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["products"],
                "summary": "Create a product",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/product.CreateProductRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/httpx.Envelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpx.Envelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpx.Envelope"}}
                }
            }
        },
        "/products/{id}": {
            "get": {
                "tags": ["products"],
                "summary": "Get a product",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpx.Envelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpx.Envelope"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["products"],
                "summary": "Update a product (partial)",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/product.UpdateProductRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpx.Envelope"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["products"],
                "summary": "Delete a product",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpx.Envelope"}}}
            }
        },
        "/categories": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["categories"],
                "summary": "List categories",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpx.Envelope"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["categories"],
                "summary": "Create a category",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/category.CreateCategoryRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/httpx.Envelope"}}}
            }
        },
        "/categories/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["categories"],
                "summary": "Delete a category",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/httpx.Envelope"}}}
            }
        }
    },
    "definitions": {
        "httpx.Envelope": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "success"},
                "message": {"type": "string"},
                "data": {}
            }
        },
        "product.CreateProductRequest": {
            "type": "object",
            "required": ["name", "sku", "price", "weightKg", "categoryId"],
            "properties": {
                "name": {"type": "string", "maxLength": 255, "example": "Mechanical Keyboard"},
                "description": {"type": "string", "maxLength": 500, "example": "RGB 60%"},
                "sku": {"type": "string", "maxLength": 50, "example": "KB-60-RGB"},
                "price": {"type": "number", "example": 199.9},
                "weightKg": {"type": "number", "example": 0.85},
                "categoryId": {"type": "string", "format": "uuid"}
            }
        },
        "product.UpdateProductRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "maxLength": 255},
                "description": {"type": "string", "maxLength": 500},
                "price": {"type": "number"},
                "weightKg": {"type": "number"},
                "categoryId": {"type": "string", "format": "uuid"}
            }
        },
        "category.CreateCategoryRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string", "maxLength": 255},
                "description": {"type": "string", "maxLength": 500}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Product Catalog API",
	Description:      "Products and categories with cursor-paginated search.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
