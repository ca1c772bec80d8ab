// Package docs holds the swagger document served at /swagger.
// Regenerate with: swag init -g cmd/server/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/harvest": {
            "get": {
                "description": "Returns the most recent cached harvest, running a fresh one when the cache is empty or expired",
                "produces": ["application/json"],
                "tags": ["harvest"],
                "summary": "Get the price harvest report",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/report.Response"}},
                    "429": {"description": "error: Too Many Requests - Rate limited", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "post": {
                "description": "Ignores the cache and harvests every listing page. Requires the admin key and is limited by a cooldown.",
                "produces": ["application/json"],
                "tags": ["harvest"],
                "summary": "Force a fresh price harvest",
                "parameters": [
                    {"type": "string", "description": "Admin key", "name": "X-Admin-Key", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/report.Response"}},
                    "401": {"description": "error: Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "429": {"description": "error: Harvest too frequent", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/harvest/runs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["harvest"],
                "summary": "List recent harvest runs",
                "parameters": [
                    {"type": "integer", "default": 50, "description": "Maximum number of runs", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.HarvestRun"}}},
                    "400": {"description": "Invalid limit", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/listings": {
            "get": {
                "produces": ["application/json"],
                "tags": ["listings"],
                "summary": "List ingested listings",
                "parameters": [
                    {"type": "integer", "default": 50, "description": "Maximum number of rows", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Listing"}}},
                    "400": {"description": "Invalid limit", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/upload": {
            "post": {
                "description": "Accepts an .xlsx workbook with title, url and xpath columns, stores its rows and returns them as text. Unless harvest=false, the price harvest report is attached.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["listings"],
                "summary": "Upload a listings spreadsheet",
                "parameters": [
                    {"type": "file", "description": "Workbook (.xlsx)", "name": "file", "in": "formData", "required": true},
                    {"type": "boolean", "default": true, "description": "Run the harvest after ingesting", "name": "harvest", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.UploadResponse"}},
                    "400": {"description": "Invalid or incomplete workbook", "schema": {"type": "object", "additionalProperties": true}},
                    "413": {"description": "Upload too large", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        }
    },
    "definitions": {
        "handlers.UploadResponse": {
            "type": "object",
            "properties": {
                "harvest": {"$ref": "#/definitions/report.Response"},
                "inserted": {"type": "integer"},
                "message": {"type": "string"},
                "rows": {"type": "integer"},
                "skipped": {"type": "integer"},
                "success": {"type": "boolean"},
                "text": {"type": "string"}
            }
        },
        "models.HarvestRun": {
            "type": "object",
            "properties": {
                "finishedAt": {"type": "string"},
                "id": {"type": "integer"},
                "source": {"type": "string"},
                "startedAt": {"type": "string"},
                "summary": {"$ref": "#/definitions/models.HarvestSummary"}
            }
        },
        "models.HarvestSummary": {
            "type": "object",
            "properties": {
                "failedPages": {"type": "integer"},
                "totalPages": {"type": "integer"},
                "totalPrice": {"type": "integer"},
                "totalProducts": {"type": "integer"}
            }
        },
        "models.Listing": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "url": {"type": "string"},
                "xpath": {"type": "string"}
            }
        },
        "report.Response": {
            "type": "object",
            "properties": {
                "averagePrice": {"type": "number"},
                "failedPages": {"type": "integer"},
                "finishedAt": {"type": "string"},
                "source": {"type": "string"},
                "startedAt": {"type": "string"},
                "text": {"type": "string"},
                "totalPages": {"type": "integer"},
                "totalPrice": {"type": "integer"},
                "totalProducts": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Price Harvester API",
	Description:      "Uploads listing spreadsheets and harvests catalog prices with a pool of headless browser sessions",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
