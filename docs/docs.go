// Package docs registers the OpenAPI document served under /swagger.
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
        "/api/v1/dashboard": {
            "get": {
                "description": "Latest reading, the readings of the trailing window, two-decimal summaries and the air-quality status.",
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Dashboard snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.dashboardView"}}
                }
            }
        },
        "/api/v1/readings": {
            "get": {
                "description": "Readings of the trailing window in arrival order.",
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Windowed readings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.readingsView"}}
                }
            }
        },
        "/api/v1/summary": {
            "get": {
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Metric summary",
                "parameters": [
                    {"enum": ["temperature", "humidity"], "type": "string", "description": "Metric", "name": "metric", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.summaryView"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/status": {
            "get": {
                "description": "Status of the latest reading in the window, or \"N/A\" when there is none.",
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Air-quality status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.statusView"}}
                }
            }
        },
        "/api/v1/logs": {
            "get": {
                "description": "Events recorded by the engine, oldest first. A date-only 'to' covers that whole day.",
                "produces": ["application/json"],
                "tags": ["logs"],
                "summary": "List ingestion events",
                "parameters": [
                    {"type": "string", "example": "2025-08-01", "description": "Lower bound (RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD')", "name": "from", "in": "query"},
                    {"type": "string", "example": "2025-08-31", "description": "Upper bound, inclusive", "name": "to", "in": "query"},
                    {"enum": ["LOADED", "SOURCE_UNAVAILABLE", "RECORDS_REJECTED"], "type": "string", "description": "Event type", "name": "type", "in": "query"},
                    {"enum": ["snapshot", "stream"], "type": "string", "description": "Adapter kind", "name": "source", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.logsView"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/ws": {
            "get": {
                "description": "WebSocket. Sends the current snapshot, then one \"snapshot\" envelope per recomputation.",
                "tags": ["dashboard"],
                "summary": "Live dashboard",
                "responses": {}
            }
        }
    },
    "definitions": {
        "handlers.dashboardView": {
            "type": "object",
            "properties": {
                "now": {"type": "string"},
                "last_updated": {"type": "string"},
                "latest": {"$ref": "#/definitions/models.Reading"},
                "readings": {"type": "array", "items": {"$ref": "#/definitions/models.Reading"}},
                "temperature": {"$ref": "#/definitions/handlers.summaryView"},
                "humidity": {"$ref": "#/definitions/handlers.summaryView"},
                "status": {"$ref": "#/definitions/handlers.statusView"},
                "source": {"$ref": "#/definitions/models.SourceState"}
            }
        },
        "handlers.logsView": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "events": {"type": "array", "items": {"$ref": "#/definitions/models.IngestEvent"}}
            }
        },
        "handlers.readingsView": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "readings": {"type": "array", "items": {"$ref": "#/definitions/models.Reading"}}
            }
        },
        "handlers.statusView": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "color": {"type": "string"}
            }
        },
        "handlers.summaryView": {
            "type": "object",
            "properties": {
                "avg": {"type": "string"},
                "min": {"type": "string"},
                "max": {"type": "string"},
                "count": {"type": "integer"}
            }
        },
        "models.IngestEvent": {
            "type": "object",
            "properties": {
                "event_id": {"type": "string"},
                "occurred_at": {"type": "string"},
                "type": {"type": "string"},
                "source": {"type": "string"},
                "description": {"type": "string"},
                "meta": {"$ref": "#/definitions/models.IngestMeta"}
            }
        },
        "models.IngestMeta": {
            "type": "object",
            "properties": {
                "readings": {"type": "integer"},
                "count": {"type": "integer"},
                "keys": {"type": "array", "items": {"type": "string"}},
                "error": {"type": "string"}
            }
        },
        "models.Reading": {
            "type": "object",
            "properties": {
                "timestamp": {"type": "string"},
                "temperature": {"type": "number"},
                "humidity": {"type": "number"}
            }
        },
        "models.SourceState": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "status": {"type": "string"},
                "error": {"type": "string"},
                "updated_at": {"type": "string"},
                "readings": {"type": "integer"},
                "rejected": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Air Quality Monitor API",
	Description:      "Temperature and humidity readings over a trailing window, with summaries and an air-quality status.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
