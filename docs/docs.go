// Package docs holds the OpenAPI description served at /swagger.
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
        "/assignments": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Assignments"],
                "summary": "List assignments",
                "parameters": [
                    {"type": "string", "description": "first date, YYYY-MM-DD", "name": "from", "in": "query"},
                    {"type": "string", "description": "last date, YYYY-MM-DD", "name": "to", "in": "query"},
                    {"type": "string", "description": "foreman id", "name": "foreman_id", "in": "query"},
                    {"type": "string", "description": "project id", "name": "project_id", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Assignments"],
                "summary": "Create an assignment",
                "responses": {"201": {"description": "Created"}, "409": {"description": "DUPLICATE_SLOT"}}
            }
        },
        "/assignments/batch": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Assignments"],
                "summary": "Create assignments in bulk",
                "responses": {"201": {"description": "Created"}, "400": {"description": "VALIDATION_ERROR"}, "409": {"description": "DUPLICATE_SLOT"}}
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Assignments"],
                "summary": "Update assignments in bulk",
                "responses": {"200": {"description": "OK"}, "409": {"description": "CONFLICT with current and project_title, or DUPLICATE_SLOT"}}
            }
        },
        "/assignments/drop": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Assignments"],
                "summary": "Apply a drag and drop on the schedule grid",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/assignments/export": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["Assignments"],
                "summary": "Export the schedule",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/assignments/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Assignments"],
                "summary": "Get an assignment",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "NOT_FOUND"}}
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["Assignments"],
                "summary": "Update an assignment",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "CONFLICT or DUPLICATE_SLOT"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Assignments"],
                "summary": "Delete an assignment",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "NOT_FOUND"}}
            }
        },
        "/assignments/{id}/editors": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Presence"],
                "summary": "Who is editing an assignment",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "session_id", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/reports/crew": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Reports"],
                "summary": "Crew usage report",
                "parameters": [
                    {"type": "string", "name": "from", "in": "query", "required": true},
                    {"type": "string", "name": "to", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Dispatch API",
	Description:      "Crew and vehicle dispatch scheduling for construction projects.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
