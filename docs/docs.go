// Package docs registers the OpenAPI description of the simulator API served
// at /swagger/index.html.
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
    "paths": {
        "/health": {
            "get": {
                "tags": ["system"],
                "summary": "Health check",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/auth/sign-up": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a user",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/credentials"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/auth/sign-in": {
            "post": {
                "tags": ["auth"],
                "summary": "Obtain a token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/credentials"}}
                ],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/macros/{path}": {
            "post": {
                "security": [{"BearerAuth": []}, {"BasicAuth": []}],
                "description": "WebIOPi macro convention. Arguments are comma separated, e.g. /macros/switchChannel/3,1.",
                "tags": ["macros"],
                "summary": "Call a controller macro",
                "produces": ["text/plain"],
                "parameters": [
                    {"type": "string", "example": "setDay/0,1", "description": "Macro name and arguments", "name": "path", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Macro reply", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"},
                    "404": {"description": "Unknown macro"}
                }
            }
        },
        "/api/v1/state": {
            "get": {
                "security": [{"BearerAuth": []}, {"BasicAuth": []}],
                "tags": ["controller"],
                "summary": "Controller state",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/snapshot"}}}
            }
        },
        "/api/v1/logs": {
            "get": {
                "security": [{"BearerAuth": []}, {"BasicAuth": []}],
                "tags": ["logs"],
                "summary": "List logs",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "from", "in": "query"},
                    {"type": "string", "name": "to", "in": "query"},
                    {"enum": ["ON", "OFF", "MODE_CHANGE", "SCHEDULE"], "type": "string", "name": "type", "in": "query"},
                    {"type": "integer", "name": "channel", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "count, events"}, "400": {"description": "Bad Request"}}
            }
        }
    },
    "definitions": {
        "credentials": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string", "example": "gardener"},
                "password": {"type": "string", "example": "s3cr3t"}
            }
        },
        "snapshot": {
            "type": "object",
            "properties": {
                "mode": {"type": "string", "example": "auto"},
                "start": {"type": "string", "example": "06:30"},
                "days": {"type": "object", "additionalProperties": {"type": "integer"}},
                "channels": {"type": "object", "additionalProperties": {"type": "integer"}},
                "durations": {"type": "object", "additionalProperties": {"type": "integer"}}
            }
        }
    },
    "securityDefinitions": {
        "BasicAuth": {"type": "basic"},
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Irrigation controller simulator API",
	Description:      "Macro API of the simulated irrigation controller, plus its event log.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
