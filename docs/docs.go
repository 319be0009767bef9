// Package docs is generated by swaggo/swag from the handler annotations.
// Regenerate with: swag init -g cmd/app/main.go -o docs
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
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register a customer", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}},
        "/auth/owners/register": {"post": {"tags": ["auth"], "summary": "Register a gym owner", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Log in", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/auth/refresh": {"post": {"tags": ["auth"], "summary": "Refresh access token", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/me": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Current user", "responses": {"200": {"description": "OK"}}},
            "patch": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Update profile", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/gyms": {
            "get": {"tags": ["gyms"], "summary": "Search active gyms", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "consumes": ["multipart/form-data"], "tags": ["gyms"], "summary": "Onboard a gym", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}
        },
        "/gyms/{gymID}": {"get": {"tags": ["gyms"], "summary": "Get an active gym", "parameters": [{"type": "integer", "name": "gymID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/gyms/me": {"patch": {"security": [{"BearerAuth": []}], "tags": ["gyms"], "summary": "Update my gym", "responses": {"200": {"description": "OK"}}}},
        "/gyms/me/resubmit": {"post": {"security": [{"BearerAuth": []}], "tags": ["gyms"], "summary": "Resubmit my gym for review", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/gyms/schedule": {"post": {"security": [{"BearerAuth": []}], "tags": ["gyms"], "summary": "Update weekly schedule", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/gyms/owners/stats": {"get": {"security": [{"BearerAuth": []}], "tags": ["gyms"], "summary": "Weekly stats for my gym", "responses": {"200": {"description": "OK"}}}},
        "/gyms/bookings/upcoming": {"get": {"security": [{"BearerAuth": []}], "tags": ["gyms"], "summary": "Upcoming bookings at my gym", "responses": {"200": {"description": "OK"}}}},
        "/gyms/extensions": {"get": {"security": [{"BearerAuth": []}], "tags": ["extensions"], "summary": "Pending extensions", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}},
        "/bookings": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["bookings"], "summary": "List my bookings", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["bookings"], "summary": "Book a session", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}, "422": {"description": "Unprocessable Entity"}}}
        },
        "/bookings/{bookingID}": {"get": {"security": [{"BearerAuth": []}], "tags": ["bookings"], "summary": "Get booking", "parameters": [{"type": "integer", "name": "bookingID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/bookings/cancel": {"patch": {"security": [{"BearerAuth": []}], "tags": ["bookings"], "summary": "Cancel booking", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}, "422": {"description": "Unprocessable Entity"}}}},
        "/bookings/ratings": {"patch": {"security": [{"BearerAuth": []}], "tags": ["bookings"], "summary": "Rate booking", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}},
        "/bookings/extends": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["extensions"], "summary": "Request extension", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}},
            "patch": {"security": [{"BearerAuth": []}], "tags": ["extensions"], "summary": "Approve or decline extension", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "409": {"description": "Conflict"}}}
        },
        "/admin/gyms/pending": {"get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Gyms awaiting review", "responses": {"200": {"description": "OK"}}}},
        "/admin/gyms/{gymID}/status": {"patch": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Approve or reject a gym", "parameters": [{"type": "integer", "name": "gymID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/health": {"get": {"tags": ["system"], "summary": "Health check", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}},
        "/metrics": {"get": {"produces": ["text/plain"], "tags": ["system"], "summary": "Prometheus metrics", "responses": {"200": {"description": "OK"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {
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
	Schemes:          []string{},
	Title:            "WorkoutWings API",
	Description:      "Gym discovery, slot booking and extension negotiation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
