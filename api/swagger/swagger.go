package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SCSVMV Visitor Management API",
        "description": "Visitor registration, approval and gate tracking for the SCSVMV campus",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Staff and gate terminal login"},
        {"name": "Visitors", "description": "Registration and department approval queue"},
        {"name": "Security", "description": "Gate desk check-in and check-out"},
        {"name": "Admin", "description": "Staff accounts and campus-wide logs"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Staff login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/pin-login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Gate terminal PIN login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PINLoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid PIN"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user info",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/visitors": {
            "post": {
                "tags": ["Visitors"],
                "summary": "Register a visitor",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "name", "in": "formData", "required": true, "type": "string"},
                    {"name": "designation", "in": "formData", "type": "string"},
                    {"name": "organization", "in": "formData", "type": "string"},
                    {"name": "phone", "in": "formData", "required": true, "type": "string"},
                    {"name": "email", "in": "formData", "required": true, "type": "string"},
                    {"name": "purpose", "in": "formData", "required": true, "type": "string"},
                    {"name": "department", "in": "formData", "required": true, "type": "string"},
                    {"name": "photo", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Visitors"],
                "summary": "List department visitor requests",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["pending", "approved", "checked_in", "checked_out"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/visitors/{id}/approve": {
            "post": {
                "tags": ["Visitors"],
                "summary": "Approve a pending request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Request already processed"}
                }
            }
        },
        "/visitors/{id}/resend": {
            "post": {
                "tags": ["Visitors"],
                "summary": "Resend the approval email",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Email sent"},
                    "409": {"description": "Not approved yet"},
                    "502": {"description": "Email delivery failed"}
                }
            }
        },
        "/visitors/{id}/pass": {
            "get": {
                "tags": ["Visitors"],
                "summary": "Download the printable visitor pass",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF pass"},
                    "409": {"description": "Not approved yet"}
                }
            }
        },
        "/security/visitors/{uid}": {
            "get": {
                "tags": ["Security"],
                "summary": "Look up a visitor by pass UID",
                "parameters": [
                    {"name": "uid", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown UID"}
                }
            }
        },
        "/security/visitors/{id}/check-in": {
            "post": {
                "tags": ["Security"],
                "summary": "Check a visitor in",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition"}
                }
            }
        },
        "/security/visitors/{id}/check-out": {
            "post": {
                "tags": ["Security"],
                "summary": "Check a visitor out",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid transition"}
                }
            }
        },
        "/admin/users": {
            "post": {
                "tags": ["Admin"],
                "summary": "Create or update a staff account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ProvisionUserRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated"},
                    "201": {"description": "Created"},
                    "403": {"description": "Protected account"}
                }
            },
            "get": {
                "tags": ["Admin"],
                "summary": "List staff accounts",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/users/{id}": {
            "delete": {
                "tags": ["Admin"],
                "summary": "Delete a staff account",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Protected account"}
                }
            }
        },
        "/admin/logs": {
            "get": {
                "tags": ["Admin"],
                "summary": "Campus-wide visitor log feed",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/logs/export": {
            "get": {
                "tags": ["Admin"],
                "summary": "Download visitor logs as CSV",
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV export"}
                }
            }
        }
    },
    "definitions": {
        "VisitorRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "designation": {"type": "string"},
                "organization": {"type": "string"},
                "phone": {"type": "string"},
                "email": {"type": "string"},
                "purpose": {"type": "string"},
                "department": {"type": "string"},
                "photo_url": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "approved", "checked_in", "checked_out"]},
                "visitor_uid": {"type": "string"},
                "check_in_time": {"type": "string"},
                "check_out_time": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "PINLoginRequest": {
            "type": "object",
            "properties": {
                "pin": {"type": "string"}
            },
            "required": ["pin"]
        },
        "ProvisionUserRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string", "enum": ["super_admin", "department_admin", "security"]},
                "department": {"type": "string"}
            },
            "required": ["email", "password", "role"]
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
