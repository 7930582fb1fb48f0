// Package profiles registers the OpenAPI document served under /swagger/.
// Keep it in step with the handler annotations in internal/profiles/http.
package profiles

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "AussieBroadWAN Team",
            "url": "https://github.com/aussiebroadwan/profiles"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/livez": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version", "schema": {"$ref": "#/definitions/profilesdk.HealthResponse"}}
                }
            }
        },
        "/readyz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version, checks", "schema": {"$ref": "#/definitions/profilesdk.HealthResponse"}},
                    "503": {"description": "database unreachable", "schema": {"$ref": "#/definitions/profilesdk.HealthResponse"}}
                }
            }
        },
        "/v1/users/sign-up": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Sign Up",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/profilesdk.SignUpRequest"}}
                ],
                "responses": {
                    "201": {"description": "profile_id, session_token", "schema": {"$ref": "#/definitions/profilesdk.SessionResponse"}},
                    "400": {"description": "validation or domain error", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}},
                    "409": {"description": "email or username taken", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}}
                }
            }
        },
        "/v1/users/sign-in": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Sign In",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/profilesdk.SignInRequest"}}
                ],
                "responses": {
                    "200": {"description": "profile_id, session_token", "schema": {"$ref": "#/definitions/profilesdk.SessionResponse"}},
                    "401": {"description": "invalid credentials", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}}
                }
            }
        },
        "/v1/users/reset-password/request": {
            "post": {
                "consumes": ["application/json"],
                "tags": ["Users"],
                "summary": "Request Password Reset",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/profilesdk.RequestPasswordResetRequest"}}
                ],
                "responses": {
                    "202": {"description": "accepted"},
                    "429": {"description": "too many resets requested", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}}
                }
            }
        },
        "/v1/users/reset-password": {
            "post": {
                "consumes": ["application/json"],
                "tags": ["Users"],
                "summary": "Reset Password",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/profilesdk.ResetPasswordRequest"}}
                ],
                "responses": {
                    "204": {"description": "password changed"},
                    "400": {"description": "invalid or expired token, bad password", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}}
                }
            }
        },
        "/v1/users/change-password": {
            "post": {
                "consumes": ["application/json"],
                "tags": ["Users"],
                "summary": "Change Password",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/profilesdk.ChangePasswordRequest"}}
                ],
                "responses": {
                    "204": {"description": "password changed"},
                    "401": {"description": "invalid credentials", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}}
                }
            }
        },
        "/v1/profiles/count": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Profiles"],
                "summary": "Count Profiles",
                "responses": {
                    "200": {"description": "count", "schema": {"$ref": "#/definitions/profilesdk.ProfileCountResponse"}}
                }
            }
        },
        "/v1/profiles/me": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Profiles"],
                "summary": "Update Own Profile",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/profilesdk.UpdateProfileRequest"}}
                ],
                "responses": {
                    "200": {"description": "updated profile", "schema": {"$ref": "#/definitions/profilesdk.ProfileResponse"}},
                    "401": {"description": "missing or invalid session", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}}
                }
            }
        },
        "/v1/profiles/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Profiles"],
                "summary": "Get Profile",
                "parameters": [
                    {"type": "string", "description": "Profile ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "profile", "schema": {"$ref": "#/definitions/profilesdk.ProfileResponse"}},
                    "404": {"description": "profile not found", "schema": {"$ref": "#/definitions/httpx.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "httpx.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "error_description": {"type": "string"},
                "details": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "profilesdk.SignUpRequest": {
            "type": "object",
            "required": ["email", "password", "username"],
            "properties": {
                "email": {"type": "string", "maxLength": 60},
                "password": {"type": "string"},
                "username": {"type": "string", "maxLength": 15}
            }
        },
        "profilesdk.SignInRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string", "maxLength": 60},
                "password": {"type": "string"}
            }
        },
        "profilesdk.SessionResponse": {
            "type": "object",
            "properties": {
                "profile_id": {"type": "string"},
                "session_token": {"type": "string"}
            }
        },
        "profilesdk.RequestPasswordResetRequest": {
            "type": "object",
            "required": ["email"],
            "properties": {
                "email": {"type": "string", "maxLength": 60}
            }
        },
        "profilesdk.ResetPasswordRequest": {
            "type": "object",
            "required": ["token", "password"],
            "properties": {
                "token": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "profilesdk.ChangePasswordRequest": {
            "type": "object",
            "required": ["email", "old_password", "new_password"],
            "properties": {
                "email": {"type": "string", "maxLength": 60},
                "old_password": {"type": "string"},
                "new_password": {"type": "string"}
            }
        },
        "profilesdk.UpdateProfileRequest": {
            "type": "object",
            "properties": {
                "display_name": {"type": "string", "maxLength": 64},
                "bio": {"type": "string", "maxLength": 512}
            }
        },
        "profilesdk.ProfileResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "display_name": {"type": "string"},
                "bio": {"type": "string"},
                "banner": {"type": "string"},
                "profile_picture": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "profilesdk.ProfileCountResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer", "format": "int64"}
            }
        },
        "profilesdk.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "uptime": {"type": "string"},
                "version": {"type": "string"},
                "checks": {"$ref": "#/definitions/profilesdk.HealthChecks"}
            }
        },
        "profilesdk.HealthChecks": {
            "type": "object",
            "properties": {
                "database": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Session token. Format: \"Bearer {token}\".",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Profiles Service API",
	Description:      "User registration, sign-in, password reset and public profiles.\nSign-up and sign-in return a session token to send as a bearer token.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
