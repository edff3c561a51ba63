// Package docs registers the Swagger 2.0 description of the postboard API
// with swag so http-swagger can serve it under /swagger.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "Report service and store health",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/registerUser": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Register a user",
                "parameters": [
                    {"description": "Register", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": true}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/loginUser": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Log in",
                "parameters": [
                    {"description": "Login", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.LoginResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/userData": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Resolve a session token to its user",
                "parameters": [
                    {"description": "Token, unless sent as a bearer header", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/models.UserDataRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/forgotPassword": {
            "post": {
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Email a password reset link",
                "parameters": [
                    {"description": "Email", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.ForgotPasswordRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted"},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": true}},
                    "413": {"description": "Request Entity Too Large", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/resetPassword/{id}/{token}": {
            "get": {
                "produces": ["text/html"],
                "tags": ["Auth"],
                "summary": "Render the reset form for a valid link",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Reset token", "name": "token", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "consumes": ["application/x-www-form-urlencoded", "application/json"],
                "produces": ["text/html"],
                "tags": ["Auth"],
                "summary": "Set a new password through a reset link",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Reset token", "name": "token", "in": "path", "required": true},
                    {"type": "string", "description": "New password", "name": "password", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/uploadPost": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Posts"],
                "summary": "Create a post with an image",
                "parameters": [
                    {"type": "string", "description": "Name", "name": "pName", "in": "formData", "required": true},
                    {"type": "string", "description": "Description", "name": "pDescription", "in": "formData", "required": true},
                    {"type": "file", "description": "Image", "name": "post", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": true}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": true}},
                    "413": {"description": "Request Entity Too Large", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/getPost": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Posts"],
                "summary": "List all posts",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.PostResponse"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/deletePost": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Posts"],
                "summary": "Delete a post",
                "parameters": [
                    {"description": "Post id", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.DeletePostRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": true}},
                    "413": {"description": "Request Entity Too Large", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/editPost": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Posts"],
                "summary": "Update the supplied fields of a post",
                "parameters": [
                    {"type": "string", "description": "Post id", "name": "postId", "in": "formData", "required": true},
                    {"type": "string", "description": "Name", "name": "pName", "in": "formData"},
                    {"type": "string", "description": "Description", "name": "pDescription", "in": "formData"},
                    {"type": "file", "description": "Image", "name": "post", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": true}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": true}},
                    "413": {"description": "Request Entity Too Large", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        }
    },
    "definitions": {
        "models.RegisterRequest": {
            "type": "object",
            "required": ["email", "fName", "lName", "password"],
            "properties": {
                "fName": {"type": "string"},
                "lName": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "userType": {"type": "string"}
            }
        },
        "models.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "models.LoginResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "data": {"type": "string"},
                "userType": {"type": "string"}
            }
        },
        "models.UserDataRequest": {
            "type": "object",
            "properties": {
                "token": {"type": "string"}
            }
        },
        "models.ForgotPasswordRequest": {
            "type": "object",
            "required": ["email"],
            "properties": {
                "email": {"type": "string"}
            }
        },
        "models.DeletePostRequest": {
            "type": "object",
            "required": ["postId"],
            "properties": {
                "postId": {"type": "string"}
            }
        },
        "models.PostImageResponse": {
            "type": "object",
            "properties": {
                "contentType": {"type": "string"},
                "data": {"type": "string"}
            }
        },
        "models.PostResponse": {
            "type": "object",
            "properties": {
                "_id": {"type": "string"},
                "pName": {"type": "string"},
                "pDescription": {"type": "string"},
                "image": {"$ref": "#/definitions/models.PostImageResponse"}
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
	Title:            "Postboard API",
	Description:      "User accounts, password reset and image posts.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
