// Package docs registers the OpenAPI document served at /api/swagger.
// The paths are maintained by hand from the handler annotations and must list every route
// in server.Routes; `swag init -g cmd/server/main.go` produces the full schema version.
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
        "/session": {"get": {"tags": ["session"], "summary": "Current user", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/login": {"post": {"tags": ["session"], "summary": "Log in", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}}}},
        "/logout": {"post": {"tags": ["session"], "summary": "Log out", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/users": {
            "get": {"tags": ["users"], "summary": "List users", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["users"], "summary": "Register", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "409": {"description": "Conflict"}}},
            "delete": {"tags": ["users"], "summary": "Delete own account", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/users/{username}": {"get": {"tags": ["users"], "summary": "Look up a user", "parameters": [{"name": "username", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/users/username": {"patch": {"tags": ["users"], "summary": "Change username", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}},
        "/users/password": {"patch": {"tags": ["users"], "summary": "Change password", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}}}},
        "/users/step": {"patch": {"tags": ["users"], "summary": "Change step size", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/posts": {
            "get": {"tags": ["posts"], "summary": "List posts", "parameters": [{"name": "username", "in": "query", "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "post": {"tags": ["posts"], "summary": "Create a post", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}}
        },
        "/posts/single/{id}": {"get": {"tags": ["posts"], "summary": "Get a post", "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}}},
        "/posts/{id}": {
            "patch": {"tags": ["posts"], "summary": "Update a post", "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["posts"], "summary": "Delete a post", "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}
        },
        "/friends": {"get": {"tags": ["friends"], "summary": "List friends", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/friends/{friend}": {"delete": {"tags": ["friends"], "summary": "Unfriend", "parameters": [{"name": "friend", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/friend/requests": {"get": {"tags": ["friends"], "summary": "List friend requests", "responses": {"200": {"description": "OK"}}}},
        "/friend/requests/{to}": {
            "post": {"tags": ["friends"], "summary": "Send a friend request", "parameters": [{"name": "to", "in": "path", "type": "string", "required": true}], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}},
            "delete": {"tags": ["friends"], "summary": "Withdraw a friend request", "parameters": [{"name": "to", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/friend/accept/{from}": {"put": {"tags": ["friends"], "summary": "Accept a friend request", "parameters": [{"name": "from", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/friend/reject/{from}": {"put": {"tags": ["friends"], "summary": "Reject a friend request", "parameters": [{"name": "from", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/comments": {
            "get": {"tags": ["comments"], "summary": "List comments", "parameters": [{"name": "postId", "in": "query", "type": "string"}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}},
            "post": {"tags": ["comments"], "summary": "Comment on a post", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}}
        },
        "/comments/{id}": {
            "patch": {"tags": ["comments"], "summary": "Edit a comment", "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["comments"], "summary": "Delete a comment", "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}
        },
        "/autocaptions": {
            "get": {"tags": ["captions"], "summary": "List captions", "parameters": [{"name": "postId", "in": "query", "type": "string"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["captions"], "summary": "Caption a post's photo", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}, "502": {"description": "Bad Gateway"}, "504": {"description": "Gateway Timeout"}}}
        },
        "/autocaptions/update/{postid}": {"patch": {"tags": ["captions"], "summary": "Regenerate a caption", "parameters": [{"name": "postid", "in": "path", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}, "502": {"description": "Bad Gateway"}, "504": {"description": "Gateway Timeout"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8375",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "Strider API",
	Description:      "Posts, comments, friends and photo captions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
