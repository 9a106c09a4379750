// Package docs is hand-written in the shape swag init generates — it
// registers the Swagger spec that /swagger/*any serves via
// swaggo/gin-swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "ESC/POS Emulator Support",
            "email": "support@escpos-emulator.local"
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
        "/sessions": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Create a session",
                "description": "Opens a new emulated-printer session bound to a transport type"
            },
            "get": {
                "tags": ["Sessions"],
                "summary": "List sessions",
                "description": "Lists every currently live session"
            }
        },
        "/sessions/{session_id}/feed": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Feed bytes to a session",
                "description": "Runs a raw byte chunk through the session's decoder"
            }
        },
        "/sessions/{session_id}/commands": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List a session's command history"
            }
        },
        "/sessions/{session_id}/billing": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Get a session's billing estimate"
            }
        },
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Health check"
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8084",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "ESC/POS Emulator API",
	Description:      "Session-based ESC/POS command stream decoder and status-response emulator",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
