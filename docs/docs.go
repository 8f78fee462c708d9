// Package docs 由 swag init 生成的接口文档, 修改 handler 注释后重新生成
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
                "summary": "健康检查",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/links": {
            "get": {
                "description": "返回全部链接及点击次数, 最新创建的在前",
                "produces": ["application/json"],
                "tags": ["Links"],
                "summary": "获取全部链接",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.LinkSummary"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            },
            "post": {
                "description": "未提供 slug 时由标题生成; 提供的 slug 已存在时返回 400",
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["Links"],
                "summary": "创建链接",
                "parameters": [
                    {"type": "string", "description": "标题", "name": "title", "in": "formData", "required": true},
                    {"type": "string", "description": "目标地址", "name": "url", "in": "formData", "required": true},
                    {"type": "string", "description": "自定义 slug", "name": "slug", "in": "formData"}
                ],
                "responses": {
                    "303": {"description": "跳转到 /admin"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/links/{id}": {
            "put": {
                "description": "slug 为空时保持不变",
                "consumes": ["application/x-www-form-urlencoded", "application/json"],
                "produces": ["application/json"],
                "tags": ["Links"],
                "summary": "更新链接",
                "parameters": [
                    {"type": "integer", "description": "链接 ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "标题", "name": "title", "in": "formData", "required": true},
                    {"type": "string", "description": "目标地址", "name": "url", "in": "formData", "required": true},
                    {"type": "string", "description": "新的 slug", "name": "slug", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Link"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            },
            "delete": {
                "description": "同时删除该链接的全部点击记录",
                "produces": ["application/json"],
                "tags": ["Links"],
                "summary": "删除链接",
                "parameters": [
                    {"type": "integer", "description": "链接 ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.MessageResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/{slug}": {
            "get": {
                "description": "302 跳转到目标地址并记录一次点击",
                "tags": ["Redirect"],
                "summary": "短链接跳转",
                "parameters": [
                    {"type": "string", "description": "slug", "name": "slug", "in": "path", "required": true}
                ],
                "responses": {
                    "302": {"description": "跳转到目标地址"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string", "example": "链接不存在"}}
        },
        "handler.MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string", "example": "链接已删除"}}
        },
        "model.Link": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "url": {"type": "string"},
                "slug": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "model.LinkSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "url": {"type": "string"},
                "slug": {"type": "string"},
                "created_at": {"type": "string"},
                "clicks": {"type": "integer"}
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
	Title:            "Affiliate Links API",
	Description:      "推广短链接管理与跳转服务",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
