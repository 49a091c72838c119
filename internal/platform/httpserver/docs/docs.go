// Package docs registers the nearshield OpenAPI document with swag.
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
        "/v1/campaigns": {
            "get": {"summary": "List campaigns", "parameters": [{"name": "from", "in": "query", "type": "integer"}, {"name": "limit", "in": "query", "type": "integer"}], "responses": {"200": {"description": "OK"}}},
            "post": {"summary": "Create a native-funded campaign", "parameters": [{"name": "X-Account-Id", "in": "header", "type": "string", "required": true}, {"name": "X-Attached-Deposit", "in": "header", "type": "string", "required": true}], "responses": {"201": {"description": "Created"}}}
        },
        "/v1/campaigns/{campaign_id}": {
            "get": {"summary": "Get campaign", "parameters": [{"name": "campaign_id", "in": "path", "type": "integer", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "NotFound"}}}
        },
        "/v1/campaigns/{campaign_id}/cancel": {
            "post": {"summary": "Cancel campaign and refund the remaining pool", "parameters": [{"name": "campaign_id", "in": "path", "type": "integer", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/v1/campaigns/{campaign_id}/submissions": {
            "get": {"summary": "List campaign submissions", "parameters": [{"name": "campaign_id", "in": "path", "type": "integer", "required": true}], "responses": {"200": {"description": "OK"}}},
            "post": {"summary": "Submit a bug", "parameters": [{"name": "campaign_id", "in": "path", "type": "integer", "required": true}], "responses": {"201": {"description": "Created"}}}
        },
        "/v1/submissions/{submission_id}": {
            "get": {"summary": "Get submission", "parameters": [{"name": "submission_id", "in": "path", "type": "integer", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/v1/submissions/{submission_id}/review": {
            "post": {"summary": "Review a submission, paying out on acceptance", "parameters": [{"name": "submission_id", "in": "path", "type": "integer", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/v1/ft/on-transfer": {
            "post": {"summary": "Token receiver callback creating a token-funded campaign", "responses": {"200": {"description": "Refund amount"}}}
        },
        "/v1/admin/paused": {"post": {"summary": "Pause or unpause", "responses": {"204": {"description": "No Content"}}}},
        "/v1/admin/treasury": {"post": {"summary": "Set treasury", "responses": {"204": {"description": "No Content"}}}},
        "/v1/admin/admin": {"post": {"summary": "Transfer admin", "responses": {"204": {"description": "No Content"}}}},
        "/v1/admin/withdraw-fees": {"post": {"summary": "Withdraw accumulated surplus to treasury", "responses": {"200": {"description": "OK"}}}},
        "/v1/admin/emergency-withdraw": {"post": {"summary": "Withdraw while paused", "responses": {"200": {"description": "OK"}}}},
        "/v1/leaderboard/finders": {"get": {"summary": "Top finders", "responses": {"200": {"description": "OK"}}}},
        "/v1/leaderboard/projects": {"get": {"summary": "Top projects", "responses": {"200": {"description": "OK"}}}},
        "/v1/events": {"get": {"summary": "Event log feed", "responses": {"200": {"description": "OK"}}}},
        "/v1/custody": {"get": {"summary": "Custody per asset", "responses": {"200": {"description": "OK"}}}},
        "/v1/state": {"get": {"summary": "Contract state", "responses": {"200": {"description": "OK"}}}}
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "nearshield bounty engine API",
	Description:      "Bug bounty escrow: campaigns, submissions, payouts and custody.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
