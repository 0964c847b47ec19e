package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "FormBase Gateway API",
        "description": "Forms, fields and records over a PostgREST-style store, with filtering, map pins and exports.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "security": [
        {"BearerAuth": []}
    ],
    "tags": [
        {"name": "Forms", "description": "Form definitions"},
        {"name": "Fields", "description": "Typed fields of a form"},
        {"name": "Records", "description": "Submitted records, filtering and map pins"},
        {"name": "Browser", "description": "Stateful records screen with a step-by-step filter editor"},
        {"name": "Exports", "description": "Asynchronous CSV and PDF exports"}
    ],
    "paths": {
        "/forms": {
            "get": {
                "tags": ["Forms"],
                "summary": "List forms",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Forms"],
                "summary": "Create form",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateFormRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/forms/{formId}": {
            "parameters": [{"name": "formId", "in": "path", "required": true, "type": "integer"}],
            "get": {
                "tags": ["Forms"],
                "summary": "Get form",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Forms"],
                "summary": "Update form",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateFormRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Forms"],
                "summary": "Delete form",
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/forms/{formId}/fields": {
            "parameters": [{"name": "formId", "in": "path", "required": true, "type": "integer"}],
            "get": {
                "tags": ["Fields"],
                "summary": "List form fields in display order",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Fields"],
                "summary": "Add a field to a form",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateFieldRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/forms/{formId}/records": {
            "parameters": [{"name": "formId", "in": "path", "required": true, "type": "integer"}],
            "get": {
                "tags": ["Records"],
                "summary": "List a form's records",
                "description": "Each filter is fieldId:operator:value; all filters must match.",
                "parameters": [
                    {"name": "filter", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Records"],
                "summary": "Add a record to a form",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRecordRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Required items missing", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/forms/{formId}/map": {
            "get": {
                "tags": ["Records"],
                "summary": "Map pins for a form's records",
                "parameters": [{"name": "formId", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Form has no location field", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/forms/{formId}/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a CSV or PDF export of a form's records",
                "parameters": [
                    {"name": "formId", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {"202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/forms/{formId}/browser": {
            "post": {
                "tags": ["Browser"],
                "summary": "Open a record browser session for a form",
                "parameters": [{"name": "formId", "in": "path", "required": true, "type": "integer"}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/exports/{jobId}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Get export job status",
                "parameters": [{"name": "jobId", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/exports/download": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export through its signed link",
                "security": [],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"name": "token", "in": "query", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "401": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/records/{recordId}": {
            "parameters": [{"name": "recordId", "in": "path", "required": true, "type": "integer"}],
            "get": {
                "tags": ["Records"],
                "summary": "Get record",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Records"],
                "summary": "Delete record",
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/records/{recordId}/copy": {
            "get": {
                "tags": ["Records"],
                "summary": "Get a record's values as clipboard JSON",
                "parameters": [{"name": "recordId", "in": "path", "required": true, "type": "integer"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Record values could not be read", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/browser/{sessionId}": {
            "parameters": [{"name": "sessionId", "in": "path", "required": true, "type": "string"}],
            "get": {
                "tags": ["Browser"],
                "summary": "Current session view",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Browser"],
                "summary": "Close a browser session",
                "responses": {"204": {"description": "Closed"}}
            }
        },
        "/browser/{sessionId}/refresh": {
            "post": {
                "tags": ["Browser"],
                "summary": "Re-fetch fields and records",
                "parameters": [{"name": "sessionId", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/browser/{sessionId}/field": {
            "post": {
                "tags": ["Browser"],
                "summary": "Choose the field of a new criterion",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChooseFieldRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/browser/{sessionId}/operator": {
            "post": {
                "tags": ["Browser"],
                "summary": "Choose the operator of the criterion being edited",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChooseOperatorRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/browser/{sessionId}/confirm": {
            "post": {
                "tags": ["Browser"],
                "summary": "Confirm the value and apply the criterion",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConfirmCriterionRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/browser/{sessionId}/cancel": {
            "post": {
                "tags": ["Browser"],
                "summary": "Cancel filter editing and drop every criterion",
                "parameters": [{"name": "sessionId", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/browser/{sessionId}/criteria": {
            "delete": {
                "tags": ["Browser"],
                "summary": "Clear all criteria",
                "parameters": [{"name": "sessionId", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/browser/{sessionId}/criteria/{fieldId}": {
            "parameters": [
                {"name": "sessionId", "in": "path", "required": true, "type": "string"},
                {"name": "fieldId", "in": "path", "required": true, "type": "integer"}
            ],
            "put": {
                "tags": ["Browser"],
                "summary": "Add or replace a field's criterion",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PutCriterionRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Browser"],
                "summary": "Remove a field's criterion",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/browser/{sessionId}/records/{recordId}": {
            "delete": {
                "tags": ["Browser"],
                "summary": "Delete a record from the session's list",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "string"},
                    {"name": "recordId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "CreateFormRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string", "maxLength": 200},
                "description": {"type": "string"}
            }
        },
        "UpdateFormRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "CreateFieldRequest": {
            "type": "object",
            "required": ["name", "field_type"],
            "properties": {
                "name": {"type": "string"},
                "field_type": {"type": "string", "enum": ["Single-Line-Text", "Multi-Line-Text", "Dropdown", "Location", "Photo"]},
                "required": {"type": "boolean"},
                "is_num": {"type": "boolean"},
                "choices": {"type": "array", "items": {"type": "string"}},
                "order_index": {"type": "integer"}
            }
        },
        "CreateRecordRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "values": {"type": "object", "description": "Keyed by field id"}
            }
        },
        "ExportRequest": {
            "type": "object",
            "required": ["format"],
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf"]},
                "filters": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ChooseFieldRequest": {
            "type": "object",
            "properties": {"field_id": {"type": "integer"}}
        },
        "ChooseOperatorRequest": {
            "type": "object",
            "properties": {"operator": {"type": "string", "enum": ["eq", "ne", "gt", "ge", "lt", "le", "contains", "starts"]}}
        },
        "ConfirmCriterionRequest": {
            "type": "object",
            "properties": {"value": {"type": "string"}}
        },
        "PutCriterionRequest": {
            "type": "object",
            "properties": {
                "operator": {"type": "string"},
                "value": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
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
