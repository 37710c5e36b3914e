package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Confera Approvals API",
        "description": "Approval workflow engine for event management",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Workflows", "description": "Approval workflow lifecycle"},
        {"name": "Reviewers", "description": "Reviewer assignments and votes"},
        {"name": "Stakeholders", "description": "Non-voting workflow subscribers"},
        {"name": "Comments", "description": "Workflow discussion thread"},
        {"name": "History", "description": "Append-only audit ledger"},
        {"name": "Exports", "description": "Workflow register exports"}
    ],
    "paths": {
        "/workflows": {
            "get": {
                "tags": ["Workflows"],
                "summary": "List workflows",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "item_type", "in": "query", "type": "string"},
                    {"name": "item_id", "in": "query", "type": "integer"},
                    {"name": "requester_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Workflows"],
                "summary": "Open a workflow",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateWorkflowRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/workflows/{id}": {
            "get": {
                "tags": ["Workflows"],
                "summary": "Get workflow",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Workflows"],
                "summary": "Update workflow fields",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateWorkflowRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Workflows"],
                "summary": "Delete workflow and dependents",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/workflows/{id}/status": {
            "put": {
                "tags": ["Workflows"],
                "summary": "Change workflow status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/workflows/{id}/reviewers": {
            "get": {
                "tags": ["Reviewers"],
                "summary": "List workflow reviewers",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Reviewers"],
                "summary": "Assign reviewer",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddReviewerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/workflows/{id}/reviewers/{reviewerId}": {
            "delete": {
                "tags": ["Reviewers"],
                "summary": "Unassign reviewer",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "reviewerId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/reviewers/{id}": {
            "put": {
                "tags": ["Reviewers"],
                "summary": "Submit review verdict",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/workflows/{id}/stakeholders": {
            "get": {
                "tags": ["Stakeholders"],
                "summary": "List workflow stakeholders",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Stakeholders"],
                "summary": "Subscribe stakeholder",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddStakeholderRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/workflows/{id}/stakeholders/{stakeholderId}": {
            "delete": {
                "tags": ["Stakeholders"],
                "summary": "Unsubscribe stakeholder",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "stakeholderId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/workflows/{id}/comments": {
            "get": {
                "tags": ["Comments"],
                "summary": "List workflow comments",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Comments"],
                "summary": "Post comment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CommentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/comments/{id}": {
            "put": {
                "tags": ["Comments"],
                "summary": "Edit comment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CommentRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            },
            "delete": {
                "tags": ["Comments"],
                "summary": "Delete comment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/workflows/{id}/history": {
            "get": {
                "tags": ["History"],
                "summary": "List workflow audit ledger",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/{id}/reviews": {
            "get": {
                "tags": ["Reviewers"],
                "summary": "List review assignments for a user",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Request a workflow register export",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Get export job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a completed export via signed token",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/users/{id}/comments": {
            "get": {
                "tags": ["Comments"],
                "summary": "List comments authored by a user",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ApprovalWorkflow": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "item_type": {"type": "string", "enum": ["event_attendance", "event_cfp_submission", "event_speaking", "event_sponsorship", "event_budget_request"]},
                "item_id": {"type": "integer"},
                "priority": {"type": "string", "enum": ["low", "medium", "high"]},
                "status": {"type": "string", "enum": ["pending", "approved", "rejected", "changes_requested"]},
                "due_date": {"type": "string"},
                "requester_id": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "WorkflowReviewer": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "workflow_id": {"type": "string"},
                "reviewer_id": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "approved", "rejected"]},
                "comments": {"type": "string"},
                "reviewed_at": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "WorkflowStakeholder": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "workflow_id": {"type": "string"},
                "stakeholder_id": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "WorkflowComment": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "workflow_id": {"type": "string"},
                "user_id": {"type": "string"},
                "content": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "WorkflowHistory": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "workflow_id": {"type": "string"},
                "user_id": {"type": "string"},
                "action": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "CreateWorkflowRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "item_type": {"type": "string"},
                "item_id": {"type": "integer"},
                "priority": {"type": "string"},
                "due_date": {"type": "string"},
                "reviewer_ids": {"type": "array", "items": {"type": "string"}},
                "stakeholder_ids": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["title", "item_type", "item_id", "reviewer_ids"]
        },
        "UpdateWorkflowRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "priority": {"type": "string"},
                "due_date": {"type": "string"}
            }
        },
        "UpdateStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["pending", "approved", "rejected", "changes_requested"]}
            },
            "required": ["status"]
        },
        "AddReviewerRequest": {
            "type": "object",
            "properties": {
                "reviewer_id": {"type": "string"}
            },
            "required": ["reviewer_id"]
        },
        "SubmitReviewRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["pending", "approved", "rejected"]},
                "comments": {"type": "string"}
            },
            "required": ["status"]
        },
        "AddStakeholderRequest": {
            "type": "object",
            "properties": {
                "stakeholder_id": {"type": "string"}
            },
            "required": ["stakeholder_id"]
        },
        "CreateExportRequest": {
            "type": "object",
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf"]},
                "status": {"type": "string"},
                "item_type": {"type": "string"}
            },
            "required": ["format"]
        },
        "ExportJob": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "requester_id": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf"]},
                "status": {"type": "string", "enum": ["queued", "processing", "completed", "failed"]},
                "filter_status": {"type": "string"},
                "filter_type": {"type": "string"},
                "failure_reason": {"type": "string"},
                "download_url": {"type": "string"},
                "expires_at": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"},
                "completed_at": {"type": "string"}
            }
        },
        "CommentRequest": {
            "type": "object",
            "properties": {
                "content": {"type": "string"}
            },
            "required": ["content"]
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
                "pagination": {"type": "object"},
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
