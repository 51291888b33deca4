package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Timetable API",
        "description": "Weekly timetable generation and slot management for senior classes.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Timetable", "description": "Generation, grid preview, weekly views and exports"},
        {"name": "Timetable Slots", "description": "Manual slot management with conflict checks"}
    ],
    "paths": {
        "/timetable/generate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Generate the weekly timetable of a term",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BuildTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "INVALID_INPUT", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "FORBIDDEN", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "INVALID_TEMPLATE, MISSING_SUBJECTS or NO_CLASSES", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/grid/preview": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Preview the periods of one teaching day",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GridConfig"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/classes/{classId}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Weekly timetable of a class",
                "parameters": [
                    {"name": "classId", "in": "path", "required": true, "type": "string"},
                    {"name": "termId", "in": "query", "type": "string", "description": "Defaults to the current term"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/classes/{classId}/export": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Download a class timetable",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "classId", "in": "path", "required": true, "type": "string"},
                    {"name": "termId", "in": "query", "type": "string", "description": "Defaults to the current term"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "UNSUPPORTED_FORMAT", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/teachers/{teacherId}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Weekly timetable of a teacher",
                "parameters": [
                    {"name": "teacherId", "in": "path", "required": true, "type": "string"},
                    {"name": "termId", "in": "query", "type": "string", "description": "Defaults to the current term"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/slots": {
            "get": {
                "tags": ["Timetable Slots"],
                "summary": "List timetable slots of a term",
                "parameters": [
                    {"name": "termId", "in": "query", "type": "string", "description": "Defaults to the current term"},
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "teacherId", "in": "query", "type": "string"},
                    {"name": "dayOfWeek", "in": "query", "type": "integer"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Timetable Slots"],
                "summary": "Create a timetable slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSlotRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "TEACHER_CONFLICT or CLASS_CONFLICT", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetable/slots/{id}": {
            "get": {
                "tags": ["Timetable Slots"],
                "summary": "Get a timetable slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "NOT_FOUND", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Timetable Slots"],
                "summary": "Update a timetable slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSlotRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "TEACHER_CONFLICT or CLASS_CONFLICT", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Timetable Slots"],
                "summary": "Delete a timetable slot",
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
        "GridConfig": {
            "type": "object",
            "properties": {
                "template": {"type": "string", "enum": ["continuous", "kenya_fixed"]},
                "startTime": {"type": "string", "example": "08:00"},
                "periodsPerDay": {"type": "integer", "minimum": 1, "maximum": 12},
                "periodMinutes": {"type": "integer", "minimum": 20, "maximum": 120}
            },
            "required": ["template", "periodMinutes"]
        },
        "ScopeConfig": {
            "type": "object",
            "properties": {
                "mode": {"type": "string", "enum": ["core", "full", "assigned"]},
                "electiveSubjectIds": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["mode"]
        },
        "BuildTimetableRequest": {
            "type": "object",
            "properties": {
                "termId": {"type": "string"},
                "grid": {"$ref": "#/definitions/GridConfig"},
                "scope": {"$ref": "#/definitions/ScopeConfig"},
                "maxPeriodsPerTeacherWeek": {"type": "integer", "minimum": 1, "maximum": 60},
                "fallbackTeachers": {"type": "object", "additionalProperties": {"type": "string"}},
                "regeneration": {"type": "string", "enum": ["upsert", "replace"]}
            },
            "required": ["termId", "grid", "scope"]
        },
        "CreateSlotRequest": {
            "type": "object",
            "properties": {
                "termId": {"type": "string"},
                "teacherId": {"type": "string"},
                "classId": {"type": "string"},
                "subjectId": {"type": "string"},
                "dayOfWeek": {"type": "integer", "minimum": 1, "maximum": 5},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "room": {"type": "string"}
            },
            "required": ["termId", "teacherId", "classId", "subjectId", "dayOfWeek", "startTime", "endTime"]
        },
        "UpdateSlotRequest": {
            "type": "object",
            "properties": {
                "teacherId": {"type": "string"},
                "classId": {"type": "string"},
                "subjectId": {"type": "string"},
                "dayOfWeek": {"type": "integer", "minimum": 1, "maximum": 5},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "room": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
