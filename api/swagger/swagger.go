package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Timetable API",
        "description": "Slot validation, assignment and grid management for course-semester timetables.",
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
        {"name": "Timetable", "description": "Course-semester timetable grids"},
        {"name": "Ops", "description": "Liveness, readiness and metrics"}
    ],
    "paths": {
        "/timetables/time-slots": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List the enumerated teaching slots of a day",
                "responses": {
                    "200": {"description": "Teaching slots and lunch break", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/count": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Count non-empty course-semester grids",
                "responses": {
                    "200": {"description": "Grid count", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/validate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Check a proposed slot assignment without committing it",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/ValidateSlotRequest"}}
                ],
                "responses": {
                    "200": {"description": "Verdict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Malformed proposal", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/assign": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Assign a subject, faculty and room to a timetable cell",
                "description": "Replaces any existing occupant of the cell. Requires ADMIN or SUPERADMIN.",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/AssignSlotRequest"}}
                ],
                "responses": {
                    "201": {"description": "Committed slot", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Malformed request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Blocked by conflicts", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No faculty available", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables": {
            "delete": {
                "tags": ["Timetable"],
                "summary": "Delete every slot of every grid",
                "parameters": [
                    {"in": "query", "name": "all", "type": "boolean", "required": true}
                ],
                "responses": {
                    "200": {"description": "Deleted count", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "all=true missing", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{courseId}/semesters/{semester}": {
            "get": {
                "tags": ["Timetable"],
                "summary": "Show a course-semester timetable grid",
                "parameters": [
                    {"in": "path", "name": "courseId", "type": "string", "required": true},
                    {"in": "path", "name": "semester", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "Grid", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Timetable"],
                "summary": "Delete every slot of a course-semester grid",
                "parameters": [
                    {"in": "path", "name": "courseId", "type": "string", "required": true},
                    {"in": "path", "name": "semester", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "Deleted count", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/{courseId}/semesters/{semester}/slots": {
            "delete": {
                "tags": ["Timetable"],
                "summary": "Remove the occupant of one timetable cell",
                "parameters": [
                    {"in": "path", "name": "courseId", "type": "string", "required": true},
                    {"in": "path", "name": "semester", "type": "integer", "required": true},
                    {"in": "query", "name": "day", "type": "integer", "required": true},
                    {"in": "query", "name": "startTime", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Removed slot", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Cell is empty", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ValidateSlotRequest": {
            "type": "object",
            "required": ["subjectId", "day", "startTime"],
            "properties": {
                "courseId": {"type": "string"},
                "subjectId": {"type": "string"},
                "facultyId": {"type": "string"},
                "roomId": {"type": "string"},
                "day": {"type": "integer", "minimum": 1, "maximum": 7},
                "startTime": {"type": "string", "example": "09:00"},
                "editingSlotId": {"type": "string"}
            }
        },
        "AssignSlotRequest": {
            "type": "object",
            "required": ["courseId", "semester", "subjectId", "roomId", "day", "startTime"],
            "properties": {
                "courseId": {"type": "string"},
                "semester": {"type": "integer", "minimum": 1},
                "subjectId": {"type": "string"},
                "facultyId": {"type": "string"},
                "roomId": {"type": "string"},
                "day": {"type": "integer", "minimum": 1, "maximum": 7},
                "startTime": {"type": "string", "example": "13:00"}
            }
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
