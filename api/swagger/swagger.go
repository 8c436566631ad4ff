package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Gradebook API",
        "description": "Grade matrix, rubric scoring and cell editing for class gradebooks.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Grades", "description": "Grade matrix cells, bulk fill and student summaries"},
        {"name": "Gradebook", "description": "Single focused cell editing"},
        {"name": "Rubrics", "description": "Rubric selections and rubric-derived scores"}
    ],
    "paths": {
        "/grades": {
            "get": {
                "tags": ["Grades"],
                "summary": "List grades",
                "parameters": [
                    {"name": "studentId", "in": "query", "type": "string"},
                    {"name": "assignmentId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["GRADED", "MISSING", "INCOMPLETE", "EXCUSED"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grades/{studentId}/{assignmentId}": {
            "parameters": [
                {"name": "studentId", "in": "path", "required": true, "type": "string"},
                {"name": "assignmentId", "in": "path", "required": true, "type": "string"}
            ],
            "get": {
                "tags": ["Grades"],
                "summary": "Get a single grade",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Grade"}},
                    "404": {"description": "No grade recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Grades"],
                "summary": "Record a percentage score",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScoreRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Grade"}},
                    "400": {"description": "Score is not a whole number in [0,100]", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Grades"],
                "summary": "Remove a grade",
                "responses": {
                    "204": {"description": "Removed"},
                    "404": {"description": "No grade recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grades/{studentId}/{assignmentId}/points": {
            "put": {
                "tags": ["Grades"],
                "summary": "Record an absolute points score",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "assignmentId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PointsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Grade"}},
                    "400": {"description": "Points outside [0, total points]", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grades/{studentId}/{assignmentId}/comment": {
            "put": {
                "tags": ["Grades"],
                "summary": "Set the comment on a grade",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "assignmentId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CommentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Grade"}}
                }
            }
        },
        "/grades/{studentId}/{assignmentId}/status": {
            "put": {
                "tags": ["Grades"],
                "summary": "Change the status of a grade",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "assignmentId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Grade"}},
                    "404": {"description": "No grade recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grades/bulk": {
            "post": {
                "tags": ["Grades"],
                "summary": "Grade every ungraded student with one score",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkGradeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/BulkGradeResult"}}
                }
            }
        },
        "/grades/bulk/rubric": {
            "post": {
                "tags": ["Grades"],
                "summary": "Grade every ungraded student from rubric selections",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RubricBulkGradeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/BulkGradeResult"}},
                    "412": {"description": "Assignment has no usable rubric", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{studentId}/summary": {
            "get": {
                "tags": ["Grades"],
                "summary": "Student average and status counts",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/StudentGradeSummary"}}
                }
            }
        },
        "/gradebook/edit": {
            "get": {
                "tags": ["Gradebook"],
                "summary": "Show the focused cell",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/EditSessionResponse"}}
                }
            },
            "post": {
                "tags": ["Gradebook"],
                "summary": "Focus a cell for editing",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GradeCell"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/EditSession"}}
                }
            }
        },
        "/gradebook/edit/commit": {
            "post": {
                "tags": ["Gradebook"],
                "summary": "Commit the focused cell",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EditCommitRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Grade"}},
                    "400": {"description": "Invalid input, cell stays open", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Cell is not being edited", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebook/edit/cancel": {
            "post": {
                "tags": ["Gradebook"],
                "summary": "Discard the focused cell's edit",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GradeCell"}}
                ],
                "responses": {
                    "204": {"description": "Cancelled"},
                    "412": {"description": "Cell is not being edited", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rubric-selections/{studentId}/{assignmentId}": {
            "parameters": [
                {"name": "studentId", "in": "path", "required": true, "type": "string"},
                {"name": "assignmentId", "in": "path", "required": true, "type": "string"}
            ],
            "get": {
                "tags": ["Rubrics"],
                "summary": "Stored rubric selections for a student",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/RubricSelection"}}
                }
            },
            "put": {
                "tags": ["Rubrics"],
                "summary": "Save rubric selections and return the resulting score",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SelectionsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/RubricScore"}},
                    "412": {"description": "Assignment has no usable rubric", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rubric-selections/{studentId}/{assignmentId}/score": {
            "get": {
                "tags": ["Rubrics"],
                "summary": "Rubric score from stored selections",
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "assignmentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/RubricScore"}},
                    "412": {"description": "Assignment has no usable rubric", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GradeCell": {
            "type": "object",
            "required": ["student_id", "assignment_id", "class_id"],
            "properties": {
                "student_id": {"type": "string"},
                "assignment_id": {"type": "string"},
                "class_id": {"type": "string"}
            }
        },
        "Grade": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "student_id": {"type": "string"},
                "assignment_id": {"type": "string"},
                "class_id": {"type": "string"},
                "score": {"type": "number", "minimum": 0, "maximum": 100},
                "comments": {"type": "string"},
                "status": {"type": "string", "enum": ["GRADED", "MISSING", "INCOMPLETE", "EXCUSED"]},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "ScoreRequest": {
            "type": "object",
            "properties": {
                "score": {"type": "string", "description": "Whole-number percentage as typed"},
                "class_id": {"type": "string"}
            }
        },
        "PointsRequest": {
            "type": "object",
            "properties": {
                "points": {"type": "number"},
                "class_id": {"type": "string"}
            }
        },
        "CommentRequest": {
            "type": "object",
            "properties": {
                "comment": {"type": "string"},
                "class_id": {"type": "string"}
            }
        },
        "StatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["GRADED", "MISSING", "INCOMPLETE", "EXCUSED"]}
            }
        },
        "BulkGradeRequest": {
            "type": "object",
            "required": ["assignment_id", "score"],
            "properties": {
                "assignment_id": {"type": "string"},
                "score": {"type": "number", "minimum": 0, "maximum": 100}
            }
        },
        "RubricSelection": {
            "type": "object",
            "description": "Criterion name to selected level",
            "additionalProperties": {"type": "integer"}
        },
        "RubricBulkGradeRequest": {
            "type": "object",
            "required": ["assignment_id"],
            "properties": {
                "assignment_id": {"type": "string"},
                "selections": {"$ref": "#/definitions/RubricSelection"},
                "overrides": {"type": "object", "additionalProperties": {"$ref": "#/definitions/RubricSelection"}}
            }
        },
        "BulkGradeResult": {
            "type": "object",
            "properties": {
                "assignment_id": {"type": "string"},
                "graded": {"type": "array", "items": {"$ref": "#/definitions/Grade"}},
                "skipped": {"type": "array", "items": {"type": "string"}},
                "failures": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "student_id": {"type": "string"},
                            "reason": {"type": "string"}
                        }
                    }
                }
            }
        },
        "StudentGradeSummary": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "average": {"type": "number"},
                "graded_count": {"type": "integer"},
                "missing_count": {"type": "integer"},
                "incomplete_count": {"type": "integer"},
                "excused_count": {"type": "integer"}
            }
        },
        "EditSession": {
            "type": "object",
            "properties": {
                "cell": {"$ref": "#/definitions/GradeCell"},
                "state": {"type": "string", "enum": ["VIEWING", "EDITING", "COMMITTING", "CANCELLING"]},
                "buffer": {"type": "string"}
            }
        },
        "EditSessionResponse": {
            "type": "object",
            "properties": {
                "active": {"type": "boolean"},
                "session": {"$ref": "#/definitions/EditSession"}
            }
        },
        "EditCommitRequest": {
            "type": "object",
            "properties": {
                "cell": {"$ref": "#/definitions/GradeCell"},
                "input": {"type": "string"}
            }
        },
        "SelectionsRequest": {
            "type": "object",
            "required": ["selections"],
            "properties": {
                "selections": {"$ref": "#/definitions/RubricSelection"}
            }
        },
        "RubricScore": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "assignment_id": {"type": "string"},
                "points": {"type": "integer"},
                "max_points": {"type": "integer"},
                "percentage": {"type": "number"},
                "selections": {"$ref": "#/definitions/RubricSelection"},
                "invalid": {"type": "array", "items": {"type": "string"}}
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
