package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School MIS API",
        "description": "Student records backend: accounts, catalog, enrollment lifecycle, attendance",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Account registration and token issuance"},
        {"name": "Users", "description": "Admin account management"},
        {"name": "Students", "description": "Student profiles"},
        {"name": "Teachers", "description": "Teacher profiles"},
        {"name": "Courses", "description": "Course catalog and capacity"},
        {"name": "Enrollments", "description": "Enrollment lifecycle and grading"},
        {"name": "Attendance", "description": "Daily attendance ledger"},
        {"name": "Payments", "description": "Student payment records"},
        {"name": "Notifications", "description": "In-app notifications"},
        {"name": "Documents", "description": "Student document metadata"},
        {"name": "Reports", "description": "Transcript and attendance exports"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register account",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "Token pair issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh token pair",
                "responses": {
                    "200": {"description": "Token pair issued"},
                    "401": {"description": "Invalid refresh token"}
                }
            }
        },
        "/enrollments": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll student into course",
                "responses": {
                    "201": {"description": "Enrollment created"},
                    "409": {"description": "Duplicate enrollment or course full"}
                }
            }
        },
        "/enrollments/{id}/grade": {
            "patch": {
                "tags": ["Enrollments"],
                "summary": "Record grade",
                "responses": {
                    "200": {"description": "Grade recorded"},
                    "409": {"description": "Enrollment finalized"}
                }
            }
        },
        "/enrollments/{id}/drop": {
            "patch": {
                "tags": ["Enrollments"],
                "summary": "Drop enrollment",
                "responses": {
                    "200": {"description": "Enrollment dropped"},
                    "409": {"description": "Enrollment finalized"}
                }
            }
        },
        "/attendance": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record attendance for a day",
                "responses": {
                    "201": {"description": "Recorded"}
                }
            }
        }
    },
    "definitions": {
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
                "status": {"type": "integer"}
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
