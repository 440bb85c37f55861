package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Scheduler Core API",
        "description": "Timetable solver service: feasibility search plus an evolutionary optimizer, exposed over HTTP with async job support.",
        "version": "1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {
                        "description": "Ready"
                    }
                }
            }
        },
        "/api/v1/schedules/solve": {
            "post": {
                "summary": "Solve a timetable",
                "description": "Runs the feasibility search and evolutionary optimizer over the given courses/teachers/rooms/timeslots/groups. Pass async=true to enqueue and poll via /schedules/runs/{id}.",
                "tags": ["Scheduler"],
                "responses": {
                    "200": {
                        "description": "Run completed synchronously"
                    },
                    "202": {
                        "description": "Run enqueued"
                    },
                    "422": {
                        "description": "No feasible schedule exists"
                    }
                }
            }
        },
        "/api/v1/schedules/runs": {
            "get": {
                "summary": "List solver runs",
                "tags": ["Scheduler"],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/schedules/runs/{id}": {
            "get": {
                "summary": "Fetch a solver run by id",
                "tags": ["Scheduler"],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "404": {
                        "description": "Run not found"
                    }
                }
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
