// Package docs holds the OpenAPI document served under /openapi. It is
// produced from the handler annotations by swag, run go generate
// ./cmd/apiserver after changing them.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "The Leonardo Authors"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/devices": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Devices"
                ],
                "summary": "List Devices",
                "operationId": "ListDevices",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/models.Device"
                            }
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/models.BaseError"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/models.InternalServerError"
                        }
                    }
                }
            }
        },
        "/api/v1/devices/{id}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Devices"
                ],
                "summary": "Get Device",
                "operationId": "GetDevice",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Device ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.Device"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/models.BaseError"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/models.NotFoundError"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/models.InternalServerError"
                        }
                    }
                }
            },
            "patch": {
                "description": "Suspends, reactivates or changes the plan of a device",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Devices"
                ],
                "summary": "Update Device",
                "operationId": "UpdateDevice",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Device ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Device update",
                        "name": "update",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.UpdateDevice"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.Device"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/models.ValidationError"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/models.BaseError"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/models.NotFoundError"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/models.InternalServerError"
                        }
                    }
                }
            }
        },
        "/api/v1/devices/{id}/event": {
            "post": {
                "description": "Stores a detection event and flags it when the device seems to have moved",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Device"
                ],
                "summary": "Record Event",
                "operationId": "RecordEvent",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Device access token",
                        "name": "X-Api-Token",
                        "in": "header",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Device ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Detection",
                        "name": "event",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.AddDetectionEvent"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/models.AddDetectionEventResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/models.ValidationError"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/models.BaseError"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/models.NotAllowedError"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/models.InternalServerError"
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "$ref": "#/definitions/models.UnavailableError"
                        }
                    }
                }
            }
        },
        "/api/v1/devices/{id}/events": {
            "get": {
                "description": "Lists detection events of a device, most recent first",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Events"
                ],
                "summary": "List Events",
                "operationId": "ListEvents",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Device ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Inclusive range, e.g. [0,99]",
                        "name": "range",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/models.DetectionEvent"
                            }
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/models.ValidationError"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/models.BaseError"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/models.NotFoundError"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/models.InternalServerError"
                        }
                    }
                }
            }
        },
        "/api/v1/devices/{id}/location": {
            "post": {
                "description": "Places a device, the new location becomes the only active one",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Locations"
                ],
                "summary": "Add Location",
                "operationId": "AddLocation",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Device ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Location",
                        "name": "location",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.AddLocation"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/models.AddLocationResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/models.ValidationError"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/models.BaseError"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/models.NotFoundError"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/models.InternalServerError"
                        }
                    }
                }
            }
        },
        "/api/v1/devices/{id}/locations": {
            "get": {
                "description": "Lists every placement of a device, most recent first",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Locations"
                ],
                "summary": "List Locations",
                "operationId": "ListLocations",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Device ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/models.LocationRecord"
                            }
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/models.BaseError"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/models.NotFoundError"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/models.InternalServerError"
                        }
                    }
                }
            }
        },
        "/api/v1/devices/{id}/register": {
            "post": {
                "description": "Claims a device with the factory token hash printed on its QR code",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Devices"
                ],
                "summary": "Claim Device",
                "operationId": "ClaimDevice",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Device ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Factory token hash",
                        "name": "fth",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/models.ClaimDeviceResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/models.ValidationError"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/models.BaseError"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/models.NotAllowedError"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/models.InternalServerError"
                        }
                    }
                }
            }
        },
        "/api/v1/devices/{id}/relocate": {
            "post": {
                "description": "Places a device again, the previous location is kept in its history",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Locations"
                ],
                "summary": "Relocate Device",
                "operationId": "RelocateDevice",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Device ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Location",
                        "name": "location",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.AddLocation"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/models.AddLocationResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/models.ValidationError"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/models.BaseError"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/models.NotFoundError"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/models.InternalServerError"
                        }
                    }
                }
            }
        },
        "/api/v1/devices/{id}/setup": {
            "put": {
                "description": "Sets where alerts are delivered and which detections alert",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Devices"
                ],
                "summary": "Setup Device",
                "operationId": "SetupDevice",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Device ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Alerting configuration",
                        "name": "setup",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.DeviceSetup"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.Device"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/models.ValidationError"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/models.BaseError"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/models.NotFoundError"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/models.InternalServerError"
                        }
                    }
                }
            }
        },
        "/api/v1/devices/{id}/status": {
            "get": {
                "description": "Returns the status and the active location of the calling device",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Device"
                ],
                "summary": "Device Status",
                "operationId": "DeviceStatus",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Device access token",
                        "name": "X-Api-Token",
                        "in": "header",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Device ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.DeviceStatusResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/models.BaseError"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/models.NotAllowedError"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/models.InternalServerError"
                        }
                    }
                }
            }
        },
        "/api/v1/devices/{id}/upload-logs": {
            "post": {
                "description": "Stores detections buffered on the device, they are never flagged",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Device"
                ],
                "summary": "Upload Logs",
                "operationId": "UploadLogs",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Device access token",
                        "name": "X-Api-Token",
                        "in": "header",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Device ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Buffered events",
                        "name": "logs",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.UploadLogs"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/models.UploadLogsResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/models.ValidationError"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/models.BaseError"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/models.NotAllowedError"
                        }
                    },
                    "405": {
                        "description": "Method Not Allowed",
                        "schema": {
                            "$ref": "#/definitions/models.NotAllowedError"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/models.InternalServerError"
                        }
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "$ref": "#/definitions/models.UnavailableError"
                        }
                    }
                }
            }
        },
        "/api/v1/fflags": {
            "get": {
                "description": "Lists all feature flags",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "FFlag"
                ],
                "summary": "List Feature Flags",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "boolean"
                            }
                        }
                    },
                    "429": {
                        "description": "Too Many Requests",
                        "schema": {
                            "$ref": "#/definitions/models.BaseError"
                        }
                    }
                }
            }
        },
        "/api/v1/fflags/{name}": {
            "get": {
                "description": "Gets a Feature Flag by name",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "FFlag"
                ],
                "summary": "Get Feature Flag",
                "parameters": [
                    {
                        "type": "string",
                        "description": "feature flag name",
                        "name": "name",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {
                                "type": "boolean"
                            }
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/models.BaseError"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/models.BaseError"
                        }
                    },
                    "429": {
                        "description": "Too Many Requests",
                        "schema": {
                            "$ref": "#/definitions/models.BaseError"
                        }
                    }
                }
            }
        },
        "/live": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Private"
                ],
                "summary": "Checks if the service is live",
                "operationId": "Live",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Private"
                ],
                "summary": "Checks if the service is ready to accept requests",
                "operationId": "Ready",
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "503": {
                        "description": "Service Unavailable",
                        "schema": {
                            "$ref": "#/definitions/models.UnavailableError"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "models.ActiveLocation": {
            "type": "object",
            "properties": {
                "accuracy": {
                    "type": "number"
                },
                "lat": {
                    "type": "number"
                },
                "lon": {
                    "type": "number"
                },
                "registered_at": {
                    "type": "string"
                }
            }
        },
        "models.AddDetectionEvent": {
            "type": "object",
            "properties": {
                "confidence": {
                    "type": "number",
                    "example": 0.92
                },
                "detection_type": {
                    "type": "string",
                    "example": "bear"
                },
                "media_ref": {
                    "type": "string"
                },
                "timestamp": {
                    "type": "string"
                }
            }
        },
        "models.AddDetectionEventResponse": {
            "type": "object",
            "properties": {
                "event_id": {
                    "type": "integer"
                },
                "location_mismatch": {
                    "type": "boolean"
                }
            }
        },
        "models.AddLocation": {
            "type": "object",
            "properties": {
                "accuracy": {
                    "type": "number",
                    "example": 12.5
                },
                "lat": {
                    "type": "number",
                    "example": 35.6895
                },
                "lon": {
                    "type": "number",
                    "example": 139.6917
                }
            }
        },
        "models.AddLocationResponse": {
            "type": "object",
            "properties": {
                "location_id": {
                    "type": "integer"
                },
                "precision": {
                    "type": "string",
                    "example": "acceptable"
                },
                "warning": {
                    "type": "string"
                }
            }
        },
        "models.BaseError": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string",
                    "example": "something bad"
                }
            }
        },
        "models.ClaimDeviceResponse": {
            "type": "object",
            "properties": {
                "api_token": {
                    "type": "string"
                },
                "device_id": {
                    "type": "string",
                    "example": "LJ-A3F8B2C1-7294"
                },
                "message": {
                    "type": "string"
                }
            }
        },
        "models.DetectionEvent": {
            "type": "object",
            "properties": {
                "confidence": {
                    "type": "number",
                    "example": 0.92
                },
                "created_at": {
                    "type": "string"
                },
                "detected_at": {
                    "type": "string"
                },
                "detection_type": {
                    "type": "string",
                    "example": "bear"
                },
                "device_id": {
                    "type": "string"
                },
                "distance_km": {
                    "type": "number"
                },
                "event_id": {
                    "type": "integer"
                },
                "location_mismatch": {
                    "type": "boolean"
                },
                "media_ref": {
                    "type": "string"
                },
                "offline": {
                    "type": "boolean"
                },
                "resolved_region": {
                    "type": "string"
                },
                "source_ip": {
                    "type": "string"
                }
            }
        },
        "models.Device": {
            "type": "object",
            "properties": {
                "created_at": {
                    "type": "string"
                },
                "detection_targets": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    },
                    "example": [
                        "bear",
                        "human"
                    ]
                },
                "device_id": {
                    "type": "string",
                    "example": "LJ-A3F8B2C1-7294"
                },
                "last_seen_at": {
                    "type": "string"
                },
                "notification_target": {
                    "$ref": "#/definitions/models.NotificationTarget"
                },
                "owner_id": {
                    "type": "string",
                    "example": "694aa002-5d19-495e-980b-3d8fd508ea10"
                },
                "plan": {
                    "allOf": [
                        {
                            "$ref": "#/definitions/models.DevicePlan"
                        }
                    ],
                    "example": "standard"
                },
                "status": {
                    "allOf": [
                        {
                            "$ref": "#/definitions/models.DeviceStatus"
                        }
                    ],
                    "example": "active"
                }
            }
        },
        "models.DevicePlan": {
            "type": "string",
            "enum": [
                "standard",
                "premium"
            ],
            "x-enum-varnames": [
                "DevicePlanStandard",
                "DevicePlanPremium"
            ]
        },
        "models.DeviceSetup": {
            "type": "object",
            "properties": {
                "detection_targets": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    },
                    "example": [
                        "bear",
                        "human",
                        "vehicle"
                    ]
                },
                "notification_target": {
                    "$ref": "#/definitions/models.NotificationTarget"
                }
            }
        },
        "models.DeviceStatus": {
            "type": "string",
            "enum": [
                "active",
                "suspended"
            ],
            "x-enum-varnames": [
                "DeviceStatusActive",
                "DeviceStatusSuspended"
            ]
        },
        "models.DeviceStatusResponse": {
            "type": "object",
            "properties": {
                "active_location": {
                    "$ref": "#/definitions/models.ActiveLocation"
                },
                "status": {
                    "$ref": "#/definitions/models.DeviceStatus"
                }
            }
        },
        "models.InternalServerError": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string",
                    "example": "something bad"
                },
                "trace_id": {
                    "type": "string",
                    "example": "b8b1aa7e30d2d25fdbd2cfdfa6c2d5b1"
                }
            }
        },
        "models.LocationRecord": {
            "type": "object",
            "properties": {
                "accuracy": {
                    "type": "number",
                    "example": 12.5
                },
                "device_id": {
                    "type": "string"
                },
                "is_active": {
                    "type": "boolean"
                },
                "lat": {
                    "type": "number",
                    "example": 35.6895
                },
                "location_id": {
                    "type": "integer"
                },
                "lon": {
                    "type": "number",
                    "example": 139.6917
                },
                "recorded_by": {
                    "type": "string"
                },
                "region": {
                    "type": "string",
                    "example": "東京都"
                },
                "registered_at": {
                    "type": "string"
                }
            }
        },
        "models.NotAllowedError": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string",
                    "example": "something bad"
                },
                "reason": {
                    "type": "string"
                }
            }
        },
        "models.NotFoundError": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string",
                    "example": "something bad"
                },
                "resource": {
                    "type": "string"
                }
            }
        },
        "models.NotificationTarget": {
            "type": "object",
            "properties": {
                "email": {
                    "type": "string"
                },
                "line_token": {
                    "type": "string"
                }
            }
        },
        "models.OfflineEvent": {
            "type": "object",
            "properties": {
                "confidence": {
                    "type": "number",
                    "example": 0.81
                },
                "detection_type": {
                    "type": "string",
                    "example": "bear"
                },
                "media_ref": {
                    "type": "string"
                },
                "timestamp": {
                    "type": "string"
                }
            }
        },
        "models.UnavailableError": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string",
                    "example": "something bad"
                },
                "reason": {
                    "type": "string"
                }
            }
        },
        "models.UpdateDevice": {
            "type": "object",
            "properties": {
                "plan": {
                    "allOf": [
                        {
                            "$ref": "#/definitions/models.DevicePlan"
                        }
                    ],
                    "example": "premium"
                },
                "status": {
                    "allOf": [
                        {
                            "$ref": "#/definitions/models.DeviceStatus"
                        }
                    ],
                    "example": "suspended"
                }
            }
        },
        "models.UploadLogs": {
            "type": "object",
            "properties": {
                "events": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.OfflineEvent"
                    }
                }
            }
        },
        "models.UploadLogsResponse": {
            "type": "object",
            "properties": {
                "inserted": {
                    "type": "integer"
                },
                "message": {
                    "type": "string"
                }
            }
        },
        "models.ValidationError": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string",
                    "example": "something bad"
                },
                "field": {
                    "type": "string"
                }
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
	Title:            "Leonardo API",
	Description:      "Device claim, placement and detection API of the Leonardo wildlife cameras.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
