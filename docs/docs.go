package docs

import "github.com/swaggo/swag"

const docTemplate = `{
  "swagger": "2.0",
  "info": {
    "title": "Incident Triage",
    "description": "Payment log ingestion, lookup and LLM-assisted incident triage",
    "version": "1.0"
  },
  "basePath": "/",
  "paths": {
    "/health": {
      "get": {
        "tags": ["health"],
        "summary": "Liveness probe",
        "produces": ["application/json"],
        "responses": {"200": {"description": "OK"}}
      }
    },
    "/ready": {
      "get": {
        "tags": ["health"],
        "summary": "Readiness probe",
        "produces": ["application/json"],
        "responses": {"200": {"description": "OK"}, "503": {"description": "Store unavailable"}}
      }
    },
    "/ingest": {
      "post": {
        "tags": ["ingest"],
        "summary": "Ingest one log",
        "consumes": ["application/json"],
        "produces": ["application/json"],
        "parameters": [{"in": "body", "name": "log", "required": true, "schema": {"type": "object"}}],
        "responses": {
          "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.IngestResponse"}},
          "400": {"description": "Validation error"},
          "500": {"description": "Store error"}
        }
      }
    },
    "/ingest/batch": {
      "post": {
        "tags": ["ingest"],
        "summary": "Ingest a batch of logs",
        "consumes": ["application/json"],
        "produces": ["application/json"],
        "parameters": [{"in": "body", "name": "logs", "required": true, "schema": {"type": "array", "items": {"type": "object"}}}],
        "responses": {
          "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.IngestBatchResponse"}},
          "400": {"description": "No valid logs"},
          "500": {"description": "Store error"}
        }
      }
    },
    "/search": {
      "post": {
        "tags": ["triage"],
        "summary": "Search logs",
        "consumes": ["application/json"],
        "produces": ["application/json"],
        "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.TriageRequest"}}],
        "responses": {
          "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SearchResponse"}},
          "400": {"description": "No identifier given"}
        }
      }
    },
    "/triage": {
      "post": {
        "tags": ["triage"],
        "summary": "Triage an incident",
        "consumes": ["application/json"],
        "produces": ["application/json"],
        "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.TriageRequest"}}],
        "responses": {
          "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.TriageResponse"}},
          "400": {"description": "No identifier given"}
        }
      }
    }
  },
  "definitions": {
    "models.TriageRequest": {
      "type": "object",
      "properties": {
        "order_no": {"type": "string"},
        "merchant_id": {"type": "string"},
        "request_id": {"type": "string"},
        "log_snippet": {"type": "string"},
        "error_message": {"type": "string"}
      }
    },
    "models.IngestResponse": {
      "type": "object",
      "properties": {
        "id": {"type": "string"},
        "order_no": {"type": "string"},
        "merchant_id": {"type": "string"}
      }
    },
    "models.IngestBatchResponse": {
      "type": "object",
      "properties": {
        "ingested": {"type": "integer"},
        "ids": {"type": "array", "items": {"type": "string"}}
      }
    },
    "models.LogHit": {
      "type": "object",
      "properties": {
        "order_no": {"type": "string"},
        "merchant_id": {"type": "string"},
        "module": {"type": "string"},
        "operation": {"type": "string"},
        "resp_code": {"type": "string"},
        "status": {"type": "string"},
        "timestamp": {"type": "integer"},
        "text": {"type": "string"},
        "payload": {"type": "string"}
      }
    },
    "models.SearchResponse": {
      "type": "object",
      "properties": {
        "query": {"type": "object", "additionalProperties": {"type": "string"}},
        "hits": {"type": "array", "items": {"$ref": "#/definitions/models.LogHit"}},
        "total": {"type": "integer"}
      }
    },
    "models.TriageResult": {
      "type": "object",
      "properties": {
        "issue_type": {"type": "string"},
        "confidence": {"type": "number"},
        "root_cause": {"type": "string"},
        "evidence": {"type": "array", "items": {"type": "string"}},
        "suggested_actions": {"type": "array", "items": {"type": "string"}}
      }
    },
    "models.TriageResponse": {
      "type": "object",
      "properties": {
        "query": {"type": "object", "additionalProperties": {"type": "string"}},
        "logs_found": {"type": "integer"},
        "logs_preview": {"type": "array", "items": {"$ref": "#/definitions/models.LogHit"}},
        "triage": {"$ref": "#/definitions/models.TriageResult"},
        "raw_llm": {"type": "string"}
      }
    }
  }
}`

func init() {
	swag.Register(swag.Name, &s{})
}

type s struct{}

func (s *s) ReadDoc() string {
	return docTemplate
}
