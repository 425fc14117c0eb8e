package response

import (
	"encoding/json"
	"net/http"
)

// Response is the JSON envelope every endpoint returns. Detail and
// Code are only set on error responses.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Detail  string      `json:"detail,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// JSON sends a success envelope with the given status and payload.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(Response{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

// Error sends an error envelope with a machine-readable code and a
// human-readable detail message.
func Error(w http.ResponseWriter, status int, code, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(Response{
		Success: false,
		Detail:  detail,
		Code:    code,
	})
}

// OK sends a 200 response with data.
func OK(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}

// Created sends a 201 response with data.
func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, data)
}

// NoContent sends a 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// BadRequest sends a 400 response.
func BadRequest(w http.ResponseWriter, detail string) {
	Error(w, http.StatusBadRequest, "BAD_REQUEST", detail)
}

// Unauthorized sends a 401 response.
func Unauthorized(w http.ResponseWriter, detail string) {
	Error(w, http.StatusUnauthorized, "AUTH_REQUIRED", detail)
}

// Forbidden sends a 403 response.
func Forbidden(w http.ResponseWriter, detail string) {
	Error(w, http.StatusForbidden, "NOT_AUTHORIZED", detail)
}

// NotFound sends a 404 response.
func NotFound(w http.ResponseWriter, detail string) {
	Error(w, http.StatusNotFound, "NOT_FOUND", detail)
}

// Conflict sends a 409 response.
func Conflict(w http.ResponseWriter, detail string) {
	Error(w, http.StatusConflict, "CONFLICT", detail)
}

// InternalError sends a 500 response.
func InternalError(w http.ResponseWriter, detail string) {
	Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", detail)
}
