package util

import (
	"encoding/json"
	"net/http"
)

func ParseJSON(r *http.Request, dest any) error {
	return json.NewDecoder(r.Body).Decode(dest)
}

func JSONResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// SuccessResponse writes the standard success envelope.
func SuccessResponse(w http.ResponseWriter, status int, message string, data any) {
	body := map[string]any{
		"success": true,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	JSONResponse(w, status, body)
}

// ErrorResponse writes the standard error envelope.
func ErrorResponse(w http.ResponseWriter, status int, message string, errLabel string) {
	JSONResponse(w, status, map[string]any{
		"success": false,
		"message": message,
		"error":   errLabel,
	})
}
