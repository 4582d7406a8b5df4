// internal/app/system/respond/respond.go
package respond

import (
	"encoding/json"
	"net/http"
)

// JSON writes v as a JSON body with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes the auth/user error envelope: {error, message, statusCode}.
func Error(w http.ResponseWriter, status int, errTitle, message string) {
	JSON(w, status, map[string]any{
		"error":      errTitle,
		"message":    message,
		"statusCode": status,
	})
}

// Fail writes the policy error envelope: {success:false, message}.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]any{
		"success": false,
		"message": message,
	})
}

// FailWithError is Fail with the underlying error message attached, used
// for storage/subprocess/disk failures surfaced as 500s.
func FailWithError(w http.ResponseWriter, status int, message string, err error) {
	JSON(w, status, map[string]any{
		"success": false,
		"message": message,
		"error":   err.Error(),
	})
}
