package response

import (
	"encoding/json"
	"net/http"
)

// Result is the envelope every control-plane and task endpoint answers
// with.
type Result struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

func Write(w http.ResponseWriter, statusCode int, result Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(result)
}

func WriteSuccess(w http.ResponseWriter) {
	Write(w, http.StatusOK, Result{Success: true})
}

func WriteFailure(w http.ResponseWriter, statusCode int, reason string) {
	Write(w, statusCode, Result{Success: false, Reason: reason})
}

// WriteAuthFailure answers rejected control-plane calls. Deliberately
// HTTP 200: callers distinguish outcomes by the body, and probing tools
// learn nothing from the status line.
func WriteAuthFailure(w http.ResponseWriter) {
	Write(w, http.StatusOK, Result{Success: false, Reason: "Authentication failed"})
}
