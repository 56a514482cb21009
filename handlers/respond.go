package handlers

import (
	"encoding/json"
	"net/http"
)

// errorReply is the failure envelope every endpoint uses. Code and
// RedirectTo are only set for configuration failures.
type errorReply struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	RedirectTo string `json:"redirectTo,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errText, message string) {
	writeJSON(w, status, errorReply{Success: false, Error: errText, Message: message})
}
