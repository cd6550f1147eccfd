package utils

import (
	"encoding/json"
	"net/http"
)

// Envelope is the uniform JSON response body of the API.
type Envelope struct {
	Success    bool        `json:"success"`
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
}

// Respond writes the envelope with the given status. Data may be nil.
func Respond(w http.ResponseWriter, status int, message string, data interface{}) {
	if data == nil {
		data = struct{}{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{
		Success:    status < 400,
		StatusCode: status,
		Message:    message,
		Data:       data,
	})
}

// Fail writes an error envelope.
func Fail(w http.ResponseWriter, status int, message string) {
	Respond(w, status, message, nil)
}
