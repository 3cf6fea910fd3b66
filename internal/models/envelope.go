package models

import (
	"encoding/json"
	"net/http"
)

// WriteSuccess writes the success envelope {code, message: "ok", data}
// with the matching HTTP status.
func WriteSuccess(w http.ResponseWriter, code int, data interface{}) error {
	return writeEnvelope(w, Envelope{Code: code, Message: "ok", Data: data})
}

// WriteError writes the error envelope {code, message} with the
// matching HTTP status.
func WriteError(w http.ResponseWriter, code int, message string) error {
	return writeEnvelope(w, Envelope{Code: code, Message: message})
}

func writeEnvelope(w http.ResponseWriter, envelope Envelope) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(envelope.Code)

	return json.NewEncoder(w).Encode(envelope)
}
