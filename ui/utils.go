package ui

import (
	"encoding/json"
	"net/http"

	"qcgen/internal/errors"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed: %v", err)
	} else {
		a.logger.Debug("request rejected: %v", err)
	}

	writeJSON(w, status, errorBody{
		Error: err.Error(),
		Code:  errors.GetCode(err),
		Field: errors.GetField(err),
	})
}
