package web

import (
	"encoding/json"
	"net/http"
)

const (
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidWindow      = "invalid_window"
	codeInvalidStartDate   = "invalid_start_date"
	codeInvalidEndDate     = "invalid_end_date"
	codeInvalidEvent       = "invalid_event"
	codeEventNotFound      = "event_not_found"
	codeUnauthorized       = "unauthorized"
	codeAdminDisabled      = "admin_disabled"
	codeReadOnly           = "read_only"
	codeForbidden          = "forbidden"
	codeUpstreamError      = "upstream_error"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
