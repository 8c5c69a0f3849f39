package protocol

import (
	"encoding/json"
	"net/http"
)

// ErrorEnvelope is a JSON-RPC error response written outside the MCP transport.
type ErrorEnvelope struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      any         `json:"id"`
	Error   ErrorObject `json:"error"`
}

// ErrorObject is the error member of a JSON-RPC response.
type ErrorObject struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// WriteHTTPError writes a JSON-RPC error envelope with the given HTTP status.
func WriteHTTPError(w http.ResponseWriter, status int, code int64, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		JSONRPC: "2.0",
		ID:      nil,
		Error:   ErrorObject{Code: code, Message: message, Data: data},
	})
}
