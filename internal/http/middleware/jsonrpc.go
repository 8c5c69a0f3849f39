package middleware

import (
	"bytes"
	"io"
	"mime"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/codex-k8s/toolgate-mcp-server/internal/protocol"
)

// MaxBodyBytes bounds the JSON-RPC request body.
const MaxBodyBytes = 4 << 20

// JSONRPC validates POST bodies before they reach the MCP handler: the content
// type must be JSON and the body a JSON-RPC 2.0 message or batch. Other
// methods pass through untouched. The body is restored for the next handler.
func JSONRPC(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}

		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "application/json" {
			protocol.WriteHTTPError(w, http.StatusUnsupportedMediaType, protocol.CodeInvalidRequest, "Content-Type must be application/json", nil)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
		_ = r.Body.Close()
		if err != nil {
			protocol.WriteHTTPError(w, http.StatusBadRequest, protocol.CodeParseError, "Failed to read request body", nil)
			return
		}
		if len(body) > MaxBodyBytes {
			protocol.WriteHTTPError(w, http.StatusRequestEntityTooLarge, protocol.CodeInvalidRequest, "Request body too large", nil)
			return
		}
		if !gjson.ValidBytes(body) {
			protocol.WriteHTTPError(w, http.StatusBadRequest, protocol.CodeParseError, "Failed to parse JSON body", nil)
			return
		}
		if !isJSONRPCPayload(gjson.ParseBytes(body)) {
			protocol.WriteHTTPError(w, http.StatusBadRequest, protocol.CodeInvalidRequest, "Invalid JSON-RPC request payload", nil)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		r.ContentLength = int64(len(body))
		next.ServeHTTP(w, r)
	})
}

func isJSONRPCPayload(payload gjson.Result) bool {
	if payload.IsArray() {
		items := payload.Array()
		if len(items) == 0 {
			return false
		}
		for _, item := range items {
			if !isJSONRPCMessage(item) {
				return false
			}
		}
		return true
	}
	return isJSONRPCMessage(payload)
}

// isJSONRPCMessage accepts requests, notifications, and responses.
func isJSONRPCMessage(msg gjson.Result) bool {
	if !msg.IsObject() {
		return false
	}
	if version := msg.Get("jsonrpc"); version.Type != gjson.String || version.Str != "2.0" {
		return false
	}
	if method := msg.Get("method"); method.Exists() {
		return method.Type == gjson.String
	}
	return msg.Get("id").Exists() && (msg.Get("result").Exists() || msg.Get("error").Exists())
}
