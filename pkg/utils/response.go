package utils

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/Lusa1101/FutureMe-Live/internal/fault"
)

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

// RespondError 发送错误响应
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}

// FailurePayload is the body of a failed operation.
type FailurePayload struct {
	Success bool       `json:"success"`
	Error   string     `json:"error"`
	Kind    fault.Kind `json:"kind"`
}

// RespondFault writes err as {success:false, error, kind} with the status of its kind.
func RespondFault(w http.ResponseWriter, err error) {
	kind := fault.KindOf(err)
	RespondJSON(w, fault.HTTPStatus(kind), FailurePayload{Error: fault.Message(err), Kind: kind})
}

// DecodeJSON 解析请求体，失败时已写入 400 响应。
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid payload")
		return false
	}
	return true
}
