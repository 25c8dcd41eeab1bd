package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Lusa1101/FutureMe-Live/internal/fault"
)

// ClassifyError 将模型调用错误归类，并给出面向用户的提示。
// Errors that already carry a fault kind are returned unchanged.
func ClassifyError(err error, assistantName string) *fault.Error {
	if err == nil {
		return nil
	}
	var fe *fault.Error
	if errors.As(err, &fe) {
		return fe
	}
	if assistantName == "" {
		assistantName = "The assistant"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key") || strings.Contains(msg, "apikey") || strings.Contains(msg, "401"):
		return fault.Wrap(err, fault.Configuration,
			"API key is missing or invalid. Please check your LLM API key configuration.")
	case strings.Contains(msg, "403") || strings.Contains(msg, "forbidden"):
		return fault.Wrap(err, fault.Authorization,
			"Authentication failed. Please verify your LLM API key is valid and has the necessary permissions.")
	case strings.Contains(msg, "quota") || strings.Contains(msg, "limit") || strings.Contains(msg, "429"):
		return fault.Wrap(err, fault.Quota,
			"API quota exceeded. Please try again later or check your LLM usage limits.")
	case errors.Is(err, context.DeadlineExceeded) || isNetworkMessage(msg):
		return fault.Wrap(err, fault.Network,
			"Network connection issue. Please check your internet connection and try again.")
	default:
		return fault.Wrap(err, fault.Unknown, fmt.Sprintf("%s encountered an error: %s", assistantName, rootCause(err).Error()))
	}
}

// rootCause 去掉编排框架包装，只保留模型返回的原始错误。
func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func isNetworkMessage(msg string) bool {
	for _, needle := range []string{"network", "fetch", "dial", "timeout", "connection refused", "no such host", "eof"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
