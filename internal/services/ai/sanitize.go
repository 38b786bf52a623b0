package ai

import (
	logpkg "github.com/stepwise/planner/internal/logger"
)

// MaxDebugContentLength limits prompt/response previews in debug logs
const MaxDebugContentLength = 2000

// SanitizePrompt produces a log-safe preview of an outgoing prompt
func SanitizePrompt(prompt string) string {
	return logpkg.SanitizeString(prompt, MaxDebugContentLength)
}

// SanitizeResponse produces a log-safe preview of a model response
func SanitizeResponse(response string) string {
	return logpkg.SanitizeString(response, MaxDebugContentLength)
}
