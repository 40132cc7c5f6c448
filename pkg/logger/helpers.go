package logger

import (
	"fmt"
	"time"
)

// LogAPICall logs a remote API method invocation and whether it was served
// from the call cache. A nil log falls back to the global logger.
func LogAPICall(log Logger, method string, cached bool, err error) {
	if log == nil {
		log = GetLogger()
	}

	entry := log.WithFields(map[string]interface{}{
		"api_method": method,
		"cached":     cached,
	})

	if err != nil {
		entry.WithError(err).Error("API call failed")
	} else if cached {
		entry.Debug("API call served from cache")
	} else {
		entry.Debug("API call completed")
	}
}

// LogRateLimit logs a blocking delay spent waiting for call quota
func LogRateLimit(log Logger, method string, wait time.Duration) {
	if log == nil {
		log = GetLogger()
	}

	log.WithFields(map[string]interface{}{
		"api_method":   method,
		"wait_seconds": wait.Seconds(),
		"action":       "rate_limited",
	}).Warn("Rate limit reached, waited for quota")
}

// LogWalkProgress logs photo stream traversal progress
func LogWalkProgress(log Logger, owner string, position, maxPosition int) {
	if log == nil {
		log = GetLogger()
	}

	percentage := 0.0
	if maxPosition > 0 {
		percentage = float64(position) / float64(maxPosition) * 100
	}

	log.WithFields(map[string]interface{}{
		"owner":        owner,
		"position":     position,
		"max_position": maxPosition,
		"percentage":   fmt.Sprintf("%.1f%%", percentage),
	}).Info("Walk progress")
}
