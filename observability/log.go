package observability

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"
)

var logger = log.New(os.Stdout, "", 0)

// LogEvent writes a structured JSON line carrying level, event and the
// supplied fields. The region attached to ctx via WithRegion, if any, is
// included as "region". Fields filed under a sensitive key are redacted
// before marshaling.
func LogEvent(ctx context.Context, level string, event string, fields map[string]any) {
	payload := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339),
		"level": level,
		"event": event,
	}

	if region := RegionFromContext(ctx); region != "" {
		payload["region"] = region
	}

	for key, value := range normalizeFields(fields) {
		payload[key] = value
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Printf("{\"level\":\"error\",\"event\":\"log_marshal_failed\",\"error\":%q}", err.Error())
		return
	}
	logger.Print(string(raw))
}

// LogError logs one of the taxonomy errors (RegionExhausted, RegionCorrupt,
// EncodingError, LockUnavailable) at error level, tagged with errorType so
// operators can alert on a specific failure mode.
func LogError(ctx context.Context, errorType string, err error, fields map[string]any) {
	merged := make(map[string]any, len(fields)+2)
	for key, value := range fields {
		merged[key] = value
	}
	merged["error_type"] = errorType
	if err != nil {
		merged["error"] = err.Error()
	}
	LogEvent(ctx, "error", "shmprom_error", merged)
}

func normalizeFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for key, value := range fields {
		if isSensitiveKey(key) {
			out[key] = redactedValue
			continue
		}
		switch key {
		case "input", "payload", "labels":
			out[key] = RedactValue(value)
			continue
		}
		if err, ok := value.(error); ok {
			out[key] = err.Error()
			continue
		}
		out[key] = value
	}
	return out
}
