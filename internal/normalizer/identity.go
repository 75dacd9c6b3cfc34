package normalizer

import (
	"regexp"
	"strconv"
)

const maxIDLength = 128

var unsafeIDChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// RecordID derives the stable record id from request id and start time.
// Re-ingesting the same event yields the same id, so the store overwrites it.
func RecordID(requestID string, timestamp int64) string {
	ts := strconv.FormatInt(timestamp, 10)
	id := "log_" + ts
	if requestID != "" {
		id = requestID + "_" + ts
	}
	id = unsafeIDChars.ReplaceAllString(id, "_")
	if len(id) > maxIDLength {
		id = id[:maxIDLength]
	}
	return id
}
