package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Transfer IDs are "trf-" followed by a random UUID.
const TransferIDPrefix = "trf"

// GenerateID generates a unique ID with the given prefix
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}

// SplitIDs splits a comma separated id list, dropping blanks.
func SplitIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
