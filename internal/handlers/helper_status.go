package handlers

import "strings"

// normalizeRoomStatus lower-cases a status filter from the query string.
// Clients send "Available" as often as "available".
func normalizeRoomStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}
