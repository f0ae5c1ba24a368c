package router

import (
	"encoding/json"
	"strings"
)

// ParseDomainSessionID recovers the domain-issued session id from a domain
// server's startsession response text.
//
// Newer domain servers return a JSON body with an explicit "sessionId"
// field; that is the preferred, structured path. Older servers only mention
// the id as the last word of a sentence ("Started new session sess_42"), so
// the fallback takes the trailing token of the text. The fallback is fragile
// against wording changes, which is exactly why it is confined to this one
// function.
func ParseDomainSessionID(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	var structured struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal([]byte(text), &structured); err == nil && structured.SessionID != "" {
		return structured.SessionID
	}

	fields := strings.Fields(text)
	last := strings.Trim(fields[len(fields)-1], ".,;:!?\"'()")
	return last
}
