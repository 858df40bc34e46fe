package model

import "time"

// Response is the standard API response envelope.
type Response struct {
	Status    string    `json:"status"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Error     *APIError `json:"error"`
}

// DispatchRequest is the body of a command dispatch call. Args carries
// the named argument values the command's Execute entry point will
// receive; Synchronous is interpreted loosely ("false"/"0" in any case
// mean non-blocking, everything else blocks).
type DispatchRequest struct {
	Args        map[string]any `json:"args"`
	Synchronous string         `json:"synchronous,omitempty"`
}

// DispatchResponse wraps the status reported for a dispatched command.
type DispatchResponse struct {
	Group  string `json:"group"`
	Name   string `json:"name"`
	Status Status `json:"status"`
}
