package request

import (
	"io"
	"net/http"
	"net/url"
)

// maxFormSize bounds form-encoded request bodies
const maxFormSize = 64 << 10

// PresenceRequest is the request body for setting presence
type PresenceRequest struct {
	Presence *bool `json:"presence"`
}

// Form parses a form-encoded body for any method.
// http.Request.ParseForm ignores bodies on DELETE, which revoke uses.
func Form(r *http.Request) (url.Values, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxFormSize))
	if err != nil {
		return nil, err
	}
	return url.ParseQuery(string(body))
}
