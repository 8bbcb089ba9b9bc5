package webapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// StatusError is an HTTP-level failure annotated with the response body
// for diagnostics.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("request failed with status %s", e.Status)
	}
	return fmt.Sprintf("request failed with status %s: %s", e.Status, e.Body)
}

// RaiseForStatus applies the error policy to a response: a suppressed
// status code is returned as-is, any other 4xx/5xx becomes a StatusError
// carrying the response body, and everything else passes through.
func RaiseForStatus(resp *http.Response, suppress Suppress) (*http.Response, error) {
	if suppress.Contains(resp.StatusCode) {
		return resp, nil
	}
	if resp.StatusCode >= 400 {
		body := responseMessage(resp)
		resp.Body.Close()
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       body,
		}
	}
	return resp, nil
}

// responseMessage extracts the response body for error annotation,
// pretty-printed when it parses as JSON.
func responseMessage(resp *http.Response) string {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, raw, "", "    ") == nil {
		return pretty.String()
	}
	return string(raw)
}
