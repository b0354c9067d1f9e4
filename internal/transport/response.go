package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/agentstation/promise/pkg/errors"
)

// maxErrorBody bounds how much of an error response is kept in the error message.
const maxErrorBody = 512

// DecodeResponse closes resp and decodes its JSON body into target. Non-200
// responses become a TransportError; malformed bodies become a ParseError.
func DecodeResponse(resp *http.Response, service, endpoint string, target any) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapTransport(service, endpoint, err)
	}

	if resp.StatusCode != http.StatusOK {
		return StatusError(resp, service, endpoint, body)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", endpoint, err)
	}
	return nil
}

// StatusError builds the TransportError for an unexpected response status.
func StatusError(resp *http.Response, service, endpoint string, body []byte) *errors.TransportError {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &errors.TransportError{
		Service:    service,
		StatusCode: resp.StatusCode,
		Message:    msg,
		Endpoint:   endpoint,
	}
}

// Drain discards and closes the body so the connection can be reused.
func Drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()
}
