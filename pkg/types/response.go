package types

// SuccessEnvelope wraps successful API payloads.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ErrorEnvelope wraps API error payloads.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// APIError is the public error shape; internal detail never leaks here.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// WebhookAck is the body returned to payment providers. Providers only look at
// the status code; the flag mirrors it for log scraping.
type WebhookAck struct {
	Received bool `json:"received"`
}
