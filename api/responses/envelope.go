package responses

// SuccessEnvelope wraps every 2xx payload.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error shape. Details only appear for codes whose
// metadata allows them.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every non-2xx payload.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
