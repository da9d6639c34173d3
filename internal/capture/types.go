package capture

import "github.com/usestring/flowlens/pkg/flow"

// Transaction types.
const (
	TransactionRequest     = "request"
	TransactionPushPromise = "push_promise"
)

// Session is a powhttp session. EntryIDs are in capture order.
type Session struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	EntryIDs []string `json:"entryIds"`
}

// Request is the request half of an entry. Body is base64-encoded.
type Request struct {
	Method      *string      `json:"method"`
	Path        *string      `json:"path"`
	HTTPVersion *string      `json:"httpVersion"`
	Headers     flow.Headers `json:"headers"`
	Body        *string      `json:"body"`
}

// Response is the response half of an entry. Body is base64-encoded.
type Response struct {
	HTTPVersion *string      `json:"httpVersion"`
	StatusCode  *int         `json:"statusCode"`
	StatusText  *string      `json:"statusText"`
	Headers     flow.Headers `json:"headers"`
	Body        *string      `json:"body"`
}

// Timings holds transaction timing. StartedAt is Unix milliseconds.
type Timings struct {
	StartedAt int64 `json:"startedAt"`
}

// Process identifies the local process that made the request.
type Process struct {
	PID  int     `json:"pid"`
	Name *string `json:"name"`
}

// HTTP2Info locates an entry on an HTTP/2 connection.
type HTTP2Info struct {
	ConnectionID string `json:"connectionId"`
	StreamID     int    `json:"streamId"`
}

// Entry is one captured HTTP transaction.
type Entry struct {
	ID              string     `json:"id"`
	URL             string     `json:"url"`
	HTTPVersion     string     `json:"httpVersion"`
	TransactionType string     `json:"transactionType"`
	Request         Request    `json:"request"`
	Response        *Response  `json:"response"`
	IsWebSocket     bool       `json:"isWebSocket"`
	HTTP2           *HTTP2Info `json:"http2"`
	Timings         Timings    `json:"timings"`
	Process         *Process   `json:"process"`
}
