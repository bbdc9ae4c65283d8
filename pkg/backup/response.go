package backup

import (
	"encoding/json"
	"net/http"
	"time"
)

// Kind classifies an expected failure
type Kind int

// Failure kinds and the status each one answers with
const (
	ClientInput Kind = iota
	UnknownAction
	WrongMethod
	PayloadTooLarge
	RemoteRejected
	RemoteUnreachable
	Internal
)

var kindNames = map[Kind]string{
	ClientInput:       "client_input",
	UnknownAction:     "unknown_action",
	WrongMethod:       "wrong_method",
	PayloadTooLarge:   "payload_too_large",
	RemoteRejected:    "remote_rejected",
	RemoteUnreachable: "remote_unreachable",
	Internal:          "internal",
}

func (k Kind) String() string {
	return kindNames[k]
}

// Status is the HTTP status for the kind. RemoteRejected answers 502 unless
// the remote status is forwarded instead.
func (k Kind) Status() int {
	switch k {
	case ClientInput, UnknownAction:
		return http.StatusBadRequest
	case WrongMethod:
		return http.StatusMethodNotAllowed
	case PayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case RemoteRejected:
		return http.StatusBadGateway
	case RemoteUnreachable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Response is the JSON envelope returned for every request
type Response struct {
	Success           bool              `json:"success"`
	Message           string            `json:"message"`
	Errors            []string          `json:"errors,omitempty"`
	Error             string            `json:"error,omitempty"`
	TargetURL         string            `json:"targetUrl,omitempty"`
	StatusCode        int               `json:"statusCode,omitempty"`
	Response          json.RawMessage   `json:"response,omitempty"`
	SentData          *SentData         `json:"sentData,omitempty"`
	InstituteResponse json.RawMessage   `json:"instituteResponse,omitempty"`
	BackupID          string            `json:"backupId,omitempty"`
	Validation        *ValidationResult `json:"validation,omitempty"`
	Details           *Details          `json:"details,omitempty"`
	Timestamp         string            `json:"timestamp"`

	// listErrors keeps errors in the output even when empty
	listErrors bool
}

// MarshalJSON omits an empty errors list unless listErrors is set
func (r Response) MarshalJSON() ([]byte, error) {

	type plain Response
	if !r.listErrors {
		return json.Marshal(plain(r))
	}

	errs := r.Errors
	if errs == nil {
		errs = []string{}
	}
	return json.Marshal(struct {
		plain
		Errors []string `json:"errors"`
	}{plain(r), errs})
}

// SentData counts the records handed to the remote endpoint
type SentData struct {
	Students   int `json:"students"`
	Attendance int `json:"attendance"`
}

// result pairs a status with its envelope; kind is only set on failures
type result struct {
	status int
	kind   *Kind
	body   Response
}

const isoMillis = "2006-01-02T15:04:05.000Z"

func iso(t time.Time) string {
	return t.UTC().Format(isoMillis)
}

func (h *Handler) ok(body Response) *result {
	body.Success = true
	body.Timestamp = iso(h.now())
	return &result{status: http.StatusOK, body: body}
}

func (h *Handler) fail(k Kind, msg string) *result {
	return h.failWith(k, Response{Message: msg})
}

func (h *Handler) failWith(k Kind, body Response) *result {
	body.Success = false
	body.Timestamp = iso(h.now())
	return &result{status: k.Status(), kind: &k, body: body}
}

// internal renders an unexpected fault
func (h *Handler) internal(err error) *result {
	return h.failWith(Internal, Response{
		Message: "internal error: " + err.Error(),
		Error:   err.Error(),
	})
}

// unreachable renders a network-level failure talking to the remote endpoint
func (h *Handler) unreachable(prefix, target string, err error) *result {
	return h.failWith(RemoteUnreachable, Response{
		Message:   prefix + ": " + err.Error(),
		Error:     err.Error(),
		TargetURL: target,
	})
}
