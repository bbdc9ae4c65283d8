// Package backup relays student and attendance backups to an institute's
// backup endpoint. A single POST route understands three actions:
// test_connection, validate_data and send_backup.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/paymangay/backuprelay/internal/config"
	"github.com/paymangay/backuprelay/internal/notify"
)

// Actions understood by the handler
const (
	ActionTestConnection = "test_connection"
	ActionSendBackup     = "send_backup"
	ActionValidateData   = "validate_data"
)

// Publisher announces forwarded backups
type Publisher interface {
	Publish(context.Context, notify.Event) error
}

// Handler respresents the handler type
type Handler struct {
	cfg *config.Config
	log zerolog.Logger
	pub Publisher
	now func() time.Time
}

// NewHandler returns a new Handler. pub may be nil.
func NewHandler(cfg *config.Config, log zerolog.Logger, pub Publisher) *Handler {
	return &Handler{cfg: cfg, log: log, pub: pub, now: time.Now}
}

// Handle deals with the incoming request. The returned error is always nil,
// every failure is rendered into the response.
func (h *Handler) Handle(ctx context.Context, req *events.APIGatewayProxyRequest) (res events.APIGatewayProxyResponse, err error) {

	log := h.log.With().Str("request_id", requestID(ctx)).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			res, err = h.render(log, h.internal(fmt.Errorf("%v", r))), nil
		}
	}()

	out, ferr := h.dispatch(ctx, log, req)
	if ferr != nil {
		log.Error().Err(ferr).Msg("could not handle request")
		out = h.internal(ferr)
	}

	return h.render(log, out), nil
}

func (h *Handler) dispatch(ctx context.Context, log zerolog.Logger, req *events.APIGatewayProxyRequest) (*result, error) {

	if req.HTTPMethod != http.MethodPost {
		return h.fail(WrongMethod, "only POST requests are accepted"), nil
	}

	body, bad := h.readBody(req)
	if bad != nil {
		return bad, nil
	}

	action := gjson.Get(body, "action")
	if !truthy(action) {
		return h.fail(ClientInput, "action is not specified"), nil
	}

	log = log.With().Str("action", action.Str).Logger()
	log.Info().Msg("received request")

	target := h.cfg.InstituteURL
	if u := gjson.Get(body, "instituteUrl"); truthy(u) {
		target = u.Str
	}
	data, err := normalize(gjson.Get(body, "backupData"))
	if err != nil {
		return nil, err
	}

	switch action.Str {
	case ActionTestConnection:
		return h.testConnection(ctx, log, target)
	case ActionSendBackup:
		if !truthy(data) {
			return h.fail(ClientInput, "backup data is not specified"), nil
		}
		return h.sendBackup(ctx, log, data, target)
	case ActionValidateData:
		return h.validateData(log, data), nil
	default:
		return h.fail(UnknownAction, "unknown action"), nil
	}
}

// validateData reports on a payload without forwarding it. Success only
// reflects Validate; per-field problems are listed in errors.
func (h *Handler) validateData(log zerolog.Logger, data gjson.Result) *result {

	v := Validate(data)
	if !v.IsValid {
		return h.failWith(ClientInput, Response{
			Message:    "backup data is invalid",
			Validation: &v,
		})
	}

	d, errs := Inspect(data)
	msg := "data is valid"
	if len(errs) > 0 {
		msg = "data is valid with some errors"
	}
	log.Info().Int("students", d.TotalStudents).Int("attendance", d.TotalAttendance).Int("problems", len(errs)).Msg("validated backup data")

	return h.ok(Response{
		Message:    msg,
		Validation: &v,
		Details:    &d,
		Errors:     errs,
		listErrors: true,
	})
}

func (h *Handler) render(log zerolog.Logger, out *result) events.APIGatewayProxyResponse {

	if out.kind != nil {
		log.Warn().Str("kind", out.kind.String()).Int("status", out.status).Str("message", out.body.Message).Msg("request failed")
	}

	b, err := json.Marshal(out.body)
	if err != nil {
		log.Error().Err(err).Msg("could not marshal response")
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    map[string]string{"Content-Type": "text/plain"},
			Body:       err.Error(),
		}
	}

	return events.APIGatewayProxyResponse{
		StatusCode: out.status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(b),
	}
}

func requestID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	return uuid.NewString()
}
