package backup

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/paymangay/backuprelay/internal/config"
)

var backupIDPattern = regexp.MustCompile(`^backup-\d+-[a-z0-9]{9}$`)

// getMsg gets test input
func getMsg(t *testing.T, p int) string {
	t.Helper()

	body, err := ioutil.ReadFile("../../test_payloads.json")
	if err != nil {
		t.Fatalf("could not read test payloads: %v", err)
	}

	path := fmt.Sprintf("cases.%v", p)
	res := gjson.GetBytes(body, path)
	if !res.Exists() {
		t.Fatalf("no test payload at %v", path)
	}

	return res.Raw
}

// fixture is getMsg for table definitions; it returns "" when the case is missing
func fixture(p int) string {
	body, err := ioutil.ReadFile("../../test_payloads.json")
	if err != nil {
		return ""
	}
	return gjson.GetBytes(body, fmt.Sprintf("cases.%v", p)).Raw
}

func newTestHandler(cfg *config.Config, pub Publisher) *Handler {
	if cfg == nil {
		cfg = config.Default()
	}
	h := NewHandler(cfg, zerolog.Nop(), pub)
	h.now = func() time.Time { return time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC) }
	return h
}

func call(t *testing.T, h *Handler, method, body string) events.APIGatewayProxyResponse {
	t.Helper()

	req := events.APIGatewayProxyRequest{
		HTTPMethod: method,
		Path:       "/api/send-backup",
		Body:       body,
	}
	res, err := h.Handle(context.Background(), &req)
	if err != nil {
		t.Fatalf("could not call Handle: %v", err)
	}
	if ct := res.Headers["Content-Type"]; ct != "application/json" {
		t.Errorf("wrong content type: %v", ct)
	}
	return res
}

func TestHandle(t *testing.T) {

	tt := []struct {
		name    string
		method  string
		body    string
		status  int
		message string
	}{
		{name: "get", method: http.MethodGet, status: http.StatusMethodNotAllowed, message: "only POST requests are accepted"},
		{name: "put", method: http.MethodPut, body: `{"action":"test_connection"}`, status: http.StatusMethodNotAllowed, message: "only POST requests are accepted"},
		{name: "no action", method: http.MethodPost, body: `{}`, status: http.StatusBadRequest, message: "action is not specified"},
		{name: "empty action", method: http.MethodPost, body: `{"action":""}`, status: http.StatusBadRequest, message: "action is not specified"},
		{name: "empty body", method: http.MethodPost, body: "", status: http.StatusBadRequest, message: "action is not specified"},
		{name: "no backup data", method: http.MethodPost, body: `{"action":"send_backup"}`, status: http.StatusBadRequest, message: "backup data is not specified"},
		{name: "null backup data", method: http.MethodPost, body: `{"action":"send_backup","backupData":null}`, status: http.StatusBadRequest, message: "backup data is not specified"},
		{name: "unknown action", method: http.MethodPost, body: `{"action":"drop_tables"}`, status: http.StatusBadRequest, message: "unknown action"},
		{name: "not json", method: http.MethodPost, body: `action=send_backup`, status: http.StatusBadRequest, message: "malformed request body"},
		{name: "numeric action", method: http.MethodPost, body: `{"action":5}`, status: http.StatusBadRequest, message: "malformed request body"},
		{name: "array body", method: http.MethodPost, body: `[1,2]`, status: http.StatusBadRequest, message: "malformed request body"},
		{name: "validate nothing", method: http.MethodPost, body: `{"action":"validate_data"}`, status: http.StatusBadRequest, message: "backup data is invalid"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			res := call(t, newTestHandler(nil, nil), tc.method, tc.body)

			if res.StatusCode != tc.status {
				t.Errorf("expected status %v, got %v", tc.status, res.StatusCode)
			}
			if msg := gjson.Get(res.Body, "message").Str; msg != tc.message {
				t.Errorf("expected message %q, got: %q", tc.message, msg)
			}
			if gjson.Get(res.Body, "success").Bool() {
				t.Errorf("expected success false in %v", res.Body)
			}
			if ts := gjson.Get(res.Body, "timestamp").Str; ts != "2026-10-17T09:30:00.000Z" {
				t.Errorf("wrong timestamp: %q", ts)
			}
		})
	}
}

func TestHandleSchemaErrors(t *testing.T) {

	res := call(t, newTestHandler(nil, nil), http.MethodPost, `{"action":"test_connection","instituteUrl":42}`)

	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %v", res.StatusCode)
	}
	errs := gjson.Get(res.Body, "errors").Array()
	if len(errs) != 1 || !strings.Contains(errs[0].Str, "instituteUrl") {
		t.Errorf("expected one instituteUrl error, got %v", gjson.Get(res.Body, "errors").Raw)
	}
}

func TestHandleBodyLimit(t *testing.T) {

	cfg := config.Default()
	cfg.MaxBodyBytes = 32

	body := fmt.Sprintf(`{"action":"validate_data","backupData":{"students":[{"name":%q}]}}`, strings.Repeat("a", 64))
	res := call(t, newTestHandler(cfg, nil), http.MethodPost, body)

	if res.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("expected status 413, got %v", res.StatusCode)
	}
}

func TestHandleBase64(t *testing.T) {

	h := newTestHandler(nil, nil)
	body := `{"action":"validate_data","backupData":` + getMsg(t, 0) + `}`

	tt := []struct {
		name   string
		body   string
		status int
	}{
		{name: "happy", body: base64.StdEncoding.EncodeToString([]byte(body)), status: http.StatusOK},
		{name: "unhappy", body: "%%%not-base64", status: http.StatusBadRequest},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			req := events.APIGatewayProxyRequest{
				HTTPMethod:      http.MethodPost,
				Body:            tc.body,
				IsBase64Encoded: true,
			}
			res, err := h.Handle(context.Background(), &req)
			if err != nil {
				t.Fatalf("could not call Handle: %v", err)
			}
			if res.StatusCode != tc.status {
				t.Errorf("expected status %v, got %v: %v", tc.status, res.StatusCode, res.Body)
			}
		})
	}
}

func TestRequestID(t *testing.T) {

	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "req-1"})
	if id := requestID(ctx); id != "req-1" {
		t.Errorf("expected lambda request id, got %v", id)
	}

	a, b := requestID(context.Background()), requestID(context.Background())
	if a == "" || a == b {
		t.Errorf("expected distinct generated ids, got %q and %q", a, b)
	}
}

func TestKindStatus(t *testing.T) {

	tt := []struct {
		kind   Kind
		status int
	}{
		{ClientInput, http.StatusBadRequest},
		{UnknownAction, http.StatusBadRequest},
		{WrongMethod, http.StatusMethodNotAllowed},
		{PayloadTooLarge, http.StatusRequestEntityTooLarge},
		{RemoteRejected, http.StatusBadGateway},
		{RemoteUnreachable, http.StatusServiceUnavailable},
		{Internal, http.StatusInternalServerError},
	}

	for _, tc := range tt {
		t.Run(tc.kind.String(), func(t *testing.T) {
			if got := tc.kind.Status(); got != tc.status {
				t.Errorf("expected %v, got %v", tc.status, got)
			}
		})
	}
}

func TestNormalize(t *testing.T) {

	tt := []struct {
		name  string
		input string
		want  string
	}{
		{name: "last duplicate wins", input: `{"students":[{"name":"a"}],"students":[{}]}`, want: `{"students":[{}]}`},
		{name: "nested duplicate", input: `{"students":[{"name":"a","name":""}]}`, want: `{"students":[{"name":""}]}`},
		{name: "numbers keep their text", input: `{"students":[{"id":12345678901234567890}]}`, want: `{"students":[{"id":12345678901234567890}]}`},
		{name: "not an object", input: `"text"`, want: `"text"`},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := normalize(gjson.Parse(tc.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Raw != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got.Raw)
			}
		})
	}

	if got, err := normalize(gjson.Get(`{}`, "backupData")); err != nil || got.Exists() {
		t.Errorf("expected a missing value to stay missing, got %v %v", got.Raw, err)
	}
}

func TestResponseErrorsList(t *testing.T) {

	tt := []struct {
		name   string
		res    Response
		exists bool
	}{
		{name: "omitted when empty", res: Response{Message: "x"}, exists: false},
		{name: "kept when listed", res: Response{Message: "x", listErrors: true}, exists: true},
		{name: "kept when set", res: Response{Message: "x", Errors: []string{"e"}}, exists: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			b, err := json.Marshal(tc.res)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			errs := gjson.GetBytes(b, "errors")
			if errs.Exists() != tc.exists {
				t.Errorf("expected errors present=%v, got %s", tc.exists, b)
			}
			if tc.exists && !errs.IsArray() {
				t.Errorf("expected errors to be an array, got %v", errs.Raw)
			}
		})
	}
}

func TestMustSchema(t *testing.T) {

	if envelope == nil {
		t.Fatal("expected the envelope schema to be compiled")
	}

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected a panic for a broken schema")
		}
	}()
	mustSchema(`{"type": 5}`)
}
