package backup

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

// envelopeJSON constrains the outer request only; backupData is checked by Validate
const envelopeJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Backup relay request",
  "type": "object",
  "properties": {
    "action": {
      "type": ["string", "null"]
    },
    "instituteUrl": {
      "type": ["string", "null"]
    }
  }
}`

var envelope = mustSchema(envelopeJSON)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("could not compile schema: %v", err))
	}
	return s
}

// readBody returns the request JSON or the failure to answer with
func (h *Handler) readBody(req *events.APIGatewayProxyRequest) (string, *result) {

	body := req.Body
	if req.IsBase64Encoded {
		b, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return "", h.failWith(ClientInput, Response{
				Message: "malformed request body",
				Errors:  []string{fmt.Sprintf("could not decode base64 body: %v", err)},
			})
		}
		body = string(b)
	}

	if int64(len(body)) > h.cfg.MaxBodyBytes {
		return "", h.fail(PayloadTooLarge, fmt.Sprintf("payload too large, limit is %d bytes", h.cfg.MaxBodyBytes))
	}

	if strings.TrimSpace(body) == "" {
		body = "{}"
	}
	if !gjson.Valid(body) {
		return "", h.fail(ClientInput, "malformed request body")
	}

	res, err := envelope.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		return "", h.failWith(ClientInput, Response{
			Message: "malformed request body",
			Errors:  []string{err.Error()},
		})
	}
	if !res.Valid() {
		var errs []string
		for _, e := range res.Errors() {
			errs = append(errs, e.String())
		}
		return "", h.failWith(ClientInput, Response{
			Message: "malformed request body",
			Errors:  errs,
		})
	}

	return body, nil
}

// normalize re-encodes backupData so that later reads see the same document
// encoding/json would decode; for duplicate keys the last one wins.
func normalize(data gjson.Result) (gjson.Result, error) {

	if !data.Exists() {
		return data, nil
	}

	var v interface{}
	dec := json.NewDecoder(strings.NewReader(data.Raw))
	dec.UseNumber()
	err := dec.Decode(&v)
	if err != nil {
		return data, fmt.Errorf("could not decode backup data: %w", err)
	}

	b, err := json.Marshal(v)
	if err != nil {
		return data, fmt.Errorf("could not encode backup data: %w", err)
	}
	return gjson.ParseBytes(b), nil
}
