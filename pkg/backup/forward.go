package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/paymangay/backuprelay/internal/client"
	"github.com/paymangay/backuprelay/internal/notify"
)

// sendBackup validates, sanitizes and forwards data to target
func (h *Handler) sendBackup(ctx context.Context, log zerolog.Logger, data gjson.Result, target string) (*result, error) {

	v := Validate(data)
	if !v.IsValid {
		return h.failWith(ClientInput, Response{
			Message: "backup data is invalid",
			Errors:  v.Errors,
		}), nil
	}

	// decode with numbers intact so ids keep their original text
	var payload map[string]interface{}
	dec := json.NewDecoder(strings.NewReader(data.Raw))
	dec.UseNumber()
	err := dec.Decode(&payload)
	if err != nil {
		return nil, fmt.Errorf("could not decode backup data: %w", err)
	}

	clean := Sanitize(payload, h.now())
	sent := SentData{
		Students:   count(clean["students"]),
		Attendance: count(clean["attendance"]),
	}

	body, err := json.Marshal(clean)
	if err != nil {
		return nil, fmt.Errorf("could not marshal sanitized backup: %w", err)
	}

	log.Info().Str("target", target).Int("students", sent.Students).Int("attendance", sent.Attendance).Msg("forwarding backup")

	c, err := client.New(target, h.cfg.ForwardTimeout)
	if err != nil {
		return h.unreachable("could not send backup", target, err), nil
	}

	rep, err := c.Post(ctx, body)
	if err != nil {
		log.Error().Err(err).Str("target", target).Msg("forward failed")
		return h.unreachable("could not send backup", target, err), nil
	}

	if !gjson.ValidBytes(rep.Body) {
		return h.unreachable("could not send backup", target,
			fmt.Errorf("remote reply is not JSON (status %d)", rep.StatusCode)), nil
	}
	remote := gjson.ParseBytes(rep.Body)

	if !rep.OK() || !truthy(remote.Get("success")) {
		reason := "unknown error"
		if m := remote.Get("message"); truthy(m) {
			reason = m.String()
		}
		out := h.failWith(RemoteRejected, Response{
			Message:           "backup forwarding failed: " + reason,
			TargetURL:         target,
			InstituteResponse: json.RawMessage(rep.Body),
		})
		// the remote status is passed through, even a 2xx
		out.status = rep.StatusCode
		if out.status == 0 {
			out.status = Internal.Status()
		}
		return out, nil
	}

	id := newID("backup", h.now())
	log.Info().Str("backup_id", id).Int("status", rep.StatusCode).Msg("backup forwarded")

	if h.pub != nil {
		err = h.pub.Publish(ctx, notify.Event{
			BackupID:    id,
			TargetURL:   target,
			Students:    sent.Students,
			Attendance:  sent.Attendance,
			ForwardedAt: iso(h.now()),
		})
		if err != nil {
			log.Warn().Err(err).Str("backup_id", id).Msg("could not publish backup event")
		}
	}

	return h.ok(Response{
		Message:           "backup forwarded to the institute system",
		TargetURL:         target,
		SentData:          &sent,
		InstituteResponse: json.RawMessage(rep.Body),
		BackupID:          id,
	}), nil
}
