package backup

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/paymangay/backuprelay/internal/client"
)

// ProbeSource tags the test payload sent by test_connection
const ProbeSource = "teacher-system-connection-test"

type probeRequest struct {
	Test         bool   `json:"test"`
	SourceSystem string `json:"sourceSystem"`
	BackupDate   string `json:"backupDate"`
}

// testConnection posts a small test payload to target and reports reachability
func (h *Handler) testConnection(ctx context.Context, log zerolog.Logger, target string) (*result, error) {

	log.Info().Str("target", target).Msg("probing institute endpoint")

	body, err := json.Marshal(probeRequest{
		Test:         true,
		SourceSystem: ProbeSource,
		BackupDate:   iso(h.now()),
	})
	if err != nil {
		return nil, fmt.Errorf("could not marshal probe payload: %w", err)
	}

	c, err := client.New(target, h.cfg.ProbeTimeout)
	if err != nil {
		return h.unreachable("could not connect", target, err), nil
	}

	rep, err := c.Post(ctx, body)
	if err != nil {
		log.Error().Err(err).Str("target", target).Msg("probe failed")
		return h.unreachable("could not connect", target, err), nil
	}

	if !rep.OK() {
		return h.failWith(RemoteRejected, Response{
			Message:    fmt.Sprintf("connection failed, remote answered with status %d", rep.StatusCode),
			TargetURL:  target,
			StatusCode: rep.StatusCode,
		}), nil
	}

	if !gjson.ValidBytes(rep.Body) {
		return h.unreachable("could not connect", target, fmt.Errorf("remote reply is not JSON")), nil
	}

	log.Info().Int("status", rep.StatusCode).Msg("probe succeeded")
	return h.ok(Response{
		Message:   "connected to the institute system",
		TargetURL: target,
		Response:  json.RawMessage(rep.Body),
	}), nil
}
