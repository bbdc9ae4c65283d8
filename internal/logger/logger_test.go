package logger

import (
	"bytes"
	"testing"

	"github.com/tidwall/gjson"
)

func TestNewWithWriter(t *testing.T) {

	tt := []struct {
		name   string
		level  string
		logged bool
	}{
		{name: "info passes info", level: "info", logged: true},
		{name: "warn drops info", level: "warn", logged: false},
		{name: "unknown falls back", level: "chatty", logged: true},
		{name: "empty falls back", level: "", logged: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewWithWriter(&buf, tc.level)
			l.Info().Str("action", "send_backup").Msg("hello")

			if got := buf.Len() > 0; got != tc.logged {
				t.Fatalf("expected logged=%v, got %v (%q)", tc.logged, got, buf.String())
			}
			if !tc.logged {
				return
			}
			line := buf.String()
			if v := gjson.Get(line, "action").Str; v != "send_backup" {
				t.Errorf("expected action field, got %q", v)
			}
			if v := gjson.Get(line, "service").Str; v != "backup-relay" {
				t.Errorf("expected service field, got %q", v)
			}
			if !gjson.Get(line, "time").Exists() {
				t.Errorf("expected a timestamp in %q", line)
			}
		})
	}
}
