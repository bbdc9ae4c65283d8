package backup

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Metadata stamped on every forwarded payload
const (
	Processor        = "teacher-system-api"
	APIVersion       = "1.0"
	UnnamedStudent   = "name not specified"
	studentPrefix    = "student"
	attendancePrefix = "attendance"
)

// Sanitize returns a copy of data ready to forward. Missing ids, names and
// timestamps are filled in, ids become strings and every record is marked
// processed. Values that are already set are kept, so sanitizing twice
// changes nothing but processedAt. data is not modified.
func Sanitize(data map[string]interface{}, now time.Time) map[string]interface{} {

	out := make(map[string]interface{}, len(data)+3)
	for k, v := range data {
		out[k] = v
	}
	out["processedAt"] = iso(now)
	out["processor"] = Processor
	out["apiVersion"] = APIVersion

	if students, ok := out["students"].([]interface{}); ok {
		clean := make([]interface{}, len(students))
		for i, s := range students {
			rec := record(s)
			rec["id"] = idOrNew(rec["id"], studentPrefix, now)
			name, _ := stringify(rec["name"])
			name = strings.TrimSpace(name)
			if name == "" {
				name = UnnamedStudent
			}
			rec["name"] = name
			rec["processed"] = true
			clean[i] = rec
		}
		out["students"] = clean
	}

	if attendance, ok := out["attendance"].([]interface{}); ok {
		clean := make([]interface{}, len(attendance))
		for i, a := range attendance {
			rec := record(a)
			rec["id"] = idOrNew(rec["id"], attendancePrefix, now)
			if sid, ok := stringify(rec["studentId"]); ok {
				rec["studentId"] = sid
			} else {
				delete(rec, "studentId")
			}
			if !set(rec["timestamp"]) {
				rec["timestamp"] = iso(now)
			}
			rec["processed"] = true
			clean[i] = rec
		}
		out["attendance"] = clean
	}

	return out
}

// count is the length of a sanitized record list
func count(v interface{}) int {
	l, ok := v.([]interface{})
	if !ok {
		return 0
	}
	return len(l)
}

// record copies one list element; anything but an object becomes an empty record
func record(v interface{}) map[string]interface{} {
	src, _ := v.(map[string]interface{})
	rec := make(map[string]interface{}, len(src)+1)
	for k, val := range src {
		rec[k] = val
	}
	return rec
}

func idOrNew(v interface{}, prefix string, now time.Time) string {
	if id, ok := stringify(v); ok && id != "" {
		return id
	}
	return newID(prefix, now)
}

// stringify coerces a decoded JSON value to its string form; ok is false
// when the value is absent or null.
func stringify(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}

// set mirrors truthy for decoded values
func set(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case float64:
		return t != 0
	default:
		return true
	}
}
