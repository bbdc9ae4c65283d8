package backup

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// ValidationResult is the outcome of the shared structural check
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Details summarises a payload for validate_data
type Details struct {
	TotalStudents   int    `json:"totalStudents"`
	TotalAttendance int    `json:"totalAttendance"`
	HasStudents     bool   `json:"hasStudents"`
	HasAttendance   bool   `json:"hasAttendance"`
	BackupDate      string `json:"backupDate"`
	SourceSystem    string `json:"sourceSystem"`
}

// truthy treats a JSON value the way the sending systems do: absent, null,
// false, 0 and "" are all "not set".
func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		return r.Str != ""
	default:
		return true
	}
}

// elements returns the items of a JSON array, or nothing for any other value
func elements(r gjson.Result) []gjson.Result {
	if !r.IsArray() {
		return nil
	}
	return r.Array()
}

// Validate is the coarse check that gates forwarding.
// Only students are checked per element; attendance is checked by Inspect.
func Validate(data gjson.Result) ValidationResult {

	errs := []string{}

	if !truthy(data) {
		return ValidationResult{IsValid: false, Errors: []string{"payload is empty"}}
	}
	if !data.IsObject() {
		return ValidationResult{IsValid: false, Errors: []string{"payload must be a JSON object"}}
	}

	students := data.Get("students")
	if truthy(students) && !students.IsArray() {
		errs = append(errs, "students must be an array")
	}

	attendance := data.Get("attendance")
	if truthy(attendance) && !attendance.IsArray() {
		errs = append(errs, "attendance must be an array")
	}

	for i, s := range elements(students) {
		if !truthy(s.Get("id")) && !truthy(s.Get("name")) {
			errs = append(errs, fmt.Sprintf("student %d: has neither id nor name", i+1))
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// Inspect lists per-field problems of a payload that already passed Validate.
// The problems are informational and never block forwarding.
func Inspect(data gjson.Result) (Details, []string) {

	students := data.Get("students")
	attendance := data.Get("attendance")

	d := Details{
		BackupDate:   "not specified",
		SourceSystem: "unknown",
	}
	d.TotalStudents = len(elements(students))
	d.TotalAttendance = len(elements(attendance))
	d.HasStudents = d.TotalStudents > 0
	d.HasAttendance = d.TotalAttendance > 0

	if v := data.Get("backupDate"); truthy(v) {
		d.BackupDate = v.String()
	}
	if v := data.Get("sourceSystem"); truthy(v) {
		d.SourceSystem = v.String()
	}

	errs := []string{}
	for i, s := range elements(students) {
		if !truthy(s.Get("id")) {
			errs = append(errs, fmt.Sprintf("student %d: missing id", i+1))
		}
		if !truthy(s.Get("name")) {
			errs = append(errs, fmt.Sprintf("student %d: missing name", i+1))
		}
	}
	for i, a := range elements(attendance) {
		if !truthy(a.Get("id")) {
			errs = append(errs, fmt.Sprintf("attendance %d: missing id", i+1))
		}
		if !truthy(a.Get("studentId")) {
			errs = append(errs, fmt.Sprintf("attendance %d: missing studentId", i+1))
		}
	}

	return d, errs
}
