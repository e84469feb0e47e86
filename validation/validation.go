// Package validation performs the structural checks on submitted reservation
// and table fields. It never touches storage.
package validation

import (
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/yeremiapane/periodic-tables/apperror"
	"github.com/yeremiapane/periodic-tables/models"
)

// Fields is a decoded request body, keyed by JSON field name.
type Fields map[string]any

var reservationSchema = []string{
	"reservation_id",
	"first_name",
	"last_name",
	"mobile_number",
	"reservation_date",
	"reservation_time",
	"people",
	"status",
	"created_at",
	"updated_at",
}

var reservationRequired = []string{
	"first_name",
	"last_name",
	"mobile_number",
	"reservation_date",
	"reservation_time",
	"people",
}

var tableSchema = []string{
	"table_name",
	"capacity",
	"people",
	"reservation_id",
	"created_at",
	"updated_at",
}

var tableRequired = []string{"table_name", "capacity"}

var letters = regexp.MustCompile(`(?i)[a-z]`)

// ReservationInput is a reservation submission that passed validation.
type ReservationInput struct {
	FirstName       string
	LastName        string
	MobileNumber    string
	ReservationDate string
	ReservationTime string
	People          int
	// Status is nil when the submission carried no status.
	Status *models.ReservationStatus
}

// TableInput is a table submission that passed validation.
type TableInput struct {
	TableName     string
	Capacity      int
	ReservationID *uint
}

// Reservation checks fields against the reservation schema.
func Reservation(fields Fields) (ReservationInput, error) {
	if err := onlyKnown(fields, reservationSchema); err != nil {
		return ReservationInput{}, err
	}
	if err := required(fields, reservationRequired); err != nil {
		return ReservationInput{}, err
	}

	var in ReservationInput
	var err error
	if in.FirstName, err = stringField(fields, "first_name"); err != nil {
		return ReservationInput{}, err
	}
	if in.LastName, err = stringField(fields, "last_name"); err != nil {
		return ReservationInput{}, err
	}
	if in.MobileNumber, err = stringField(fields, "mobile_number"); err != nil {
		return ReservationInput{}, err
	}

	people, ok := positiveInt(fields["people"])
	if !ok {
		return ReservationInput{}, apperror.Validation(apperror.CodeMalformedValue,
			"people: %v is not a valid number!", fields["people"])
	}
	in.People = people

	if in.ReservationDate, err = dateField(fields["reservation_date"]); err != nil {
		return ReservationInput{}, err
	}
	if in.ReservationTime, err = timeField(fields["reservation_time"]); err != nil {
		return ReservationInput{}, err
	}

	if raw, present := fields["status"]; present && raw != nil {
		s, ok := raw.(string)
		if !ok {
			return ReservationInput{}, apperror.Validation(apperror.CodeMalformedValue,
				"status: %v is not a string", raw)
		}
		status := models.ReservationStatus(s)
		in.Status = &status
	}
	return in, nil
}

// Table checks fields against the table schema.
func Table(fields Fields) (TableInput, error) {
	if err := onlyKnown(fields, tableSchema); err != nil {
		return TableInput{}, err
	}
	if err := required(fields, tableRequired); err != nil {
		return TableInput{}, err
	}

	name, err := stringField(fields, "table_name")
	if err != nil {
		return TableInput{}, err
	}
	if len([]rune(name)) < 2 {
		return TableInput{}, apperror.Validation(apperror.CodeMalformedValue,
			"table_name must be at least 2 characters long")
	}

	capacity, ok := positiveInt(fields["capacity"])
	if !ok {
		return TableInput{}, apperror.Validation(apperror.CodeMalformedValue,
			"Table must have a capacity of at least 1.")
	}

	in := TableInput{TableName: name, Capacity: capacity}
	if raw, present := fields["reservation_id"]; present && raw != nil {
		id, ok := positiveInt(raw)
		if !ok {
			return TableInput{}, apperror.Validation(apperror.CodeMalformedValue,
				"reservation_id: %v is not a valid id", raw)
		}
		rid := uint(id)
		in.ReservationID = &rid
	}
	return in, nil
}

// ReservationID parses the reservation_id carried by a seat request.
func ReservationID(fields Fields) (uint, error) {
	raw, present := fields["reservation_id"]
	if !present || raw == nil || raw == "" {
		return 0, apperror.Validation(apperror.CodeMissingField, "reservation_id is missing.")
	}
	id, ok := positiveInt(raw)
	if !ok {
		return 0, apperror.Validation(apperror.CodeMalformedValue,
			"reservation_id: %v is not a valid id", raw)
	}
	return uint(id), nil
}

func onlyKnown(fields Fields, schema []string) error {
	var invalid []string
	for name := range fields {
		if !contains(schema, name) {
			invalid = append(invalid, name)
		}
	}
	if len(invalid) == 0 {
		return nil
	}
	sort.Strings(invalid)
	return apperror.Validation(apperror.CodeUnknownField, "Invalid Field(s): %s", strings.Join(invalid, ", "))
}

func required(fields Fields, names []string) error {
	for _, name := range names {
		v, ok := fields[name]
		if !ok || v == nil || v == "" {
			return apperror.Validation(apperror.CodeMissingField, "A '%s' property is required.", name)
		}
	}
	return nil
}

func stringField(fields Fields, name string) (string, error) {
	s, ok := fields[name].(string)
	if !ok {
		return "", apperror.Validation(apperror.CodeMalformedValue, "%s: %v is not a string", name, fields[name])
	}
	return s, nil
}

func dateField(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok || letters.MatchString(s) {
		return "", apperror.Validation(apperror.CodeMalformedValue, "reservation_date: %v is not a date!", raw)
	}
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return "", apperror.Validation(apperror.CodeMalformedValue, "reservation_date: %v is not a date!", raw)
	}
	return d.Format(models.DateLayout), nil
}

func timeField(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok || letters.MatchString(s) {
		return "", apperror.Validation(apperror.CodeMalformedValue, "reservation_time: %v is not a valid time!", raw)
	}
	for _, layout := range []string{models.TimeLayout, "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(models.TimeLayout), nil
		}
	}
	return "", apperror.Validation(apperror.CodeMalformedValue, "reservation_time: %v is not a valid time!", raw)
}

// positiveInt accepts integral numbers only; numeric strings are rejected.
func positiveInt(raw any) (int, bool) {
	var f float64
	switch v := raw.(type) {
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case float64:
		f = v
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if f < 1 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Date checks a reservation_date query value.
func Date(s string) (string, error) {
	return dateField(s)
}

// Status parses the status carried by a status update.
func Status(fields Fields) (models.ReservationStatus, error) {
	raw, present := fields["status"]
	if !present || raw == nil || raw == "" {
		return "", apperror.Validation(apperror.CodeMissingField, "A 'status' property is required.")
	}
	s, ok := raw.(string)
	if !ok {
		return "", apperror.Validation(apperror.CodeMalformedValue, "status: %v is not a string", raw)
	}
	return models.ReservationStatus(s), nil
}
