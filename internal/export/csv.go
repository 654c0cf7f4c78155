// Package export renders attendance rosters as downloadable CSV.
package export

import (
	"bytes"
	"encoding/csv"
	"time"

	"classcall/internal/classroom"
)

// ContentType is the MIME type for the exported roster.
const ContentType = "text/csv"

var columns = []string{"name", "registration", "email", "datetime"}

// AttendanceCSV renders one header row plus one row per record, columns
// name, registration, email, datetime, values verbatim.
func AttendanceCSV(records []classroom.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, err
	}
	for _, rec := range records {
		row := []string{rec.Name, rec.Registration, rec.Email, rec.SubmittedAt.UTC().Format(time.RFC3339)}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Filename suggests an attachment name for a class export.
func Filename(classCode string) string {
	return classCode + "-attendance.csv"
}
