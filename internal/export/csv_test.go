package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"classcall/internal/classroom"
)

func TestAttendanceCSV_Fidelity(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 9, 5, 0, 0, time.UTC)
	t2 := time.Date(2024, 3, 1, 9, 6, 30, 0, time.UTC)
	records := []classroom.Record{
		{Name: "Alice A", Registration: "R100", Email: "alice@example.com", SubmittedAt: t1},
		{Name: "Bob B", Registration: "R101", Email: "bob@example.com", SubmittedAt: t2},
	}

	out, err := AttendanceCSV(records)
	if err != nil {
		t.Fatalf("AttendanceCSV: %v", err)
	}

	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2 data rows", len(rows))
	}

	wantHeader := []string{"name", "registration", "email", "datetime"}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], col)
		}
	}

	want := [][]string{
		{"Alice A", "R100", "alice@example.com", "2024-03-01T09:05:00Z"},
		{"Bob B", "R101", "bob@example.com", "2024-03-01T09:06:30Z"},
	}
	for i, row := range want {
		for j, val := range row {
			if rows[i+1][j] != val {
				t.Errorf("row %d col %d = %q, want %q", i+1, j, rows[i+1][j], val)
			}
		}
	}
}

func TestAttendanceCSV_Empty(t *testing.T) {
	out, err := AttendanceCSV(nil)
	if err != nil {
		t.Fatalf("AttendanceCSV: %v", err)
	}
	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("rows = %d, want header only", len(rows))
	}
}

func TestFilename(t *testing.T) {
	if got := Filename("AB12CD3"); got != "AB12CD3-attendance.csv" {
		t.Errorf("Filename = %q", got)
	}
}
