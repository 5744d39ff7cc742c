package export

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"
)

func writeRows(t *testing.T, path string, d Dialect, rows [][]string) {
	t.Helper()
	w, err := NewWriter(path, d)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, row := range rows {
		if err := w.WriteRow(row); err != nil {
			t.Fatalf("WriteRow: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func readRows(t *testing.T, path string, d Dialect) [][]string {
	t.Helper()
	r, closer, err := OpenReader(path, d)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer closer.Close()

	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		rows = append(rows, row)
	}
	return rows
}

func TestWriterRoundTrip(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		{"id", "text"},
		{"1", "plain"},
		{"2", "with, comma and \"quotes\""},
	}
	path := filepath.Join(t.TempDir(), "out.csv")
	writeRows(t, path, DefaultDialect(), rows)

	got := readRows(t, path, DefaultDialect())
	if len(got) != len(rows) {
		t.Fatalf("got %d rows, want %d", len(got), len(rows))
	}
	for i := range rows {
		for j := range rows[i] {
			if got[i][j] != rows[i][j] {
				t.Errorf("row %d field %d = %q, want %q", i, j, got[i][j], rows[i][j])
			}
		}
	}
}

func TestWriterRoundTripWindows1251(t *testing.T) {
	t.Parallel()

	d := Dialect{Encoding: "windows-1251", Delimiter: ";", CRLF: true}
	rows := [][]string{{"пользователь", "казино; ставки"}}
	path := filepath.Join(t.TempDir(), "out.csv")
	writeRows(t, path, d, rows)

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if bytes.Contains(raw, []byte("пользователь")) {
		t.Error("file contains UTF-8 bytes, expected windows-1251")
	}

	got := readRows(t, path, d)
	if got[0][0] != "пользователь" || got[0][1] != "казино; ставки" {
		t.Errorf("round trip lost data: %v", got[0])
	}
}

func TestDialectRejectsBadSettings(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	if _, err := NewWriter(path, Dialect{Encoding: "UTF-8", Delimiter: "ab"}); err == nil {
		t.Error("multi-character delimiter accepted")
	}
	if _, err := NewWriter(path, Dialect{Encoding: "no-such-charset", Delimiter: ","}); err == nil {
		t.Error("unknown encoding accepted")
	}
}

func TestSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"Bet Talk", "bet-talk"},
		{"Казино!!! Chat", "-chat"},
		{"already-slugged", "already-slugged"},
		{"A  B   C", "a-b-c"},
	}
	for _, tt := range tests {
		if got := Slug(tt.in); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilenameShape(t *testing.T) {
	t.Parallel()

	got := Filename("data", "messages", "Bet Talk", "csv")
	pattern := regexp.MustCompile(`^data[/\\]messages-bet-talk-[0-9a-f]{8}\.csv$`)
	if !pattern.MatchString(got) {
		t.Errorf("Filename = %q, want to match %s", got, pattern)
	}

	a := Filename("data", "messages", "Bet Talk", "csv")
	b := Filename("data", "messages", "Bet Talk", "csv")
	if a == b {
		t.Error("two filenames for the same title collided")
	}
}

func TestReadMemberTargets(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "members.csv")
	writeRows(t, path, DefaultDialect(), [][]string{
		{"username", "user_id", "access_hash", "name"},
		{"gambler", "42", "77", "Sam"},
		{"", "43", "78", "NoName"},
		{"short"},
	})

	targets, err := ReadMemberTargets(path, DefaultDialect())
	if err != nil {
		t.Fatalf("ReadMemberTargets: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("got %d targets, want 2", len(targets))
	}
	if targets[0].Username != "gambler" || targets[0].UserID != 42 || targets[0].AccessHash != 77 {
		t.Errorf("first target = %+v", targets[0])
	}
	if targets[1].Username != "" || targets[1].UserID != 43 {
		t.Errorf("second target = %+v", targets[1])
	}
}
