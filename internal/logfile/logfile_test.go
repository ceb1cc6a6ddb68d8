package logfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/encoding/japanese"
)

var fixedNow = time.Date(2025, 6, 1, 15, 4, 5, 0, time.UTC)

func day(s string) time.Time {
	d, _ := time.Parse(dateLayout, s)
	return d
}

func writeSJIS(t *testing.T, path, text string, gz bool) {
	t.Helper()
	enc, err := japanese.ShiftJIS.NewEncoder().String(text)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if !gz {
		if _, err := f.WriteString(enc); err != nil {
			t.Fatal(err)
		}
		return
	}
	w := gzip.NewWriter(f)
	if _, err := w.Write([]byte(enc)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDateFromName(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{"2025-04-05-1.log.gz", "2025-04-05", true},
		{"/logs/2024-12-31-3.log", "2024-12-31", true},
		{"latest.log", "2025-06-01", true},
		{"debug.log", "", false},
		{"2025-13-01-1.log", "", false},
	}
	for _, tt := range tests {
		got, ok := DateFromName(tt.name, fixedNow)
		if ok != tt.wantOK {
			t.Errorf("DateFromName(%q) ok = %v, want %v", tt.name, ok, tt.wantOK)
			continue
		}
		if ok && got.Format(dateLayout) != tt.want {
			t.Errorf("DateFromName(%q) = %s, want %s", tt.name, got.Format(dateLayout), tt.want)
		}
	}
}

func TestReadLinesStripsCR(t *testing.T) {
	lines, err := ReadLines(strings.NewReader("a\r\nb\nc"))
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 3 || lines[0] != "a" || lines[2] != "c" {
		t.Errorf("unexpected lines: %q", lines)
	}
}

func TestLoadDecodesAndOrders(t *testing.T) {
	dir := t.TempDir()
	writeSJIS(t, filepath.Join(dir, "2025-04-05-10.log.gz"), "ten\n", true)
	writeSJIS(t, filepath.Join(dir, "2025-04-05-2.log.gz"), "あなたは 250,000円 獲得しました\r\n", true)
	writeSJIS(t, filepath.Join(dir, "2025-04-04-1.log"), "first\n", false)
	writeSJIS(t, filepath.Join(dir, "2025-03-01-1.log"), "too old\n", false)
	writeSJIS(t, filepath.Join(dir, "latest.log"), "today\n", false)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	days, err := Load([]string{dir}, Options{From: day("2025-04-01"), Now: func() time.Time { return fixedNow }})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var names []string
	for _, d := range days {
		names = append(names, d.Name)
	}
	want := []string{"2025-04-04-1.log", "2025-04-05-2.log.gz", "2025-04-05-10.log.gz", "latest.log"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("order = %v, want %v", names, want)
	}
	if got := days[1].Lines[0]; got != "あなたは 250,000円 獲得しました" {
		t.Errorf("Shift-JIS decode = %q", got)
	}
	if !days[3].Date.Equal(day("2025-06-01")) {
		t.Errorf("latest.log date = %v", days[3].Date)
	}
}

func TestLoadToFilter(t *testing.T) {
	dir := t.TempDir()
	writeSJIS(t, filepath.Join(dir, "2025-04-04-1.log"), "a\n", false)
	writeSJIS(t, filepath.Join(dir, "2025-04-06-1.log"), "b\n", false)

	days, err := Load([]string{dir}, Options{To: day("2025-04-05")})
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 1 || days[0].Name != "2025-04-04-1.log" {
		t.Errorf("unexpected days: %+v", days)
	}
}

func TestLoadSkipsCorruptGzip(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "2025-04-04-1.log.gz"), []byte("not gzip"), 0644); err != nil {
		t.Fatal(err)
	}
	writeSJIS(t, filepath.Join(dir, "2025-04-05-1.log"), "ok\n", false)

	days, err := Load([]string{dir}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 1 || days[0].Lines[0] != "ok" {
		t.Errorf("expected only the readable file, got %+v", days)
	}
}

func TestLoadOrdersRotationsNumerically(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"11", "2", "1", "10", "3"} {
		writeSJIS(t, filepath.Join(dir, "2025-04-05-"+n+".log"), n+"\n", false)
	}
	days, err := Load([]string{dir}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, d := range days {
		got = append(got, d.Lines[0])
	}
	if strings.Join(got, ",") != "1,2,3,10,11" {
		t.Errorf("rotation order = %v", got)
	}
}
