// Package logfile finds client log files, filters them by the date encoded
// in their names, and decodes them into lines.
package logfile

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/maruel/natural"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// LatestName is the log the client is currently writing; it carries no date.
const LatestName = "latest.log"

const dateLayout = "2006-01-02"

var datePrefixRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)

// Day is one decoded log file with the calendar date its lines belong to.
type Day struct {
	Date  time.Time
	Name  string
	Lines []string
}

// Options controls discovery and decoding.
type Options struct {
	From, To time.Time        // inclusive; zero means unbounded
	UTF8     bool             // logs are UTF-8 rather than Shift-JIS
	Now      func() time.Time // dates latest.log; defaults to time.Now
}

// DateFromName extracts the date from "YYYY-MM-DD-N.log[.gz]". latest.log is
// dated from now. Other names are rejected.
func DateFromName(name string, now time.Time) (time.Time, bool) {
	base := filepath.Base(name)
	if m := datePrefixRe.FindStringSubmatch(base); m != nil {
		d, err := time.Parse(dateLayout, m[1])
		if err != nil {
			return time.Time{}, false
		}
		return d, true
	}
	if base == LatestName {
		y, mo, d := now.Date()
		return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// IsLogName reports whether name looks like a plain or gzipped client log.
func IsLogName(name string) bool {
	return strings.HasSuffix(name, ".log") || strings.HasSuffix(name, ".log.gz")
}

// Discover expands directories (non-recursively) into their log files.
// Plain file arguments are kept as given.
func Discover(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", p, err)
		}
		for _, e := range entries {
			if e.IsDir() || !IsLogName(e.Name()) {
				continue
			}
			out = append(out, filepath.Join(p, e.Name()))
		}
	}
	return out, nil
}

// Open returns a reader over the decoded text of one log file.
func Open(path string, utf8 bool) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	var src io.Reader = f
	closers := []io.Closer{f}
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip: %w", err)
		}
		src = gz
		closers = append([]io.Closer{gz}, closers...)
	}
	if !utf8 {
		src = transform.NewReader(src, japanese.ShiftJIS.NewDecoder())
	}
	return &multiCloser{Reader: src, closers: closers}, nil
}

type multiCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiCloser) Close() error {
	var first error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ReadLines splits r on LF, dropping a trailing CR from each line.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// Load discovers, filters, decodes and orders log files. A file that fails
// to decode is logged and skipped.
func Load(paths []string, opts Options) ([]Day, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	files, err := Discover(paths)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		path string
		date time.Time
	}
	var cands []candidate
	for _, p := range files {
		d, ok := DateFromName(p, now())
		if !ok {
			slog.Debug("skip undated log", "file", p)
			continue
		}
		if !opts.From.IsZero() && d.Before(opts.From) {
			continue
		}
		if !opts.To.IsZero() && d.After(opts.To) {
			continue
		}
		cands = append(cands, candidate{p, d})
	}
	// latest.log sorts after the rotated files of the same day.
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if !a.date.Equal(b.date) {
			return a.date.Before(b.date)
		}
		al, bl := filepath.Base(a.path) == LatestName, filepath.Base(b.path) == LatestName
		if al != bl {
			return bl
		}
		return natural.Less(filepath.Base(a.path), filepath.Base(b.path))
	})

	var days []Day
	for _, c := range cands {
		rc, err := Open(c.path, opts.UTF8)
		if err != nil {
			slog.Warn("skip unreadable log", "file", c.path, "err", err)
			continue
		}
		lines, err := ReadLines(rc)
		rc.Close()
		if err != nil {
			slog.Warn("skip undecodable log", "file", c.path, "err", err)
			continue
		}
		slog.Debug("loaded log", "file", c.path, "lines", len(lines))
		days = append(days, Day{Date: c.date, Name: filepath.Base(c.path), Lines: lines})
	}
	return days, nil
}
