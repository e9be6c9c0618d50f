package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/tweeteater/pkg/tweeteater/internalerr"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func collectIDs(t *testing.T, l *Loader, files []string) ([]string, error) {
	t.Helper()
	var ids []string
	for r, err := range l.Records(files) {
		if err != nil {
			return ids, err
		}
		id, _ := r.ID()
		ids = append(ids, string(id))
	}
	return ids, nil
}

func TestRecordsConcatenatesFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.jsonl", "{\"id\":1}\n{\"id\":2}\n")
	b := writeFile(t, dir, "b.jsonl", "{\"id\":3}\n{\"id\":4}")

	ids, err := collectIDs(t, New(Options{}), []string{b, a})
	if err != nil {
		t.Fatalf("Records: %v", err)
	}

	want := []string{"3", "4", "1", "2"}
	if len(ids) != len(want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
}

func TestRecordsSkipsBlankLines(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.jsonl", "\n{\"id\":1}\n   \n\r\n{\"id\":2}\n\n")

	ids, err := collectIDs(t, New(Options{}), []string{a})
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("expected 2 records, got %v", ids)
	}
}

func TestRecordsFailFastOnMalformedLine(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.jsonl", "{\"id\":1}\n{\"id\":\n{\"id\":3}\n")

	ids, err := collectIDs(t, New(Options{}), []string{a})
	if !errors.Is(err, internalerr.ErrMalformedLine) {
		t.Fatalf("expected ErrMalformedLine, got %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("expected the record before the bad line, got %v", ids)
	}
}

func TestRecordsSkipAndCount(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.jsonl", "{\"id\":1}\n{\"id\":\nnope\n{\"id\":3}\n")

	l := New(Options{Policy: SkipAndCount})
	ids, err := collectIDs(t, l, []string{a})
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("expected 2 records, got %v", ids)
	}
	if l.Skipped() != 2 {
		t.Errorf("Skipped() = %d, want 2", l.Skipped())
	}
	if l.Read() != 2 {
		t.Errorf("Read() = %d, want 2", l.Read())
	}
}

func TestRecordsMissingFile(t *testing.T) {
	_, err := collectIDs(t, New(Options{}), []string{filepath.Join(t.TempDir(), "nope.jsonl")})
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestRecordsProgress(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.jsonl", "{\"id\":1}\n")
	b := writeFile(t, dir, "b.jsonl", "{\"id\":2}\n")

	var calls []int
	l := New(Options{Progress: func(done, total int, path string) {
		if total != 2 {
			t.Errorf("total = %d, want 2", total)
		}
		calls = append(calls, done)
	}})
	if _, err := collectIDs(t, l, []string{a, b}); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 2 || calls[0] != 1 || calls[1] != 2 {
		t.Errorf("progress calls = %v", calls)
	}
}

func TestRecordsStopsWhenConsumerStops(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.jsonl", "{\"id\":1}\n{\"id\":2}\n")
	b := writeFile(t, dir, "b.jsonl", "{\"id\":\n")

	n := 0
	for _, err := range New(Options{}).Records([]string{a, b}) {
		if err != nil {
			t.Fatalf("should stop before reaching the bad file: %v", err)
		}
		n++
		if n == 2 {
			break
		}
	}
}

func TestRecordsRestartable(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.jsonl", "{\"id\":1}\n{\"id\":2}\n")

	l := New(Options{})
	first, _ := collectIDs(t, l, []string{a})
	second, _ := collectIDs(t, l, []string{a})
	if len(first) != 2 || len(second) != 2 {
		t.Errorf("each pass should read everything: %v %v", first, second)
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy("skip"); err != nil || p != SkipAndCount {
		t.Errorf("ParsePolicy(skip) = %v, %v", p, err)
	}
	if p, err := ParsePolicy(""); err != nil || p != FailFast {
		t.Errorf("ParsePolicy(\"\") = %v, %v", p, err)
	}
	if _, err := ParsePolicy("ignore"); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
