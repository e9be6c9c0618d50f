package config

import (
	"reflect"
	"sort"
	"testing"
)

func sortedNames(s ScreenNames) []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func TestLoadScreenNames(t *testing.T) {
	dir := t.TempDir()
	want := []string{"alice", "bob"}

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"json object", "parties.json", `{"alice": "A", "bob": "B"}`},
		{"json array", "names.json", `["alice", "bob", "alice"]`},
		{"yaml terms", "names.yaml", "terms:\n  - alice\n  - bob\n"},
		{"yaml list", "names.yml", "- alice\n- bob\n"},
		{"csv first column", "names.csv", "alice,party a\nbob,party b\n"},
		{"txt lines", "names.txt", "alice\n\n bob\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.content)
			names, err := LoadScreenNames(path)
			if err != nil {
				t.Fatalf("LoadScreenNames: %v", err)
			}
			if got := sortedNames(names); !reflect.DeepEqual(got, want) {
				t.Errorf("got %v, want %v", got, want)
			}
		})
	}
}

func TestLoadScreenNamesErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadScreenNames(writeFile(t, dir, "bad.json", `"alice"`)); err == nil {
		t.Error("expected error for scalar JSON")
	}
	if _, err := LoadScreenNames(writeFile(t, dir, "names.xml", `<a/>`)); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestLoadIDs(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ids.json", `[1180000000000000001, "42", ""]`)

	ids, err := LoadIDs(path)
	if err != nil {
		t.Fatalf("LoadIDs: %v", err)
	}
	if !ids.Has("1180000000000000001") || !ids.Has("42") || len(ids) != 2 {
		t.Errorf("ids = %v", ids.Sorted())
	}
}
