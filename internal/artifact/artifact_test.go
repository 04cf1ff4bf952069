package artifact

import (
	"path/filepath"
	"testing"
	"time"
)

func testDocument() *Document {
	return &Document{
		SchemaVersion: 1,
		CreatedAt:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		SampleCount:   1000,
		Labels:        []int{10, 19, 14},
		Rules: []Rule{
			{MinHour: 9, MaxHour: 11, Label: 10, Votes: []int{120, 10, 12}},
			{MinHour: 18, MaxHour: 20, Label: 19, Votes: []int{8, 115, 11}},
			{MinHour: 0, MaxHour: 23, Label: 14, Votes: []int{30, 28, 600}},
		},
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		write func(*Document, string) error
	}{
		{"Plain JSON document", "model.json", Save},
		{"Packaged archive", "model.tar.gz", WriteArchive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			doc := testDocument()

			if err := tt.write(doc, path); err != nil {
				t.Fatalf("writing document: %v", err)
			}

			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			if got.SchemaVersion != doc.SchemaVersion || got.SampleCount != doc.SampleCount {
				t.Errorf("header fields differ: got %+v", got)
			}
			if !got.CreatedAt.Equal(doc.CreatedAt) {
				t.Errorf("created_at = %v, want %v", got.CreatedAt, doc.CreatedAt)
			}
			if len(got.Labels) != len(doc.Labels) || len(got.Rules) != len(doc.Rules) {
				t.Fatalf("got %d labels and %d rules, want %d and %d",
					len(got.Labels), len(got.Rules), len(doc.Labels), len(doc.Rules))
			}
			for i, rule := range got.Rules {
				want := doc.Rules[i]
				if rule.MinHour != want.MinHour || rule.MaxHour != want.MaxHour || rule.Label != want.Label {
					t.Errorf("rule %d = %+v, want %+v", i, rule, want)
				}
				for j := range want.Votes {
					if rule.Votes[j] != want.Votes[j] {
						t.Errorf("rule %d votes = %v, want %v", i, rule.Votes, want.Votes)
						break
					}
				}
			}
		})
	}
}

func TestLoadRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Document)
	}{
		{"No labels", func(d *Document) { d.Labels = nil }},
		{"No rules", func(d *Document) { d.Rules = nil }},
		{"Inverted band", func(d *Document) { d.Rules[0].MinHour = 12 }},
		{"Vote count mismatch", func(d *Document) { d.Rules[1].Votes = []int{1, 2} }},
		{"Negative votes", func(d *Document) { d.Rules[2].Votes[0] = -1 }},
		{"All-zero votes", func(d *Document) { d.Rules[0].Votes = []int{0, 0, 0} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := testDocument()
			tt.mutate(doc)

			path := filepath.Join(t.TempDir(), "model.json")
			if err := Save(doc, path); err != nil {
				t.Fatalf("writing document: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() accepted an invalid document")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("Load() expected error for missing file")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "absent.tar.gz")); err == nil {
		t.Error("Load() expected error for missing archive")
	}
}
