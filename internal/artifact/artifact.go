package artifact

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// DocumentName is the weights file inside a packaged model archive.
const DocumentName = "model.json"

// Document is the persisted form of a trained hour classifier: a label
// domain plus an ordered rule table with per-rule vote counts. Rules are
// evaluated first-match, so the catch-all band belongs last.
type Document struct {
	SchemaVersion int       `json:"schema_version"`
	CreatedAt     time.Time `json:"created_at"`
	SampleCount   int       `json:"sample_count"`
	Labels        []int     `json:"labels"`
	Rules         []Rule    `json:"rules"`
}

// Rule maps an inclusive hour-of-day band to a predicted hour label. Votes
// are training-sample counts per label (parallel to Document.Labels) and
// are what the probability distribution is derived from at serving time.
type Rule struct {
	MinHour int   `json:"min_hour"`
	MaxHour int   `json:"max_hour"`
	Label   int   `json:"label"`
	Votes   []int `json:"votes"`
}

// Matches reports whether an hour falls inside the rule's band.
func (r Rule) Matches(hour float64) bool {
	return hour >= float64(r.MinHour) && hour <= float64(r.MaxHour)
}

// Validate checks the structural invariants a loaded document must hold
// before a classifier is built from it.
func (d *Document) Validate() error {
	if len(d.Labels) == 0 {
		return errors.New("document has no labels")
	}
	if len(d.Rules) == 0 {
		return errors.New("document has no rules")
	}
	for i, rule := range d.Rules {
		if rule.MinHour > rule.MaxHour {
			return fmt.Errorf("rule %d: min_hour %d > max_hour %d", i, rule.MinHour, rule.MaxHour)
		}
		if len(rule.Votes) != len(d.Labels) {
			return fmt.Errorf("rule %d: %d votes for %d labels", i, len(rule.Votes), len(d.Labels))
		}
		total := 0
		for _, v := range rule.Votes {
			if v < 0 {
				return fmt.Errorf("rule %d: negative vote count", i)
			}
			total += v
		}
		if total == 0 {
			return fmt.Errorf("rule %d: no votes", i)
		}
	}
	return nil
}

// Save writes the document as plain JSON.
func Save(doc *Document, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding model document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// WriteArchive packages the document as a gzipped tarball holding
// DocumentName, the same layout the deployment artifact uses.
func WriteArchive(doc *Document, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding model document: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	hdr := &tar.Header{
		Name:    DocumentName,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: doc.CreatedAt,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing tar header: %w", err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("writing tar entry: %w", err)
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("closing tar writer: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("closing gzip writer: %w", err)
	}
	return f.Close()
}

// Load reads a model document from either a plain JSON file or a packaged
// .tar.gz archive, picked by file suffix, and validates it.
func Load(path string) (*Document, error) {
	var (
		doc *Document
		err error
	)
	if strings.HasSuffix(path, ".tar.gz") || strings.HasSuffix(path, ".tgz") {
		doc, err = loadArchive(path)
	} else {
		doc, err = loadJSON(path)
	}
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model document %s: %w", path, err)
	}
	return doc, nil
}

func loadJSON(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &doc, nil
}

func loadArchive(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading gzip %s: %w", path, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar %s: %w", path, err)
		}
		if hdr.Name != DocumentName {
			continue
		}
		var doc Document
		if err := json.NewDecoder(tr).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding %s in %s: %w", DocumentName, path, err)
		}
		return &doc, nil
	}
	return nil, fmt.Errorf("archive %s has no %s entry", path, DocumentName)
}
