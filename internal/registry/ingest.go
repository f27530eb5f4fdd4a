package registry

import (
	"archive/zip"
	"bufio"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"mark-risk-eval/internal/match"
	"mark-risk-eval/internal/store"
)

// IngestOptions configures the bulk XML ingestion routine.
type IngestOptions struct {
	Path     string
	DB       *store.Database
	Progress func(count int)
	Context  context.Context
}

// Ingest parses a bulk trademark XML feed (optionally zipped) and persists
// the records into the local registry database.
func Ingest(opts IngestOptions) (int, error) {
	if opts.DB == nil {
		return 0, errors.New("db is required")
	}
	if opts.Path == "" {
		return 0, errors.New("path is required")
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	r, closer, err := openXML(opts.Path)
	if err != nil {
		return 0, err
	}
	defer closer()

	decoder := xml.NewDecoder(bufio.NewReader(r))
	count := 0

	for {
		select {
		case <-ctx.Done():
			return count, ctx.Err()
		default:
		}

		tok, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return count, nil
			}
			return count, fmt.Errorf("decode token: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "trademark" {
			continue
		}

		var entry trademarkEntry
		if err := decoder.DecodeElement(&entry, &start); err != nil {
			return count, fmt.Errorf("decode trademark: %w", err)
		}

		record := entry.toRecord()
		if record.Text == "" {
			continue
		}
		if err := opts.DB.UpsertRegistryRecord(record); err != nil {
			return count, fmt.Errorf("upsert registry record: %w", err)
		}
		count++
		if opts.Progress != nil && count%500 == 0 {
			opts.Progress(count)
		}
	}
}

// openXML opens either a raw XML file or a ZIP containing one.
func openXML(path string) (io.Reader, func(), error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}
	if info.IsDir() {
		return nil, nil, fmt.Errorf("%s is a directory", path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".zip" {
		return openFromZip(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func openFromZip(path string) (io.Reader, func(), error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, err
	}
	for _, f := range zr.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".xml") {
			rc, err := f.Open()
			if err != nil {
				_ = zr.Close()
				return nil, nil, err
			}
			closer := func() {
				_ = rc.Close()
				_ = zr.Close()
			}
			return rc, closer, nil
		}
	}
	_ = zr.Close()
	return nil, nil, fmt.Errorf("no xml file found in %s", path)
}

type trademarkEntry struct {
	RegistrationNumber string               `xml:"registration-number"`
	Designation        string               `xml:"designation"`
	Status             string               `xml:"status"`
	Holder             string               `xml:"holder"`
	Classifications    entryClassifications `xml:"classifications"`
}

type entryClassifications struct {
	Classes []string `xml:"class"`
}

func (e trademarkEntry) toRecord() *store.RegistryRecord {
	text := cleanString(e.Designation)
	if match.Normalize(text) == "" {
		return &store.RegistryRecord{}
	}

	var classes []int
	for _, raw := range e.Classifications.Classes {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n > 0 {
			classes = append(classes, n)
		}
	}

	rec := &store.RegistryRecord{
		Registration:   strings.TrimSpace(e.RegistrationNumber),
		Text:           text,
		TextNormalized: match.Normalize(text),
		TextNoSpaces:   match.NoSpaces(text),
		Status:         strings.ToLower(cleanString(e.Status)),
		Holder:         cleanString(e.Holder),
	}
	rec.SetClasses(classes)
	return rec
}

func cleanString(in string) string {
	return strings.TrimSpace(strings.ReplaceAll(in, "\n", " "))
}
