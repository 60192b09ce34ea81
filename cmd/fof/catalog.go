package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/galaxygroups/internal/config"
	"github.com/banshee-data/galaxygroups/internal/monitoring"
	"github.com/banshee-data/galaxygroups/internal/survey"
)

// readCatalogCSV reads a catalog with a header row. Columns whose every
// value parses as a float are kept; text columns such as names are dropped.
func readCatalogCSV(r io.Reader) (*survey.Catalog, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("catalog is empty")
		}
		return nil, fmt.Errorf("failed to read catalog header: %w", err)
	}
	for i, name := range header {
		header[i] = strings.ToLower(strings.TrimSpace(name))
	}

	values := make([][]float64, len(header))
	numeric := make([]bool, len(header))
	for i := range numeric {
		numeric[i] = true
	}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog: %w", err)
		}
		for i, field := range record {
			if !numeric[i] {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				numeric[i] = false
				values[i] = nil
				continue
			}
			values[i] = append(values[i], v)
		}
	}

	columns := make(map[string][]float64, len(header))
	for i, name := range header {
		if !numeric[i] {
			monitoring.Debugf("[Catalog] dropping non-numeric column %q", name)
			continue
		}
		columns[name] = values[i]
	}
	return survey.NewCatalog(columns)
}

// loadSurvey reads the catalog at path and derives the columns the config
// asks for.
func loadSurvey(path string, cfg *config.RunConfig) (*survey.Survey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	catalog, err := readCatalogCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s, err := survey.New(catalog, cfg.Survey.Params())
	if err != nil {
		return nil, err
	}
	if err := cfg.Survey.Prepare(s); err != nil {
		return nil, err
	}
	monitoring.Logf("[Catalog] Loaded %d galaxies from %s (columns %s)",
		s.Len(), path, strings.Join(catalog.Columns(), ", "))
	return s, nil
}
