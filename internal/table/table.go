// Package table reads the input hospital table and writes the scored
// output table. The engine itself only sees record slices; this is the
// thin IO boundary around it.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rkaragin/ldverify/internal/model"
)

var requiredColumns = []string{"name", "city", "state", "year"}

// notesColumns are accepted headers for the optional free-text
// evidence column.
var notesColumns = []string{"notes", "evidence", "evidence_text"}

// ReadCSV loads hospital records from a CSV file. The header must
// carry name, city, state and year (any casing); an optional notes or
// evidence column supplies provided text. Size and row ceilings are
// enforced here, before any processing.
func ReadCSV(path string, cfg model.EngineConfig) ([]model.HospitalRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, model.NewValidationError("stat input %s: %v", path, err)
	}
	if cfg.MaxFileBytes > 0 && info.Size() > cfg.MaxFileBytes {
		return nil, model.NewValidationError("input file is %d bytes, ceiling is %d", info.Size(), cfg.MaxFileBytes)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, model.NewValidationError("open input %s: %v", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, model.NewValidationError("read header: %v", err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var records []model.HospitalRecord
	row := 1
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, model.NewValidationError("row %d: %v", row+1, err)
		}
		row++

		year, err := strconv.Atoi(strings.TrimSpace(fields[cols["year"]]))
		if err != nil {
			return nil, model.NewValidationError("row %d: year %q is not an integer", row, fields[cols["year"]])
		}

		rec := model.HospitalRecord{
			Name:  strings.TrimSpace(fields[cols["name"]]),
			City:  strings.TrimSpace(fields[cols["city"]]),
			State: strings.TrimSpace(fields[cols["state"]]),
			Year:  year,
		}
		if idx, ok := cols["notes"]; ok {
			rec.Notes = strings.TrimSpace(fields[idx])
		}
		records = append(records, rec)

		if cfg.MaxRows > 0 && len(records) > cfg.MaxRows {
			return nil, model.NewValidationError("input has more than %d rows", cfg.MaxRows)
		}
	}

	return records, nil
}

// mapColumns resolves header names to indices, case-insensitively.
func mapColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int)
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, model.NewValidationError("missing required columns: %s", strings.Join(missing, ", "))
	}

	mapped := map[string]int{}
	for _, c := range requiredColumns {
		mapped[c] = cols[c]
	}
	for _, c := range notesColumns {
		if idx, ok := cols[c]; ok {
			mapped["notes"] = idx
			break
		}
	}
	return mapped, nil
}

// WriteCSV writes one output row per result, in order.
func WriteCSV(path string, results []model.VerificationResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"name", "city", "state", "year",
		"verdict", "confidence",
		"matched_positive", "matched_negative",
		"evidence_summary", "error",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, res := range results {
		row := []string{
			res.Record.Name,
			res.Record.City,
			res.Record.State,
			strconv.Itoa(res.Record.Year),
			string(res.Verdict),
			strconv.FormatFloat(res.Confidence, 'f', 2, 64),
			strings.Join(res.MatchedPositive, "; "),
			strings.Join(res.MatchedNegative, "; "),
			res.EvidenceSummary,
			res.Error,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}
