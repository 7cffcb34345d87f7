// Package export writes a sample snapshot, paired index-wise with the current
// spectrum, to CSV or Parquet.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Header is the CSV header line.
var Header = []string{"Voltage (V)", "Frequency (Hz)"}

// Row is one exported sample. Spectrum is nil past the end of the spectrum.
type Row struct {
	Voltage  float64  `parquet:"voltage"`
	Spectrum *float64 `parquet:"spectrum,optional"`
}

// Rows pairs snapshot[i] with spectrum[i] where one exists.
func Rows(snapshot, spectrum []float64) []Row {
	rows := make([]Row, len(snapshot))
	for i, v := range snapshot {
		rows[i].Voltage = v
		if i < len(spectrum) {
			s := spectrum[i]
			rows[i].Spectrum = &s
		}
	}
	return rows
}

// CSV writes the header followed by one "<voltage>,<spectrum or empty>" line per sample.
func CSV(w io.Writer, snapshot, spectrum []float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	record := make([]string, 2)
	for _, r := range Rows(snapshot, spectrum) {
		record[0] = formatFloat(r.Voltage)
		record[1] = ""
		if r.Spectrum != nil {
			record[1] = formatFloat(*r.Spectrum)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// Parquet writes the same pairing as snappy-compressed Parquet rows.
func Parquet(w io.Writer, snapshot, spectrum []float64) error {
	pw := parquet.NewGenericWriter[Row](w, parquet.Compression(&parquet.Snappy))
	if _, err := pw.Write(Rows(snapshot, spectrum)); err != nil {
		pw.Close()
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// Format selects the export encoding.
type Format int

const (
	FormatCSV Format = iota
	FormatParquet
)

// FormatFor picks Parquet for a .parquet extension and CSV otherwise.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return FormatParquet
	}
	return FormatCSV
}

func (f Format) String() string {
	if f == FormatParquet {
		return "parquet"
	}
	return "csv"
}

// Write encodes the pairing in format f.
func Write(w io.Writer, f Format, snapshot, spectrum []float64) error {
	if f == FormatParquet {
		return Parquet(w, snapshot, spectrum)
	}
	return CSV(w, snapshot, spectrum)
}

// WriteFile exports to path in the format chosen by FormatFor.
func WriteFile(path string, snapshot, spectrum []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	if err := Write(f, FormatFor(path), snapshot, spectrum); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
