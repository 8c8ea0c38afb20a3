package sim

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// WriteSeriesCSV writes the sweep series with a header row.
func WriteSeriesCSV(path string, series []SweepRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"sweep", "magnetization", "log_price"}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range series {
		row := []string{
			strconv.Itoa(r.Sweep),
			fmtFloat(r.Magnetization),
			fmtFloat(r.LogPrice),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

// ReadSeriesCSV loads a series written by WriteSeriesCSV.
func ReadSeriesCSV(path string) ([]SweepRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty series file %s", path)
	}

	series := make([]SweepRow, 0, len(records)-1)
	for n, rec := range records[1:] {
		if len(rec) < 3 {
			return nil, fmt.Errorf("row %d: expected 3 columns, got %d", n+1, len(rec))
		}
		sweep, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad sweep index: %w", n+1, err)
		}
		mag, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad magnetization: %w", n+1, err)
		}
		lp, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad log price: %w", n+1, err)
		}
		series = append(series, SweepRow{Sweep: sweep, Magnetization: mag, LogPrice: lp})
	}
	return series, nil
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
