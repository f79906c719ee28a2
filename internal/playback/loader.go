package playback

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
)

const utf8BOM = "\ufeff"

// column maps a recognized header to the cell index that supplies its value.
type column struct {
	channel ChannelID
	index   int
}

// Load reads the comma-separated recording at path. The first row is the
// header; every following row becomes one Frame, in file order.
//
// Only recognized columns are parsed. A recognized cell that is not a number
// is logged and left out of its frame; the row is still kept. A missing file,
// an unreadable file or a table without a header yields a *LoadError.
func Load(path string, set ChannelSet, log *slog.Logger) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		lerr := &LoadError{Path: path, Err: err}
		log.Error("recording not readable", slog.String("path", path), slog.String("error", err.Error()))
		return nil, lerr
	}
	defer f.Close()

	rec, err := LoadReader(f, set, log)
	if err != nil {
		lerr := &LoadError{Path: path, Err: err}
		log.Error("recording load failed", slog.String("path", path), slog.String("error", err.Error()))
		return nil, lerr
	}
	rec.Source = path

	log.Info("recording loaded",
		slog.String("path", path),
		slog.Int("frames", rec.Len()),
		slog.Int("columns", len(rec.Headers)),
		slog.Int("cell_warnings", rec.Warnings))
	return rec, nil
}

// LoadReader parses a recording from src. See Load.
func LoadReader(src io.Reader, set ChannelSet, log *slog.Logger) (*Recording, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	headers := make([]string, len(header))
	copy(headers, header)
	cols := recognizedColumns(headers, set)

	rec := &Recording{Headers: headers}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rec.Frames)+1, err)
		}
		line, _ := r.FieldPos(0)

		samples := make([]Sample, 0, len(cols))
		for _, c := range cols {
			raw := ""
			if c.index < len(row) {
				raw = row[c.index]
			}
			v, err := parseCell(raw)
			if err != nil {
				rec.Warnings++
				log.Warn("unparsable cell",
					slog.String("column", string(c.channel)),
					slog.Int("line", line),
					slog.String("value", raw))
				continue
			}
			samples = append(samples, Sample{Channel: c.channel, Value: v})
		}
		rec.Frames = append(rec.Frames, Frame{samples: samples})
	}

	return rec, nil
}

// parseCell parses a trimmed decimal cell. Magnitudes beyond float64 range
// are kept as ±Inf instead of being rejected.
func parseCell(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil && errors.Is(err, strconv.ErrRange) && math.IsInf(v, 0) {
		return v, nil
	}
	return v, err
}

// recognizedColumns returns the recognized headers in first-occurrence order.
// When a header repeats, its value is taken from the last occurrence.
func recognizedColumns(headers []string, set ChannelSet) []column {
	cols := make([]column, 0, len(headers))
	pos := make(map[ChannelID]int, len(headers))
	for i, h := range headers {
		if !set.Contains(h) {
			continue
		}
		ch := ChannelID(h)
		if j, ok := pos[ch]; ok {
			cols[j].index = i
			continue
		}
		pos[ch] = len(cols)
		cols = append(cols, column{channel: ch, index: i})
	}
	return cols
}
