package playback

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"motion-replay/internal/platform/logger"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "motion.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoad_scenario_unparsable_and_unknown_columns(t *testing.T) {
	path := writeCSV(t, "left_arm_joint1,left_arm_joint2,unused_col\n0.1,0.2,x\n0.3,abc,y\n")

	rec, err := Load(path, DefaultChannels(), logger.Discard())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec.Len() != 2 {
		t.Fatalf("expected 2 frames, got %d", rec.Len())
	}
	if rec.Source != path {
		t.Errorf("Source = %q, want %q", rec.Source, path)
	}

	want0 := NewFrame(Sample{"left_arm_joint1", 0.1}, Sample{"left_arm_joint2", 0.2})
	if !rec.Frames[0].Equal(want0) {
		t.Errorf("frame 0 = %v, want %v", rec.Frames[0].Samples(), want0.Samples())
	}
	want1 := NewFrame(Sample{"left_arm_joint1", 0.3})
	if !rec.Frames[1].Equal(want1) {
		t.Errorf("frame 1 = %v, want %v", rec.Frames[1].Samples(), want1.Samples())
	}
	if _, ok := rec.Frames[1].Value("left_arm_joint2"); ok {
		t.Error("unparsable cell should be omitted from frame 1")
	}
	if rec.Warnings != 1 {
		t.Errorf("expected 1 cell warning, got %d", rec.Warnings)
	}
	for _, f := range rec.Frames {
		if _, ok := f.Value("unused_col"); ok {
			t.Error("unrecognized column must never appear in a frame")
		}
	}
}

func TestLoad_unparsable_cell_logs_warning(t *testing.T) {
	path := writeCSV(t, "left_arm_joint1,left_arm_joint2,unused_col\n0.1,0.2,x\n0.3,abc,y\n")

	var buf bytes.Buffer
	if _, err := Load(path, DefaultChannels(), logger.NewWithWriter(&buf, "debug", "json")); err != nil {
		t.Fatalf("Load: %v", err)
	}

	var warnings []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry map[string]any
		if err := json.Unmarshal(line, &entry); err != nil {
			t.Fatalf("not json: %v (%s)", err, line)
		}
		if entry["level"] == "WARN" {
			warnings = append(warnings, entry)
		}
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warn line, got %d:\n%s", len(warnings), buf.String())
	}
	w := warnings[0]
	if w["msg"] != "unparsable cell" || w["column"] != "left_arm_joint2" || w["line"] != float64(3) || w["value"] != "abc" {
		t.Errorf("unexpected warning %v", w)
	}
}

func TestLoadReader_out_of_range_is_infinite(t *testing.T) {
	src := "left_arm_joint1,left_arm_joint2,torso_joint1\n1e400,-1e400,1e-400\n"

	rec, err := LoadReader(strings.NewReader(src), DefaultChannels(), logger.Discard())
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if rec.Warnings != 0 {
		t.Errorf("out-of-range cells should not warn, got %d", rec.Warnings)
	}
	if v, ok := rec.Frames[0].Value("left_arm_joint1"); !ok || !math.IsInf(v, 1) {
		t.Errorf("left_arm_joint1 = %v, %v; want +Inf", v, ok)
	}
	if v, ok := rec.Frames[0].Value("left_arm_joint2"); !ok || !math.IsInf(v, -1) {
		t.Errorf("left_arm_joint2 = %v, %v; want -Inf", v, ok)
	}
	if v, ok := rec.Frames[0].Value("torso_joint1"); !ok || v != 0 {
		t.Errorf("torso_joint1 = %v, %v; want 0", v, ok)
	}
}

func TestLoad_rows_kept_when_nothing_parses(t *testing.T) {
	path := writeCSV(t, "left_arm_joint1,notes\nx,hello\n,world\n1.5,!\n")

	rec, err := Load(path, DefaultChannels(), logger.Discard())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec.Len() != 3 {
		t.Fatalf("frame count must equal data rows: got %d", rec.Len())
	}
	if rec.Frames[0].Len() != 0 || rec.Frames[1].Len() != 0 {
		t.Errorf("expected empty frames for unparsable rows, got %d and %d", rec.Frames[0].Len(), rec.Frames[1].Len())
	}
	if v, ok := rec.Frames[2].Value("left_arm_joint1"); !ok || v != 1.5 {
		t.Errorf("frame 2 left_arm_joint1 = %v, %v", v, ok)
	}
}

func TestLoad_header_only(t *testing.T) {
	path := writeCSV(t, "left_arm_joint1,left_arm_joint2\n")

	rec, err := Load(path, DefaultChannels(), logger.Discard())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rec.Len() != 0 {
		t.Errorf("expected 0 frames, got %d", rec.Len())
	}
	if len(rec.Headers) != 2 {
		t.Errorf("expected 2 headers, got %v", rec.Headers)
	}
}

func TestLoad_errors(t *testing.T) {
	t.Run("missing_file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.csv"), DefaultChannels(), logger.Discard())
		var lerr *LoadError
		if !errors.As(err, &lerr) {
			t.Fatalf("expected *LoadError, got %v", err)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("expected fs.ErrNotExist in chain, got %v", err)
		}
	})

	t.Run("empty_file", func(t *testing.T) {
		_, err := Load(writeCSV(t, ""), DefaultChannels(), logger.Discard())
		var lerr *LoadError
		if !errors.As(err, &lerr) {
			t.Fatalf("expected *LoadError, got %v", err)
		}
		if !errors.Is(err, ErrNoHeader) {
			t.Errorf("expected ErrNoHeader, got %v", err)
		}
	})

	t.Run("directory", func(t *testing.T) {
		_, err := Load(t.TempDir(), DefaultChannels(), logger.Discard())
		var lerr *LoadError
		if !errors.As(err, &lerr) {
			t.Fatalf("expected *LoadError, got %v", err)
		}
	})
}

func TestLoadReader_headers_keep_whitespace(t *testing.T) {
	src := "\ufeffleft_arm_joint1, left_arm_joint2 ,torso_joint1\n1,2,3\n"

	rec, err := LoadReader(strings.NewReader(src), DefaultChannels(), logger.Discard())
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	want := []string{"left_arm_joint1", " left_arm_joint2 ", "torso_joint1"}
	for i, h := range want {
		if rec.Headers[i] != h {
			t.Errorf("header %d = %q, want %q", i, rec.Headers[i], h)
		}
	}
	// Padded headers are matched untrimmed, so their values are not loaded.
	if _, ok := rec.Frames[0].Value("left_arm_joint2"); ok {
		t.Error("padded header should not match the channel set at load time")
	}
	if v, _ := rec.Frames[0].Value("torso_joint1"); v != 3 {
		t.Errorf("torso_joint1 = %v, want 3", v)
	}
}

func TestLoadReader_quoting_and_ragged_rows(t *testing.T) {
	src := "left_arm_joint1,comment,left_arm_joint2\n\"0.5\",\"a, b\",\" 0.25 \"\n0.75\n"

	rec, err := LoadReader(strings.NewReader(src), DefaultChannels(), logger.Discard())
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	if rec.Len() != 2 {
		t.Fatalf("expected 2 frames, got %d", rec.Len())
	}
	want0 := NewFrame(Sample{"left_arm_joint1", 0.5}, Sample{"left_arm_joint2", 0.25})
	if !rec.Frames[0].Equal(want0) {
		t.Errorf("frame 0 = %v", rec.Frames[0].Samples())
	}
	want1 := NewFrame(Sample{"left_arm_joint1", 0.75})
	if !rec.Frames[1].Equal(want1) {
		t.Errorf("short row should keep parsed cells, got %v", rec.Frames[1].Samples())
	}
	if rec.Warnings != 1 {
		t.Errorf("missing cell should count as a warning, got %d", rec.Warnings)
	}
}

func TestLoadReader_duplicate_header_last_wins(t *testing.T) {
	src := "left_arm_joint1,left_arm_joint2,left_arm_joint1\n1,2,3\n4,5,bad\n"

	rec, err := LoadReader(strings.NewReader(src), DefaultChannels(), logger.Discard())
	if err != nil {
		t.Fatalf("LoadReader: %v", err)
	}
	want0 := NewFrame(Sample{"left_arm_joint1", 3}, Sample{"left_arm_joint2", 2})
	if !rec.Frames[0].Equal(want0) {
		t.Errorf("frame 0 = %v, want %v", rec.Frames[0].Samples(), want0.Samples())
	}
	if _, ok := rec.Frames[1].Value("left_arm_joint1"); ok {
		t.Error("last occurrence is unparsable, channel should be omitted")
	}
}

func TestLoad_idempotent(t *testing.T) {
	path := writeCSV(t, "left_arm_joint1,right_arm_joint7,torso_joint2\n0.1,0.2,0.3\n-1e-3,x,42\n,,\n")

	a, err := Load(path, DefaultChannels(), logger.Discard())
	if err != nil {
		t.Fatalf("first Load: %v", err)
	}
	b, err := Load(path, DefaultChannels(), logger.Discard())
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if a.Len() != b.Len() {
		t.Fatalf("lengths differ: %d vs %d", a.Len(), b.Len())
	}
	for i := range a.Frames {
		if !a.Frames[i].Equal(b.Frames[i]) {
			t.Errorf("frame %d differs: %v vs %v", i, a.Frames[i].Samples(), b.Frames[i].Samples())
		}
	}
}
