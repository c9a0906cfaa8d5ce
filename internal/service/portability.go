package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aazoaer/health-manager/internal/model"
	"github.com/aazoaer/health-manager/internal/store"
)

const exportVersion = 1

type ExportSummary struct {
	Date               string `json:"date" yaml:"date"`
	model.DailySummary `yaml:",inline"`
}

type ExportData struct {
	Version    int             `json:"version" yaml:"version"`
	ExportedAt time.Time       `json:"exported_at" yaml:"exported_at"`
	Profile    *ProfileInput   `json:"profile,omitempty" yaml:"profile,omitempty"`
	Settings   *Settings       `json:"settings,omitempty" yaml:"settings,omitempty"`
	History    []ExportSummary `json:"history" yaml:"history"`
}

type ImportMode string

const (
	ImportModeFail    ImportMode = "fail"
	ImportModeSkip    ImportMode = "skip"
	ImportModeMerge   ImportMode = "merge"
	ImportModeReplace ImportMode = "replace"
)

type ImportOptions struct {
	Mode   ImportMode
	DryRun bool
	// WithProfile also applies an exported profile and settings.
	WithProfile bool
}

type ImportReport struct {
	Inserted  int      `json:"inserted"`
	Updated   int      `json:"updated"`
	Skipped   int      `json:"skipped"`
	Conflicts int      `json:"conflicts"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Export formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

var csvHeader = []string{
	"date", "water_intake", "water_goal", "water_achieved", "nutrition_score",
	"sleep_grade", "sleep_duration", "exercise_score", "exercise_duration", "exercise_calories",
}

// ExportHistory snapshots every stored summary, ascending by date, with the
// current profile and settings.
func (t *Tracker) ExportHistory(ctx context.Context) (*ExportData, error) {
	history, err := t.LoadAllHistory(ctx)
	if err != nil {
		return nil, err
	}
	u, err := t.LoadUserData(ctx)
	if err != nil {
		return nil, err
	}
	profile := ProfileFromUser(u)
	settings := SettingsFromUser(u)
	out := &ExportData{
		Version:    exportVersion,
		ExportedAt: t.now(),
		Profile:    &profile,
		Settings:   &settings,
		History:    make([]ExportSummary, 0, len(history)),
	}
	for date, s := range history {
		out.History = append(out.History, ExportSummary{Date: date, DailySummary: s})
	}
	sort.Slice(out.History, func(i, j int) bool { return out.History[i].Date < out.History[j].Date })
	return out, nil
}

func (t *Tracker) ImportHistory(ctx context.Context, data *ExportData, opts ImportOptions) (ImportReport, error) {
	report := ImportReport{}
	if data == nil {
		return report, invalidf("import data is empty")
	}
	if data.Version > exportVersion {
		return report, invalidf("unsupported export version %d", data.Version)
	}
	mode := normalizeImportMode(opts.Mode)

	existing, err := t.store.AllHistory(ctx)
	if err != nil {
		return report, err
	}
	have := make(map[string]bool, len(existing))
	for _, row := range existing {
		have[row.Date] = true
	}

	if mode == ImportModeReplace {
		have = map[string]bool{}
	}

	// Validate everything before the first write so a fail-mode conflict
	// leaves the store untouched.
	seen := map[string]bool{}
	pending := map[string]int{}
	toWrite := make([]ExportSummary, 0, len(data.History))
	for _, s := range data.History {
		date := strings.TrimSpace(s.Date)
		if !store.ValidDate(date) {
			report.Warnings = append(report.Warnings, fmt.Sprintf("skipped summary with invalid date %q", s.Date))
			report.Skipped++
			continue
		}
		s.Date = date
		if seen[date] {
			report.Conflicts++
			switch mode {
			case ImportModeFail:
				return report, fmt.Errorf("summary for %s appears more than once", date)
			case ImportModeSkip:
				report.Skipped++
				report.Warnings = append(report.Warnings, fmt.Sprintf("duplicate summary for %s; kept the first", date))
				continue
			}
			report.Warnings = append(report.Warnings, fmt.Sprintf("duplicate summary for %s; last one wins", date))
			if i, ok := pending[date]; ok {
				toWrite[i] = s
			}
			continue
		}
		seen[date] = true
		if have[date] {
			report.Conflicts++
			switch mode {
			case ImportModeFail:
				return report, fmt.Errorf("summary for %s already exists", date)
			case ImportModeSkip:
				report.Skipped++
				continue
			}
			report.Updated++
		} else {
			report.Inserted++
		}
		pending[date] = len(toWrite)
		toWrite = append(toWrite, s)
	}

	if opts.DryRun {
		return report, nil
	}
	rows := make([]store.HistoryRow, 0, len(toWrite))
	for _, s := range toWrite {
		row, err := historyRow(s.Date, s.DailySummary)
		if err != nil {
			return report, err
		}
		rows = append(rows, row)
	}
	if err := t.store.WriteHistory(ctx, rows, mode == ImportModeReplace); err != nil {
		return report, fmt.Errorf("write imported history: %w", err)
	}
	if opts.WithProfile {
		t.importProfile(ctx, data, &report)
	}
	t.logger.Info("imported history", "inserted", report.Inserted, "updated", report.Updated, "skipped", report.Skipped)
	return report, nil
}

func (t *Tracker) importProfile(ctx context.Context, data *ExportData, report *ImportReport) {
	if data.Profile != nil {
		if err := t.SaveProfile(ctx, *data.Profile); err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("profile not imported: %v", err))
		}
	}
	if data.Settings != nil {
		if err := t.SaveSettings(ctx, *data.Settings); err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("settings not imported: %v", err))
		}
	}
}

func normalizeImportMode(mode ImportMode) ImportMode {
	switch mode {
	case ImportModeFail, ImportModeSkip, ImportModeMerge, ImportModeReplace:
		return mode
	default:
		return ImportModeMerge
	}
}

// FormatFromPath guesses the export format from a file extension.
func FormatFromPath(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return FormatYAML
	case strings.HasSuffix(lower, ".csv"):
		return FormatCSV
	default:
		return FormatJSON
	}
}

func EncodeExport(w io.Writer, data *ExportData, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("encode export json: %w", err)
		}
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("encode export yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode export yaml: %w", err)
		}
	case FormatCSV:
		return encodeCSV(w, data)
	default:
		return fmt.Errorf("unsupported format %q (use json, yaml or csv)", format)
	}
	return nil
}

func DecodeExport(r io.Reader, format string) (*ExportData, error) {
	data := &ExportData{}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(data); err != nil {
			return nil, fmt.Errorf("parse import json: %w", err)
		}
	case FormatYAML, "yml":
		if err := yaml.NewDecoder(r).Decode(data); err != nil {
			return nil, fmt.Errorf("parse import yaml: %w", err)
		}
	case FormatCSV:
		decoded, err := decodeCSV(r)
		if err != nil {
			return nil, err
		}
		data = decoded
	default:
		return nil, fmt.Errorf("unsupported format %q (use json, yaml or csv)", format)
	}
	for i := range data.History {
		data.History[i].DailySummary.Date = data.History[i].Date
	}
	return data, nil
}

func encodeCSV(w io.Writer, data *ExportData) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write export csv header: %w", err)
	}
	for _, s := range data.History {
		record := []string{
			s.Date,
			strconv.FormatFloat(s.WaterIntake, 'f', -1, 64),
			strconv.Itoa(s.WaterGoal),
			strconv.FormatBool(s.WaterAchieved),
			strconv.Itoa(s.NutritionScore),
			s.SleepGrade,
			strconv.Itoa(s.SleepDuration),
			strconv.Itoa(s.ExerciseScore),
			strconv.Itoa(s.ExerciseDuration),
			strconv.Itoa(s.ExerciseCalories),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write export csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush export csv: %w", err)
	}
	return nil
}

func decodeCSV(r io.Reader) (*ExportData, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read import csv: %w", err)
	}
	if len(records) <= 1 {
		return nil, fmt.Errorf("import csv contains no data rows")
	}
	data := &ExportData{Version: exportVersion, History: make([]ExportSummary, 0, len(records)-1)}
	for i, row := range records[1:] {
		if len(row) != len(csvHeader) {
			return nil, fmt.Errorf("csv row %d has %d columns, expected %d", i+2, len(row), len(csvHeader))
		}
		cells := csvCells{row: row, line: i + 2}
		summary := ExportSummary{
			Date: cells.textAt(0),
			DailySummary: model.DailySummary{
				WaterIntake:      cells.floatAt(1),
				WaterGoal:        cells.intAt(2),
				WaterAchieved:    cells.boolAt(3),
				NutritionScore:   cells.intAt(4),
				SleepGrade:       cells.textAt(5),
				SleepDuration:    cells.intAt(6),
				ExerciseScore:    cells.intAt(7),
				ExerciseDuration: cells.intAt(8),
				ExerciseCalories: cells.intAt(9),
			},
		}
		if cells.err != nil {
			return nil, cells.err
		}
		data.History = append(data.History, summary)
	}
	return data, nil
}

// csvCells reads typed cells from one import row. Blank cells read as zero;
// the first malformed cell is kept in err.
type csvCells struct {
	row  []string
	line int
	err  error
}

func (c *csvCells) textAt(i int) string {
	return strings.TrimSpace(c.row[i])
}

func (c *csvCells) floatAt(i int) float64 {
	v := c.textAt(i)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
		err = fmt.Errorf("%q is not a finite number", v)
	}
	c.fail(i, err)
	return f
}

func (c *csvCells) intAt(i int) int {
	v := c.textAt(i)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	c.fail(i, err)
	return n
}

func (c *csvCells) boolAt(i int) bool {
	v := c.textAt(i)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	c.fail(i, err)
	return b
}

func (c *csvCells) fail(i int, err error) {
	if err != nil && c.err == nil {
		c.err = fmt.Errorf("csv row %d column %s: %w", c.line, csvHeader[i], err)
	}
}
