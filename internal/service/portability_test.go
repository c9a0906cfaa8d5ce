package service_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aazoaer/health-manager/internal/model"
	"github.com/aazoaer/health-manager/internal/service"
	"github.com/aazoaer/health-manager/internal/store"
)

func seedHistory(t *testing.T, tr *service.Tracker) {
	t.Helper()
	require.NoError(t, tr.SaveAllHistory(context.Background(), map[string]model.DailySummary{
		"2025-03-02": {WaterIntake: 1200, WaterGoal: 2000, SleepGrade: "C", ExerciseCalories: 210},
		"2025-03-01": {WaterIntake: 2100, WaterGoal: 2000, WaterAchieved: true, SleepGrade: "A", NutritionScore: 71},
	}))
}

func TestExportRoundTripFormats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	src, _ := newTestTracker(t, at("2025-03-10", 8, 0))
	seedHistory(t, src)
	require.NoError(t, src.SaveProfile(ctx, validProfile()))

	data, err := src.ExportHistory(ctx)
	require.NoError(t, err)
	require.Len(t, data.History, 3)
	assert.Equal(t, "2025-03-01", data.History[0].Date)
	assert.Equal(t, "2025-03-10", data.History[2].Date)
	require.NotNil(t, data.Profile)
	assert.Equal(t, "ac_env", data.Profile.Environment)

	for _, format := range []string{service.FormatJSON, service.FormatYAML, service.FormatCSV} {
		var buf bytes.Buffer
		require.NoError(t, service.EncodeExport(&buf, data, format), format)
		decoded, err := service.DecodeExport(&buf, format)
		require.NoError(t, err, format)
		require.Len(t, decoded.History, 3, format)
		assert.Equal(t, data.History[0], decoded.History[0], format)
		assert.Equal(t, data.History[1], decoded.History[1], format)
	}
}

func TestEncodeCSVHeader(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	data := &service.ExportData{History: []service.ExportSummary{
		{Date: "2025-03-01", DailySummary: model.DailySummary{WaterIntake: 1500.5, SleepGrade: "B"}},
	}}
	require.NoError(t, service.EncodeExport(&buf, data, "csv"))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "date,water_intake,water_goal"))
	assert.Equal(t, "2025-03-01,1500.5,0,false,0,B,0,0,0,0", lines[1])

	_, err := service.DecodeExport(strings.NewReader("date\n"), "csv")
	require.Error(t, err)
	require.Error(t, service.EncodeExport(&buf, data, "xml"))
}

func TestDecodeCSVRejectsMalformedCells(t *testing.T) {
	t.Parallel()
	header := "date,water_intake,water_goal,water_achieved,nutrition_score,sleep_grade,sleep_duration,exercise_score,exercise_duration,exercise_calories\n"
	cases := map[string]string{
		"water_intake":   "2025-03-01,1.5L,2000,false,0,B,420,0,0,0\n",
		"water_achieved": "2025-03-01,1500,2000,yes,0,B,420,0,0,0\n",
		"sleep_duration": "2025-03-01,1500,2000,false,0,B,7h,0,0,0\n",
	}
	for column, row := range cases {
		_, err := service.DecodeExport(strings.NewReader(header+row), service.FormatCSV)
		require.ErrorContains(t, err, "csv row 2 column "+column, column)
	}

	data, err := service.DecodeExport(strings.NewReader(header+"2025-03-01,,2000,,0,,,,,\n"), service.FormatCSV)
	require.NoError(t, err)
	require.Len(t, data.History, 1)
	assert.Zero(t, data.History[0].WaterIntake)
	assert.Equal(t, 2000, data.History[0].WaterGoal)
}

func TestImportModes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	incoming := &service.ExportData{Version: 1, History: []service.ExportSummary{
		{Date: "2025-03-02", DailySummary: model.DailySummary{WaterIntake: 999, SleepGrade: "B"}},
		{Date: "2025-03-03", DailySummary: model.DailySummary{WaterIntake: 500}},
		{Date: "03/04/2025"},
	}}

	t.Run("fail", func(t *testing.T) {
		t.Parallel()
		tr, _ := newTestTracker(t, at("2025-03-10", 8, 0))
		seedHistory(t, tr)
		_, err := tr.ImportHistory(ctx, incoming, service.ImportOptions{Mode: service.ImportModeFail})
		require.ErrorContains(t, err, "2025-03-02 already exists")
		_, err = tr.LoadDailySummary(ctx, "2025-03-03")
		require.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("skip", func(t *testing.T) {
		t.Parallel()
		tr, _ := newTestTracker(t, at("2025-03-10", 8, 0))
		seedHistory(t, tr)
		report, err := tr.ImportHistory(ctx, incoming, service.ImportOptions{Mode: service.ImportModeSkip})
		require.NoError(t, err)
		assert.Equal(t, 1, report.Inserted)
		assert.Equal(t, 2, report.Skipped)
		assert.Equal(t, 1, report.Conflicts)
		assert.Len(t, report.Warnings, 1)
		s, err := tr.LoadDailySummary(ctx, "2025-03-02")
		require.NoError(t, err)
		assert.Equal(t, 1200.0, s.WaterIntake)
	})

	t.Run("merge", func(t *testing.T) {
		t.Parallel()
		tr, _ := newTestTracker(t, at("2025-03-10", 8, 0))
		seedHistory(t, tr)
		report, err := tr.ImportHistory(ctx, incoming, service.ImportOptions{})
		require.NoError(t, err)
		assert.Equal(t, 1, report.Inserted)
		assert.Equal(t, 1, report.Updated)
		s, err := tr.LoadDailySummary(ctx, "2025-03-02")
		require.NoError(t, err)
		assert.Equal(t, 999.0, s.WaterIntake)
		all, err := tr.LoadAllHistory(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("replace", func(t *testing.T) {
		t.Parallel()
		tr, _ := newTestTracker(t, at("2025-03-10", 8, 0))
		seedHistory(t, tr)
		report, err := tr.ImportHistory(ctx, incoming, service.ImportOptions{Mode: service.ImportModeReplace})
		require.NoError(t, err)
		assert.Equal(t, 2, report.Inserted)
		all, err := tr.LoadAllHistory(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
		assert.NotContains(t, all, "2025-03-01")
	})

	t.Run("dry run", func(t *testing.T) {
		t.Parallel()
		tr, _ := newTestTracker(t, at("2025-03-10", 8, 0))
		seedHistory(t, tr)
		report, err := tr.ImportHistory(ctx, incoming, service.ImportOptions{Mode: service.ImportModeReplace, DryRun: true})
		require.NoError(t, err)
		assert.Equal(t, 2, report.Inserted)
		all, err := tr.LoadAllHistory(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
		assert.Contains(t, all, "2025-03-01")
	})
}

type brokenHistoryWrites struct{ store.Store }

func (brokenHistoryWrites) WriteHistory(context.Context, []store.HistoryRow, bool) error {
	return errors.New("disk full")
}

func TestReplaceImportKeepsHistoryWhenWriteFails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	clock := &testClock{now: at("2025-03-10", 8, 0)}
	seedHistory(t, service.NewTracker(s, service.WithClock(clock.Now)))

	tr := service.NewTracker(brokenHistoryWrites{s}, service.WithClock(clock.Now))
	_, err := tr.ImportHistory(ctx, &service.ExportData{Version: 1, History: []service.ExportSummary{
		{Date: "2025-03-05", DailySummary: model.DailySummary{WaterIntake: 100}},
	}}, service.ImportOptions{Mode: service.ImportModeReplace})
	require.ErrorContains(t, err, "disk full")

	rows, err := s.AllHistory(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-03-01", rows[0].Date)
	assert.Equal(t, "2025-03-02", rows[1].Date)
}

func TestImportDuplicateDates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	incoming := &service.ExportData{Version: 1, History: []service.ExportSummary{
		{Date: "2025-03-02", DailySummary: model.DailySummary{WaterIntake: 999}},
		{Date: "2025-03-03", DailySummary: model.DailySummary{WaterIntake: 500}},
		{Date: "2025-03-03", DailySummary: model.DailySummary{WaterIntake: 700}},
	}}

	t.Run("merge keeps the last", func(t *testing.T) {
		t.Parallel()
		tr, _ := newTestTracker(t, at("2025-03-10", 8, 0))
		seedHistory(t, tr)
		report, err := tr.ImportHistory(ctx, incoming, service.ImportOptions{Mode: service.ImportModeMerge})
		require.NoError(t, err)
		assert.Equal(t, 1, report.Inserted)
		assert.Equal(t, 1, report.Updated)
		assert.Equal(t, 2, report.Conflicts)
		s, err := tr.LoadDailySummary(ctx, "2025-03-03")
		require.NoError(t, err)
		assert.Equal(t, 700.0, s.WaterIntake)
	})

	t.Run("skip keeps the first", func(t *testing.T) {
		t.Parallel()
		tr, _ := newTestTracker(t, at("2025-03-10", 8, 0))
		seedHistory(t, tr)
		report, err := tr.ImportHistory(ctx, incoming, service.ImportOptions{Mode: service.ImportModeSkip})
		require.NoError(t, err)
		assert.Equal(t, 1, report.Inserted)
		assert.Equal(t, 2, report.Skipped)
		assert.Equal(t, 2, report.Conflicts)
		s, err := tr.LoadDailySummary(ctx, "2025-03-03")
		require.NoError(t, err)
		assert.Equal(t, 500.0, s.WaterIntake)
	})

	t.Run("fail rejects", func(t *testing.T) {
		t.Parallel()
		tr, _ := newTestTracker(t, at("2025-03-10", 8, 0))
		_, err := tr.ImportHistory(ctx, incoming, service.ImportOptions{Mode: service.ImportModeFail})
		require.ErrorContains(t, err, "2025-03-03 appears more than once")
		all, err := tr.LoadAllHistory(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestImportWithProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr, _ := newTestTracker(t, at("2025-03-10", 8, 0))

	bad := validProfile()
	bad.Gender = "unknown"
	settings := service.Settings{ThemeMode: "dark", Language: "en_US", CloseMode: "quit"}
	report, err := tr.ImportHistory(ctx, &service.ExportData{Version: 1, Profile: &bad, Settings: &settings},
		service.ImportOptions{WithProfile: true})
	require.NoError(t, err)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "profile not imported")

	got, err := tr.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings, got)

	_, err = tr.ImportHistory(ctx, &service.ExportData{Version: 2}, service.ImportOptions{})
	require.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, service.FormatYAML, service.FormatFromPath("out.YML"))
	assert.Equal(t, service.FormatCSV, service.FormatFromPath("/tmp/history.csv"))
	assert.Equal(t, service.FormatJSON, service.FormatFromPath("history"))
}
