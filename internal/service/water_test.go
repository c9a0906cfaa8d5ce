package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aazoaer/health-manager/internal/events"
	"github.com/aazoaer/health-manager/internal/service"
)

func TestAddSubtractResetWater(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr, clock := newTestTracker(t, at("2025-03-10", 8, 0))

	st, err := tr.AddWater(ctx, 250)
	require.NoError(t, err)
	assert.Equal(t, 250.0, st.Intake)
	assert.Equal(t, 2000, st.Goal)
	require.Len(t, st.Records, 1)

	clock.Set(at("2025-03-10", 9, 15))
	st, err = tr.AddWater(ctx, 300)
	require.NoError(t, err)
	assert.Equal(t, 550.0, st.Intake)
	require.NotNil(t, st.LastDrink)
	assert.Equal(t, at("2025-03-10", 9, 15), *st.LastDrink)

	st, err = tr.SubtractWater(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 450.0, st.Intake)
	require.Len(t, st.Records, 2)
	assert.Equal(t, 200.0, st.Records[1].Amount.Float())

	st, err = tr.SubtractWater(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, 0.0, st.Intake)
	require.Len(t, st.Records, 1)

	st, err = tr.ResetWater(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, st.Intake)
	assert.Empty(t, st.Records)
	assert.Nil(t, st.LastDrink)

	_, err = tr.AddWater(ctx, 0)
	require.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestSubtractWaterStampsLastDrinkNow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr, clock := newTestTracker(t, at("2025-03-10", 8, 0))

	_, err := tr.AddWater(ctx, 250)
	require.NoError(t, err)
	_, err = tr.AddWater(ctx, 300)
	require.NoError(t, err)

	clock.Set(at("2025-03-10", 10, 40))
	_, err = tr.SubtractWater(ctx, 300)
	require.NoError(t, err)
	u, err := tr.LoadUserData(ctx)
	require.NoError(t, err)
	require.NotNil(t, u.LastDrinkTimestamp)
	assert.Equal(t, "2025-03-10T10:40:00", *u.LastDrinkTimestamp)

	status, err := tr.ReminderStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.Due)

	_, err = tr.SubtractWater(ctx, 250)
	require.NoError(t, err)
	u, err = tr.LoadUserData(ctx)
	require.NoError(t, err)
	assert.Nil(t, u.LastDrinkTimestamp)
}

func TestWaterResetsOnNewDay(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr, clock := newTestTracker(t, at("2025-03-10", 21, 0))

	_, err := tr.AddWater(ctx, 1800)
	require.NoError(t, err)

	clock.Set(at("2025-03-11", 7, 0))
	st, err := tr.Water(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-11", st.Date)
	assert.Equal(t, 0.0, st.Intake)
	assert.Empty(t, st.Records)

	u, err := tr.LoadUserData(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, u.WaterIntake.Float())
	assert.Nil(t, u.LastDrinkTimestamp)

	prev, err := tr.LoadDailySummary(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 1800.0, prev.WaterIntake)
	assert.False(t, prev.WaterAchieved)
}

func TestWaterReadsLegacyRecordList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SetMany(ctx, map[string]json.RawMessage{
		service.KeyWaterIntake:        json.RawMessage(`"500"`),
		service.KeyLastDrinkTimestamp: json.RawMessage(`"2025-03-10T10:00:00.123456"`),
		service.KeyWaterRecords:       json.RawMessage(`[{"timestamp":"2025-03-10T09:00:00","amount":200},{"timestamp":"2025-03-10T10:00:00","amount":300}]`),
	}))
	clock := &testClock{now: at("2025-03-10", 12, 0)}
	tr := service.NewTracker(s, service.WithClock(clock.Now))

	st, err := tr.Water(ctx)
	require.NoError(t, err)
	assert.Equal(t, 500.0, st.Intake)
	require.Len(t, st.Records, 2)
	assert.Equal(t, 300.0, st.Records[1].Amount.Float())
}

func TestWaterSynthesizesRecordForBareIntake(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SetMany(ctx, map[string]json.RawMessage{
		service.KeyWaterIntake:        json.RawMessage(`750`),
		service.KeyLastDrinkTimestamp: json.RawMessage(`"2025-03-10T10:30:00"`),
	}))
	clock := &testClock{now: at("2025-03-10", 12, 0)}
	tr := service.NewTracker(s, service.WithClock(clock.Now))

	st, err := tr.Water(ctx)
	require.NoError(t, err)
	require.Len(t, st.Records, 1)
	assert.Equal(t, 750.0, st.Records[0].Amount.Float())
	assert.Equal(t, at("2025-03-10", 10, 30), st.Records[0].Timestamp.Time)
}

func TestWaterWithoutTimestampIsStale(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SetMany(ctx, map[string]json.RawMessage{
		service.KeyWaterIntake: json.RawMessage(`900`),
	}))
	clock := &testClock{now: at("2025-03-10", 12, 0)}
	tr := service.NewTracker(s, service.WithClock(clock.Now))

	st, err := tr.Water(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, st.Intake)
}

func TestAddWaterPublishesEvents(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr, _ := newTestTracker(t, at("2025-03-10", 8, 0))
	ch, cancel := tr.Bus().Subscribe(events.WaterAdded)
	defer cancel()

	_, err := tr.AddWater(ctx, 200)
	require.NoError(t, err)

	select {
	case ev := <-ch:
		assert.Equal(t, events.WaterAdded, ev.Topic)
		assert.Equal(t, 200.0, ev.Payload)
	default:
		t.Fatal("expected water.added event")
	}
}
