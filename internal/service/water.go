package service

import (
	"context"
	"math"
	"time"

	"github.com/aazoaer/health-manager/internal/events"
	"github.com/aazoaer/health-manager/internal/health"
	"github.com/aazoaer/health-manager/internal/model"
)

type WaterStatus struct {
	Date           string              `json:"date"`
	Intake         float64             `json:"intake"`
	Goal           int                 `json:"goal"`
	Records        []model.WaterRecord `json:"records"`
	LastDrink      *time.Time          `json:"last_drink,omitempty"`
	ReminderActive bool                `json:"reminder_active"`
}

func (w WaterStatus) Progress() float64 {
	if w.Goal <= 0 {
		return 0
	}
	return math.Min(w.Intake/float64(w.Goal), 1)
}

// waterStale reports whether stored water data belongs to an earlier day.
// The last drink timestamp decides; without one, any intake is stale.
func waterStale(u model.UserData, now time.Time) bool {
	if u.LastDrinkTimestamp != nil && *u.LastDrinkTimestamp != "" {
		ts, ok := model.ParseLocalTime(*u.LastDrinkTimestamp)
		return !ok || !sameDay(ts, now)
	}
	return u.WaterIntake > 0
}

func lastDrink(u model.UserData) (time.Time, bool) {
	if u.LastDrinkTimestamp == nil {
		return time.Time{}, false
	}
	return model.ParseLocalTime(*u.LastDrinkTimestamp)
}

// currentWater returns today's intake and records, resetting and persisting
// stale data first. Callers hold t.mu.
func (t *Tracker) currentWater(ctx context.Context, u model.UserData) (float64, []model.WaterRecord, error) {
	now := t.now()
	if waterStale(u, now) {
		t.logger.Info("reset water for new day", "previous_intake", u.WaterIntake.Float())
		if err := t.saveWater(ctx, 0, nil, false); err != nil {
			return 0, nil, err
		}
		return 0, []model.WaterRecord{}, nil
	}
	intake := u.WaterIntake.Float()
	records := append([]model.WaterRecord(nil), u.WaterRecords.Records...)
	if len(records) == 0 && intake > 0 {
		ts, ok := lastDrink(u)
		if !ok {
			ts = now
		}
		records = []model.WaterRecord{{Timestamp: model.NewLocalTime(ts), Amount: model.Number(intake)}}
	}
	return intake, records, nil
}

func (t *Tracker) saveWater(ctx context.Context, intake float64, records []model.WaterRecord, updateHistory bool) error {
	if records == nil {
		records = []model.WaterRecord{}
	}
	// Any change to a non-empty log counts as drinking now.
	var last any
	if len(records) > 0 || intake > 0 {
		last = t.now().Format(model.LocalLayout)
	}
	return t.save(ctx, Patch{
		KeyWaterIntake:        intake,
		KeyWaterRecords:       model.WaterLog{Date: t.today(), Records: records},
		KeyReminderActive:     false,
		KeyLastDrinkTimestamp: last,
	}, updateHistory)
}

func (t *Tracker) Water(ctx context.Context) (WaterStatus, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, err := t.LoadUserData(ctx)
	if err != nil {
		return WaterStatus{}, err
	}
	stale := waterStale(u, t.now())
	intake, records, err := t.currentWater(ctx, u)
	if err != nil {
		return WaterStatus{}, err
	}
	var last *time.Time
	if !stale {
		last = storedLastDrink(u, records)
	}
	return t.waterStatus(u, intake, records, u.ReminderActive && !stale, last), nil
}

func (t *Tracker) waterStatus(u model.UserData, intake float64, records []model.WaterRecord, reminder bool, last *time.Time) WaterStatus {
	return WaterStatus{
		Date:           t.today(),
		Intake:         intake,
		Goal:           health.WaterGoal(u),
		Records:        records,
		ReminderActive: reminder,
		LastDrink:      last,
	}
}

// storedLastDrink reads last_drink_timestamp, falling back to the newest
// record for data written without one.
func storedLastDrink(u model.UserData, records []model.WaterRecord) *time.Time {
	if ts, ok := lastDrink(u); ok {
		return &ts
	}
	if n := len(records); n > 0 {
		ts := records[n-1].Timestamp.Time
		return &ts
	}
	return nil
}

// savedLastDrink mirrors what saveWater stores for the given log.
func (t *Tracker) savedLastDrink(intake float64, records []model.WaterRecord) *time.Time {
	if len(records) == 0 && intake <= 0 {
		return nil
	}
	now := t.now()
	return &now
}

// AddWater logs a drink of ml millilitres.
func (t *Tracker) AddWater(ctx context.Context, ml float64) (WaterStatus, error) {
	if err := validatePositiveFloat("water amount", ml); err != nil {
		return WaterStatus{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	u, err := t.LoadUserData(ctx)
	if err != nil {
		return WaterStatus{}, err
	}
	intake, records, err := t.currentWater(ctx, u)
	if err != nil {
		return WaterStatus{}, err
	}
	records = append(records, model.WaterRecord{Timestamp: model.NewLocalTime(t.now()), Amount: model.Number(ml)})
	intake += ml
	if err := t.saveWater(ctx, intake, records, true); err != nil {
		return WaterStatus{}, err
	}
	t.bus.Publish(events.WaterAdded, ml)
	return t.waterStatus(u, intake, records, false, t.savedLastDrink(intake, records)), nil
}

// SubtractWater undoes ml from the most recent drink. A drink that is not
// larger than ml is removed entirely. Intake never drops below zero.
func (t *Tracker) SubtractWater(ctx context.Context, ml float64) (WaterStatus, error) {
	if err := validatePositiveFloat("water amount", ml); err != nil {
		return WaterStatus{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	u, err := t.LoadUserData(ctx)
	if err != nil {
		return WaterStatus{}, err
	}
	intake, records, err := t.currentWater(ctx, u)
	if err != nil {
		return WaterStatus{}, err
	}
	if n := len(records); n > 0 {
		if last := records[n-1]; last.Amount.Float() > ml {
			records[n-1].Amount = model.Number(last.Amount.Float() - ml)
		} else {
			records = records[:n-1]
		}
	}
	intake = math.Max(0, intake-ml)
	if err := t.saveWater(ctx, intake, records, true); err != nil {
		return WaterStatus{}, err
	}
	t.bus.Publish(events.WaterChanged, -ml)
	return t.waterStatus(u, intake, records, false, t.savedLastDrink(intake, records)), nil
}

func (t *Tracker) ResetWater(ctx context.Context) (WaterStatus, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, err := t.LoadUserData(ctx)
	if err != nil {
		return WaterStatus{}, err
	}
	if err := t.saveWater(ctx, 0, nil, true); err != nil {
		return WaterStatus{}, err
	}
	t.bus.Publish(events.WaterChanged, 0)
	return t.waterStatus(u, 0, []model.WaterRecord{}, false, nil), nil
}
