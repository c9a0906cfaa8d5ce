package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aazoaer/health-manager/internal/model"
	"github.com/aazoaer/health-manager/internal/service"
)

type amountRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type settingRequest struct {
	Value string `json:"value" binding:"required"`
}

type mealRequest struct {
	Name       string          `json:"name" binding:"required"`
	Amount     float64         `json:"amount" binding:"required,gt=0"`
	Unit       string          `json:"unit"`
	Nutrients  model.Nutrients `json:"nutrients"`
	RefAmount  float64         `json:"ref_amount" binding:"gte=0"`
	RefUnit    string          `json:"ref_unit"`
	DensityGML float64         `json:"density_g_per_ml" binding:"gte=0"`
	Barcode    string          `json:"barcode"`
}

type sleepRequest struct {
	Bedtime string `json:"bedtime" binding:"required"`
	Wakeup  string `json:"wakeup" binding:"required"`
	Quality string `json:"quality"`
}

type exerciseRequest struct {
	Type            string  `json:"type" binding:"required"`
	DurationMinutes int     `json:"duration_minutes" binding:"required,gt=0"`
	Intensity       string  `json:"intensity"`
	HourlyCalories  float64 `json:"hourly_calories" binding:"gte=0"`
}

func (r *Router) getUserData(c *gin.Context) {
	u, err := r.tracker.LoadUserData(c.Request.Context())
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (r *Router) getProfile(c *gin.Context) {
	u, err := r.tracker.LoadUserData(c.Request.Context())
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, service.ProfileFromUser(u))
}

func (r *Router) putProfile(c *gin.Context) {
	var in service.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	if err := r.tracker.SaveProfile(c.Request.Context(), in); err != nil {
		r.fail(c, err)
		return
	}
	r.getProfile(c)
}

func (r *Router) getSettings(c *gin.Context) {
	s, err := r.tracker.Settings(c.Request.Context())
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (r *Router) putSetting(c *gin.Context) {
	var in settingRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	if err := r.tracker.SetSetting(c.Request.Context(), c.Param("key"), in.Value); err != nil {
		r.fail(c, err)
		return
	}
	r.getSettings(c)
}

func (r *Router) getWater(c *gin.Context) {
	w, err := r.tracker.Water(c.Request.Context())
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (r *Router) addWater(c *gin.Context) {
	var in amountRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	w, err := r.tracker.AddWater(c.Request.Context(), in.Amount)
	if err != nil {
		r.fail(c, err)
		return
	}
	r.metrics.recordsAdded.WithLabelValues("water").Inc()
	c.JSON(http.StatusCreated, w)
}

func (r *Router) subtractWater(c *gin.Context) {
	var in amountRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	w, err := r.tracker.SubtractWater(c.Request.Context(), in.Amount)
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (r *Router) resetWater(c *gin.Context) {
	w, err := r.tracker.ResetWater(c.Request.Context())
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (r *Router) getMeals(c *gin.Context) {
	log, err := r.tracker.Meals(c.Request.Context())
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, log)
}

func (r *Router) addMeal(c *gin.Context) {
	var in mealRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	meal, err := r.tracker.AddMeal(c.Request.Context(), service.MealInput{
		Name:       in.Name,
		Amount:     in.Amount,
		Unit:       in.Unit,
		Nutrients:  in.Nutrients,
		RefAmount:  in.RefAmount,
		RefUnit:    in.RefUnit,
		DensityGML: in.DensityGML,
		Barcode:    in.Barcode,
		Custom:     in.Barcode == "",
	})
	if err != nil {
		r.fail(c, err)
		return
	}
	r.metrics.recordsAdded.WithLabelValues("meal").Inc()
	c.JSON(http.StatusCreated, meal)
}

func (r *Router) deleteMeal(c *gin.Context) {
	if err := r.tracker.DeleteMeal(c.Request.Context(), c.Param("id")); err != nil {
		r.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) getSleep(c *gin.Context) {
	log, err := r.tracker.SleepRecords(c.Request.Context())
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, log)
}

func (r *Router) addSleep(c *gin.Context) {
	var in sleepRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	bed, ok := model.ParseLocalTime(in.Bedtime)
	if !ok {
		badRequest(c, fmt.Errorf("invalid bedtime %q", in.Bedtime))
		return
	}
	wake, ok := model.ParseLocalTime(in.Wakeup)
	if !ok {
		badRequest(c, fmt.Errorf("invalid wakeup %q", in.Wakeup))
		return
	}
	rec, err := r.tracker.AddSleep(c.Request.Context(), service.SleepInput{Bedtime: bed, Wakeup: wake, Quality: in.Quality})
	if err != nil {
		r.fail(c, err)
		return
	}
	r.metrics.recordsAdded.WithLabelValues("sleep").Inc()
	c.JSON(http.StatusCreated, rec)
}

func (r *Router) deleteSleep(c *gin.Context) {
	if err := r.tracker.DeleteSleep(c.Request.Context(), c.Param("id")); err != nil {
		r.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) getExercises(c *gin.Context) {
	log, err := r.tracker.ExerciseRecords(c.Request.Context())
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, log)
}

func (r *Router) addExercise(c *gin.Context) {
	var in exerciseRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	rec, err := r.tracker.AddExercise(c.Request.Context(), service.ExerciseInput{
		Type:            in.Type,
		DurationMinutes: in.DurationMinutes,
		Intensity:       in.Intensity,
		HourlyCalories:  in.HourlyCalories,
	})
	if err != nil {
		r.fail(c, err)
		return
	}
	r.metrics.recordsAdded.WithLabelValues("exercise").Inc()
	c.JSON(http.StatusCreated, rec)
}

func (r *Router) deleteExercise(c *gin.Context) {
	if err := r.tracker.DeleteExercise(c.Request.Context(), c.Param("id")); err != nil {
		r.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) getToday(c *gin.Context) {
	ov, err := r.tracker.TodayOverview(c.Request.Context())
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ov)
}

func (r *Router) getGoals(c *gin.Context) {
	g, err := r.tracker.Goals(c.Request.Context())
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

type summaryResponse struct {
	Date string `json:"date"`
	model.DailySummary
}

func (r *Router) getSummary(c *gin.Context) {
	date := c.Param("date")
	if date == "today" {
		s, err := r.tracker.UpdateTodaySummary(c.Request.Context())
		if err != nil {
			r.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, summaryResponse{Date: s.Date, DailySummary: s})
		return
	}
	if _, err := service.ParseDate(date); err != nil {
		r.fail(c, err)
		return
	}
	s, err := r.tracker.LoadDailySummary(c.Request.Context(), date)
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summaryResponse{Date: date, DailySummary: s})
}

func (r *Router) getMonth(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		badRequest(c, fmt.Errorf("invalid year %q", c.Param("year")))
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		badRequest(c, fmt.Errorf("invalid month %q", c.Param("month")))
		return
	}
	days, err := r.tracker.LoadMonthSummaries(c.Request.Context(), year, time.Month(month))
	if err != nil {
		r.fail(c, err)
		return
	}
	out := make(map[string]summaryResponse, len(days))
	for date, s := range days {
		out[date] = summaryResponse{Date: date, DailySummary: s}
	}
	c.JSON(http.StatusOK, out)
}

func (r *Router) getReminder(c *gin.Context) {
	st, err := r.tracker.ReminderStatus(c.Request.Context())
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (r *Router) lookupBarcode(c *gin.Context) {
	if r.finder == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "food lookup is not configured"})
		return
	}
	food, err := r.finder.LookupBarcode(c.Request.Context(), c.Param("code"))
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, food)
}

func (r *Router) searchFoods(c *gin.Context) {
	if r.finder == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "food lookup is not configured"})
		return
	}
	limit := 10
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > service.MaxSearchLimit {
			badRequest(c, fmt.Errorf("invalid limit %q (expected 1-%d)", raw, service.MaxSearchLimit))
			return
		}
		limit = v
	}
	foods, err := r.finder.SearchFoods(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		r.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, foods)
}
