package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/healthtrackhq/backend/internal/tracker"
	"go.uber.org/zap"
)

func (h *httpHandler) handleDailySummary(c *gin.Context) {
	date := c.Param("date")
	if !validDate(date) {
		respondError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	userID := currentUserID(c)
	summary, err := h.tracker.GetOrCreate(c.Request.Context(), userID, date)
	if err != nil {
		h.logger.Error("summary load failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to load summary")
		return
	}
	profile, err := h.accounts.Profile(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("profile load failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to load summary")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":             "success",
		"date":               date,
		"summary":            summary,
		"target_calories":    profile.TargetCalories,
		"remaining_calories": tracker.RemainingCalories(summary, profile.TargetCalories),
	})
}

type calendarDayPayload struct {
	CaloriesConsumed float64 `json:"calories_consumed"`
	CaloriesBurned   float64 `json:"calories_burned"`
	NetCalories      float64 `json:"net_calories"`
	Status           string  `json:"status"`
}

// handleCalendar returns one entry per day of the month that has a summary,
// keyed by day of month.
func (h *httpHandler) handleCalendar(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 2000 || year > 2100 {
		respondError(c, http.StatusBadRequest, "year must be between 2000 and 2100")
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		respondError(c, http.StatusBadRequest, "month must be between 1 and 12")
		return
	}

	userID := currentUserID(c)
	summaries, err := h.tracker.MonthSummaries(c.Request.Context(), userID, year, month)
	if err != nil {
		h.logger.Error("calendar load failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to load calendar")
		return
	}
	profile, err := h.accounts.Profile(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("profile load failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to load calendar")
		return
	}

	days := make(map[string]calendarDayPayload, len(summaries))
	for _, summary := range summaries {
		day, err := strconv.Atoi(summary.Date[len(summary.Date)-2:])
		if err != nil {
			continue
		}
		status := "good"
		if summary.NetCalories > float64(profile.TargetCalories) {
			status = "over"
		}
		days[strconv.Itoa(day)] = calendarDayPayload{
			CaloriesConsumed: summary.TotalCaloriesConsumed,
			CaloriesBurned:   summary.TotalCaloriesBurned,
			NetCalories:      summary.NetCalories,
			Status:           status,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"year":   year,
		"month":  month,
		"days":   days,
	})
}
