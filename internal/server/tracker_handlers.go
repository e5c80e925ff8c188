package server

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/healthtrackhq/backend/internal/tracker"
	"github.com/healthtrackhq/backend/internal/vision"
	"go.uber.org/zap"
)

const (
	maxMealCalories    = 5000
	maxCaloriesBurned  = 2000
	maxImageBytes      = 10 << 20
	defaultVitalsRange = 30 * 24 * time.Hour
)

func (h *httpHandler) handleListMeals(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().UTC().Format(dateLayout)
	}
	if !validDate(date) {
		respondError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	meals, err := h.tracker.MealsForDate(c.Request.Context(), currentUserID(c), date)
	if err != nil {
		h.logger.Error("meal list failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to load meals")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "date": date, "meals": meals})
}

type mealPayload struct {
	Date          string  `json:"date"`
	MealType      string  `json:"meal_type"`
	FoodItems     string  `json:"food_items"`
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Fat           float64 `json:"fat"`
	Carbohydrates float64 `json:"carbohydrates"`
}

// handleAddMeal accepts either a JSON manual entry or a multipart photo
// upload with an image file to analyze.
func (h *httpHandler) handleAddMeal(c *gin.Context) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		h.handleAddMealFromPhoto(c)
		return
	}

	var request mealPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	date := request.Date
	if date == "" {
		date = time.Now().UTC().Format(dateLayout)
	}
	if !validDate(date) {
		respondError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	mealType := request.MealType
	if mealType == "" {
		mealType = tracker.MealTypeSnacks
	}
	if !tracker.ValidMealType(mealType) {
		respondError(c, http.StatusBadRequest, "meal_type must be breakfast, lunch, snacks, or dinner")
		return
	}
	if strings.TrimSpace(request.FoodItems) == "" {
		respondError(c, http.StatusBadRequest, "food_items is required")
		return
	}
	if request.Calories > maxMealCalories {
		respondError(c, http.StatusBadRequest, "calories cannot exceed 5000")
		return
	}

	meal, err := h.tracker.AddMeal(c.Request.Context(), currentUserID(c), date, tracker.MealInput{
		MealType:      mealType,
		FoodItems:     strings.TrimSpace(request.FoodItems),
		Calories:      clampNonNegative(request.Calories),
		Protein:       clampNonNegative(request.Protein),
		Fat:           clampNonNegative(request.Fat),
		Carbohydrates: clampNonNegative(request.Carbohydrates),
	})
	if err != nil {
		h.logger.Error("meal insert failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to save meal")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "meal": meal})
}

func (h *httpHandler) handleAddMealFromPhoto(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "image file is required")
		return
	}
	if fileHeader.Size > maxImageBytes {
		respondError(c, http.StatusBadRequest, "image file too large")
		return
	}
	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".png", ".jpg", ".jpeg":
	default:
		respondError(c, http.StatusBadRequest, "image must be png, jpg, or jpeg")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "image file unreadable")
		return
	}
	defer file.Close()
	imageBytes, err := io.ReadAll(file)
	if err != nil {
		respondError(c, http.StatusBadRequest, "image file unreadable")
		return
	}

	date := c.PostForm("date")
	if date == "" {
		date = time.Now().UTC().Format(dateLayout)
	}
	if !validDate(date) {
		respondError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	mealType := c.PostForm("meal_type")
	if mealType == "" {
		mealType = tracker.MealTypeSnacks
	}
	if !tracker.ValidMealType(mealType) {
		respondError(c, http.StatusBadRequest, "meal_type must be breakfast, lunch, snacks, or dinner")
		return
	}
	portionMultiplier := 0.0
	if raw := c.PostForm("portion_multiplier"); raw != "" {
		portionMultiplier, err = strconv.ParseFloat(raw, 64)
		if err != nil || portionMultiplier <= 0 {
			respondError(c, http.StatusBadRequest, "portion_multiplier must be a positive number")
			return
		}
	}

	result, err := h.tracker.AddMealFromPhoto(c.Request.Context(), currentUserID(c), date, mealType, imageBytes, portionMultiplier)
	if errors.Is(err, tracker.ErrAnalyzerNotConfigured) {
		respondError(c, http.StatusServiceUnavailable, "image analysis is not configured")
		return
	}
	if errors.Is(err, tracker.ErrNoFoodIdentified) {
		respondError(c, http.StatusUnprocessableEntity, "no food identified in image")
		return
	}
	if errors.Is(err, vision.ErrAnalysisUnavailable) {
		respondError(c, http.StatusBadGateway, "image analysis is temporarily unavailable")
		return
	}
	if err != nil {
		h.logger.Error("photo meal failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to save meal")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"status":     "success",
		"meal_id":    result.MealID,
		"food_items": result.FoodItems,
		"breakdown":  result.Breakdown,
		"nutrition":  result.Total,
	})
}

func (h *httpHandler) handleListActivities(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().UTC().Format(dateLayout)
	}
	if !validDate(date) {
		respondError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	activities, err := h.tracker.ActivitiesForDate(c.Request.Context(), currentUserID(c), date)
	if err != nil {
		h.logger.Error("activity list failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to load activities")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "date": date, "activities": activities})
}

type activityPayload struct {
	Date            string  `json:"date"`
	ActivityName    string  `json:"activity_name"`
	DurationMinutes int     `json:"duration_minutes"`
	CaloriesBurned  float64 `json:"calories_burned"`
	Notes           string  `json:"notes"`
}

func (h *httpHandler) handleAddActivity(c *gin.Context) {
	var request activityPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	date := request.Date
	if date == "" {
		date = time.Now().UTC().Format(dateLayout)
	}
	if !validDate(date) {
		respondError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if strings.TrimSpace(request.ActivityName) == "" {
		respondError(c, http.StatusBadRequest, "activity_name is required")
		return
	}
	if request.CaloriesBurned > maxCaloriesBurned {
		respondError(c, http.StatusBadRequest, "calories_burned cannot exceed 2000")
		return
	}
	if request.DurationMinutes < 0 {
		request.DurationMinutes = 0
	}

	activity, err := h.tracker.AddActivity(c.Request.Context(), currentUserID(c), date, tracker.ActivityInput{
		ActivityName:    strings.TrimSpace(request.ActivityName),
		DurationMinutes: request.DurationMinutes,
		CaloriesBurned:  clampNonNegative(request.CaloriesBurned),
		Notes:           request.Notes,
	})
	if err != nil {
		h.logger.Error("activity insert failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to save activity")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "activity": activity})
}

func (h *httpHandler) handleDeleteActivity(c *gin.Context) {
	activityID, err := strconv.ParseUint(c.Query("id"), 10, 64)
	if err != nil || activityID == 0 {
		respondError(c, http.StatusBadRequest, "id must be a positive integer")
		return
	}

	err = h.tracker.DeleteActivity(c.Request.Context(), currentUserID(c), uint(activityID))
	if errors.Is(err, tracker.ErrActivityNotFound) {
		respondError(c, http.StatusNotFound, "activity not found")
		return
	}
	if err != nil {
		h.logger.Error("activity delete failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to delete activity")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "activity deleted"})
}

func (h *httpHandler) handleListVitals(c *gin.Context) {
	now := time.Now().UTC()
	from := c.Query("from")
	to := c.Query("to")
	if from == "" {
		from = now.Add(-defaultVitalsRange).Format(dateLayout)
	}
	if to == "" {
		to = now.Format(dateLayout)
	}
	if !validDate(from) || !validDate(to) {
		respondError(c, http.StatusBadRequest, "from and to must be YYYY-MM-DD")
		return
	}

	vitals, err := h.tracker.VitalsRange(c.Request.Context(), currentUserID(c), from, to)
	if err != nil {
		h.logger.Error("vitals list failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to load vitals")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "from": from, "to": to, "vitals": vitals})
}

type vitalsPayload struct {
	Date                     string  `json:"date"`
	Weight                   float64 `json:"weight"`
	BMI                      float64 `json:"bmi"`
	BodyFatPercentage        float64 `json:"body_fat_percentage"`
	SkeletalMusclePercentage float64 `json:"skeletal_muscle_percentage"`
	FatFreeMass              float64 `json:"fat_free_mass"`
	SubcutaneousFat          float64 `json:"subcutaneous_fat"`
	VisceralFat              float64 `json:"visceral_fat"`
	BodyWaterPercentage      float64 `json:"body_water_percentage"`
	MuscleMass               float64 `json:"muscle_mass"`
	BoneMass                 float64 `json:"bone_mass"`
	ProteinPercentage        float64 `json:"protein_percentage"`
	BMR                      float64 `json:"bmr"`
	MetabolicAge             int     `json:"metabolic_age"`
}

func (h *httpHandler) handleAddVitals(c *gin.Context) {
	var request vitalsPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	date := request.Date
	if date == "" {
		date = time.Now().UTC().Format(dateLayout)
	}
	if !validDate(date) {
		respondError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if request.Weight <= 0 {
		respondError(c, http.StatusBadRequest, "weight must be positive")
		return
	}

	vitals, err := h.tracker.AddVitals(c.Request.Context(), tracker.Vitals{
		UserID:                   currentUserID(c),
		Date:                     date,
		Weight:                   request.Weight,
		BMI:                      request.BMI,
		BodyFatPercentage:        request.BodyFatPercentage,
		SkeletalMusclePercentage: request.SkeletalMusclePercentage,
		FatFreeMass:              request.FatFreeMass,
		SubcutaneousFat:          request.SubcutaneousFat,
		VisceralFat:              request.VisceralFat,
		BodyWaterPercentage:      request.BodyWaterPercentage,
		MuscleMass:               request.MuscleMass,
		BoneMass:                 request.BoneMass,
		ProteinPercentage:        request.ProteinPercentage,
		BMR:                      request.BMR,
		MetabolicAge:             request.MetabolicAge,
	})
	if err != nil {
		h.logger.Error("vitals insert failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to save vitals")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "vitals": vitals})
}

func clampNonNegative(value float64) float64 {
	if value < 0 {
		return 0
	}
	return value
}
