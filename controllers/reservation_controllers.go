package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-reservation/config"
	"github.com/yeremiapane/restaurant-reservation/events"
	"github.com/yeremiapane/restaurant-reservation/middlewares"
	"github.com/yeremiapane/restaurant-reservation/models"
	"github.com/yeremiapane/restaurant-reservation/utils"
)

var ErrTableUnavailable = errors.New("table is not available")

type ReservationController struct {
	DB    *gorm.DB
	Cache *redis.Client
}

func NewReservationController(db *gorm.DB, cache *redis.Client) *ReservationController {
	return &ReservationController{DB: db, Cache: cache}
}

// CreateReservation books a table for the authenticated customer. The
// reservation, its confirmation token and the table-status flip are one
// transaction; the table update is conditional on the table still being
// available, so concurrent requests for the same table admit one winner.
func (rc *ReservationController) CreateReservation(c *gin.Context) {
	customerIDInterface, exists := c.Get("customer_id")
	if !exists {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("customer id not found in context"))
		return
	}
	customerID, ok := customerIDInterface.(uint)
	if !ok {
		utils.RespondError(c, http.StatusInternalServerError, errors.New("invalid customer id type"))
		return
	}

	var req struct {
		TableID   uint   `json:"table_id" binding:"required"`
		PartySize int    `json:"party_size" binding:"required,min=1"`
		Name      string `json:"name" binding:"required"`
		Phone     string `json:"phone" binding:"required"`
		Date      string `json:"date" binding:"required"`
		Time      string `json:"time" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	slotUTC, day, err := utils.NormalizeReservationTime(req.Date, req.Time)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	now := time.Now().UTC()
	reservation := models.Reservation{
		CustomerID: customerID,
		TableID:    req.TableID,
		Name:       req.Name,
		Phone:      req.Phone,
		PartySize:  req.PartySize,
		Date:       day,
		Time:       slotUTC,
		Status:     models.ReservationPending,
		CreatedAt:  now,
	}
	token := models.ConfirmationToken{
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(config.TokenTTL()),
	}

	err = rc.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Table{}).
			Where("id = ? AND status = ?", req.TableID, models.TableAvailable).
			Update("status", models.TableUnavailable)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var table models.Table
			if err := tx.First(&table, req.TableID).Error; err != nil {
				return gorm.ErrRecordNotFound
			}
			return ErrTableUnavailable
		}

		if err := tx.Create(&reservation).Error; err != nil {
			return err
		}

		token.ReservationID = reservation.ID
		return tx.Create(&token).Error
	})

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.RespondError(c, http.StatusNotFound, errors.New("table not found"))
		return
	case errors.Is(err, ErrTableUnavailable):
		utils.RespondError(c, http.StatusConflict, ErrTableUnavailable)
		return
	case err != nil:
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	middlewares.InvalidateCache(rc.Cache, TableCachePrefix)
	events.BroadcastReservationCreate(reservation)

	utils.InfoLogger.Printf("Reservation %d created for customer %d (table %d)",
		reservation.ID, customerID, req.TableID)
	utils.RespondJSON(c, http.StatusCreated, "Reservation created", gin.H{
		"reservation": reservation,
		"token":       token.Token,
		"expires_at":  token.ExpiresAt,
	})
}

// ListReservations -> all reservations, or a single customer's when
// ?customerId= is supplied. The unscoped listing hides soft-deleted rows;
// the per-customer history keeps them.
func (rc *ReservationController) ListReservations(c *gin.Context) {
	var reservations []models.Reservation

	query := rc.DB
	if customerID := c.Query("customerId"); customerID != "" {
		id, err := strconv.Atoi(customerID)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid customerId parameter"))
			return
		}
		query = query.Where("customer_id = ?", id)
	} else {
		query = query.Where("deleted_at IS NULL")
	}

	if err := query.Find(&reservations).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of reservations", reservations)
}

// GetReservation serves the booking summary page. It combines two trust
// checks: the possession-based confirmation token (so the page can be
// reloaded without a re-login inside the grace window) and the bearer
// credential (so one customer cannot read another's reservation by
// guessing ids). The checks run in a fixed order: token presence, token
// validity, token freshness, credential, ownership.
func (rc *ReservationController) GetReservation(c *gin.Context) {
	resID, err := strconv.Atoi(c.Param("res_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid reservation id"))
		return
	}

	tokenValue := c.Query("token")
	if tokenValue == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("token is missing"))
		return
	}

	var token models.ConfirmationToken
	if err := rc.DB.Where("token = ?", tokenValue).First(&token).Error; err != nil {
		utils.RespondError(c, http.StatusForbidden, errors.New("invalid token"))
		return
	}

	if token.IsExpired(time.Now().UTC()) {
		utils.RespondError(c, http.StatusForbidden, errors.New("token has expired"))
		return
	}

	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	jwtToken := strings.TrimPrefix(authHeader, "Bearer ")
	if utils.IsTokenBlacklisted(jwtToken) {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	claims, err := utils.ParseToken(jwtToken)
	if err != nil || claims.CustomerID == 0 {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return
	}

	var reservation models.Reservation
	if err := rc.DB.First(&reservation, resID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("reservation not found"))
		return
	}

	if reservation.CustomerID != claims.CustomerID {
		utils.RespondError(c, http.StatusForbidden, errors.New("unauthorized access"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Reservation detail", reservation)
}

// UpdateReservation -> staff applies a status transition, a soft delete, or
// both. Cancellation releases the table inside the same transaction;
// confirmation never touches the table; a soft delete stamps the timestamp
// and leaves status and row intact.
func (rc *ReservationController) UpdateReservation(c *gin.Context) {
	resID, err := strconv.Atoi(c.Param("res_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid reservation id"))
		return
	}

	var body struct {
		Status    string `json:"status"`
		DeletedAt string `json:"deleted_at"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if body.Status == "" && body.DeletedAt == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("missing status or deleted_at"))
		return
	}

	var target models.ReservationStatus
	if body.Status != "" {
		target, err = models.ParseReservationStatus(body.Status)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		if target == models.ReservationPending {
			utils.RespondError(c, http.StatusBadRequest, errors.New("cannot transition a reservation back to pending"))
			return
		}
	}

	var deletedAt *time.Time
	if body.DeletedAt != "" {
		t, err := time.Parse(time.RFC3339, body.DeletedAt)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid deleted_at timestamp"))
			return
		}
		deletedAt = &t
	}

	var reservation models.Reservation
	if err := rc.DB.First(&reservation, resID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("reservation not found"))
		return
	}

	err = rc.DB.Transaction(func(tx *gorm.DB) error {
		if deletedAt != nil {
			reservation.DeletedAt = deletedAt
		}
		if body.Status != "" {
			return rc.applyStatus(tx, &reservation, target)
		}
		return tx.Save(&reservation).Error
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	rc.afterTransition(reservation, target)

	utils.InfoLogger.Printf("Reservation %d updated (status=%s, deleted=%t)",
		reservation.ID, reservation.Status, reservation.DeletedAt != nil)
	utils.RespondJSON(c, http.StatusOK, "Reservation updated", reservation)
}

// UpdateReservationByTable -> staff applies a status transition to the
// pending reservation of a table, without knowing the reservation id.
func (rc *ReservationController) UpdateReservationByTable(c *gin.Context) {
	tableID, err := strconv.Atoi(c.Param("table_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid table id"))
		return
	}

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	target, err := models.ParseReservationStatus(body.Status)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if target == models.ReservationPending {
		utils.RespondError(c, http.StatusBadRequest, errors.New("cannot transition a reservation back to pending"))
		return
	}

	var reservation models.Reservation
	if err := rc.DB.Where("table_id = ? AND status = ?", tableID, models.ReservationPending).
		First(&reservation).Error; err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("no pending reservation for this table"))
		return
	}

	err = rc.DB.Transaction(func(tx *gorm.DB) error {
		return rc.applyStatus(tx, &reservation, target)
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	rc.afterTransition(reservation, target)

	utils.InfoLogger.Printf("Reservation %d for table %d set to %s", reservation.ID, tableID, target)
	utils.RespondJSON(c, http.StatusOK, "Reservation updated", reservation)
}

// applyStatus writes the transition. Cancelling releases the table;
// confirming leaves it untouched.
func (rc *ReservationController) applyStatus(tx *gorm.DB, reservation *models.Reservation, status models.ReservationStatus) error {
	reservation.Status = status
	if err := tx.Save(reservation).Error; err != nil {
		return err
	}

	if status == models.ReservationCancelled {
		return tx.Model(&models.Table{}).
			Where("id = ?", reservation.TableID).
			Update("status", models.TableAvailable).Error
	}
	return nil
}

func (rc *ReservationController) afterTransition(reservation models.Reservation, status models.ReservationStatus) {
	events.BroadcastReservationUpdate(reservation)

	if status == models.ReservationCancelled {
		middlewares.InvalidateCache(rc.Cache, TableCachePrefix)
		var table models.Table
		if err := rc.DB.First(&table, reservation.TableID).Error; err == nil {
			events.BroadcastTableUpdate(table)
		}
	}
}
