package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-reservation/controllers"
	"github.com/yeremiapane/restaurant-reservation/middlewares"
	"github.com/yeremiapane/restaurant-reservation/models"
	"github.com/yeremiapane/restaurant-reservation/utils"
)

func setupTestDBForReservations(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.Customer{},
		&models.Table{},
		&models.Reservation{},
		&models.ConfirmationToken{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func setupReservationRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	resCtrl := controllers.NewReservationController(db, nil)
	router.POST("/reservations", middlewares.AuthMiddleware(), resCtrl.CreateReservation)
	router.GET("/reservations", resCtrl.ListReservations)
	router.GET("/reservations/:res_id", resCtrl.GetReservation)
	router.PATCH("/reservations/:res_id", middlewares.AuthMiddleware(), middlewares.RequireStaff(), resCtrl.UpdateReservation)
	router.PATCH("/reservations/by-table/:table_id", middlewares.AuthMiddleware(), middlewares.RequireStaff(), resCtrl.UpdateReservationByTable)
	return router
}

func seedCustomer(t *testing.T, db *gorm.DB, email string) models.Customer {
	customer := models.Customer{
		FirstName: "Test",
		LastName:  "Customer",
		Email:     email,
		Password:  "irrelevant-hash",
		Phone:     "0812345678",
		Role:      models.RoleCustomer,
		CreatedAt: time.Now().UTC(),
	}
	assert.NoError(t, db.Create(&customer).Error)
	return customer
}

func seedTable(t *testing.T, db *gorm.DB, status models.TableStatus) models.Table {
	table := models.Table{Type: "standard", Status: status}
	assert.NoError(t, db.Create(&table).Error)
	return table
}

func doRequest(t *testing.T, router *gin.Engine, method, url, bearer string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		assert.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, body)
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createReservation(t *testing.T, router *gin.Engine, tableID uint, bearer string) (resID uint, token string) {
	w := doRequest(t, router, "POST", "/reservations", bearer, map[string]interface{}{
		"table_id":   tableID,
		"party_size": 2,
		"name":       "Dinner for two",
		"phone":      "0812345678",
		"date":       "2025-06-01",
		"time":       "18:00",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	reservation := data["reservation"].(map[string]interface{})

	return uint(reservation["reservation_id"].(float64)), data["token"].(string)
}

func TestCreateReservationLifecycle(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForReservations(t)
	router := setupReservationRouter(db)

	customer := seedCustomer(t, db, "res@example.com")
	table := seedTable(t, db, models.TableAvailable)
	bearer := customerToken(t, customer.ID)

	resID, tokenValue := createReservation(t, router, table.ID, bearer)

	// Table flips to unavailable.
	var updatedTable models.Table
	assert.NoError(t, db.First(&updatedTable, table.ID).Error)
	assert.Equal(t, models.TableUnavailable, updatedTable.Status)

	// Reservation is pending and owned by the authenticated customer.
	var reservation models.Reservation
	assert.NoError(t, db.First(&reservation, resID).Error)
	assert.Equal(t, models.ReservationPending, reservation.Status)
	assert.Equal(t, customer.ID, reservation.CustomerID)

	// 18:00 Bangkok wall clock is 11:00 UTC; the date stays in the
	// restaurant's zone.
	assert.Equal(t, "2025-06-01T11:00:00Z", reservation.Time)
	assert.Equal(t, "2025-06-01", reservation.Date)

	// Exactly one confirmation token, expiring creation + 5m.
	var tokens []models.ConfirmationToken
	assert.NoError(t, db.Where("reservation_id = ?", resID).Find(&tokens).Error)
	assert.Len(t, tokens, 1)
	assert.Equal(t, tokenValue, tokens[0].Token)
	assert.WithinDuration(t, reservation.CreatedAt.Add(5*time.Minute), tokens[0].ExpiresAt, time.Second)
}

func TestCreateReservationValidation(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForReservations(t)
	router := setupReservationRouter(db)

	customer := seedCustomer(t, db, "res@example.com")
	table := seedTable(t, db, models.TableAvailable)
	bearer := customerToken(t, customer.ID)

	// Missing party_size.
	w := doRequest(t, router, "POST", "/reservations", bearer, map[string]interface{}{
		"table_id": table.ID,
		"name":     "Dinner",
		"phone":    "0812345678",
		"date":     "2025-06-01",
		"time":     "18:00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unparsable time.
	w = doRequest(t, router, "POST", "/reservations", bearer, map[string]interface{}{
		"table_id":   table.ID,
		"party_size": 2,
		"name":       "Dinner",
		"phone":      "0812345678",
		"date":       "2025-06-01",
		"time":       "6pm",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// No credential.
	w = doRequest(t, router, "POST", "/reservations", "", map[string]interface{}{
		"table_id":   table.ID,
		"party_size": 2,
		"name":       "Dinner",
		"phone":      "0812345678",
		"date":       "2025-06-01",
		"time":       "18:00",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Nothing was written on any failure path.
	var count int64
	db.Model(&models.Reservation{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestCreateReservationTableConflict(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForReservations(t)
	router := setupReservationRouter(db)

	customer := seedCustomer(t, db, "res@example.com")
	table := seedTable(t, db, models.TableAvailable)
	bearer := customerToken(t, customer.ID)

	createReservation(t, router, table.ID, bearer)

	// The table is taken now; a second booking must lose.
	w := doRequest(t, router, "POST", "/reservations", bearer, map[string]interface{}{
		"table_id":   table.ID,
		"party_size": 4,
		"name":       "Late arrival",
		"phone":      "0898765432",
		"date":       "2025-06-01",
		"time":       "19:00",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Unknown table -> 404.
	w = doRequest(t, router, "POST", "/reservations", bearer, map[string]interface{}{
		"table_id":   uint(9999),
		"party_size": 2,
		"name":       "Ghost table",
		"phone":      "0898765432",
		"date":       "2025-06-01",
		"time":       "19:00",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	var count int64
	db.Model(&models.Reservation{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestListReservations(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForReservations(t)
	router := setupReservationRouter(db)

	alice := seedCustomer(t, db, "alice@example.com")
	bob := seedCustomer(t, db, "bob@example.com")
	tableA := seedTable(t, db, models.TableAvailable)
	tableB := seedTable(t, db, models.TableAvailable)

	aliceRes, _ := createReservation(t, router, tableA.ID, customerToken(t, alice.ID))
	createReservation(t, router, tableB.ID, customerToken(t, bob.ID))

	// Unscoped -> both.
	w := doRequest(t, router, "GET", "/reservations", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response["data"].([]interface{}), 2)

	// Scoped to alice -> one.
	w = doRequest(t, router, "GET", fmt.Sprintf("/reservations?customerId=%d", alice.ID), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].([]interface{})
	assert.Len(t, data, 1)
	assert.Equal(t, float64(aliceRes), data[0].(map[string]interface{})["reservation_id"])

	// Unparsable customerId -> 400.
	w = doRequest(t, router, "GET", "/reservations?customerId=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReservationSummaryChecks(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForReservations(t)
	router := setupReservationRouter(db)

	owner := seedCustomer(t, db, "owner@example.com")
	other := seedCustomer(t, db, "other@example.com")
	table := seedTable(t, db, models.TableAvailable)
	ownerBearer := customerToken(t, owner.ID)

	resID, tokenValue := createReservation(t, router, table.ID, ownerBearer)
	base := fmt.Sprintf("/reservations/%d", resID)

	// Missing token -> 400 before any credential check.
	w := doRequest(t, router, "GET", base, ownerBearer, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown token -> 403.
	w = doRequest(t, router, "GET", base+"?token=bogus", ownerBearer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Missing credential -> 401.
	w = doRequest(t, router, "GET", base+"?token="+tokenValue, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Garbage credential -> 401.
	w = doRequest(t, router, "GET", base+"?token="+tokenValue, "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Someone else's credential -> 403.
	w = doRequest(t, router, "GET", base+"?token="+tokenValue, customerToken(t, other.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Unknown reservation id with a valid token and credential -> 404.
	w = doRequest(t, router, "GET", "/reservations/9999?token="+tokenValue, ownerBearer, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Owner with fresh token -> 200.
	w = doRequest(t, router, "GET", base+"?token="+tokenValue, ownerBearer, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Expire the token; rejection no longer depends on the credential.
	assert.NoError(t, db.Model(&models.ConfirmationToken{}).
		Where("token = ?", tokenValue).
		Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error)

	w = doRequest(t, router, "GET", base+"?token="+tokenValue, ownerBearer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestConfirmReservationKeepsTableUnavailable(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForReservations(t)
	router := setupReservationRouter(db)

	customer := seedCustomer(t, db, "res@example.com")
	table := seedTable(t, db, models.TableAvailable)

	resID, _ := createReservation(t, router, table.ID, customerToken(t, customer.ID))

	w := doRequest(t, router, "PATCH", fmt.Sprintf("/reservations/%d", resID), staffToken(t),
		map[string]string{"status": "confirmed"})
	assert.Equal(t, http.StatusOK, w.Code)

	var reservation models.Reservation
	assert.NoError(t, db.First(&reservation, resID).Error)
	assert.Equal(t, models.ReservationConfirmed, reservation.Status)

	var updatedTable models.Table
	assert.NoError(t, db.First(&updatedTable, table.ID).Error)
	assert.Equal(t, models.TableUnavailable, updatedTable.Status)
}

func TestCancelReservationReleasesTable(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForReservations(t)
	router := setupReservationRouter(db)

	customer := seedCustomer(t, db, "res@example.com")
	table := seedTable(t, db, models.TableAvailable)

	resID, _ := createReservation(t, router, table.ID, customerToken(t, customer.ID))

	w := doRequest(t, router, "PATCH", fmt.Sprintf("/reservations/%d", resID), staffToken(t),
		map[string]string{"status": "cancelled"})
	assert.Equal(t, http.StatusOK, w.Code)

	var reservation models.Reservation
	assert.NoError(t, db.First(&reservation, resID).Error)
	assert.Equal(t, models.ReservationCancelled, reservation.Status)

	var updatedTable models.Table
	assert.NoError(t, db.First(&updatedTable, table.ID).Error)
	assert.Equal(t, models.TableAvailable, updatedTable.Status)
}

func TestSoftDeleteReservation(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForReservations(t)
	router := setupReservationRouter(db)

	customer := seedCustomer(t, db, "res@example.com")
	table := seedTable(t, db, models.TableAvailable)

	resID, _ := createReservation(t, router, table.ID, customerToken(t, customer.ID))

	stamp := time.Now().UTC().Format(time.RFC3339)
	w := doRequest(t, router, "PATCH", fmt.Sprintf("/reservations/%d", resID), staffToken(t),
		map[string]string{"deleted_at": stamp})
	assert.Equal(t, http.StatusOK, w.Code)

	// Status untouched, row still retrievable by id.
	var reservation models.Reservation
	assert.NoError(t, db.First(&reservation, resID).Error)
	assert.Equal(t, models.ReservationPending, reservation.Status)
	assert.NotNil(t, reservation.DeletedAt)

	// Hidden from the unscoped listing.
	w = doRequest(t, router, "GET", "/reservations", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Empty(t, response["data"])

	// Still visible in the customer's own history.
	w = doRequest(t, router, "GET", fmt.Sprintf("/reservations?customerId=%d", customer.ID), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response["data"].([]interface{}), 1)
}

func TestUpdateReservationValidation(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForReservations(t)
	router := setupReservationRouter(db)

	customer := seedCustomer(t, db, "res@example.com")
	table := seedTable(t, db, models.TableAvailable)
	resID, _ := createReservation(t, router, table.ID, customerToken(t, customer.ID))
	url := fmt.Sprintf("/reservations/%d", resID)
	bearer := staffToken(t)

	// Neither status nor deleted_at.
	w := doRequest(t, router, "PATCH", url, bearer, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Status outside the allowed set.
	w = doRequest(t, router, "PATCH", url, bearer, map[string]string{"status": "finished"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Transition back to pending is not a thing.
	w = doRequest(t, router, "PATCH", url, bearer, map[string]string{"status": "pending"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unparsable soft-delete timestamp.
	w = doRequest(t, router, "PATCH", url, bearer, map[string]string{"deleted_at": "yesterday"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown reservation.
	w = doRequest(t, router, "PATCH", "/reservations/9999", bearer, map[string]string{"status": "confirmed"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Unparsable id.
	w = doRequest(t, router, "PATCH", "/reservations/abc", bearer, map[string]string{"status": "confirmed"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateReservationByTable(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForReservations(t)
	router := setupReservationRouter(db)

	customer := seedCustomer(t, db, "res@example.com")
	table := seedTable(t, db, models.TableAvailable)
	resID, _ := createReservation(t, router, table.ID, customerToken(t, customer.ID))

	w := doRequest(t, router, "PATCH", fmt.Sprintf("/reservations/by-table/%d", table.ID), staffToken(t),
		map[string]string{"status": "confirmed"})
	assert.Equal(t, http.StatusOK, w.Code)

	var reservation models.Reservation
	assert.NoError(t, db.First(&reservation, resID).Error)
	assert.Equal(t, models.ReservationConfirmed, reservation.Status)

	// No pending reservation left for the table.
	w = doRequest(t, router, "PATCH", fmt.Sprintf("/reservations/by-table/%d", table.ID), staffToken(t),
		map[string]string{"status": "cancelled"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
