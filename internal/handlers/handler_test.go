package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/msibtain/wp-user-activity/internal/config"
	"github.com/msibtain/wp-user-activity/internal/models"
	"github.com/msibtain/wp-user-activity/internal/services"
	"github.com/msibtain/wp-user-activity/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testDBSeq atomic.Int64

func setupTestHandler() (*Handler, *gorm.DB) {
	dsn := fmt.Sprintf("file:handlers%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, _ := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	db.AutoMigrate(
		&models.ActivityLog{},
		&models.User{},
		&models.Content{},
		&models.Term{},
		&models.TeamHub{},
	)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cfg := config.Config{
		SessionSecret:    "test-secret-12345678901234567890123456789012",
		SiteName:         "My Site",
		StaffEmailDomain: "corp.example",
	}

	bots := services.NewSignatureBotDetector()
	resolver := services.NewGormResolver(db)
	directory := services.NewGormDirectory(db)
	activity := services.NewActivityService(db, logger, bots, resolver, cfg.InternalPathList())
	reports := services.NewReportService(db, logger, directory, resolver)
	exporter := services.NewExportService(db, logger, directory, reports)

	// Use a dummy redis client (not connected) with no retries
	rdb := redis.NewClient(&redis.Options{
		Addr:       "localhost:1",
		MaxRetries: -1,
	})

	h := NewHandler(cfg, logger, db, rdb, activity, reports, exporter, directory, resolver)
	return h, db
}

func setupTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return h.SetupRouter(nil)
}

func createTestUser(t *testing.T, db *gorm.DB, login, email, role string, manager bool) models.User {
	t.Helper()
	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)
	user := models.User{
		Login:        login,
		DisplayName:  login,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsManager:    manager,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// testClient keeps the session cookie across requests like a browser would.
type testClient struct {
	r       *gin.Engine
	cookies []*http.Cookie
	token   string
}

func newTestClient(r *gin.Engine) *testClient {
	return &testClient{r: r}
}

func (tc *testClient) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range tc.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	tc.r.ServeHTTP(w, req)

	if set := w.Result().Cookies(); len(set) > 0 {
		tc.cookies = set
	}
	return w
}

func (tc *testClient) login(t *testing.T, email string) {
	t.Helper()
	w := tc.do("POST", "/login", gin.H{"email": email, "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	tc.token = resp.Token
}

func seedEntry(t *testing.T, db *gorm.DB, userID uint, activityType, details string, at time.Time) models.ActivityLog {
	t.Helper()
	entry := models.ActivityLog{
		UserID:          userID,
		UserIP:          "203.0.113.10",
		ActivityType:    activityType,
		ActivityDetails: details,
		PageURL:         "https://example.com/",
		CreatedAt:       at,
	}
	require.NoError(t, db.Create(&entry).Error)
	return entry
}
