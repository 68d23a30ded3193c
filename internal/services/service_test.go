package services

import (
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/msibtain/wp-user-activity/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

var testDBSeq atomic.Int64

func setupTestDB() *gorm.DB {
	dsn := fmt.Sprintf("file:svc%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		panic("failed to connect database: " + err.Error())
	}
	err = db.AutoMigrate(
		&models.ActivityLog{},
		&models.User{},
		&models.Content{},
		&models.Term{},
		&models.TeamHub{},
	)
	if err != nil {
		panic("failed to migrate database: " + err.Error())
	}
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func seedUser(db *gorm.DB, id uint, login, name, email, role string) models.User {
	user := models.User{
		ID:          id,
		Login:       login,
		DisplayName: name,
		Email:       email,
		Role:        role,
	}
	if err := db.Create(&user).Error; err != nil {
		panic(err)
	}
	return user
}

func seedLog(db *gorm.DB, userID uint, activityType, details, pageURL string, at time.Time) models.ActivityLog {
	entry := models.ActivityLog{
		UserID:          userID,
		UserIP:          "203.0.113.10",
		UserAgent:       "Mozilla/5.0",
		ActivityType:    activityType,
		ActivityDetails: details,
		PageURL:         pageURL,
		CreatedAt:       at,
	}
	if err := db.Create(&entry).Error; err != nil {
		panic(err)
	}
	return entry
}
