package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/msibtain/wp-user-activity/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestReportService(db *gorm.DB) *ReportService {
	return NewReportService(db, testLogger(), NewGormDirectory(db), NewGormResolver(db))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "News", DisplayName("Category: News"))
	assert.Equal(t, "Go Basics", DisplayName("Video Category: Go Basics"))
	assert.Equal(t, "Intro", DisplayName("Video View: Intro"))
	assert.Equal(t, "August 2026", DisplayName("August 2026"))
}

func TestTrend(t *testing.T) {
	db := setupTestDB()
	service := newTestReportService(db)

	day1 := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	day3 := time.Date(2026, 8, 12, 9, 0, 0, 0, time.UTC)

	seedUser(db, 1, "alice", "Alice", "alice@example.com", "editor")
	seedUser(db, 2, "bob", "Bob", "bob@example.com", "author")

	seedLog(db, 1, models.TypePageView, "Home", "https://example.com/", day1)
	seedLog(db, 2, models.TypePageView, "Home", "https://example.com/", day1)
	entry := seedLog(db, 1, models.TypePageView, "About", "https://example.com/about", day3)
	db.Model(&entry).Update("duration", 90)

	t.Run("Zero Fills Gaps", func(t *testing.T) {
		points, err := service.Trend(Filters{}, "2026-08-10", "2026-08-13")
		require.NoError(t, err)
		require.Len(t, points, 4)

		assert.Equal(t, TrendPoint{Date: "2026-08-10", Activities: 2, ActiveUsers: 2}, points[0])
		assert.Equal(t, TrendPoint{Date: "2026-08-11"}, points[1])
		assert.Equal(t, TrendPoint{Date: "2026-08-12", Activities: 1, ActiveUsers: 1, Duration: 90}, points[2])
		assert.Equal(t, TrendPoint{Date: "2026-08-13"}, points[3])
	})

	t.Run("Rejects Bad Range", func(t *testing.T) {
		_, err := service.Trend(Filters{}, "2026-08-13", "2026-08-10")
		assert.Error(t, err)
		_, err = service.Trend(Filters{}, "not-a-date", "2026-08-10")
		assert.Error(t, err)
	})
}

func TestTopUsers(t *testing.T) {
	db := setupTestDB()
	service := newTestReportService(db)
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	seedUser(db, 1, "alice", "Alice", "alice@example.com", "editor")
	seedUser(db, 2, "bob", "Bob", "bob@example.com", "author")
	seedUser(db, 3, "root", "Root", "root@example.com", models.RoleAdministrator)
	seedUser(db, 4, "staff", "Staff", "staff@corp.example", "editor")

	// Bob first, then Alice, same count: insertion order breaks the tie.
	seedLog(db, 2, models.TypePageView, "Home", "https://example.com/", now)
	seedLog(db, 1, models.TypePageView, "Home", "https://example.com/", now)
	seedLog(db, 2, models.TypePageView, "About", "https://example.com/about", now)
	seedLog(db, 1, models.TypePageView, "About", "https://example.com/about", now)
	seedLog(db, 3, models.TypePageView, "Admin", "https://example.com/", now)
	seedLog(db, 4, models.TypePageView, "Staff", "https://example.com/", now)
	seedLog(db, 9, models.TypePageView, "Ghost", "https://example.com/", now)

	f := Filters{ExcludeAdmins: true, StaffEmailDomain: "corp.example"}
	ranked, err := service.TopUsers(f)
	require.NoError(t, err)

	// Admin, staff-domain and deleted users drop out.
	require.Len(t, ranked, 2)
	assert.Equal(t, "Bob", ranked[0].DisplayName)
	assert.Equal(t, int64(2), ranked[0].Count)
	assert.Equal(t, "Alice", ranked[1].DisplayName)
	assert.Equal(t, int64(2), ranked[1].Count)
}

func TestTopCategories(t *testing.T) {
	db := setupTestDB()
	service := newTestReportService(db)
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	seedUser(db, 1, "alice", "Alice", "alice@example.com", "editor")

	parent := models.Term{Name: "Tutorials", Slug: "tutorials", Taxonomy: models.TaxonomyVideoCategory}
	require.NoError(t, db.Create(&parent).Error)
	child := models.Term{Name: "Go Basics", Slug: "go-basics", Taxonomy: models.TaxonomyVideoCategory, ParentID: parent.ID}
	require.NoError(t, db.Create(&child).Error)

	icatURL := fmt.Sprintf("https://example.com/videos/?icat=%d", child.ID)
	seedLog(db, 1, models.TypeCategoryView, "Video Category: Go Basics", icatURL, now)
	seedLog(db, 1, models.TypeCategoryView, "Video Category: Go Basics", icatURL, now)
	seedLog(db, 1, models.TypeCategoryView, "Category: News", "https://example.com/category/news/", now)
	seedLog(db, 1, models.TypePageView, "Home", "https://example.com/", now)

	ranked, err := service.TopCategories(Filters{})
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, "Go Basics", ranked[0].Name)
	assert.Equal(t, int64(2), ranked[0].Count)
	assert.Equal(t, "Tutorials", ranked[0].Parent)

	// Native category URLs carry no icat, so no parent resolves.
	assert.Equal(t, "News", ranked[1].Name)
	assert.Equal(t, "", ranked[1].Parent)
}

func TestTopVideos(t *testing.T) {
	db := setupTestDB()
	service := newTestReportService(db)
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	seedUser(db, 1, "alice", "Alice", "alice@example.com", "editor")

	parent := models.Term{Name: "Tutorials", Slug: "tutorials", Taxonomy: models.TaxonomyVideoCategory}
	require.NoError(t, db.Create(&parent).Error)
	child := models.Term{Name: "Go Basics", Slug: "go-basics", Taxonomy: models.TaxonomyVideoCategory, ParentID: parent.ID}
	require.NoError(t, db.Create(&child).Error)
	video := models.Content{Slug: "intro-to-go", Title: "Intro to Go", Type: models.ContentVideo, Terms: []models.Term{child}}
	require.NoError(t, db.Create(&video).Error)

	videoURL := "https://example.com/videos/intro-to-go/"
	a := seedLog(db, 1, models.TypeVideoView, "Video View: Intro to Go", videoURL, now)
	b := seedLog(db, 1, models.TypeVideoView, "Video View: Intro to Go", videoURL, now)
	db.Model(&a).Update("duration", 100)
	db.Model(&b).Update("duration", 50)
	seedLog(db, 1, models.TypeVideoView, "Video View: Gone", "https://example.com/videos/gone/", now)

	ranked, err := service.TopVideos(Filters{})
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, "Intro to Go", ranked[0].Name)
	assert.Equal(t, int64(2), ranked[0].Count)
	assert.Equal(t, int64(75), ranked[0].AvgDuration)
	assert.Equal(t, "Tutorials", ranked[0].Parent)

	// URL no longer resolves to content; ranking still lists the video.
	assert.Equal(t, "Gone", ranked[1].Name)
	assert.Equal(t, "", ranked[1].Parent)
}

func TestListLogs(t *testing.T) {
	db := setupTestDB()
	service := newTestReportService(db)
	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)

	seedUser(db, 1, "alice", "Alice", "alice@example.com", "editor")
	for i := 0; i < PageSize+5; i++ {
		seedLog(db, 1, models.TypePageView, fmt.Sprintf("Page %d", i), "https://example.com/", base.Add(time.Duration(i)*time.Minute))
	}
	seedLog(db, 99, models.TypePageView, "Orphan", "https://example.com/", base.Add(48*time.Hour))

	t.Run("Paginates Newest First", func(t *testing.T) {
		rows, total, err := service.ListLogs(Filters{}, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(PageSize+6), total)
		require.Len(t, rows, PageSize)
		assert.Equal(t, "Orphan", rows[0].ActivityDetails)

		rows, _, err = service.ListLogs(Filters{}, 2)
		require.NoError(t, err)
		assert.Len(t, rows, 6)
	})

	t.Run("Deleted User Placeholder", func(t *testing.T) {
		rows, _, err := service.ListLogs(Filters{}, 1)
		require.NoError(t, err)
		assert.True(t, rows[0].UserDeleted)
		assert.Empty(t, rows[0].DisplayName)
		assert.False(t, rows[1].UserDeleted)
		assert.Equal(t, "Alice", rows[1].DisplayName)
	})
}

func TestActiveUsers(t *testing.T) {
	db := setupTestDB()
	service := newTestReportService(db)
	day1 := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 11, 9, 30, 0, 0, time.UTC)

	seedUser(db, 1, "alice", "Alice", "alice@example.com", "editor")
	seedUser(db, 2, "bob", "Bob", "bob@example.com", "author")

	seedLog(db, 1, models.TypeLogin, "User alice@example.com logged in", "https://example.com/login", day1)
	e := seedLog(db, 1, models.TypePageView, "Home", "https://example.com/", day2)
	db.Model(&e).Update("duration", 60)
	seedLog(db, 2, models.TypePageView, "Home", "https://example.com/", day1)
	seedLog(db, 77, models.TypePageView, "Ghost", "https://example.com/", day2)

	rollups, total, err := service.ActiveUsers(Filters{}, 1)
	require.NoError(t, err)

	// Distinct-user total counts the dangling user; the rollup omits it.
	assert.Equal(t, int64(3), total)
	require.Len(t, rollups, 2)

	alice := rollups[0]
	assert.Equal(t, uint(1), alice.UserID)
	assert.Equal(t, "Alice", alice.DisplayName)
	assert.Equal(t, int64(2), alice.TotalActivities)
	assert.Equal(t, int64(2), alice.ActiveDays)
	assert.Equal(t, int64(60), alice.TotalDuration)
	assert.Equal(t, "2026-08-10 09:00:00", alice.FirstActivity)
	assert.Equal(t, "2026-08-11 09:30:00", alice.LastActivity)
	assert.Contains(t, alice.ActivityTypes, models.TypeLogin)
	assert.Contains(t, alice.ActivityTypes, models.TypePageView)

	assert.Equal(t, uint(2), rollups[1].UserID)
	assert.Equal(t, int64(1), rollups[1].TotalActivities)
}

func TestOverallAndTeam(t *testing.T) {
	db := setupTestDB()
	service := newTestReportService(db)
	day1 := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 11, 9, 0, 0, 0, time.UTC)

	seedUser(db, 1, "alice", "Alice", "alice@example.com", "editor")
	seedUser(db, 2, "bob", "Bob", "bob@example.com", "author")

	seedLog(db, 1, models.TypePageView, "Home", "https://example.com/", day1)
	seedLog(db, 1, models.TypePageView, "About", "https://example.com/about", day2)
	e := seedLog(db, 2, models.TypePageView, "Home", "https://example.com/", day1)
	db.Model(&e).Update("duration", 45)

	t.Run("Overall", func(t *testing.T) {
		stats, err := service.Overall(Filters{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), stats.TotalActivities)
		assert.Equal(t, int64(2), stats.TotalActiveUsers)
		assert.InDelta(t, 1.5, stats.AvgActivitiesPerUser, 0.001)
	})

	t.Run("Team", func(t *testing.T) {
		stats, err := service.Team([]uint{1, 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), stats.TotalActivities)
		assert.Equal(t, int64(2), stats.TotalUsers)
		assert.Equal(t, int64(45), stats.TotalDuration)
		assert.Equal(t, int64(2), stats.ActiveDays)
	})

	t.Run("Empty Team Denied By Default", func(t *testing.T) {
		stats, err := service.Team(nil)
		require.NoError(t, err)
		assert.Zero(t, stats.TotalActivities)
	})

	t.Run("Recent", func(t *testing.T) {
		rows, err := service.Recent([]uint{1}, 10)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "About", rows[0].ActivityDetails)
		assert.Equal(t, "Alice", rows[0].DisplayName)
	})
}

func TestActivityTypes(t *testing.T) {
	db := setupTestDB()
	service := newTestReportService(db)
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	seedLog(db, 1, models.TypePageView, "Home", "https://example.com/", now)
	seedLog(db, 1, models.TypeLogin, "User x logged in", "https://example.com/", now)
	seedLog(db, 2, models.TypePageView, "Home", "https://example.com/", now)

	types, err := service.ActivityTypes()
	require.NoError(t, err)
	assert.Equal(t, []string{models.TypeLogin, models.TypePageView}, types)
}
