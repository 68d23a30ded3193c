package services

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/msibtain/wp-user-activity/internal/models"
	"github.com/msibtain/wp-user-activity/pkg/utils"

	"gorm.io/gorm"
)

const (
	PageSize = 20 // on-screen tables
	topLimit = 10
)

// Literal prefixes the recorder embeds in activity_details. Rankings strip
// them for display. A category literally named "Video View: X" would
// misparse; storing subtype and name separately would fix that but would
// change the record format.
const (
	prefixVideoCategory = "Video Category: "
	prefixCategory      = "Category: "
	prefixVideoView     = "Video View: "
)

// DisplayName strips the known detail prefixes for ranking display.
func DisplayName(details string) string {
	for _, p := range []string{prefixVideoCategory, prefixCategory, prefixVideoView} {
		if strings.HasPrefix(details, p) {
			return details[len(p):]
		}
	}
	return details
}

type TrendPoint struct {
	Date        string `json:"date"`
	Activities  int64  `json:"activities"`
	ActiveUsers int64  `json:"active_users"`
	Duration    int64  `json:"duration"`
}

type RankedUser struct {
	UserID      uint   `json:"user_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Count       int64  `json:"count"`
}

type RankedItem struct {
	Name        string `json:"name"`
	Parent      string `json:"parent"`
	Count       int64  `json:"count"`
	AvgDuration int64  `json:"avg_duration,omitempty"`
}

type LogRow struct {
	models.ActivityLog
	DisplayName     string `json:"display_name"`
	Email           string `json:"email"`
	UserDeleted     bool   `json:"user_deleted"`
	DurationDisplay string `json:"duration_display"`
}

type UserRollup struct {
	UserID          uint   `json:"user_id"`
	TotalActivities int64  `json:"total_activities"`
	ActiveDays      int64  `json:"active_days"`
	TotalDuration   int64  `json:"total_duration"`
	FirstActivity   string `json:"first_activity"`
	LastActivity    string `json:"last_activity"`
	ActivityTypes   string `json:"activity_types"`
	DurationDisplay string `json:"duration_display" gorm:"-"`

	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

type OverallStats struct {
	TotalActiveUsers     int64   `json:"total_active_users"`
	TotalActivities      int64   `json:"total_activities"`
	AvgActivitiesPerUser float64 `json:"avg_activities_per_user"`
}

type TeamStats struct {
	TotalActivities int64 `json:"total_activities"`
	TotalUsers      int64 `json:"total_users"`
	TotalDuration   int64 `json:"total_duration"`
	ActiveDays      int64 `json:"active_days"`
}

type ReportService struct {
	db        *gorm.DB
	logger    *slog.Logger
	directory UserDirectory
	resolver  ContentResolver
}

func NewReportService(db *gorm.DB, logger *slog.Logger, directory UserDirectory, resolver ContentResolver) *ReportService {
	return &ReportService{
		db:        db,
		logger:    logger,
		directory: directory,
		resolver:  resolver,
	}
}

// Dialect-dependent SQL fragments. The service runs on postgres in
// production and sqlite in tests.
func (r *ReportService) dayExpr() string {
	if r.db.Dialector.Name() == "postgres" {
		return "to_char(created_at, 'YYYY-MM-DD')"
	}
	return "strftime('%Y-%m-%d', created_at)"
}

func (r *ReportService) tsExpr(inner string) string {
	if r.db.Dialector.Name() == "postgres" {
		return fmt.Sprintf("to_char(%s, 'YYYY-MM-DD HH24:MI:SS')", inner)
	}
	return fmt.Sprintf("strftime('%%Y-%%m-%%d %%H:%%M:%%S', %s)", inner)
}

func (r *ReportService) distinctTypesExpr() string {
	if r.db.Dialector.Name() == "postgres" {
		return "string_agg(DISTINCT activity_type, ',')"
	}
	return "GROUP_CONCAT(DISTINCT activity_type)"
}

// Trend aggregates matching records per calendar day over [from, to],
// inclusive. The result always holds one point per day; days without
// activity are zero-filled because the grouping query only returns days
// that had rows.
func (r *ReportService) Trend(f Filters, from, to string) ([]TrendPoint, error) {
	fromDay, err := time.Parse("2006-01-02", from)
	if err != nil {
		return nil, fmt.Errorf("invalid trend range start: %w", err)
	}
	toDay, err := time.Parse("2006-01-02", to)
	if err != nil {
		return nil, fmt.Errorf("invalid trend range end: %w", err)
	}
	if toDay.Before(fromDay) {
		return nil, fmt.Errorf("trend range end %s precedes start %s", to, from)
	}

	f.DateFrom, f.DateTo = from, to

	var rows []TrendPoint
	err = f.Apply(r.db.Model(&models.ActivityLog{})).
		Select(r.dayExpr() + " as date, COUNT(*) as activities, COUNT(DISTINCT user_id) as active_users, COALESCE(SUM(duration), 0) as duration").
		Group(r.dayExpr()).
		Order("date asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]TrendPoint, len(rows))
	for _, row := range rows {
		byDate[row.Date] = row
	}

	series := make([]TrendPoint, 0, int(toDay.Sub(fromDay).Hours()/24)+1)
	for day := fromDay; !day.After(toDay); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		if point, ok := byDate[key]; ok {
			series = append(series, point)
		} else {
			series = append(series, TrendPoint{Date: key})
		}
	}
	return series, nil
}

// TopUsers ranks the ten most active users by record count. Ties resolve
// by first insertion so reruns on unchanged data keep the order.
func (r *ReportService) TopUsers(f Filters) ([]RankedUser, error) {
	var rows []struct {
		UserID uint
		Count  int64
	}
	err := f.Apply(r.db.Model(&models.ActivityLog{})).
		Select("user_id, COUNT(*) as count").
		Group("user_id").
		Order("count desc, MIN(id) asc").
		Limit(topLimit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ranked := make([]RankedUser, 0, len(rows))
	for _, row := range rows {
		user, err := r.directory.ByID(row.UserID)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		ranked = append(ranked, RankedUser{
			UserID:      user.ID,
			DisplayName: user.DisplayName,
			Email:       user.Email,
			Role:        user.RoleName(),
			Count:       row.Count,
		})
	}
	return ranked, nil
}

// TopCategories ranks the ten most viewed categories. The parent column is
// a best-effort reverse lookup of the stored page URL's icat term, walking
// the term tree to its top-level ancestor.
func (r *ReportService) TopCategories(f Filters) ([]RankedItem, error) {
	f.ActivityType = models.TypeCategoryView

	rows, err := r.rankDetails(f, false)
	if err != nil {
		return nil, err
	}

	ranked := make([]RankedItem, 0, len(rows))
	for _, row := range rows {
		item := RankedItem{
			Name:  DisplayName(row.ActivityDetails),
			Count: row.Count,
		}
		if termID := ICatTermID(row.PageURL); termID != 0 {
			if term, err := r.resolver.TermByID(termID, models.TaxonomyVideoCategory); err == nil {
				if top, err := r.resolver.TopAncestor(term); err == nil {
					item.Parent = top.Name
				}
			}
		}
		ranked = append(ranked, item)
	}
	return ranked, nil
}

// TopVideos ranks the ten most viewed videos with their average watch
// duration. The parent column resolves the video's top-level category from
// its URL, degrading to empty when the URL no longer maps to content.
func (r *ReportService) TopVideos(f Filters) ([]RankedItem, error) {
	f.ActivityType = models.TypeVideoView

	rows, err := r.rankDetails(f, true)
	if err != nil {
		return nil, err
	}

	ranked := make([]RankedItem, 0, len(rows))
	for _, row := range rows {
		item := RankedItem{
			Name:        DisplayName(row.ActivityDetails),
			Count:       row.Count,
			AvgDuration: int64(row.AvgDuration),
		}
		item.Parent = r.videoParentCategory(row.PageURL)
		ranked = append(ranked, item)
	}
	return ranked, nil
}

type detailRank struct {
	ActivityDetails string
	PageURL         string
	Count           int64
	AvgDuration     float64
}

func (r *ReportService) rankDetails(f Filters, withDuration bool) ([]detailRank, error) {
	sel := "activity_details, MIN(page_url) as page_url, COUNT(*) as count"
	if withDuration {
		sel += ", COALESCE(AVG(duration), 0) as avg_duration"
	}

	var rows []detailRank
	err := f.Apply(r.db.Model(&models.ActivityLog{})).
		Select(sel).
		Group("activity_details").
		Order("count desc, MIN(id) asc").
		Limit(topLimit).
		Scan(&rows).Error
	return rows, err
}

func (r *ReportService) videoParentCategory(pageURL string) string {
	content, err := r.resolver.ResolveURL(pageURL)
	if err != nil {
		return ""
	}
	terms, err := r.resolver.ContentTerms(content.ID, models.TaxonomyVideoCategory)
	if err != nil || len(terms) == 0 {
		return ""
	}
	top, err := r.resolver.TopAncestor(&terms[0])
	if err != nil {
		return ""
	}
	return top.Name
}

// ListLogs returns one page of the raw log plus the total for pagination.
// Rows whose user no longer resolves get a placeholder instead of failing
// the listing.
func (r *ReportService) ListLogs(f Filters, page int) ([]LogRow, int64, error) {
	f.SearchIP = true
	if page < 1 {
		page = 1
	}

	var total int64
	if err := f.Apply(r.db.Model(&models.ActivityLog{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.ActivityLog
	err := f.Apply(r.db.Model(&models.ActivityLog{})).
		Order("created_at desc, id desc").
		Limit(PageSize).
		Offset((page - 1) * PageSize).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}

	rows := make([]LogRow, 0, len(logs))
	for _, entry := range logs {
		row := LogRow{ActivityLog: entry, DurationDisplay: utils.FormatDuration(entry.Duration)}
		user, err := r.directory.ByID(entry.UserID)
		switch {
		case err == nil:
			row.DisplayName = user.DisplayName
			row.Email = user.Email
		case IsNotFound(err):
			row.UserDeleted = true
		default:
			return nil, 0, err
		}
		rows = append(rows, row)
	}
	return rows, total, nil
}

// ActiveUsers returns one page of the per-user rollup ordered by most
// recent activity, plus the distinct-user total. Rollup entries whose user
// was deleted are omitted, matching the export behavior.
func (r *ReportService) ActiveUsers(f Filters, page int) ([]UserRollup, int64, error) {
	if page < 1 {
		page = 1
	}

	var total int64
	err := f.Apply(r.db.Model(&models.ActivityLog{})).
		Distinct("user_id").
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.rollupPage(f, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *ReportService) rollupPage(f Filters, limit, offset int) ([]UserRollup, error) {
	rollups, err := r.rollupRows(f, limit, offset)
	if err != nil {
		return nil, err
	}
	return r.decorateRollups(rollups)
}

// rollupRows runs the grouped aggregation without resolving user details.
// Callers paging through the result rely on the raw row count for
// termination, so dangling users are still present here.
func (r *ReportService) rollupRows(f Filters, limit, offset int) ([]UserRollup, error) {
	sel := fmt.Sprintf(
		"user_id, COUNT(*) as total_activities, COUNT(DISTINCT %s) as active_days, "+
			"COALESCE(SUM(duration), 0) as total_duration, %s as first_activity, %s as last_activity, %s as activity_types",
		r.dayExpr(), r.tsExpr("MIN(created_at)"), r.tsExpr("MAX(created_at)"), r.distinctTypesExpr(),
	)

	tx := f.Apply(r.db.Model(&models.ActivityLog{})).
		Select(sel).
		Group("user_id").
		Order("last_activity desc, user_id asc")
	if limit > 0 {
		tx = tx.Limit(limit).Offset(offset)
	}

	var rollups []UserRollup
	if err := tx.Scan(&rollups).Error; err != nil {
		return nil, err
	}
	return rollups, nil
}

// decorateRollups fills in display data per user, dropping rows whose user
// no longer resolves.
func (r *ReportService) decorateRollups(rollups []UserRollup) ([]UserRollup, error) {
	out := make([]UserRollup, 0, len(rollups))
	for _, rollup := range rollups {
		user, err := r.directory.ByID(rollup.UserID)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		rollup.Login = user.Login
		rollup.DisplayName = user.DisplayName
		rollup.Email = user.Email
		rollup.Role = user.RoleName()
		rollup.DurationDisplay = utils.FormatDuration(rollup.TotalDuration)
		out = append(out, rollup)
	}
	return out, nil
}

// Overall summarizes the filtered set for the active-users stat boxes.
func (r *ReportService) Overall(f Filters) (OverallStats, error) {
	var stats OverallStats

	base := f.Apply(r.db.Model(&models.ActivityLog{}))
	if err := base.Count(&stats.TotalActivities).Error; err != nil {
		return stats, err
	}
	err := f.Apply(r.db.Model(&models.ActivityLog{})).
		Distinct("user_id").
		Count(&stats.TotalActiveUsers).Error
	if err != nil {
		return stats, err
	}
	if stats.TotalActiveUsers > 0 {
		stats.AvgActivitiesPerUser = float64(stats.TotalActivities) / float64(stats.TotalActiveUsers)
	}
	return stats, nil
}

// Team summarizes all activity of the given members for the team hub.
func (r *ReportService) Team(memberIDs []uint) (TeamStats, error) {
	f := Filters{MemberUserIDs: IDSet(memberIDs)}

	var stats TeamStats
	sel := fmt.Sprintf(
		"COUNT(*) as total_activities, COUNT(DISTINCT user_id) as total_users, "+
			"COALESCE(SUM(duration), 0) as total_duration, COUNT(DISTINCT %s) as active_days",
		r.dayExpr(),
	)
	err := f.Apply(r.db.Model(&models.ActivityLog{})).Select(sel).Scan(&stats).Error
	return stats, err
}

// Recent returns the latest activities of the given members, newest first.
func (r *ReportService) Recent(memberIDs []uint, limit int) ([]LogRow, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	f := Filters{MemberUserIDs: IDSet(memberIDs)}

	var logs []models.ActivityLog
	err := f.Apply(r.db.Model(&models.ActivityLog{})).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}

	rows := make([]LogRow, 0, len(logs))
	for _, entry := range logs {
		row := LogRow{ActivityLog: entry, DurationDisplay: utils.FormatDuration(entry.Duration)}
		if user, err := r.directory.ByID(entry.UserID); err == nil {
			row.DisplayName = user.DisplayName
			row.Email = user.Email
		} else if IsNotFound(err) {
			row.UserDeleted = true
		} else {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ActivityTypes lists the distinct types present, for the filter dropdown.
func (r *ReportService) ActivityTypes() ([]string, error) {
	types := []string{}
	err := r.db.Model(&models.ActivityLog{}).
		Distinct("activity_type").
		Order("activity_type asc").
		Pluck("activity_type", &types).Error
	return types, err
}
