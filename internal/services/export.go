package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/msibtain/wp-user-activity/internal/models"

	"gorm.io/gorm"
)

// exportChunkSize bounds per-query memory on large exports. Rows stream to
// the writer chunk by chunk.
const exportChunkSize = 1000

// utf8BOM precedes every CSV so spreadsheet tools pick UTF-8 encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var logHeader = []string{
	"ID", "Date", "User", "Email", "Role", "Activity Type",
	"Details", "Page URL", "Referer URL", "IP Address", "Duration (s)",
}

var activeUserHeader = []string{
	"User ID", "Username", "Display Name", "Email", "Role",
	"Total Activities", "Active Days", "Total Duration (s)",
	"First Activity", "Last Activity", "Activity Types",
}

type ExportService struct {
	db        *gorm.DB
	logger    *slog.Logger
	directory UserDirectory
	reports   *ReportService
}

func NewExportService(db *gorm.DB, logger *slog.Logger, directory UserDirectory, reports *ReportService) *ExportService {
	return &ExportService{
		db:        db,
		logger:    logger,
		directory: directory,
		reports:   reports,
	}
}

// ExportLogs streams the filtered log as CSV. When ids is non-empty the
// filters are ignored and exactly those rows export. Rows whose user was
// deleted still export with a placeholder name.
func (e *ExportService) ExportLogs(w io.Writer, f Filters, ids []uint) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(logHeader); err != nil {
		return err
	}

	f.SearchIP = true
	for offset := 0; ; offset += exportChunkSize {
		var logs []models.ActivityLog
		tx := f.Apply(e.db.Model(&models.ActivityLog{}))
		if len(ids) > 0 {
			tx = e.db.Model(&models.ActivityLog{}).Where("id IN ?", ids)
		}
		// Secondary id sort keeps chunk boundaries stable when timestamps tie.
		err := tx.Order("created_at desc, id desc").
			Limit(exportChunkSize).
			Offset(offset).
			Find(&logs).Error
		if err != nil {
			return err
		}

		for _, entry := range logs {
			name, email := "(user deleted)", ""
			role := ""
			user, err := e.directory.ByID(entry.UserID)
			switch {
			case err == nil:
				name, email, role = user.DisplayName, user.Email, user.RoleName()
			case IsNotFound(err):
			default:
				return err
			}
			record := []string{
				strconv.FormatUint(uint64(entry.ID), 10),
				entry.CreatedAt.Format("2006-01-02 15:04:05"),
				name,
				email,
				role,
				entry.ActivityType,
				entry.ActivityDetails,
				entry.PageURL,
				entry.RefererURL,
				entry.UserIP,
				strconv.FormatInt(entry.Duration, 10),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}

		if len(logs) < exportChunkSize {
			break
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportActiveUsers streams the per-user rollup as CSV. Entries whose user
// no longer resolves are omitted entirely.
func (e *ExportService) ExportActiveUsers(w io.Writer, f Filters) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(activeUserHeader); err != nil {
		return err
	}

	for offset := 0; ; offset += exportChunkSize {
		raw, err := e.reports.rollupRows(f, exportChunkSize, offset)
		if err != nil {
			return err
		}
		rollups, err := e.reports.decorateRollups(raw)
		if err != nil {
			return err
		}
		for _, rollup := range rollups {
			record := []string{
				strconv.FormatUint(uint64(rollup.UserID), 10),
				rollup.Login,
				rollup.DisplayName,
				rollup.Email,
				rollup.Role,
				strconv.FormatInt(rollup.TotalActivities, 10),
				strconv.FormatInt(rollup.ActiveDays, 10),
				strconv.FormatInt(rollup.TotalDuration, 10),
				rollup.FirstActivity,
				rollup.LastActivity,
				rollup.ActivityTypes,
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		if len(raw) < exportChunkSize {
			break
		}
	}

	cw.Flush()
	return cw.Error()
}

// Filename builds a timestamped download name that reflects the filters,
// e.g. activity-logs-20260830-154210-user42-login.csv.
func Filename(prefix string, f Filters) string {
	name := prefix + "-" + time.Now().Format("20060102-150405")
	if f.UserID != 0 {
		name += fmt.Sprintf("-user%d", f.UserID)
	}
	if f.ActivityType != "" {
		name += "-" + f.ActivityType
	}
	if f.DateFrom != "" || f.DateTo != "" {
		from, to := f.DateFrom, f.DateTo
		if from == "" {
			from = "start"
		}
		if to == "" {
			to = "now"
		}
		name += "-" + from + "_" + to
	}
	return name + ".csv"
}
