package services

import (
	"fmt"
	"strings"

	"github.com/msibtain/wp-user-activity/internal/models"

	"gorm.io/gorm"
)

// Filters composes the optional report predicates into one AND-joined WHERE
// clause. Every value is passed as a bound parameter; textual values are
// escaped before use in LIKE patterns. The zero value matches all
// attributed records: the baseline user_id > 0 predicate is always applied,
// so an empty filter set can never leak unattributed rows.
type Filters struct {
	DateFrom     string // inclusive, YYYY-MM-DD
	DateTo       string // inclusive, YYYY-MM-DD
	UserID       uint
	ActivityType string
	Search       string
	SearchIP     bool // raw-log view also searches user_ip

	// Membership sets resolved externally (role members, user-search hits,
	// team members, an explicit export selection). A non-nil empty set is a
	// requested filter that matched nobody and must yield zero rows, not an
	// unfiltered result.
	RoleUserIDs   *[]uint
	SearchUserIDs *[]uint
	MemberUserIDs *[]uint

	// Structural exclusions for the aggregate "non-admin" views.
	ExcludeAdmins     bool
	StaffEmailDomain  string
	ExcludeCategories []string
}

// likeOp returns the case-insensitive substring operator for tx's dialect.
// Postgres LIKE is case-sensitive; sqlite LIKE already folds ASCII case.
func likeOp(tx *gorm.DB) string {
	if tx.Dialector.Name() == "postgres" {
		return "ILIKE"
	}
	return "LIKE"
}

// EscapeLike escapes LIKE wildcards so user input matches literally.
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// Apply renders the filter set onto tx.
func (f Filters) Apply(tx *gorm.DB) *gorm.DB {
	tx = tx.Where("user_id > 0")

	if f.DateFrom != "" {
		tx = tx.Where("DATE(created_at) >= ?", f.DateFrom)
	}
	if f.DateTo != "" {
		tx = tx.Where("DATE(created_at) <= ?", f.DateTo)
	}
	if f.UserID > 0 {
		tx = tx.Where("user_id = ?", f.UserID)
	}
	if f.ActivityType != "" && models.IsKnownActivityType(f.ActivityType) {
		tx = tx.Where("activity_type = ?", f.ActivityType)
	}

	tx = applyMembership(tx, f.RoleUserIDs)
	tx = applyMembership(tx, f.SearchUserIDs)
	tx = applyMembership(tx, f.MemberUserIDs)

	if f.Search != "" {
		pattern := "%" + EscapeLike(f.Search) + "%"
		op := likeOp(tx)
		if f.SearchIP {
			tx = tx.Where(
				fmt.Sprintf(`(activity_details %[1]s ? ESCAPE '\' OR page_url %[1]s ? ESCAPE '\' OR user_ip %[1]s ? ESCAPE '\')`, op),
				pattern, pattern, pattern,
			)
		} else {
			tx = tx.Where(
				fmt.Sprintf(`(activity_details %[1]s ? ESCAPE '\' OR page_url %[1]s ? ESCAPE '\')`, op),
				pattern, pattern,
			)
		}
	}

	if f.ExcludeAdmins {
		tx = tx.Where("user_id NOT IN (SELECT id FROM users WHERE role = ?)", models.RoleAdministrator)
	}
	if f.StaffEmailDomain != "" {
		tx = tx.Where(
			fmt.Sprintf(`user_id NOT IN (SELECT id FROM users WHERE email %s ? ESCAPE '\')`, likeOp(tx)),
			"%@"+EscapeLike(strings.TrimPrefix(f.StaffEmailDomain, "@")),
		)
	}
	if len(f.ExcludeCategories) > 0 {
		tx = tx.Where("activity_details NOT IN ?", f.ExcludeCategories)
	}

	return tx
}

func applyMembership(tx *gorm.DB, ids *[]uint) *gorm.DB {
	if ids == nil {
		return tx
	}
	if len(*ids) == 0 {
		// Requested filter resolved to nobody: default-deny.
		return tx.Where("1 = 0")
	}
	return tx.Where("user_id IN ?", *ids)
}

// IDSet is a convenience for building the membership pointers.
func IDSet(ids []uint) *[]uint {
	return &ids
}
