package services

import (
	"regexp"
	"sort"
	"time"

	"gorm.io/gorm"

	apperrors "anggaran/internal/errors"
	"anggaran/internal/models"
)

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// summaryService aggregates cash flow by calendar month across a user's
// non-archived projects. Pure reads; no side effects.
type summaryService struct {
	db *gorm.DB
}

// NewSummaryService creates a new SummaryServicer.
func NewSummaryService(db *gorm.DB) SummaryServicer {
	return &summaryService{db: db}
}

// SummarizeByMonth computes per-project and overall income/expense totals for
// the given YYYY-MM month (current month when empty). The returned project
// list is filtered to projects with activity in the month, while the overall
// totals and the available-months list are computed over the full set.
func (s *summaryService) SummarizeByMonth(userID uint, month string) (*MonthlySummary, error) {
	if month == "" {
		month = time.Now().Format("2006-01")
	} else if !monthPattern.MatchString(month) {
		return nil, apperrors.ErrInvalidMonth
	}

	monthStart, err := time.ParseInLocation("2006-01", month, time.Local)
	if err != nil {
		return nil, apperrors.ErrInvalidMonth
	}
	nextMonth := monthStart.AddDate(0, 1, 0)

	var projects []models.Project
	if err := s.db.Where("user_id = ? AND is_archived = ?", userID, false).
		Order("created_at ASC").
		Find(&projects).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := &MonthlySummary{
		Month:           month,
		Projects:        []ProjectMonthlySummary{},
		AvailableMonths: []string{},
	}
	if len(projects) == 0 {
		return summary, nil
	}

	projectIDs := make([]uint, 0, len(projects))
	for _, p := range projects {
		projectIDs = append(projectIDs, p.ID)
	}

	// One grouped scan for the month window.
	type bucket struct {
		ProjectID uint
		Type      models.CashFlowType
		Total     int64
	}
	var buckets []bucket
	if err := s.db.Model(&models.CashFlowEntry{}).
		Select("project_id, type, COALESCE(SUM(amount), 0) AS total").
		Where("project_id IN ? AND entry_date >= ? AND entry_date < ?", projectIDs, monthStart, nextMonth).
		Group("project_id, type").
		Scan(&buckets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	income := make(map[uint]int64)
	expenses := make(map[uint]int64)
	for _, b := range buckets {
		switch b.Type {
		case models.CashFlowTypeIncome:
			income[b.ProjectID] = b.Total
		case models.CashFlowTypeExpense:
			expenses[b.ProjectID] = b.Total
		}
	}

	for _, p := range projects {
		in, out := income[p.ID], expenses[p.ID]
		summary.TotalIncome += in
		summary.TotalExpenses += out

		// Projects with no activity in the month stay out of the returned
		// list but still count toward the overall totals.
		if in == 0 && out == 0 {
			continue
		}
		summary.Projects = append(summary.Projects, ProjectMonthlySummary{
			ProjectID:   p.ID,
			ProjectName: p.Name,
			Income:      in,
			Expenses:    out,
			Net:         in - out,
		})
	}
	summary.TotalNet = summary.TotalIncome - summary.TotalExpenses

	months, err := s.availableMonths(projectIDs)
	if err != nil {
		return nil, err
	}
	summary.AvailableMonths = months

	return summary, nil
}

// availableMonths returns the distinct YYYY-MM values across all entries of
// the given projects, most recent first. Bucketing happens in Go so the same
// code runs on postgres and the sqlite test store.
func (s *summaryService) availableMonths(projectIDs []uint) ([]string, error) {
	var dates []time.Time
	if err := s.db.Model(&models.CashFlowEntry{}).
		Where("project_id IN ?", projectIDs).
		Pluck("entry_date", &dates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	seen := make(map[string]struct{})
	months := make([]string, 0)
	for _, d := range dates {
		m := d.Format("2006-01")
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		months = append(months, m)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))

	return months, nil
}
