package services

import (
	"testing"
	"time"

	"anggaran/internal/models"
	"anggaran/internal/testutil"
)

func TestSummarizeByMonth(t *testing.T) {
	t.Run("aggregates_per_project_and_overall", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSummaryService(db)
		user := testutil.CreateTestUser(t, db)
		projectA := testutil.CreateTestProject(t, db, user.ID)
		projectB := testutil.CreateTestProject(t, db, user.ID)

		march := time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local)
		testutil.CreateTestEntry(t, db, projectA.ID, models.CashFlowTypeIncome, 5000000, march)
		testutil.CreateTestEntry(t, db, projectA.ID, models.CashFlowTypeExpense, 2000000, march)
		testutil.CreateTestEntry(t, db, projectB.ID, models.CashFlowTypeExpense, 1000000, march)

		summary, err := svc.SummarizeByMonth(user.ID, "2024-03")
		testutil.AssertNoError(t, err)

		if summary.Month != "2024-03" {
			t.Errorf("expected month 2024-03, got %s", summary.Month)
		}
		if len(summary.Projects) != 2 {
			t.Fatalf("expected 2 projects with activity, got %d", len(summary.Projects))
		}
		var a, b *ProjectMonthlySummary
		for i := range summary.Projects {
			switch summary.Projects[i].ProjectID {
			case projectA.ID:
				a = &summary.Projects[i]
			case projectB.ID:
				b = &summary.Projects[i]
			}
		}
		if a == nil || b == nil {
			t.Fatal("expected both projects in the summary")
		}
		if a.Income != 5000000 || a.Expenses != 2000000 || a.Net != 3000000 {
			t.Errorf("project A totals wrong: %+v", a)
		}
		if b.Income != 0 || b.Expenses != 1000000 || b.Net != -1000000 {
			t.Errorf("project B totals wrong: %+v", b)
		}
		if summary.TotalIncome != 5000000 || summary.TotalExpenses != 3000000 || summary.TotalNet != 2000000 {
			t.Errorf("overall totals wrong: income=%d expenses=%d net=%d",
				summary.TotalIncome, summary.TotalExpenses, summary.TotalNet)
		}
	})

	t.Run("month_without_activity_lists_no_projects", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSummaryService(db)
		user := testutil.CreateTestUser(t, db)
		project := testutil.CreateTestProject(t, db, user.ID)

		march := time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local)
		testutil.CreateTestEntry(t, db, project.ID, models.CashFlowTypeIncome, 5000000, march)

		summary, err := svc.SummarizeByMonth(user.ID, "2024-04")
		testutil.AssertNoError(t, err)

		if len(summary.Projects) != 0 {
			t.Errorf("expected no projects for 2024-04, got %d", len(summary.Projects))
		}
		if summary.TotalIncome != 0 || summary.TotalExpenses != 0 {
			t.Errorf("expected zero totals, got income=%d expenses=%d",
				summary.TotalIncome, summary.TotalExpenses)
		}
		// Earlier months are still discoverable.
		if len(summary.AvailableMonths) != 1 || summary.AvailableMonths[0] != "2024-03" {
			t.Errorf("expected available months [2024-03], got %v", summary.AvailableMonths)
		}
	})

	t.Run("available_months_distinct_and_descending", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSummaryService(db)
		user := testutil.CreateTestUser(t, db)
		project := testutil.CreateTestProject(t, db, user.ID)

		for _, d := range []time.Time{
			time.Date(2024, 1, 5, 0, 0, 0, 0, time.Local),
			time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local),
			time.Date(2024, 3, 28, 0, 0, 0, 0, time.Local),
			time.Date(2023, 12, 31, 0, 0, 0, 0, time.Local),
		} {
			testutil.CreateTestEntry(t, db, project.ID, models.CashFlowTypeExpense, 1000, d)
		}

		summary, err := svc.SummarizeByMonth(user.ID, "2024-03")
		testutil.AssertNoError(t, err)

		want := []string{"2024-03", "2024-01", "2023-12"}
		if len(summary.AvailableMonths) != len(want) {
			t.Fatalf("expected %v, got %v", want, summary.AvailableMonths)
		}
		for i, m := range want {
			if summary.AvailableMonths[i] != m {
				t.Errorf("expected month %s at position %d, got %s", m, i, summary.AvailableMonths[i])
			}
		}
	})

	t.Run("archived_projects_excluded", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		projSvc := NewProjectService(db)
		svc := NewSummaryService(db)
		user := testutil.CreateTestUser(t, db)
		active := testutil.CreateTestProject(t, db, user.ID)
		archived := testutil.CreateTestProject(t, db, user.ID)

		march := time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local)
		testutil.CreateTestEntry(t, db, active.ID, models.CashFlowTypeIncome, 1000, march)
		testutil.CreateTestEntry(t, db, archived.ID, models.CashFlowTypeIncome, 5000, march)

		_, err := projSvc.SetArchived(user.ID, archived.ID, true)
		testutil.AssertNoError(t, err)

		summary, err := svc.SummarizeByMonth(user.ID, "2024-03")
		testutil.AssertNoError(t, err)

		if len(summary.Projects) != 1 || summary.Projects[0].ProjectID != active.ID {
			t.Fatalf("expected only the active project, got %+v", summary.Projects)
		}
		if summary.TotalIncome != 1000 {
			t.Errorf("expected archived income excluded, got %d", summary.TotalIncome)
		}
	})

	t.Run("invalid_month_format", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSummaryService(db)
		user := testutil.CreateTestUser(t, db)

		for _, month := range []string{"2024", "2024-3", "03-2024", "2024-13", "garbage"} {
			_, err := svc.SummarizeByMonth(user.ID, month)
			testutil.AssertAppError(t, err, "INVALID_MONTH")
		}
	})

	t.Run("empty_month_defaults_to_current", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSummaryService(db)
		user := testutil.CreateTestUser(t, db)
		project := testutil.CreateTestProject(t, db, user.ID)
		testutil.CreateTestEntry(t, db, project.ID, models.CashFlowTypeIncome, 1234, time.Now())

		summary, err := svc.SummarizeByMonth(user.ID, "")
		testutil.AssertNoError(t, err)

		if summary.Month != time.Now().Format("2006-01") {
			t.Errorf("expected current month, got %s", summary.Month)
		}
		if summary.TotalIncome != 1234 {
			t.Errorf("expected income 1234, got %d", summary.TotalIncome)
		}
	})

	t.Run("no_projects", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSummaryService(db)
		user := testutil.CreateTestUser(t, db)

		summary, err := svc.SummarizeByMonth(user.ID, "2024-03")
		testutil.AssertNoError(t, err)

		if len(summary.Projects) != 0 || len(summary.AvailableMonths) != 0 {
			t.Errorf("expected empty summary, got %+v", summary)
		}
	})
}
