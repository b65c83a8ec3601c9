package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/condo-admin/backend/internal/scope"
	"github.com/condo-admin/backend/internal/storage/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = RunMigrations(db)
	require.NoError(t, err)
	return db
}

func mustUser(t *testing.T, repo *UserRepository, email, cedula string, role models.Role, status models.UserStatus) *models.User {
	t.Helper()
	u := &models.User{Name: email, Email: email, Cedula: cedula, Role: role, Status: status, PasswordHash: "x"}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func mustApartment(t *testing.T, repo *ApartmentRepository, tower, number string) *models.Apartment {
	t.Helper()
	a := &models.Apartment{Tower: tower, Number: number, Status: models.ApartmentVacant}
	require.NoError(t, repo.Create(context.Background(), a))
	return a
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	applied, err := RunMigrations(db)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_initial.sql"}, applied)

	applied, err = RunMigrations(db)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestUserRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := mustUser(t, repo, "Ana@Example.com", "V-1", models.RoleOwner, models.UserStatusActive)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ana@example.com", u.Email)

	got, err := repo.GetByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	got, err = repo.GetByCedula(ctx, "V-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	dup := &models.User{Name: "x", Email: "other@example.com", Cedula: "V-1", Role: models.RoleTenant, Status: models.UserStatusActive}
	assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicate)

	require.NoError(t, repo.UpdatePassword(ctx, u.ID, "new-hash"))
	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)

	assert.ErrorIs(t, repo.Delete(ctx, "nope"), ErrNotFound)
	require.NoError(t, repo.Delete(ctx, u.ID))
}

func TestListRecipients(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	mustUser(t, repo, "a@x.com", "1", models.RoleOwner, models.UserStatusActive)
	mustUser(t, repo, "b@x.com", "2", models.RoleTenant, models.UserStatusApproved)
	mustUser(t, repo, "c@x.com", "3", models.RoleTenant, models.UserStatusPending)
	mustUser(t, repo, "d@x.com", "4", models.RoleAdmin, models.UserStatusActive)

	users, err := repo.ListRecipients(ctx,
		[]models.UserStatus{models.UserStatusActive, models.UserStatusApproved},
		[]models.Role{models.RoleOwner, models.RoleTenant})
	require.NoError(t, err)

	var emails []string
	for _, u := range users {
		emails = append(emails, u.Email)
	}
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, emails)

	users, err = repo.ListRecipients(ctx, nil, []models.Role{models.RoleAdmin})
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestApartmentRepositoryScoping(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	repo := NewApartmentRepository(db)
	ctx := context.Background()

	owner := mustUser(t, users, "o@x.com", "1", models.RoleOwner, models.UserStatusActive)
	a1 := mustApartment(t, repo, "T1", "101")
	a2 := mustApartment(t, repo, "T1", "102")
	mustApartment(t, repo, "T2", "201")

	dup := &models.Apartment{Tower: "T1", Number: "101", Status: models.ApartmentVacant}
	assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicate)

	role := models.AssignedOwner
	a1.AssignedUserID = &owner.ID
	a1.AssignedRole = &role
	a1.Status = models.StatusForAssignment(&role)
	require.NoError(t, repo.Update(ctx, a1))

	tenant := models.AssignedTenant
	a2.AssignedUserID = &owner.ID
	a2.AssignedRole = &tenant
	require.NoError(t, repo.Update(ctx, a2))

	ids, err := repo.IDsAssignedTo(ctx, owner.ID, models.AssignedOwner)
	require.NoError(t, err)
	assert.Equal(t, []string{a1.ID}, ids)

	resolver := scope.NewResolver(repo)
	f, err := resolver.Resolve(ctx, scope.Principal{ID: owner.ID, Role: models.RoleOwner}, scope.ResourceApartment)
	require.NoError(t, err)

	list, err := repo.ListScoped(ctx, f)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a1.ID, list[0].ID)
	require.NotNil(t, list[0].AssignedRole)
	assert.Equal(t, models.AssignedOwner, *list[0].AssignedRole)

	all, err := repo.ListScoped(ctx, scope.All())
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := repo.ListScoped(ctx, scope.None())
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestGuestRepositoryStayWindows(t *testing.T) {
	db := newTestDB(t)
	repo := NewGuestRepository(db)
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	create := func(status models.GuestStatus, in, out time.Time) *models.AirbnbGuest {
		g := &models.AirbnbGuest{GuestName: "g", GuestCedula: "V-1", NumberOfGuests: 1,
			CheckInDate: in, CheckOutDate: out, Status: models.GuestPending}
		require.NoError(t, repo.Create(ctx, g))
		if status != models.GuestPending {
			g.Status = status
			require.NoError(t, repo.UpdateStatus(ctx, g))
		}
		return g
	}

	active := create(models.GuestCheckedIn, now.Add(-24*time.Hour), now.Add(24*time.Hour))
	overstay := create(models.GuestCheckedIn, now.Add(-72*time.Hour), now.Add(-time.Hour))
	create(models.GuestPending, now.Add(-24*time.Hour), now.Add(24*time.Hour))
	create(models.GuestCheckedOut, now.Add(-24*time.Hour), now.Add(24*time.Hour))

	list, err := repo.ListActive(ctx, now)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, active.ID, list[0].ID)

	list, err = repo.ListOverstaying(ctx, now)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, overstay.ID, list[0].ID)

	scoped, err := repo.ListScoped(ctx, scope.Where(scope.Eq(scope.ColGuestCedula, "V-1")))
	require.NoError(t, err)
	assert.Len(t, scoped, 4)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, &models.AirbnbGuest{ID: "nope"}), ErrNotFound)
}

func TestPaymentRepository(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	apartments := NewApartmentRepository(db)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	payer := mustUser(t, users, "p@x.com", "1", models.RoleTenant, models.UserStatusActive)
	apt := mustApartment(t, apartments, "T1", "101")
	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	withApt := &models.Payment{UserID: payer.ID, ApartmentID: &apt.ID, Amount: 100, DueDate: due, Status: models.PaymentPending}
	require.NoError(t, repo.Create(ctx, withApt))
	later := &models.Payment{UserID: payer.ID, Amount: 50, DueDate: due.AddDate(0, 1, 0), Status: models.PaymentPending}
	require.NoError(t, repo.Create(ctx, later))

	detail, err := repo.GetDetailed(ctx, withApt.ID)
	require.NoError(t, err)
	assert.Equal(t, "p@x.com", detail.UserEmail)
	require.NotNil(t, detail.ApartmentNumber)
	assert.Equal(t, "101", *detail.ApartmentNumber)

	list, err := repo.ListScoped(ctx, scope.Where(scope.In(scope.ColApartmentID, []string{apt.ID})))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, withApt.ID, list[0].ID)

	list, err = repo.ListScoped(ctx, scope.Where(scope.Eq(scope.ColUserID, payer.ID)))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, later.ID, list[0].ID, "latest due date first")

	pending, err := repo.ListPendingDueBefore(ctx, due.Add(72*time.Hour))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, withApt.ID, pending[0].ID)

	paid := due.Add(-time.Hour)
	withApt.PaidDate = &paid
	withApt.Status = models.PaymentPaid
	require.NoError(t, repo.Update(ctx, withApt))

	got, err := repo.GetByID(ctx, withApt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, got.Status)
	require.NotNil(t, got.PaidDate)
	assert.True(t, paid.Equal(*got.PaidDate))

	negative := &models.Payment{UserID: payer.ID, Amount: -1, DueDate: due, Status: models.PaymentPending}
	assert.Error(t, repo.Create(ctx, negative))
}

func TestNotificationRepository(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	u1 := mustUser(t, users, "1@x.com", "1", models.RoleTenant, models.UserStatusActive)
	u2 := mustUser(t, users, "2@x.com", "2", models.RoleTenant, models.UserStatusActive)

	for _, n := range []*models.Notification{
		{UserID: &u1.ID, Message: "one", Type: models.NotificationGeneral},
		{UserID: &u1.ID, Message: "two", Type: models.NotificationPayment},
		{UserID: &u2.ID, Message: "other", Type: models.NotificationGeneral},
		{Message: "everyone", Type: models.NotificationGeneral},
	} {
		require.NoError(t, repo.Create(ctx, n))
	}

	mine, err := repo.ListForUser(ctx, u1.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	count, err := repo.MarkAllRead(ctx, u1.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = repo.MarkAllRead(ctx, u1.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	for _, n := range all {
		if n.IsBroadcast() {
			assert.False(t, n.Read, "broadcasts are not marked by MarkAllRead")
			require.NoError(t, repo.MarkRead(ctx, n.ID))
		}
	}

	assert.ErrorIs(t, repo.MarkRead(ctx, "nope"), ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "nope"), ErrNotFound)
}

func TestDamageReportRepository(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	apartments := NewApartmentRepository(db)
	repo := NewDamageReportRepository(db)
	ctx := context.Background()

	reporter := mustUser(t, users, "r@x.com", "1", models.RoleTenant, models.UserStatusActive)
	apt := mustApartment(t, apartments, "T1", "101")

	for i := 0; i < 3; i++ {
		d := &models.DamageReport{ApartmentID: apt.ID, ReportedBy: reporter.ID, Title: "leak",
			Priority: models.PriorityLow, Status: models.ReportReported}
		require.NoError(t, repo.Create(ctx, d))
		assert.Equal(t, []string{}, d.Images)
	}

	page, total, err := repo.ListPage(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)

	report := page[0]
	report.Images = []string{"damage-reports/x/1.jpg"}
	report.Status = models.ReportAcknowledged
	require.NoError(t, repo.Update(ctx, &report))

	got, err := repo.GetByID(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"damage-reports/x/1.jpg"}, got.Images)
	assert.Equal(t, models.ReportAcknowledged, got.Status)

	mine, err := repo.ListScoped(ctx, scope.Where(scope.Eq(scope.ColReportedBy, reporter.ID)))
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	require.NoError(t, repo.Delete(ctx, report.ID))
	assert.ErrorIs(t, repo.Delete(ctx, report.ID), ErrNotFound)
}

func TestMaintenanceRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewMaintenanceRepository(db)
	ctx := context.Background()

	scheduled := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	m := &models.Maintenance{Title: "Pool", Area: "Pool", Status: models.MaintenancePending,
		Priority: models.PriorityHigh, ScheduledDate: &scheduled}
	require.NoError(t, repo.Create(ctx, m))

	m.Status = models.MaintenanceCompleted
	done := scheduled.Add(2 * time.Hour)
	m.CompletedDate = &done
	require.NoError(t, repo.Update(ctx, m))

	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceCompleted, got.Status)
	require.NotNil(t, got.CompletedDate)
	assert.True(t, done.Equal(*got.CompletedDate))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, repo.Update(ctx, &models.Maintenance{ID: "nope"}), ErrNotFound)
}

func TestTransactionRollsBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO maintenance (id, title, area, created_at, updated_at)
			VALUES ('m1', 't', 'a', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM maintenance").Scan(&count))
	assert.Zero(t, count)
}
