package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/condo-admin/backend/internal/notify"
	"github.com/condo-admin/backend/internal/scope"
	"github.com/condo-admin/backend/internal/storage"
	"github.com/condo-admin/backend/internal/storage/models"
)

var errStoreDown = errors.New("store down")

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func strPtr(s string) *string { return &s }

func rolePtr(r models.AssignedRole) *models.AssignedRole { return &r }

type sequence struct {
	mu sync.Mutex
	n  int
}

func (s *sequence) next(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s%d", prefix, s.n)
}

// fakeUsers is an in-memory UserStore.
type fakeUsers struct {
	seq     sequence
	rows    map[string]models.User
	listErr error
}

func newFakeUsers(users ...models.User) *fakeUsers {
	f := &fakeUsers{rows: map[string]models.User{}}
	for _, u := range users {
		f.rows[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	for _, existing := range f.rows {
		if existing.Email == u.Email || existing.Cedula == u.Cedula {
			return storage.ErrDuplicate
		}
	}
	u.ID = f.seq.next("user-")
	f.rows[u.ID] = *u
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.rows {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) GetByCedula(_ context.Context, cedula string) (*models.User, error) {
	for _, u := range f.rows {
		if u.Cedula == cedula {
			return &u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) List(context.Context) ([]models.User, error) {
	users := make([]models.User, 0, len(f.rows))
	for _, u := range f.rows {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (f *fakeUsers) ListRecipients(ctx context.Context, statuses []models.UserStatus, roles []models.Role) ([]models.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	all, _ := f.List(ctx)
	var out []models.User
	for _, u := range all {
		if containsValue(statuses, u.Status) && containsValue(roles, u.Role) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUsers) Update(_ context.Context, u *models.User) error {
	if _, ok := f.rows[u.ID]; !ok {
		return storage.ErrNotFound
	}
	f.rows[u.ID] = *u
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id, hash string) error {
	u, ok := f.rows[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.PasswordHash = hash
	f.rows[id] = u
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	if _, ok := f.rows[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func containsValue[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// fakeApartments is an in-memory ApartmentStore and scope.ApartmentLookup.
type fakeApartments struct {
	seq  sequence
	rows map[string]models.Apartment
}

func newFakeApartments(apartments ...models.Apartment) *fakeApartments {
	f := &fakeApartments{rows: map[string]models.Apartment{}}
	for _, a := range apartments {
		f.rows[a.ID] = a
	}
	return f
}

func (f *fakeApartments) Create(_ context.Context, a *models.Apartment) error {
	for _, existing := range f.rows {
		if existing.Tower == a.Tower && existing.Number == a.Number {
			return storage.ErrDuplicate
		}
	}
	a.ID = f.seq.next("apt-")
	f.rows[a.ID] = *a
	return nil
}

func (f *fakeApartments) GetByID(_ context.Context, id string) (*models.Apartment, error) {
	a, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (f *fakeApartments) ListScoped(_ context.Context, filter scope.Filter) ([]models.Apartment, error) {
	out := []models.Apartment{}
	for _, a := range f.rows {
		a := a
		if filter.Match(apartmentColumns(&a)) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeApartments) Update(_ context.Context, a *models.Apartment) error {
	if _, ok := f.rows[a.ID]; !ok {
		return storage.ErrNotFound
	}
	f.rows[a.ID] = *a
	return nil
}

func (f *fakeApartments) Delete(_ context.Context, id string) error {
	if _, ok := f.rows[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeApartments) IDsAssignedTo(_ context.Context, userID string, role models.AssignedRole) ([]string, error) {
	var ids []string
	for _, a := range f.rows {
		if a.AssignedUserID != nil && *a.AssignedUserID == userID && a.AssignedRole != nil && *a.AssignedRole == role {
			ids = append(ids, a.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// failingLookup is an apartment lookup whose backing store is unreachable.
type failingLookup struct{}

func (failingLookup) IDsAssignedTo(context.Context, string, models.AssignedRole) ([]string, error) {
	return nil, errStoreDown
}

// fakeGuests is an in-memory GuestStore.
type fakeGuests struct {
	seq     sequence
	rows    map[string]models.AirbnbGuest
	updates int
}

func newFakeGuests(guests ...models.AirbnbGuest) *fakeGuests {
	f := &fakeGuests{rows: map[string]models.AirbnbGuest{}}
	for _, g := range guests {
		f.rows[g.ID] = g
	}
	return f
}

func (f *fakeGuests) Create(_ context.Context, g *models.AirbnbGuest) error {
	g.ID = f.seq.next("guest-")
	f.rows[g.ID] = *g
	return nil
}

func (f *fakeGuests) GetByID(_ context.Context, id string) (*models.AirbnbGuest, error) {
	g, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (f *fakeGuests) ListScoped(_ context.Context, filter scope.Filter) ([]models.AirbnbGuest, error) {
	out := []models.AirbnbGuest{}
	for _, g := range f.rows {
		g := g
		if filter.Match(guestColumns(&g)) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeGuests) ListActive(_ context.Context, now time.Time) ([]models.AirbnbGuest, error) {
	var out []models.AirbnbGuest
	for _, g := range f.rows {
		if g.IsActive(now) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGuests) UpdateStatus(_ context.Context, g *models.AirbnbGuest) error {
	if _, ok := f.rows[g.ID]; !ok {
		return storage.ErrNotFound
	}
	f.updates++
	f.rows[g.ID] = *g
	return nil
}

func (f *fakeGuests) Delete(_ context.Context, id string) error {
	if _, ok := f.rows[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

// fakeMaintenance is an in-memory MaintenanceStore.
type fakeMaintenance struct {
	seq  sequence
	rows map[string]models.Maintenance
}

func newFakeMaintenance() *fakeMaintenance {
	return &fakeMaintenance{rows: map[string]models.Maintenance{}}
}

func (f *fakeMaintenance) Create(_ context.Context, m *models.Maintenance) error {
	m.ID = f.seq.next("job-")
	f.rows[m.ID] = *m
	return nil
}

func (f *fakeMaintenance) GetByID(_ context.Context, id string) (*models.Maintenance, error) {
	m, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (f *fakeMaintenance) List(context.Context) ([]models.Maintenance, error) {
	out := []models.Maintenance{}
	for _, m := range f.rows {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeMaintenance) Update(_ context.Context, m *models.Maintenance) error {
	if _, ok := f.rows[m.ID]; !ok {
		return storage.ErrNotFound
	}
	f.rows[m.ID] = *m
	return nil
}

func (f *fakeMaintenance) Delete(_ context.Context, id string) error {
	if _, ok := f.rows[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

// fakeReports is an in-memory DamageReportStore.
type fakeReports struct {
	seq       sequence
	rows      map[string]models.DamageReport
	updateErr error
}

func newFakeReports(reports ...models.DamageReport) *fakeReports {
	f := &fakeReports{rows: map[string]models.DamageReport{}}
	for _, d := range reports {
		f.rows[d.ID] = d
	}
	return f
}

func (f *fakeReports) Create(_ context.Context, d *models.DamageReport) error {
	d.ID = f.seq.next("report-")
	f.rows[d.ID] = *d
	return nil
}

func (f *fakeReports) GetByID(_ context.Context, id string) (*models.DamageReport, error) {
	d, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	d.Images = append([]string(nil), d.Images...)
	return &d, nil
}

func (f *fakeReports) sorted() []models.DamageReport {
	out := []models.DamageReport{}
	for _, d := range f.rows {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeReports) ListPage(_ context.Context, limit, offset int) ([]models.DamageReport, int, error) {
	all := f.sorted()
	if offset >= len(all) {
		return []models.DamageReport{}, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (f *fakeReports) ListScoped(_ context.Context, filter scope.Filter) ([]models.DamageReport, error) {
	out := []models.DamageReport{}
	for _, d := range f.sorted() {
		d := d
		if filter.Match(reportColumns(&d)) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeReports) Update(_ context.Context, d *models.DamageReport) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.rows[d.ID]; !ok {
		return storage.ErrNotFound
	}
	f.rows[d.ID] = *d
	return nil
}

func (f *fakeReports) Delete(_ context.Context, id string) error {
	if _, ok := f.rows[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

// fakePayments is an in-memory PaymentStore that joins against users and apartments.
type fakePayments struct {
	seq        sequence
	rows       map[string]models.Payment
	users      *fakeUsers
	apartments *fakeApartments
}

func newFakePayments(users *fakeUsers, apartments *fakeApartments, payments ...models.Payment) *fakePayments {
	f := &fakePayments{rows: map[string]models.Payment{}, users: users, apartments: apartments}
	for _, p := range payments {
		f.rows[p.ID] = p
	}
	return f
}

func (f *fakePayments) Create(_ context.Context, p *models.Payment) error {
	p.ID = f.seq.next("pay-")
	p.UpdatedAt = testNow
	f.rows[p.ID] = *p
	return nil
}

func (f *fakePayments) GetByID(_ context.Context, id string) (*models.Payment, error) {
	p, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakePayments) detail(p models.Payment) models.PaymentDetail {
	d := models.PaymentDetail{Payment: p}
	if u, ok := f.users.rows[p.UserID]; ok {
		d.UserName = u.Name
		d.UserEmail = u.Email
	}
	if p.ApartmentID != nil {
		if a, ok := f.apartments.rows[*p.ApartmentID]; ok {
			d.ApartmentNumber = strPtr(a.Number)
			d.ApartmentTower = strPtr(a.Tower)
		}
	}
	return d
}

func (f *fakePayments) GetDetailed(_ context.Context, id string) (*models.PaymentDetail, error) {
	p, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	d := f.detail(p)
	return &d, nil
}

func (f *fakePayments) ListScoped(_ context.Context, filter scope.Filter) ([]models.PaymentDetail, error) {
	out := []models.PaymentDetail{}
	for _, p := range f.rows {
		p := p
		if filter.Match(paymentColumns(&p)) {
			out = append(out, f.detail(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakePayments) Update(_ context.Context, p *models.Payment) error {
	if _, ok := f.rows[p.ID]; !ok {
		return storage.ErrNotFound
	}
	f.rows[p.ID] = *p
	return nil
}

func (f *fakePayments) Delete(_ context.Context, id string) error {
	if _, ok := f.rows[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

// fakeNotifications is an in-memory NotificationStore and notify.Store.
type fakeNotifications struct {
	mu      sync.Mutex
	seq     sequence
	rows    []*models.Notification
	failFor map[string]bool
}

func newFakeNotifications() *fakeNotifications {
	return &fakeNotifications{failFor: map[string]bool{}}
}

func (f *fakeNotifications) Create(_ context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n.UserID != nil && f.failFor[*n.UserID] {
		return errStoreDown
	}
	n.ID = f.seq.next("note-")
	n.CreatedAt = testNow
	row := *n
	f.rows = append(f.rows, &row)
	return nil
}

func (f *fakeNotifications) find(id string) *models.Notification {
	for _, n := range f.rows {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func (f *fakeNotifications) GetByID(_ context.Context, id string) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.find(id)
	if n == nil {
		return nil, nil
	}
	row := *n
	return &row, nil
}

func (f *fakeNotifications) List(context.Context) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Notification{}
	for _, n := range f.rows {
		out = append(out, *n)
	}
	return out, nil
}

func (f *fakeNotifications) ListForUser(_ context.Context, userID string) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Notification{}
	for _, n := range f.rows {
		if n.UserID == nil || *n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (f *fakeNotifications) Update(_ context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := f.find(n.ID)
	if row == nil {
		return storage.ErrNotFound
	}
	*row = *n
	return nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := f.find(id)
	if row == nil {
		return storage.ErrNotFound
	}
	row.Read = true
	return nil
}

func (f *fakeNotifications) MarkAllRead(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, n := range f.rows {
		if n.UserID != nil && *n.UserID == userID && !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

func (f *fakeNotifications) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.rows {
		if n.ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

// sentTo returns the notifications addressed to userID.
func (f *fakeNotifications) sentTo(userID string) []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for _, n := range f.rows {
		if n.UserID != nil && *n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out
}

func (f *fakeNotifications) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

// fakeImages is an in-memory ImageStore.
type fakeImages struct {
	objects map[string][]byte
	putErr  error
}

func newFakeImages() *fakeImages {
	return &fakeImages{objects: map[string][]byte{}}
}

func (f *fakeImages) Put(_ context.Context, key string, r io.Reader, _ string) error {
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeImages) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

// fakeReadPublisher records read events.
type fakeReadPublisher struct {
	events []readEvent
}

type readEvent struct {
	userID string
	ids    []string
}

func (f *fakeReadPublisher) NotificationsRead(userID string, ids []string) {
	f.events = append(f.events, readEvent{userID: userID, ids: ids})
}

func newNotifier(store *fakeNotifications) *notify.Notifier {
	return notify.New(store)
}
