package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/condo-admin/backend/internal/scope"
	"github.com/condo-admin/backend/internal/storage/models"
)

type guestFixture struct {
	svc           *GuestService
	guests        *fakeGuests
	apartments    *fakeApartments
	notifications *fakeNotifications
}

func newGuestFixture(guests ...models.AirbnbGuest) guestFixture {
	apartments := newFakeApartments(
		models.Apartment{
			ID: "A1", Tower: "T1", Number: "101",
			AssignedUserID: strPtr("U1"), AssignedRole: rolePtr(models.AssignedOwner),
			Status: models.ApartmentOwnerOccupied,
		},
		models.Apartment{ID: "A2", Tower: "T1", Number: "102", Status: models.ApartmentVacant},
	)
	f := guestFixture{
		guests:        newFakeGuests(guests...),
		apartments:    apartments,
		notifications: newFakeNotifications(),
	}
	f.svc = NewGuestService(f.guests, apartments, scope.NewResolver(apartments), newNotifier(f.notifications))
	f.svc.Now = fixedNow
	return f
}

func validRegistration() RegisterGuestInput {
	return RegisterGuestInput{
		ApartmentID:    strPtr("A1"),
		GuestName:      "Maria Perez",
		GuestCedula:    "V-555",
		NumberOfGuests: 2,
		CheckInDate:    models.DateOf(time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)),
		CheckOutDate:   models.DateOf(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)),
	}
}

func TestRegisterGuestNotifiesAssignedUser(t *testing.T) {
	f := newGuestFixture()

	guest, err := f.svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	assert.Equal(t, models.GuestPending, guest.Status)
	assert.NotEmpty(t, guest.ID)

	sent := f.notifications.sentTo("U1")
	require.Len(t, sent, 1)
	assert.Equal(t, models.NotificationAirbnbRegistration, sent[0].Type)
	assert.Contains(t, sent[0].Message, "Maria Perez")
	assert.Contains(t, sent[0].Message, "T1-101")
	assert.Equal(t, 1, f.notifications.count())
}

func TestRegisterGuestWithoutAssignedUserSendsNothing(t *testing.T) {
	f := newGuestFixture()
	in := validRegistration()
	in.ApartmentID = strPtr("A2")

	_, err := f.svc.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Zero(t, f.notifications.count())
}

func TestRegisterGuestNotificationFailureKeepsGuest(t *testing.T) {
	f := newGuestFixture()
	f.notifications.failFor["U1"] = true

	guest, err := f.svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	assert.Contains(t, f.guests.rows, guest.ID)
}

func TestRegisterGuestValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterGuestInput)
	}{
		{"missing name", func(in *RegisterGuestInput) { in.GuestName = "  " }},
		{"missing cedula", func(in *RegisterGuestInput) { in.GuestCedula = "" }},
		{"no guests", func(in *RegisterGuestInput) { in.NumberOfGuests = 0 }},
		{"missing dates", func(in *RegisterGuestInput) { in.CheckOutDate = models.Date{} }},
		{"unknown apartment", func(in *RegisterGuestInput) { in.ApartmentID = strPtr("nope") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGuestFixture()
			in := validRegistration()
			tt.mutate(&in)

			_, err := f.svc.Register(context.Background(), in)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Empty(t, f.guests.rows)
			assert.Zero(t, f.notifications.count())
		})
	}
}

func TestCheckInMissingGuest(t *testing.T) {
	f := newGuestFixture()

	_, err := f.svc.CheckIn(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, f.notifications.count())
}

func TestCheckInStampsAndNotifies(t *testing.T) {
	f := newGuestFixture(models.AirbnbGuest{ID: "G1", ApartmentID: strPtr("A1"), GuestName: "Ana", Status: models.GuestPending})

	guest, err := f.svc.CheckIn(context.Background(), "G1")
	require.NoError(t, err)

	assert.Equal(t, models.GuestCheckedIn, guest.Status)
	require.NotNil(t, guest.CheckedInAt)
	assert.Equal(t, testNow, *guest.CheckedInAt)
	assert.Equal(t, models.GuestCheckedIn, f.guests.rows["G1"].Status)

	sent := f.notifications.sentTo("U1")
	require.Len(t, sent, 1)
	assert.Equal(t, models.NotificationAirbnbCheckin, sent[0].Type)
}

func TestCheckInTwiceIsRejected(t *testing.T) {
	f := newGuestFixture(models.AirbnbGuest{ID: "G1", ApartmentID: strPtr("A1"), Status: models.GuestCheckedIn})

	_, err := f.svc.CheckIn(context.Background(), "G1")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, f.guests.updates)
	assert.Zero(t, f.notifications.count())
}

func TestCheckOutPendingGuest(t *testing.T) {
	f := newGuestFixture(models.AirbnbGuest{ID: "G1", Status: models.GuestPending})

	guest, err := f.svc.CheckOut(context.Background(), "G1")
	require.NoError(t, err)

	assert.Equal(t, models.GuestCheckedOut, guest.Status)
	assert.Nil(t, guest.CheckedInAt)
	require.NotNil(t, guest.CheckedOutAt)
	assert.Equal(t, testNow, *guest.CheckedOutAt)
}

func TestCheckOutIsTerminal(t *testing.T) {
	f := newGuestFixture(models.AirbnbGuest{ID: "G1", Status: models.GuestCheckedOut})

	_, err := f.svc.CheckOut(context.Background(), "G1")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.CheckIn(context.Background(), "G1")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestActiveGuests(t *testing.T) {
	f := newGuestFixture(
		models.AirbnbGuest{ID: "in", Status: models.GuestCheckedIn,
			CheckInDate: testNow.Add(-24 * time.Hour), CheckOutDate: testNow.Add(24 * time.Hour)},
		models.AirbnbGuest{ID: "overstaying", Status: models.GuestCheckedIn,
			CheckInDate: testNow.Add(-72 * time.Hour), CheckOutDate: testNow.Add(-time.Hour)},
		models.AirbnbGuest{ID: "pending", Status: models.GuestPending,
			CheckInDate: testNow.Add(-24 * time.Hour), CheckOutDate: testNow.Add(24 * time.Hour)},
	)

	active, err := f.svc.ActiveGuests(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "in", active[0].ID)
}

func TestGuestVisibility(t *testing.T) {
	f := newGuestFixture(
		models.AirbnbGuest{ID: "G1", ApartmentID: strPtr("A1"), GuestCedula: "V-1"},
		models.AirbnbGuest{ID: "G2", ApartmentID: strPtr("A2"), GuestCedula: "V-2"},
	)
	ctx := context.Background()

	owner := scope.Principal{ID: "U1", Role: models.RoleOwner}
	list, err := f.svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "G1", list[0].ID)

	_, err = f.svc.Get(ctx, owner, "G2")
	assert.ErrorIs(t, err, ErrNotFound)

	guest := scope.Principal{ID: "U9", Role: models.RoleAirbnbGuest, Cedula: "V-2"}
	got, err := f.svc.Get(ctx, guest, "G2")
	require.NoError(t, err)
	assert.Equal(t, "G2", got.ID)

	list, err = f.svc.List(ctx, scope.Principal{ID: "A", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestListGuestsLookupFailureShowsNothing(t *testing.T) {
	f := newGuestFixture(models.AirbnbGuest{ID: "G1", ApartmentID: strPtr("A1")})
	f.svc.resolver = scope.NewResolver(failingLookup{})

	list, err := f.svc.List(context.Background(), scope.Principal{ID: "U1", Role: models.RoleOwner})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestDeleteGuest(t *testing.T) {
	f := newGuestFixture(models.AirbnbGuest{ID: "G1"})

	require.NoError(t, f.svc.Delete(context.Background(), "G1"))
	assert.Empty(t, f.guests.rows)
	assert.ErrorIs(t, f.svc.Delete(context.Background(), "G1"), ErrNotFound)
}
