package service

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gitlab.com/contactbook/contacts-api/internal/model"
)

// TestNextAnniversary checks the anniversary computation against fixed dates, including the
// year rollover at the end of December and birthdays on a leap day.
func TestNextAnniversary(t *testing.T) {
	tests := []struct {
		name     string
		birthday time.Time
		today    time.Time
		expected time.Time
	}{
		{
			name:     "later this year",
			birthday: time.Date(1990, time.September, 4, 0, 0, 0, 0, time.UTC),
			today:    time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC),
			expected: time.Date(2026, time.September, 4, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "exactly today",
			birthday: time.Date(1985, time.September, 1, 0, 0, 0, 0, time.UTC),
			today:    time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC),
			expected: time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "already passed this year",
			birthday: time.Date(1990, time.August, 31, 0, 0, 0, 0, time.UTC),
			today:    time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC),
			expected: time.Date(2027, time.August, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "year rollover in late December",
			birthday: time.Date(1990, time.December, 31, 0, 0, 0, 0, time.UTC),
			today:    time.Date(2026, time.December, 28, 0, 0, 0, 0, time.UTC),
			expected: time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "early January after rollover",
			birthday: time.Date(1990, time.December, 31, 0, 0, 0, 0, time.UTC),
			today:    time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC),
			expected: time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "leap day in a non-leap year counts as March 1",
			birthday: time.Date(2000, time.February, 29, 0, 0, 0, 0, time.UTC),
			today:    time.Date(2025, time.February, 25, 0, 0, 0, 0, time.UTC),
			expected: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "leap day in a leap year stays February 29",
			birthday: time.Date(2000, time.February, 29, 0, 0, 0, 0, time.UTC),
			today:    time.Date(2024, time.February, 25, 0, 0, 0, 0, time.UTC),
			expected: time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, test := range tests {
		actual := nextAnniversary(test.birthday, test.today)
		assert.Equal(t, test.expected, actual, test.name)
	}
}

// TestUpcomingBirthdays executes a GET request against the birthdays endpoint. It expects that
// contacts whose next anniversary lies within the next seven days are included and all others
// are excluded. The birthdays of the mock contacts are derived from the current date; the year
// is shifted back by 28 so that month and day line up with the current calendar.
func TestUpcomingBirthdays(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	now := time.Now().UTC()
	inThreeDays := now.AddDate(0, 0, 3).AddDate(-28, 0, 0)
	today := now.AddDate(-28, 0, 0)
	tenDaysAgo := now.AddDate(0, 0, -10).AddDate(-28, 0, 0)
	inTenDays := now.AddDate(0, 0, 10).AddDate(-28, 0, 0)

	// Define expectations on SQL statements
	expectPreparedStatements(mock)
	expectOwnerLookup(mock, 7, "erika@example.com")
	rows := mock.NewRows(contactColumns).
		AddRow(1, "Anna", "Smith", "anna.smith@example.com", "+420 111", inThreeDays, nil, 7).
		AddRow(2, "Bob", "Jones", "bob.jones@example.com", "+420 222", today, nil, 7).
		AddRow(3, "Carla", "Meier", "carla.meier@example.com", "+420 333", tenDaysAgo, nil, 7).
		AddRow(4, "David", "Kraus", "david.kraus@example.com", "+420 444", inTenDays, nil, 7).
		AddRow(5, "Edda", "Lang", "edda.lang@example.com", "+420 555", nil, nil, 7)
	mock.ExpectQuery("SELECT \\* FROM contacts WHERE user_id").
		WithArgs(int64(7)).
		WillReturnRows(rows)

	// Run test and compare results
	recorder := runTest(db, "GET", "/contacts/birthdays", accessTokenFor(t, "erika@example.com"), nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	var contacts []model.Contact
	json.Unmarshal(recorder.Body.Bytes(), &contacts)
	assert.Equal(t, 2, len(contacts))
	assert.Equal(t, int64(1), contacts[0].Id)
	assert.Equal(t, int64(2), contacts[1].Id)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestUpcomingBirthdaysEmpty executes a GET request against the birthdays endpoint for a user
// whose contacts all have distant birthdays. It expects the OK status code and an empty list.
func TestUpcomingBirthdaysEmpty(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	now := time.Now().UTC()
	farAway := now.AddDate(0, 0, 100).AddDate(-28, 0, 0)

	// Define expectations on SQL statements
	expectPreparedStatements(mock)
	expectOwnerLookup(mock, 7, "erika@example.com")
	rows := mock.NewRows(contactColumns).
		AddRow(1, "Anna", "Smith", "anna.smith@example.com", "+420 111", farAway, nil, 7)
	mock.ExpectQuery("SELECT \\* FROM contacts WHERE user_id").
		WithArgs(int64(7)).
		WillReturnRows(rows)

	// Run test and compare results
	recorder := runTest(db, "GET", "/contacts/birthdays", accessTokenFor(t, "erika@example.com"), nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	var contacts []model.Contact
	json.Unmarshal(recorder.Body.Bytes(), &contacts)
	assert.Equal(t, 0, len(contacts))
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}
