package service

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"gitlab.com/contactbook/contacts-api/internal/auth"
)

// testTokens signs the tokens used during tests. Each test suite run works
// with its own secret, which never leaves the process.
var testTokens = auth.NewTokenManager("unit-test-secret", time.Hour, 24*time.Hour)

// userColumns are the columns of the users table in database order.
var userColumns = []string{"id", "email", "password", "created_at", "refresh_token"}

// contactColumns are the columns of the contacts table in database order.
var contactColumns = []string{"id", "firstname", "lastname", "email", "phone", "birthday", "info", "user_id"}

// createMockObjects builds a mock database handle and a mock object for defining our expected SQL
// calls.
func createMockObjects(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	return db, mock
}

// expectPreparedStatements instructs the mock object to expect that several statements are being
// prepared, in the order in which SetupDatabaseWrapper prepares them.
func expectPreparedStatements(mock sqlmock.Sqlmock) {
	mock.ExpectPrepare("INSERT INTO users")
	mock.ExpectPrepare("SELECT \\* FROM users")
	mock.ExpectPrepare("UPDATE users SET refresh_token")
	mock.ExpectPrepare("UPDATE users SET refresh_token")
	mock.ExpectPrepare("INSERT INTO contacts")
	mock.ExpectPrepare("SELECT \\* FROM contacts WHERE id")
	mock.ExpectPrepare("DELETE FROM contacts")
	mock.ExpectPrepare("SELECT \\* FROM contacts WHERE user_id")
}

// expectOwnerLookup instructs the mock object to expect the user lookup that the authentication
// middleware performs for every request below /contacts.
func expectOwnerLookup(mock sqlmock.Sqlmock, ownerId int64, email string) {
	rows := mock.NewRows(userColumns).
		AddRow(ownerId, email, "digest", time.Now(), nil)
	mock.ExpectQuery("SELECT \\* FROM users").
		WithArgs(email).
		WillReturnRows(rows)
}

// expectContactSelect instructs the mock object to expect that a select statement for a single
// owner-scoped contact will be executed.
func expectContactSelect(mock sqlmock.Sqlmock, id int, ownerId int64, firstname string, lastname string, email string, phone string, birthday time.Time) {
	rows := mock.NewRows(contactColumns).
		AddRow(id, firstname, lastname, email, phone, birthday, nil, ownerId)
	mock.ExpectQuery("SELECT \\* FROM contacts WHERE id").
		WithArgs(strconv.Itoa(id), ownerId).
		WillReturnRows(rows)
}

// accessTokenFor mints a valid access token for the given email address.
func accessTokenFor(t *testing.T, email string) string {
	token, err := testTokens.CreateAccessToken(email)
	if err != nil {
		t.Fatalf("could not create access token: %s", err)
	}
	return token
}

// initializeContactsService sets up the contacts service with the mock database and returns a
// handle to the gin engine against which requests can be executed.
func initializeContactsService(db *sql.DB) *gin.Engine {
	SetupDatabaseWrapper(db)
	gin.SetMode(gin.ReleaseMode)
	return SetupHttpRouter(testTokens)
}

// runTest executes the HTTP request with the specified arguments and returns the response. If
// token is not empty, it is sent as a bearer token in the Authorization header.
func runTest(db *sql.DB, method string, url string, token string, body *strings.Reader) *httptest.ResponseRecorder {
	router := initializeContactsService(db)
	recorder := httptest.NewRecorder()
	if body == nil {
		body = strings.NewReader("")
	}
	request, _ := http.NewRequest(method, url, body)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(recorder, request)
	return recorder
}
