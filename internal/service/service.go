package service

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"gitlab.com/contactbook/contacts-api/internal/auth"
)

// defaultLimit is the page size applied when the 'limit' URL parameter is
// omitted.
const defaultLimit = 100

// db is a handle to the database.
var db *sqlx.DB

// insertUser is a prepared statement for creating a user on the database.
var insertUser *sqlx.NamedStmt

// selectUserWhereEmail is a prepared statement for selecting the user with a
// given email address.
var selectUserWhereEmail *sqlx.Stmt

// updateRefreshToken is a prepared statement for storing a user's refresh
// token unconditionally. It is used on login, where no previous token needs
// to be presented.
var updateRefreshToken *sqlx.Stmt

// rotateRefreshToken is a prepared statement for replacing a user's refresh
// token only if the currently stored token still matches the presented one.
// The condition makes the rotation atomic: of two concurrent refresh calls
// with the same token, only one can win.
var rotateRefreshToken *sqlx.Stmt

// insertContact is a prepared statement for creating a contact on the
// database.
var insertContact *sqlx.NamedStmt

// selectContactWhereId is a prepared statement for selecting a contact with a
// given id, restricted to the contacts of the owning user.
var selectContactWhereId *sqlx.Stmt

// deleteContactWhereId is a prepared statement for deleting a contact with a
// given id, restricted to the contacts of the owning user.
var deleteContactWhereId *sqlx.Stmt

// selectContactsWhereOwner is a prepared statement for selecting all contacts
// of the owning user in insertion order.
var selectContactsWhereOwner *sqlx.Stmt

// CreateDatabase initializes and returns a database connection. The connection parameters are
// taken from the system's environment variables.
func CreateDatabase() *sql.DB {
	dsn := fmt.Sprintf("%s:%s@tcp(%s)/test?parseTime=true",
		os.Getenv("DBUSER"), os.Getenv("DBPWD"), os.Getenv("DBHOST"))
	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatal(err)
	}
	return sqlDB
}

// SetupDatabaseWrapper initializes the sqlx database wrapper with the specified sql database. It
// then prepares all statements. The database argument can be a real database for production use
// or a mock database within unit tests.
func SetupDatabaseWrapper(sqlDB *sql.DB) {
	var err error
	db = sqlx.NewDb(sqlDB, "mysql")

	// Prepared statements offer a significant speed increase if executed many times.
	insertUser, err = db.PrepareNamed(`
		INSERT INTO users (email, password, created_at)
		VALUES (:email, :password, :created_at)
	`)
	if err != nil {
		log.Fatal(err)
	}
	selectUserWhereEmail, err = db.Preparex(`
		SELECT * FROM users WHERE email = ?
	`)
	if err != nil {
		log.Fatal(err)
	}
	updateRefreshToken, err = db.Preparex(`
		UPDATE users SET refresh_token = ? WHERE id = ?
	`)
	if err != nil {
		log.Fatal(err)
	}
	rotateRefreshToken, err = db.Preparex(`
		UPDATE users SET refresh_token = ? WHERE id = ? AND refresh_token = ?
	`)
	if err != nil {
		log.Fatal(err)
	}
	insertContact, err = db.PrepareNamed(`
		INSERT INTO contacts (firstname, lastname, email, phone, birthday, info, user_id)
		VALUES (:firstname, :lastname, :email, :phone, :birthday, :info, :user_id)
	`)
	if err != nil {
		log.Fatal(err)
	}
	selectContactWhereId, err = db.Preparex(`
		SELECT * FROM contacts WHERE id = ? AND user_id = ?
	`)
	if err != nil {
		log.Fatal(err)
	}
	deleteContactWhereId, err = db.Preparex(`
		DELETE FROM contacts WHERE id = ? AND user_id = ?
	`)
	if err != nil {
		log.Fatal(err)
	}
	selectContactsWhereOwner, err = db.Preparex(`
		SELECT * FROM contacts WHERE user_id = ? ORDER BY id
	`)
	if err != nil {
		log.Fatal(err)
	}
}

// SetupHttpRouter initializes the REST API router and registers all endpoints. The signup, login
// and refresh endpoints are public; everything below /contacts requires a valid access token
// issued by the specified token manager.
func SetupHttpRouter(tokens *auth.TokenManager) *gin.Engine {
	var router *gin.Engine
	if strings.EqualFold(os.Getenv("GIN_LOGGING"), "off") {
		fmt.Println("Turning off HTTP request logging.")
		router = gin.New()
	} else {
		router = gin.Default()
	}
	router.GET("/", root)
	router.POST("/auth/signup", signup)
	router.POST("/auth/login", login(tokens))
	router.GET("/auth/refresh_token", refresh(tokens))
	contacts := router.Group("/contacts", requireAuth(tokens))
	contacts.POST("", createContact)
	contacts.GET("", findContacts)
	contacts.GET("/birthdays", upcomingBirthdays)
	contacts.GET("/:id", findContactByID)
	contacts.PUT("/:id", updateContactByID)
	contacts.DELETE("/:id", deleteContactByID)
	return router
}

// root responds with a liveness message. It requires no authentication and is used by
// wait-until-available to detect that the service is up.
func root(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{"message": "contacts API is running"})
}

// parseLimitAndOffset inspects the URL parameters and determines values for limit and offset of
// the result set.
func parseLimitAndOffset(c *gin.Context) (limit string, offset string, success bool) {
	limit = c.Query("limit")
	offset = c.Query("offset")
	if limit != "" {
		limitAsInt, errConv := strconv.Atoi(limit)
		if errConv != nil || limitAsInt < 1 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid limit parameter"})
			return "", "", false
		}
	} else {
		limit = strconv.Itoa(defaultLimit)
	}
	if offset != "" {
		offsetAsInt, errConv := strconv.Atoi(offset)
		if errConv != nil || offsetAsInt < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid offset parameter"})
			return "", "", false
		}
	} else {
		offset = "0"
	}
	return limit, offset, true
}
