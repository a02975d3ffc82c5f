package service

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gitlab.com/contactbook/contacts-api/internal/model"
)

// birthdayWindowDays is the length of the inclusive lookahead window of the
// birthdays endpoint.
const birthdayWindowDays = 7

// newContactRequest is the payload for creating a contact. Unlike updates,
// creation requires all fields except the free-text info.
type newContactRequest struct {
	FirstName string     `json:"firstname" binding:"required"`
	LastName  string     `json:"lastname"  binding:"required"`
	Email     string     `json:"email"     binding:"required,email"`
	Phone     string     `json:"phone"     binding:"required"`
	Birthday  *time.Time `json:"birthday"  binding:"required"`
	Info      *string    `json:"info"`
}

// createContact inserts the contact specified in the request's JSON into the database, attributed
// to the authenticated user. It responds with the full contact data including the newly assigned
// id.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts --request "POST" --include --header "Authorization: Bearer eyJhb..." --header "Content-Type: application/json" --data '{"firstname": "Hans", "lastname": "Wurst", "email": "hans@example.com", "phone": "0815", "birthday": "1969-03-02T00:00:00Z"}'
func createContact(c *gin.Context) {
	owner := currentUser(c)
	var request newContactRequest
	if err := c.BindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid contact"})
		return
	}
	newContact := model.Contact{
		FirstName: &request.FirstName,
		LastName:  &request.LastName,
		Email:     &request.Email,
		Phone:     &request.Phone,
		Birthday:  request.Birthday,
		Info:      request.Info,
		UserId:    owner.Id,
	}
	result, err := insertContact.Exec(&newContact)
	if err != nil {
		log.Panicln(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		log.Panicln(err)
	}
	newContact.Id = id
	c.IndentedJSON(http.StatusCreated, newContact)
}

// findContacts responds with a list of the authenticated user's contacts as JSON, sorted by id.
//
// The URL parameter 'q' restricts the result to contacts where the given text appears as a
// substring of the first name, the last name or the email address. The match is
// case-insensitive.
//
// The URL parameter 'limit' specifies how many contacts matching the search criteria are
// returned; it defaults to 100. The URL parameter 'offset' specifies how many items from the
// sorted list of results are skipped in the beginning. Together with the 'limit' parameter, one
// can implement search result paging.
//
// REST API calls:
//
//	> curl "http://localhost:8080/contacts" --header "Authorization: Bearer eyJhb..."
//	> curl "http://localhost:8080/contacts?q=ann" --header "Authorization: Bearer eyJhb..."
//	> curl "http://localhost:8080/contacts?limit=20&offset=60" --header "Authorization: Bearer eyJhb..."
func findContacts(c *gin.Context) {
	owner := currentUser(c)
	limit, offset, success := parseLimitAndOffset(c)
	if !success {
		return
	}
	search := c.Query("q")
	var contacts []model.Contact
	var err error
	if search != "" {
		// Substring matching is case-insensitive under MySQL's default collation.
		pattern := "%" + search + "%"
		err = db.Select(&contacts, `
			SELECT *
			FROM contacts
			WHERE user_id = ?
				AND (firstname LIKE ? OR lastname LIKE ? OR email LIKE ?)
			ORDER BY id
			LIMIT ?
			OFFSET ?`, owner.Id, pattern, pattern, pattern, limit, offset)
	} else {
		err = db.Select(&contacts, `
			SELECT *
			FROM contacts
			WHERE user_id = ?
			ORDER BY id
			LIMIT ?
			OFFSET ?`, owner.Id, limit, offset)
	}
	if err != nil {
		log.Panicln(err)
	}
	if contacts == nil {
		contacts = []model.Contact{}
	}
	c.IndentedJSON(http.StatusOK, contacts)
}

// findContactByID locates the contact whose ID value matches the id parameter of the request URL,
// then returns that contact as a response. A contact owned by a different user is reported as
// not found, exactly like a contact that does not exist.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56 --header "Authorization: Bearer eyJhb..."
func findContactByID(c *gin.Context) {
	owner := currentUser(c)
	id := c.Param("id")
	_, errConv := strconv.Atoi(id)
	if errConv != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "invalid id parameter"})
		return
	}

	contact, found := findOwnedContact(id, owner.Id)
	if !found {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// updateContactByID updates the contact whose ID value matches the id parameter of the request
// URL, updates the values specified in the JSON (and only those), and finally responds with the
// new version of the contact. Contacts of other users cannot be updated and are reported as not
// found.
//
// Example REST API calls:
//
//	> curl http://localhost:8080/contacts/56 --request "PUT" --include --header "Authorization: Bearer eyJhb..." --header "Content-Type: application/json" --data '{"phone": "81970"}'
//	> curl http://localhost:8080/contacts/56 --request "PUT" --include --header "Authorization: Bearer eyJhb..." --header "Content-Type: application/json" --data '{"birthday": "1972-06-06T00:00:00Z"}'
func updateContactByID(c *gin.Context) {
	owner := currentUser(c)
	id := c.Param("id")
	_, errConv := strconv.Atoi(id)
	if errConv != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "invalid id parameter"})
		return
	}

	var submitted model.Contact
	if errBind := c.BindJSON(&submitted); errBind != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}

	var args []interface{}
	sql := "UPDATE contacts SET "
	if submitted.FirstName != nil {
		args = append(args, submitted.FirstName)
		sql += "firstname=?, "
	}
	if submitted.LastName != nil {
		args = append(args, submitted.LastName)
		sql += "lastname=?, "
	}
	if submitted.Email != nil {
		args = append(args, submitted.Email)
		sql += "email=?, "
	}
	if submitted.Phone != nil {
		args = append(args, submitted.Phone)
		sql += "phone=?, "
	}
	if submitted.Birthday != nil {
		args = append(args, &submitted.Birthday)
		sql += "birthday=?, "
	}
	if submitted.Info != nil {
		args = append(args, submitted.Info)
		sql += "info=?, "
	}

	// It only makes sense to continue if we have at least one value to update.
	if len(args) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "no values to be updated"})
		return
	}

	sql = sql[:len(sql)-2]
	sql += " WHERE id=? AND user_id=?"
	args = append(args, id, owner.Id)
	result := db.MustExec(sql, args...)
	rowsAffected, errRows := result.RowsAffected()
	if errRows != nil {
		log.Panicln(errRows)
	}
	if rowsAffected == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}

	// In the HTTP response, return the full contact after the update.
	contact, found := findOwnedContact(id, owner.Id)
	if !found {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// deleteContactByID deletes the contact whose ID value matches the id parameter of the request
// URL from the database and responds with the contact's state before the deletion. Contacts of
// other users cannot be deleted and are reported as not found.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/56 --request "DELETE" --header "Authorization: Bearer eyJhb..."
func deleteContactByID(c *gin.Context) {
	owner := currentUser(c)
	id := c.Param("id")
	_, errConv := strconv.Atoi(id)
	if errConv != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "invalid id parameter"})
		return
	}

	contact, found := findOwnedContact(id, owner.Id)
	if !found {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	result, err := deleteContactWhereId.Exec(id, owner.Id)
	if err != nil {
		log.Panicln(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Panicln(err)
	}
	if rowsAffected == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// upcomingBirthdays responds with the authenticated user's contacts whose next birthday
// anniversary falls within the next seven days, today included.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/birthdays --header "Authorization: Bearer eyJhb..."
func upcomingBirthdays(c *gin.Context) {
	owner := currentUser(c)
	var contacts []model.Contact
	if err := selectContactsWhereOwner.Select(&contacts, owner.Id); err != nil {
		log.Panicln(err)
	}
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	windowEnd := today.AddDate(0, 0, birthdayWindowDays)
	upcoming := make([]model.Contact, 0)
	for _, contact := range contacts {
		if contact.Birthday == nil {
			continue
		}
		if !nextAnniversary(*contact.Birthday, today).After(windowEnd) {
			upcoming = append(upcoming, contact)
		}
	}
	c.IndentedJSON(http.StatusOK, upcoming)
}

// nextAnniversary returns the contact's next birthday anniversary on or after today, computed by
// substituting the current year into the stored birthday and rolling over to the next year if
// that date already passed. A birthday on February 29 counts as March 1 in years without a leap
// day.
func nextAnniversary(birthday time.Time, today time.Time) time.Time {
	anniversary := time.Date(today.Year(), birthday.Month(), birthday.Day(), 0, 0, 0, 0, time.UTC)
	if anniversary.Before(today) {
		anniversary = time.Date(today.Year()+1, birthday.Month(), birthday.Day(), 0, 0, 0, 0, time.UTC)
	}
	return anniversary
}

// findOwnedContact looks up a contact by id, restricted to the contacts owned by the given user.
// The second return value reports whether such a contact exists.
func findOwnedContact(id string, ownerId int64) (model.Contact, bool) {
	var contacts []model.Contact
	if err := selectContactWhereId.Select(&contacts, id, ownerId); err != nil {
		log.Panicln(err)
	}
	if len(contacts) == 0 {
		return model.Contact{}, false
	}
	return contacts[0], true
}
