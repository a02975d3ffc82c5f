package model

import "time"

// User is a registered account. Password holds the bcrypt digest and
// RefreshToken the most recently issued refresh token; neither is ever
// serialized into a response body.
type User struct {
	Id           int64      `json:"id"                   db:"id"`
	Email        string     `json:"email"                db:"email"`
	Password     string     `json:"-"                    db:"password"`
	CreatedAt    *time.Time `json:"created_at,omitempty" db:"created_at"`
	RefreshToken *string    `json:"-"                    db:"refresh_token"`
}

// Contact is the data structure for a person that a user knows. All
// fields with the exception of the Id and UserId fields are optional
// so that partial updates can distinguish "absent" from "empty".
// UserId references the owning user and is never serialized.
type Contact struct {
	Id        int64      `json:"id"                  db:"id"`
	FirstName *string    `json:"firstname,omitempty" db:"firstname"`
	LastName  *string    `json:"lastname,omitempty"  db:"lastname"`
	Email     *string    `json:"email,omitempty"     db:"email"`
	Phone     *string    `json:"phone,omitempty"     db:"phone"`
	Birthday  *time.Time `json:"birthday,omitempty"  db:"birthday"`
	Info      *string    `json:"info,omitempty"      db:"info"`
	UserId    int64      `json:"-"                   db:"user_id"`
}

// TokenPair is the response of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}
