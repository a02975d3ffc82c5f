// Package model contains the payload types of the contacts API as seen by
// out-of-process clients.
package model

import "time"

// Contact is the data structure for a person that a user knows. All fields
// with the exception of the Id field are optional.
type Contact struct {
	Id        int64      `json:"id"`
	FirstName *string    `json:"firstname,omitempty"`
	LastName  *string    `json:"lastname,omitempty"`
	Email     *string    `json:"email,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	Birthday  *time.Time `json:"birthday,omitempty"`
	Info      *string    `json:"info,omitempty"`
}

// TokenPair is returned by the login and refresh endpoints.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}
