package service

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gitlab.com/contactbook/contacts-api/internal/auth"
	"gitlab.com/contactbook/contacts-api/internal/model"
)

// userKey is the context key under which the middleware stores the
// authenticated user.
const userKey = "user"

// invalidCredentialsMessage is returned for an unknown email as well as for a
// wrong password. A caller must not be able to tell which of the two failed.
const invalidCredentialsMessage = "incorrect email or password"

// invalidTokenMessage is returned for every kind of token failure, including
// a reused refresh token.
const invalidTokenMessage = "invalid token"

// signupRequest is the payload of the signup endpoint. Gin's binding
// validation enforces the email format and the password length.
type signupRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=20"`
}

// loginRequest is the payload of the login endpoint.
type loginRequest struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

// signup registers a new user. It responds with the created user (without the
// password digest) and the CREATED status code, or with CONFLICT if the email
// is already registered.
//
// Example REST API call:
//
//	> curl http://localhost:8080/auth/signup --request "POST" --include --header "Content-Type: application/json" --data '{"email": "erika@example.com", "password": "hunter22"}'
func signup(c *gin.Context) {
	var request signupRequest
	if err := c.BindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid signup request"})
		return
	}
	if _, found := findUserByEmail(request.Email); found {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": "email already registered"})
		return
	}
	digest, err := auth.HashPassword(request.Password)
	if err != nil {
		log.Panicln(err)
	}
	createdAt := time.Now().UTC()
	user := model.User{
		Email:     request.Email,
		Password:  digest,
		CreatedAt: &createdAt,
	}
	result, err := insertUser.Exec(&user)
	if err != nil {
		log.Panicln(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		log.Panicln(err)
	}
	user.Id = id
	c.IndentedJSON(http.StatusCreated, user)
}

// login checks the submitted credentials and responds with a freshly minted
// access/refresh token pair. The new refresh token is stored on the user row,
// which invalidates any previously issued refresh token.
//
// Example REST API call:
//
//	> curl http://localhost:8080/auth/login --request "POST" --include --header "Content-Type: application/json" --data '{"email": "erika@example.com", "password": "hunter22"}'
func login(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request loginRequest
		if err := c.BindJSON(&request); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid login request"})
			return
		}
		user, found := findUserByEmail(request.Email)
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": invalidCredentialsMessage})
			return
		}
		if err := auth.CheckPassword(user.Password, request.Password); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": invalidCredentialsMessage})
			return
		}
		pair := mintTokenPair(tokens, user.Email)
		if _, err := updateRefreshToken.Exec(pair.RefreshToken, user.Id); err != nil {
			log.Panicln(err)
		}
		c.IndentedJSON(http.StatusOK, pair)
	}
}

// refresh exchanges a still-valid refresh token for a new token pair. The
// presented token must exactly match the one stored for the user; anything
// else, including a token that was already rotated away, is rejected. The
// rotation itself is a conditional update so that two concurrent calls with
// the same token cannot both succeed.
//
// Example REST API call:
//
//	> curl "http://localhost:8080/auth/refresh_token?refresh_token=eyJhb..."
func refresh(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.Query("refresh_token")
		if presented == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "missing refresh_token parameter"})
			return
		}
		email, err := tokens.Subject(presented)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": invalidTokenMessage})
			return
		}
		user, found := findUserByEmail(email)
		if !found || user.RefreshToken == nil || *user.RefreshToken != presented {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": invalidTokenMessage})
			return
		}
		pair := mintTokenPair(tokens, user.Email)
		result, err := rotateRefreshToken.Exec(pair.RefreshToken, user.Id, presented)
		if err != nil {
			log.Panicln(err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			log.Panicln(err)
		}
		if rowsAffected == 0 {
			// A concurrent refresh call rotated the token first.
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": invalidTokenMessage})
			return
		}
		c.IndentedJSON(http.StatusOK, pair)
	}
}

// requireAuth validates the bearer token of the request and stores the
// authenticated user in the request context. The check is stateless: it never
// consults the stored refresh token.
func requireAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if header == "" || tokenString == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": invalidTokenMessage})
			return
		}
		email, err := tokens.Subject(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": invalidTokenMessage})
			return
		}
		user, found := findUserByEmail(email)
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": invalidTokenMessage})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// currentUser returns the authenticated user stored by requireAuth.
func currentUser(c *gin.Context) model.User {
	return c.MustGet(userKey).(model.User)
}

// findUserByEmail looks up a user by email address. The second return value
// reports whether the user exists.
func findUserByEmail(email string) (model.User, bool) {
	var users []model.User
	if err := selectUserWhereEmail.Select(&users, email); err != nil {
		log.Panicln(err)
	}
	if len(users) == 0 {
		return model.User{}, false
	}
	return users[0], true
}

// mintTokenPair creates a fresh access/refresh token pair for the user with
// the given email address.
func mintTokenPair(tokens *auth.TokenManager, email string) model.TokenPair {
	accessToken, err := tokens.CreateAccessToken(email)
	if err != nil {
		log.Panicln(err)
	}
	refreshToken, err := tokens.CreateRefreshToken(email)
	if err != nil {
		log.Panicln(err)
	}
	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}
}
