package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/recordwithme/backend/internal/models"
	"github.com/recordwithme/backend/internal/repositories"
	"gorm.io/gorm"
)

const tokenTTL = 72 * time.Hour

// IDTokenVerifier verifies Firebase ID tokens. *auth.Client satisfies it.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	firebaseAuth   IDTokenVerifier
	jwtSecret      string
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userRepo repositories.UserRepository, firebaseAuth IDTokenVerifier, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		firebaseAuth:   firebaseAuth,
		jwtSecret:      jwtSecret,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/firebase-login", h.FirebaseLogin)
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// FirebaseLogin verifies a Firebase ID token (Google sign-in), records the
// user in the directory and issues a local JWT.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req FirebaseLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, err := h.firebaseAuth.VerifyIDToken(c.Request().Context(), req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	user, err := h.upsertUser(token)
	if err != nil {
		log.WithError(err).WithField("firebase_uid", token.UID).Error("user upsert failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save user")
	}

	localJWT, err := h.generateJWT(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate local JWT")
	}

	return c.JSON(http.StatusOK, echo.Map{"token": localJWT, "user": user})
}

func (h *AuthHandler) upsertUser(token *auth.Token) (*models.User, error) {
	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)
	picture, _ := token.Claims["picture"].(string)

	user, err := h.userRepository.GetUserByFirebaseUID(token.UID)
	if err == gorm.ErrRecordNotFound {
		if name == "" {
			name = fallbackName(email, token.UID)
		}
		user = &models.User{
			FirebaseUID: token.UID,
			Name:        name,
			Email:       email,
			PhotoURL:    picture,
		}
		return user, h.userRepository.CreateUser(user)
	}
	if err != nil {
		return nil, err
	}

	if email != "" {
		user.Email = email
	}
	if name != "" {
		user.Name = name
	}
	if user.Name == "" {
		user.Name = fallbackName(user.Email, token.UID)
	}
	if picture != "" {
		user.PhotoURL = picture
	}
	return user, h.userRepository.UpdateUser(user)
}

// fallbackName picks a display name for accounts whose token carries none:
// the local part of the email, else the UID.
func fallbackName(email, uid string) string {
	if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
		return local
	}
	return uid
}

// generateJWT generates a JWT token for a given user
func (h *AuthHandler) generateJWT(user *models.User) (string, error) {
	now := time.Now()
	claims := &models.JwtCustomClaims{
		UserID:      user.ID,
		FirebaseUID: user.FirebaseUID,
		Name:        user.Name,
		Email:       user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.jwtSecret))
}
