package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
	"github.com/recordwithme/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func googleToken(uid string) *auth.Token {
	return &auth.Token{
		UID: uid,
		Claims: map[string]interface{}{
			"email":   uid + "@example.com",
			"name":    "Alice Liddell",
			"picture": "https://example.com/" + uid + ".png",
		},
	}
}

func loginToken(t *testing.T, body []byte) *models.JwtCustomClaims {
	t.Helper()
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))

	claims := &models.JwtCustomClaims{}
	_, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	return claims
}

func TestFirebaseLogin_CreatesUser(t *testing.T) {
	users := newFakeUsers()
	h := NewAuthHandler(users, &fakeVerifier{tokens: map[string]*auth.Token{"good": googleToken("u1")}}, testSecret)
	c, rec := newContext(http.MethodPost, "/api/v1/auth/firebase-login", `{"idToken":"good"}`)

	require.NoError(t, h.FirebaseLogin(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, users.created, 1)
	assert.Equal(t, "u1@example.com", users.created[0].Email)
	assert.Equal(t, "https://example.com/u1.png", users.created[0].PhotoURL)

	claims := loginToken(t, rec.Body.Bytes())
	assert.Equal(t, "u1", claims.FirebaseUID)
	assert.Equal(t, "Alice Liddell", claims.Name)
	assert.NotNil(t, claims.ExpiresAt)
}

func TestFirebaseLogin_UpdatesExistingUser(t *testing.T) {
	users := newFakeUsers("u1")
	h := NewAuthHandler(users, &fakeVerifier{tokens: map[string]*auth.Token{"good": googleToken("u1")}}, testSecret)
	c, rec := newContext(http.MethodPost, "/api/v1/auth/firebase-login", `{"idToken":"good"}`)

	require.NoError(t, h.FirebaseLogin(c))
	assert.Empty(t, users.created)
	require.Len(t, users.updated, 1)
	assert.Equal(t, "Alice Liddell", users.updated[0].Name)
	assert.Equal(t, uint(1), loginToken(t, rec.Body.Bytes()).UserID)
}

func TestFirebaseLogin_Rejects(t *testing.T) {
	h := NewAuthHandler(newFakeUsers(), &fakeVerifier{}, testSecret)

	c, _ := newContext(http.MethodPost, "/api/v1/auth/firebase-login", `{}`)
	requireHTTPError(t, h.FirebaseLogin(c), http.StatusBadRequest)

	c, _ = newContext(http.MethodPost, "/api/v1/auth/firebase-login", `{"idToken":"forged"}`)
	requireHTTPError(t, h.FirebaseLogin(c), http.StatusUnauthorized)
}

func TestFirebaseLogin_DirectoryFailure(t *testing.T) {
	users := newFakeUsers()
	users.err = errors.New("connection refused")
	h := NewAuthHandler(users, &fakeVerifier{tokens: map[string]*auth.Token{"good": googleToken("u1")}}, testSecret)
	c, _ := newContext(http.MethodPost, "/api/v1/auth/firebase-login", `{"idToken":"good"}`)

	requireHTTPError(t, h.FirebaseLogin(c), http.StatusInternalServerError)
}

func TestFirebaseLogin_FallsBackWhenTokenHasNoName(t *testing.T) {
	cases := map[string]struct {
		claims map[string]interface{}
		want   string
	}{
		"email local part": {claims: map[string]interface{}{"email": "carol@example.com"}, want: "carol"},
		"uid":              {claims: map[string]interface{}{}, want: "u7"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			users := newFakeUsers()
			token := &auth.Token{UID: "u7", Claims: tc.claims}
			h := NewAuthHandler(users, &fakeVerifier{tokens: map[string]*auth.Token{"good": token}}, testSecret)
			c, rec := newContext(http.MethodPost, "/api/v1/auth/firebase-login", `{"idToken":"good"}`)

			require.NoError(t, h.FirebaseLogin(c))
			require.Len(t, users.created, 1)
			assert.Equal(t, tc.want, users.created[0].Name)
			assert.Equal(t, tc.want, loginToken(t, rec.Body.Bytes()).Name)
		})
	}
}

func TestFirebaseLogin_RepairsStoredEmptyName(t *testing.T) {
	users := newFakeUsers("u1")
	users.users["u1"].Name = ""
	token := &auth.Token{UID: "u1", Claims: map[string]interface{}{"email": "alice@example.com"}}
	h := NewAuthHandler(users, &fakeVerifier{tokens: map[string]*auth.Token{"good": token}}, testSecret)
	c, rec := newContext(http.MethodPost, "/api/v1/auth/firebase-login", `{"idToken":"good"}`)

	require.NoError(t, h.FirebaseLogin(c))
	assert.Equal(t, "alice", loginToken(t, rec.Body.Bytes()).Name)
}
