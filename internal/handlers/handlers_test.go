package handlers

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/recordwithme/backend/internal/models"
	"github.com/recordwithme/backend/internal/repositories"
	"github.com/recordwithme/backend/internal/services"
	"github.com/recordwithme/backend/validators"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var alice = &models.JwtCustomClaims{FirebaseUID: "u1", Name: "Alice"}

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = validators.NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user", alice)
	return c, rec
}

func withParam(c echo.Context, id string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

func requireHTTPError(t *testing.T, err error, code int) *echo.HTTPError {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, code, he.Code)
	return he
}

type fakeUsers struct {
	users   map[string]*models.User
	created []*models.User
	updated []*models.User
	err     error
}

func newFakeUsers(uids ...string) *fakeUsers {
	f := &fakeUsers{users: map[string]*models.User{}}
	for i, uid := range uids {
		f.users[uid] = &models.User{ID: uint(i + 1), FirebaseUID: uid, Name: "user " + uid}
	}
	return f
}

func (f *fakeUsers) CreateUser(user *models.User) error {
	if f.err != nil {
		return f.err
	}
	user.ID = uint(len(f.users) + 1)
	f.users[user.FirebaseUID] = user
	f.created = append(f.created, user)
	return nil
}

func (f *fakeUsers) GetUserByFirebaseUID(uid string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[uid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) UpdateUser(user *models.User) error {
	if f.err != nil {
		return f.err
	}
	f.users[user.FirebaseUID] = user
	f.updated = append(f.updated, user)
	return nil
}

func (f *fakeUsers) SearchUsers(query string, limit int) ([]models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.User
	for _, u := range f.users {
		if strings.Contains(strings.ToLower(u.Name), strings.ToLower(query)) && len(out) < limit {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeVerifier struct {
	tokens map[string]*auth.Token
}

func (f *fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if t, ok := f.tokens[idToken]; ok {
		return t, nil
	}
	return nil, errors.New("invalid token")
}

type fakeSocial struct {
	err     error
	actor   services.Actor
	to      string
	groupID string
	name    string
}

func (f *fakeSocial) SendFriendRequest(_ context.Context, actor services.Actor, to string) (*models.Notification, error) {
	f.actor, f.to = actor, to
	if f.err != nil {
		return nil, f.err
	}
	return &models.Notification{ID: "n1", Type: models.NotificationFriendRequest, FromUserID: actor.ID, FromUserName: actor.Name, Timestamp: 1}, nil
}

func (f *fakeSocial) CreateGroup(_ context.Context, actor services.Actor, name string) (*models.Group, error) {
	f.actor, f.name = actor, name
	if f.err != nil {
		return nil, f.err
	}
	return &models.Group{ID: "g1", Name: name, Members: []string{actor.ID}, CreatedBy: actor.ID}, nil
}

func (f *fakeSocial) SendGroupInvite(_ context.Context, actor services.Actor, groupID, to string) (*models.Notification, error) {
	f.actor, f.groupID, f.to = actor, groupID, to
	if f.err != nil {
		return nil, f.err
	}
	return &models.Notification{ID: "n2", Type: models.NotificationGroupInvite, FromUserID: actor.ID, FromUserName: actor.Name, Timestamp: 1, GroupID: groupID}, nil
}

type fakeGroups struct {
	groups map[string]*models.Group
	err    error
}

func (f *fakeGroups) GetGroup(_ context.Context, id string) (*models.Group, error) {
	if f.err != nil {
		return nil, f.err
	}
	g, ok := f.groups[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return g, nil
}

func (f *fakeGroups) ListGroups(_ context.Context, userID string) ([]models.Group, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []models.Group{}
	for _, g := range f.groups {
		if g.HasMember(userID) {
			out = append(out, *g)
		}
	}
	return out, nil
}

type fakePhotos struct {
	photos   []models.Photo
	from, to time.Time
}

func (f *fakePhotos) CreatePhoto(_ context.Context, p *models.Photo) error {
	f.photos = append(f.photos, *p)
	return nil
}

func (f *fakePhotos) GetPhotosByGroupBetween(_ context.Context, groupID string, from, to time.Time) ([]models.Photo, error) {
	f.from, f.to = from, to
	var out []models.Photo
	for _, p := range f.photos {
		if p.GroupID == groupID && !p.TakenAt.Before(from) && p.TakenAt.Before(to) {
			out = append(out, p)
		}
	}
	return out, nil
}
