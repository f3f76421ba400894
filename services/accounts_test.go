package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *recordingMailer) SendWelcomeEmail(toEmail, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, toEmail)
	return m.err
}

func (m *recordingMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

type accountFixture struct {
	svc    *AccountService
	users  *store.MemoryUserStore
	tokens *utils.TokenIssuer
	mailer *recordingMailer
}

func newAccountFixture(admins ...string) *accountFixture {
	f := &accountFixture{
		users:  store.NewMemoryUserStore(),
		tokens: utils.NewTokenIssuer("test-secret", time.Hour),
		mailer: &recordingMailer{},
	}
	f.svc = NewAccountService(f.users, f.tokens, f.mailer, admins, utils.DiscardLogger())
	f.svc.hashCost = bcrypt.MinCost
	return f
}

func (f *accountFixture) register(t *testing.T, username, email, password string) models.Caller {
	t.Helper()
	token, err := f.svc.Register(context.Background(), models.RegisterRequest{Username: username, Email: email, Password: password})
	require.NoError(t, err)
	caller, err := f.svc.Authenticate(token)
	require.NoError(t, err)
	return caller
}

func TestRegister(t *testing.T) {
	f := newAccountFixture("Boss@Shop.test")
	ctx := context.Background()

	caller := f.register(t, "alice", "  Alice@Shop.test ", "secret1")
	assert.False(t, caller.IsAdmin)

	user, err := f.users.GetByID(ctx, caller.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@shop.test", user.Email)
	assert.NotEqual(t, "secret1", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret1")))

	boss := f.register(t, "boss", "boss@shop.test", "secret1")
	assert.True(t, boss.IsAdmin)

	assert.Eventually(t, func() bool { return len(f.mailer.recipients()) == 2 }, time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{"alice@shop.test", "boss@shop.test"}, f.mailer.recipients())
}

func TestRegisterRejects(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()
	f.register(t, "alice", "alice@shop.test", "secret1")

	_, err := f.svc.Register(ctx, models.RegisterRequest{Username: "other", Email: "ALICE@shop.test", Password: "secret2"})
	require.True(t, utils.IsKind(err, utils.KindValidation))
	assert.Contains(t, err.Error(), "User already exists")

	tests := []struct {
		name  string
		req   models.RegisterRequest
		field string
	}{
		{"missing username", models.RegisterRequest{Email: "bob@shop.test", Password: "secret1"}, "username"},
		{"bad email", models.RegisterRequest{Username: "bob", Email: "bob", Password: "secret1"}, "email"},
		{"short password", models.RegisterRequest{Username: "bob", Email: "bob@shop.test", Password: "123"}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(ctx, tt.req)
			var appErr *utils.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, utils.KindValidation, appErr.Kind)
			require.Len(t, appErr.Fields, 1)
			assert.Equal(t, tt.field, appErr.Fields[0].Field)
		})
	}
}

func TestRegisterMailFailureDoesNotFail(t *testing.T) {
	f := newAccountFixture()
	f.mailer.err = errors.New("postmark down")
	f.register(t, "alice", "alice@shop.test", "secret1")
	assert.Eventually(t, func() bool { return len(f.mailer.recipients()) == 1 }, time.Second, 10*time.Millisecond)
}

func TestLogin(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()
	alice := f.register(t, "alice", "alice@shop.test", "secret1")

	token, err := f.svc.Login(ctx, models.LoginRequest{Email: "ALICE@shop.test", Password: "secret1"})
	require.NoError(t, err)
	caller, err := f.svc.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, caller.ID)

	for _, req := range []models.LoginRequest{
		{Email: "alice@shop.test", Password: "wrong-password"},
		{Email: "nobody@shop.test", Password: "secret1"},
	} {
		_, err := f.svc.Login(ctx, req)
		var appErr *utils.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, utils.KindValidation, appErr.Kind)
		assert.Equal(t, "Invalid credentials", appErr.Message)
	}

	_, err = f.svc.Login(ctx, models.LoginRequest{Email: "alice@shop.test"})
	assert.True(t, utils.IsKind(err, utils.KindValidation))
}

func TestProfile(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()
	alice := f.register(t, "alice", "alice@shop.test", "secret1")

	user, err := f.svc.Profile(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.Password)

	_, err = f.svc.Profile(ctx, models.Caller{ID: primitive.NewObjectID()})
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}

func TestUpdateProfile(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()
	alice := f.register(t, "alice", "alice@shop.test", "secret1")
	f.register(t, "bob", "bob@shop.test", "secret1")

	name, password := " alicia ", "newsecret"
	user, err := f.svc.UpdateProfile(ctx, alice, models.ProfileUpdate{Username: &name, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, "alicia", user.Username)
	assert.Equal(t, "alice@shop.test", user.Email)
	assert.Empty(t, user.Password)

	_, err = f.svc.Login(ctx, models.LoginRequest{Email: "alice@shop.test", Password: "secret1"})
	assert.True(t, utils.IsKind(err, utils.KindValidation))
	_, err = f.svc.Login(ctx, models.LoginRequest{Email: "alice@shop.test", Password: "newsecret"})
	assert.NoError(t, err)

	taken := "BOB@shop.test"
	_, err = f.svc.UpdateProfile(ctx, alice, models.ProfileUpdate{Email: &taken})
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, utils.KindValidation, appErr.Kind)
	assert.Equal(t, "email", appErr.Fields[0].Field)

	for _, upd := range []models.ProfileUpdate{
		{Username: strPtr("  ")},
		{Email: strPtr("not-an-email")},
		{Password: strPtr("123")},
	} {
		_, err := f.svc.UpdateProfile(ctx, alice, upd)
		assert.True(t, utils.IsKind(err, utils.KindValidation))
	}
}

func TestAuthenticate(t *testing.T) {
	f := newAccountFixture()

	_, err := f.svc.Authenticate("garbage")
	assert.True(t, utils.IsKind(err, utils.KindUnauthorized))

	other := utils.NewTokenIssuer("other-secret", time.Hour)
	forged, err := other.Issue(primitive.NewObjectID().Hex(), true)
	require.NoError(t, err)
	_, err = f.svc.Authenticate(forged)
	assert.True(t, utils.IsKind(err, utils.KindUnauthorized))

	badID, err := f.tokens.Issue("not-hex", false)
	require.NoError(t, err)
	_, err = f.svc.Authenticate(badID)
	assert.True(t, utils.IsKind(err, utils.KindUnauthorized))
}

func strPtr(s string) *string { return &s }
