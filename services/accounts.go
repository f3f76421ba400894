package services

import (
	"context"
	"errors"
	"strings"

	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/utils"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// AccountService handles registration, login and profile management.
type AccountService struct {
	users       store.UserStore
	tokens      *utils.TokenIssuer
	mailer      utils.Mailer
	adminEmails map[string]bool
	validate    *utils.Validator
	log         logrus.FieldLogger
	hashCost    int
}

// NewAccountService creates an AccountService. Accounts registered with
// one of adminEmails get the admin role.
func NewAccountService(users store.UserStore, tokens *utils.TokenIssuer, mailer utils.Mailer, adminEmails []string, log logrus.FieldLogger) *AccountService {
	if mailer == nil {
		mailer = utils.NopMailer{}
	}
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		if e = normalizeEmail(e); e != "" {
			admins[e] = true
		}
	}
	return &AccountService{
		users:       users,
		tokens:      tokens,
		mailer:      mailer,
		adminEmails: admins,
		validate:    utils.NewValidator(),
		log:         log,
		hashCost:    bcrypt.DefaultCost,
	}
}

// Register creates an account and returns a bearer token for it.
func (s *AccountService) Register(ctx context.Context, req models.RegisterRequest) (string, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = normalizeEmail(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return "", err
	}

	_, err := s.users.GetByEmail(ctx, req.Email)
	if err == nil {
		return "", userExists()
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", utils.InternalError("lookup user", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return "", utils.InternalError("hash password", err)
	}
	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
		IsAdmin:  s.adminEmails[req.Email],
	}
	err = s.users.Create(ctx, &user)
	if errors.Is(err, store.ErrDuplicateEmail) {
		return "", userExists()
	}
	if err != nil {
		return "", utils.InternalError("create user", err)
	}

	token, err := s.tokens.Issue(user.ID.Hex(), user.IsAdmin)
	if err != nil {
		return "", utils.InternalError("issue token", err)
	}

	go func(email, username string) {
		if err := s.mailer.SendWelcomeEmail(email, username); err != nil {
			s.log.WithError(err).WithField("email", email).Warn("welcome email not sent")
		}
	}(user.Email, user.Username)

	s.log.WithField("user_id", user.ID.Hex()).Info("user registered")
	return token, nil
}

// Login checks credentials and returns a bearer token.
func (s *AccountService) Login(ctx context.Context, req models.LoginRequest) (string, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return "", err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, store.ErrNotFound) {
		return "", invalidCredentials()
	}
	if err != nil {
		return "", utils.InternalError("lookup user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return "", invalidCredentials()
	}

	token, err := s.tokens.Issue(user.ID.Hex(), user.IsAdmin)
	if err != nil {
		return "", utils.InternalError("issue token", err)
	}
	return token, nil
}

// Profile returns the caller's account without its password.
func (s *AccountService) Profile(ctx context.Context, caller models.Caller) (*models.User, error) {
	user, err := s.users.GetByID(ctx, caller.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.NotFoundError("User not found")
	}
	if err != nil {
		return nil, utils.InternalError("get profile", err)
	}
	user.Password = ""
	return user, nil
}

// UpdateProfile applies a partial update to the caller's account. A new
// password is hashed before it is stored.
func (s *AccountService) UpdateProfile(ctx context.Context, caller models.Caller, upd models.ProfileUpdate) (*models.User, error) {
	trimPtr(upd.Username)
	if upd.Email != nil {
		e := normalizeEmail(*upd.Email)
		upd.Email = &e
	}
	if err := s.validate.Struct(upd); err != nil {
		return nil, err
	}

	if upd.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), s.hashCost)
		if err != nil {
			return nil, utils.InternalError("hash password", err)
		}
		h := string(hashed)
		upd.Password = &h
	}

	user, err := s.users.Update(ctx, caller.ID, upd)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, utils.NotFoundError("User not found")
	case errors.Is(err, store.ErrDuplicateEmail):
		return nil, utils.ValidationError("Validation failed", utils.FieldError{Field: "email", Message: "Email already in use"})
	case err != nil:
		return nil, utils.InternalError("update profile", err)
	}
	user.Password = ""
	return user, nil
}

// Authenticate turns a bearer token into a Caller.
func (s *AccountService) Authenticate(token string) (models.Caller, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return models.Caller{}, utils.UnauthorizedError("Invalid token")
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return models.Caller{}, utils.UnauthorizedError("Invalid token")
	}
	return models.Caller{ID: id, IsAdmin: claims.IsAdmin}, nil
}

func userExists() error {
	return utils.ValidationError("User already exists", utils.FieldError{Field: "email", Message: "Email already registered"})
}

func invalidCredentials() error {
	return utils.ValidationError("Invalid credentials")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
