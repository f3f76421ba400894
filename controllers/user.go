package controllers

import (
	"context"
	"net/http"
	"time"

	"go-storefront/models"
	"go-storefront/services"
	"go-storefront/utils"

	"github.com/sirupsen/logrus"
)

// UserController handles registration, login and profile requests
type UserController struct {
	Accounts *services.AccountService
	Log      logrus.FieldLogger
	Timeout  time.Duration
}

// NewUserController creates a new UserController
func NewUserController(accounts *services.AccountService, log logrus.FieldLogger, timeout time.Duration) *UserController {
	return &UserController{
		Accounts: accounts,
		Log:      log,
		Timeout:  timeout,
	}
}

// Register handles user registration
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteError(w, uc.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uc.Timeout)
	defer cancel()
	token, err := uc.Accounts.Register(ctx, req)
	if err != nil {
		utils.WriteError(w, uc.Log, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, models.TokenResponse{Token: token})
}

// Login handles user authentication
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteError(w, uc.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uc.Timeout)
	defer cancel()
	token, err := uc.Accounts.Login(ctx, req)
	if err != nil {
		utils.WriteError(w, uc.Log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.TokenResponse{Token: token})
}

// GetProfile retrieves the authenticated user's profile
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request, caller models.Caller) {
	ctx, cancel := context.WithTimeout(r.Context(), uc.Timeout)
	defer cancel()
	user, err := uc.Accounts.Profile(ctx, caller)
	if err != nil {
		utils.WriteError(w, uc.Log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, user)
}

// UpdateProfile applies a partial update to the authenticated user's profile
func (uc *UserController) UpdateProfile(w http.ResponseWriter, r *http.Request, caller models.Caller) {
	var upd models.ProfileUpdate
	if err := decodeJSON(r, &upd); err != nil {
		utils.WriteError(w, uc.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uc.Timeout)
	defer cancel()
	user, err := uc.Accounts.UpdateProfile(ctx, caller, upd)
	if err != nil {
		utils.WriteError(w, uc.Log, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, user)
}
