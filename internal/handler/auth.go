package handler

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/roadready/internal/config"
	"github.com/iliyamo/roadready/internal/logger"
	"github.com/iliyamo/roadready/internal/model"
	"github.com/iliyamo/roadready/internal/repository"
	"github.com/iliyamo/roadready/internal/utils"
)

// AuthHandler serves signup, login, token rotation and password resets.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Tokens   *repository.TokenRepo
	Resets   *repository.ResetRepo
	Profiles *repository.ProfileRepo
	Log      logger.ILogger
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, r *repository.ResetRepo,
	p *repository.ProfileRepo, log logger.ILogger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Resets: r, Profiles: p, Log: log}
}

type registerReq struct {
	Email     string         `json:"email"`
	Password  string         `json:"password"`
	UserType  model.UserType `json:"user_type"` // driver | mechanic
	FirstName *string        `json:"first_name"`
	LastName  *string        `json:"last_name"`
	Phone     *string        `json:"phone"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type forgotReq struct {
	Email string `json:"email"`
}

type resetReq struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type userPart struct {
	ID       uint64         `json:"id"`
	Email    string         `json:"email"`
	Role     string         `json:"role"`
	UserType model.UserType `json:"user_type"`
}

type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

// issue creates an access/refresh pair and stores the refresh hash.
func (h *AuthHandler) issue(c echo.Context, u userPart) (authResp, error) {
	ctx, cancel := requestContext(c)
	defer cancel()

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		User:    u,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	}, nil
}

// Register creates the user and profile and returns tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email/password required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return badRequest(c, "invalid email")
	}
	if err := utils.CheckPassword(req.Password); err != nil {
		return badRequest(c, err.Error())
	}
	if req.UserType == "" {
		req.UserType = model.UserTypeDriver
	}
	if !req.UserType.Valid() {
		return badRequest(c, "user_type must be driver or mechanic")
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	uid, err := h.Users.CreateWithProfile(ctx, repository.NewUser{
		Email:     req.Email,
		Password:  req.Password,
		UserType:  req.UserType,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	}, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, h.Log, err, "create user failed")
	}

	resp, err := h.issue(c, userPart{ID: uid, Email: req.Email, Role: req.UserType.Role(), UserType: req.UserType})
	if err != nil {
		return fail(c, h.Log, err, "issue tokens failed")
	}
	h.Log.Info("user registered", logger.Uint64("user_id", uid), logger.String("user_type", string(req.UserType)))
	return c.JSON(http.StatusCreated, resp)
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email/password required")
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return fail(c, h.Log, err, "query failed")
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	resp, err := h.issue(c, userPart{ID: u.ID, Email: u.Email, Role: u.Role, UserType: model.UserTypeForRole(u.Role)})
	if err != nil {
		return fail(c, h.Log, err, "issue tokens failed")
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh rotates a refresh token: the old one is revoked and a new pair issued.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return badRequest(c, "refresh_token required")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := requestContext(c)
	defer cancel()
	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return fail(c, h.Log, err, "revoke refresh failed")
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return fail(c, h.Log, err, "load user failed")
	}

	resp, err := h.issue(c, userPart{ID: u.ID, Email: u.Email, Role: u.Role, UserType: model.UserTypeForRole(u.Role)})
	if err != nil {
		return fail(c, h.Log, err, "issue tokens failed")
	}
	return c.JSON(http.StatusOK, resp)
}

// RefreshAccess returns a new access token without rotating the refresh token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return badRequest(c, "refresh_token required")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken)))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	u, err := h.Users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	if err != nil {
		return fail(c, h.Log, err, "load user failed")
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return fail(c, h.Log, err, "issue access failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout revokes one refresh token when given in the body, otherwise every
// refresh token of the bearer.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	refresh := strings.TrimSpace(req.RefreshToken)

	var uid uint64
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if id, _, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
			uid = id
		}
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	switch {
	case refresh != "":
		hash := utils.HashRefreshRaw(refresh)
		if _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return fail(c, h.Log, err, "logout failed")
		}
	case uid != 0:
		if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
			return fail(c, h.Log, err, "logout failed")
		}
	default:
		return badRequest(c, "provide Authorization header or refresh_token")
	}
	return c.NoContent(http.StatusNoContent)
}

// ForgotPassword handles POST /v1/auth/forgot-password.  The answer is the
// same whether or not the email belongs to an account.  Tokens are handed
// to the delivery channel through the log; with ExposeResetToken set the
// token is also returned, for local development.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return badRequest(c, "invalid email")
	}
	accepted := echo.Map{"message": "If the account exists, a reset link has been sent."}

	ctx, cancel := requestContext(c)
	defer cancel()
	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !u.IsActive) {
		return c.JSON(http.StatusAccepted, accepted)
	}
	if err != nil {
		return fail(c, h.Log, err, "load user failed")
	}

	tok, err := utils.NewResetToken(h.Cfg.PasswordResetTTL)
	if err != nil {
		return fail(c, h.Log, err, "issue reset token failed")
	}
	if err := h.Resets.Create(ctx, u.ID, utils.HashRefreshRaw(tok.Raw), tok.Exp); err != nil {
		return fail(c, h.Log, err, "store reset token failed")
	}
	h.Log.Info("password reset issued", logger.Uint64("user_id", u.ID))
	if h.Cfg.ExposeResetToken {
		accepted["reset_token"] = tok.Raw
		accepted["expires"] = tok.Exp
	}
	return c.JSON(http.StatusAccepted, accepted)
}

// ResetPassword handles POST /v1/auth/reset-password.  On success every
// session of the account is signed out.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		return badRequest(c, "token required")
	}
	if err := utils.CheckPassword(req.Password); err != nil {
		return badRequest(c, err.Error())
	}
	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, h.Log, err, "hash password failed")
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	uid, err := h.Resets.Consume(ctx, utils.HashRefreshRaw(req.Token), hash)
	if errors.Is(err, repository.ErrNotFound) {
		return badRequest(c, "invalid or expired token")
	}
	if err != nil {
		return fail(c, h.Log, err, "reset password failed")
	}
	h.Log.Info("password reset", logger.Uint64("user_id", uid))
	return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's account and profile.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return fail(c, h.Log, err, "load user failed")
	}
	p, err := h.Profiles.GetByUser(ctx, uid)
	if err != nil {
		return fail(c, h.Log, err, "load profile failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":    userPart{ID: u.ID, Email: u.Email, Role: u.Role, UserType: p.UserType},
		"profile": p,
	})
}
