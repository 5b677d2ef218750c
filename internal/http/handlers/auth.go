package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/triple/internal/credentials"
	"github.com/geocoder89/triple/internal/domain/user"
	"github.com/geocoder89/triple/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type Credentials interface {
	Register(ctx context.Context, email, password, name string) (user.User, error)
	Authenticate(ctx context.Context, email, password string) (user.User, error)
	FindByID(ctx context.Context, id string) (user.User, error)
}

type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

type AuthHandler struct {
	creds  Credentials
	tokens TokenIssuer
	log    *slog.Logger
}

func NewAuthHandler(creds Credentials, tokens TokenIssuer, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		creds:  creds,
		tokens: tokens,
		log:    log,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=6,max=72,bcrypt_len"`
	Name     string `json:"name" binding:"required,notblank,max=100"`
}

type authResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    user.Public `json:"user"`
}

func passwordTooLong() FieldError {
	return FieldError{
		Field:   "password",
		Rule:    "bcrypt_len",
		Message: validationMessage("password", "bcrypt_len", ""),
	}
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// bcrypt dominates this request, so the deadline is generous
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.creds.Register(cctx, req.Email, req.Password, req.Name)

	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondBadRequest(ctx, "Email already exists")
			return
		}

		if errors.Is(err, credentials.ErrPasswordTooLong) {
			RespondValidation(ctx, []FieldError{passwordTooLong()})
			return
		}

		RespondInternal(ctx, h.log, "auth.register", err)
		return
	}

	token, err := h.tokens.Issue(u.ID, u.Email)

	if err != nil {
		RespondInternal(ctx, h.log, "auth.issue_token", err)
		return
	}

	ctx.JSON(http.StatusCreated, authResponse{
		Message: "User registered successfully",
		Token:   token,
		User:    u.Public(),
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.creds.Authenticate(cctx, req.Email, req.Password)

	if err != nil {
		if errors.Is(err, credentials.ErrInvalidCredentials) {
			RespondUnauthorized(ctx, "Invalid email or password")
			return
		}

		RespondInternal(ctx, h.log, "auth.login", err)
		return
	}

	token, err := h.tokens.Issue(u.ID, u.Email)

	if err != nil {
		RespondInternal(ctx, h.log, "auth.issue_token", err)
		return
	}

	ctx.JSON(http.StatusOK, authResponse{
		Message: "Login successful",
		Token:   token,
		User:    u.Public(),
	})
}

// Me re-reads the user on every call; a token can outlive its user.
func (h *AuthHandler) Me(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "Access token required")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.creds.FindByID(cctx, userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, h.log, "auth.me", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}
