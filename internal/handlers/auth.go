package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"crypto/rand"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/example/foty/internal/config"
	"github.com/example/foty/internal/models"
	"github.com/example/foty/internal/services"
	"github.com/example/foty/internal/utils"
)

const oauthStateCookie = "oauth_state"

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	db     *gorm.DB
	cfg    *config.Config
	badges *services.BadgeService
	oauth  *oauth2.Config
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, badges *services.BadgeService) *AuthHandler {
	return &AuthHandler{
		db:     db,
		cfg:    cfg,
		badges: badges,
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleCallbackURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// Register creates a new member account.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name == "" || req.Email == "" || req.Password == "" || req.Phone == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name, email, password and phone are required")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing models.User
	if err := h.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusBadRequest, "user already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	user := models.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: &passwordHash,
		Phone:        req.Phone,
		Role:         models.RoleMember,
		AuthProvider: models.AuthProviderLocal,
	}

	if err := h.db.Create(&user).Error; err != nil {
		return err
	}

	// Registration succeeds even when the welcome badge cannot be granted.
	if err := h.badges.GrantByName(c.Context(), user.ID, services.BadgeNewMember); err != nil {
		log.Printf("[Badges] new member grant failed for %s: %v", user.ID, err)
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, user.Role, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"token":   token,
		"user": fiber.Map{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"phone": user.Phone,
			"role":  user.Role,
		},
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates an existing user.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email and password are required")
	}

	var user models.User
	err := h.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if err != nil || user.PasswordHash == nil || !utils.CheckPassword(*user.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid email or password")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, user.Role, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user": fiber.Map{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

// GoogleLogin redirects the browser to the Google consent screen.
func (h *AuthHandler) GoogleLogin(c *fiber.Ctx) error {
	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate state")
	}
	state := base64.RawURLEncoding.EncodeToString(stateBytes)

	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
	})

	return c.Redirect(h.oauth.AuthCodeURL(state), fiber.StatusTemporaryRedirect)
}

type googleUserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// GoogleCallback exchanges the authorization code, upserts the user and sends
// the browser back to the frontend with a JWT in the query string.
func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	failureRedirect := h.cfg.ClientURL + "/#/login?error=google"

	if c.Query("state") == "" || c.Query("state") != c.Cookies(oauthStateCookie) {
		return c.Redirect(failureRedirect, fiber.StatusTemporaryRedirect)
	}

	code := c.Query("code")
	if code == "" {
		return c.Redirect(failureRedirect, fiber.StatusTemporaryRedirect)
	}

	ctx := context.Background()
	tok, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		log.Printf("[Auth] google code exchange failed: %v", err)
		return c.Redirect(failureRedirect, fiber.StatusTemporaryRedirect)
	}

	info, err := fetchGoogleUserInfo(ctx, h.oauth, tok)
	if err != nil {
		log.Printf("[Auth] google userinfo fetch failed: %v", err)
		return c.Redirect(failureRedirect, fiber.StatusTemporaryRedirect)
	}
	if info.Email == "" {
		log.Printf("[Auth] google profile has no email")
		return c.Redirect(failureRedirect, fiber.StatusTemporaryRedirect)
	}

	user, err := h.upsertGoogleUser(info)
	if err != nil {
		log.Printf("[Auth] google user upsert failed: %v", err)
		return c.Redirect(failureRedirect, fiber.StatusTemporaryRedirect)
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, user.Role, h.cfg.TokenExpires)
	if err != nil {
		return c.Redirect(failureRedirect, fiber.StatusTemporaryRedirect)
	}

	return c.Redirect(fmt.Sprintf("%s/auth-success?token=%s", h.cfg.ClientURL, token), fiber.StatusTemporaryRedirect)
}

func fetchGoogleUserInfo(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token) (*googleUserInfo, error) {
	resp, err := conf.Client(ctx, tok).Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != fiber.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d: %s", resp.StatusCode, body)
	}

	var info googleUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (h *AuthHandler) upsertGoogleUser(info *googleUserInfo) (*models.User, error) {
	email := strings.ToLower(info.Email)

	var user models.User
	err := h.db.Where("email = ?", email).First(&user).Error
	if err == nil {
		if err := h.db.Model(&user).Updates(map[string]any{
			"auth_provider": models.AuthProviderGoogle,
			"provider_id":   info.ID,
		}).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Google accounts never have a local password.
	user = models.User{
		Name:         info.Name,
		Email:        email,
		Role:         models.RoleMember,
		AuthProvider: models.AuthProviderGoogle,
		ProviderID:   info.ID,
	}
	if err := h.db.Create(&user).Error; err != nil {
		return nil, err
	}

	if err := h.badges.GrantByName(context.Background(), user.ID, services.BadgeNewMember); err != nil {
		log.Printf("[Badges] new member grant failed for %s: %v", user.ID, err)
	}

	return &user, nil
}
