package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/digibank/internal/apperrors"
	"github.com/nkiryanov/digibank/internal/models"
)

const (
	defaultAccessHeaderName  = "Authorization"
	defaultAccessAuthScheme  = "Bearer"
	defaultRefreshCookieName = "refreshtoken"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type tokenManager interface {
	GeneratePair(ctx context.Context, user models.User) (models.TokenPair, error)
	UseRefresh(ctx context.Context, refresh string) (models.RefreshToken, error)
	ParseAccess(ctx context.Context, access string) (uuid.UUID, error)
}

type userService interface {
	CreateUser(ctx context.Context, username string, password string) (models.User, error)
	Login(ctx context.Context, username string, password string) (models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error)
}

// Where tokens travel in HTTP requests and responses
// Empty values are replaced with defaults
type Config struct {
	AccessHeaderName  string
	AccessAuthScheme  string
	RefreshCookieName string
}

type AuthService struct {
	accessHeaderName  string
	accessAuthScheme  string
	refreshCookieName string

	tokenManager tokenManager
	userService  userService
}

func NewService(cfg Config, tm tokenManager, us userService) (*AuthService, error) {
	s := &AuthService{
		accessHeaderName:  cfg.AccessHeaderName,
		accessAuthScheme:  cfg.AccessAuthScheme,
		refreshCookieName: cfg.RefreshCookieName,
		tokenManager:      tm,
		userService:       us,
	}

	if s.accessHeaderName == "" {
		s.accessHeaderName = defaultAccessHeaderName
	}
	if s.accessAuthScheme == "" {
		s.accessAuthScheme = defaultAccessAuthScheme
	}
	if s.refreshCookieName == "" {
		s.refreshCookieName = defaultRefreshCookieName
	}

	return s, nil
}

func (s *AuthService) Register(ctx context.Context, username string, password string) (models.TokenPair, error) {
	user, err := s.userService.CreateUser(ctx, username, password)
	if err != nil {
		return models.TokenPair{}, err
	}

	return s.generatePair(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, username string, password string) (models.TokenPair, error) {
	user, err := s.userService.Login(ctx, username, password)
	if err != nil {
		return models.TokenPair{}, err
	}

	return s.generatePair(ctx, user)
}

// Exchange refresh token for a new pair. The refresh token can be used once.
func (s *AuthService) RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error) {
	token, err := s.tokenManager.UseRefresh(ctx, refresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.userService.GetUserByID(ctx, token.UserID)
	if err != nil {
		return models.TokenPair{}, err
	}

	return s.generatePair(ctx, user)
}

func (s *AuthService) generatePair(ctx context.Context, user models.User) (models.TokenPair, error) {
	pair, err := s.tokenManager.GeneratePair(ctx, user)
	if err != nil {
		return pair, fmt.Errorf("token could not generated, sorry. Err: %w", err)
	}

	return pair, nil
}

// Access token goes to header, refresh token to http-only cookie
func (s *AuthService) SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair) {
	w.Header().Set(s.accessHeaderName, s.accessAuthScheme+" "+pair.Access.Value)
	http.SetCookie(w, s.refreshCookie(pair.Refresh))
}

// Same as SetTokenPairToResponse but for a client request
func (s *AuthService) SetTokenPairToRequest(r *http.Request, pair models.TokenPair) {
	r.Header.Set(s.accessHeaderName, s.accessAuthScheme+" "+pair.Access.Value)
	r.AddCookie(s.refreshCookie(pair.Refresh))
}

func (s *AuthService) refreshCookie(token models.IssuedToken) *http.Cookie {
	return &http.Cookie{
		Name:     s.refreshCookieName,
		Value:    token.Value,
		Path:     "/",
		Expires:  token.ExpiresAt,
		MaxAge:   int(time.Until(token.ExpiresAt).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

func (s *AuthService) GetRefreshString(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.refreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", apperrors.ErrRefreshTokenNotFound
	}

	return cookie.Value, nil
}

// Authenticate request by access token
func (s *AuthService) GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error) {
	header := r.Header.Get(s.accessHeaderName)
	access, ok := strings.CutPrefix(header, s.accessAuthScheme+" ")
	if !ok || access == "" {
		return models.User{}, errors.New("access token not found")
	}

	userID, err := s.tokenManager.ParseAccess(ctx, access)
	if err != nil {
		return models.User{}, err
	}

	return s.userService.GetUserByID(ctx, userID)
}
