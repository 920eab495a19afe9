package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/moaz267/furniture/internal/domain"
	"github.com/moaz267/furniture/internal/dto"
	apperrors "github.com/moaz267/furniture/internal/errors"
	"github.com/moaz267/furniture/internal/session"
)

const (
	sessionAudience  = "session"
	maxPasswordBytes = 72
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

type Validator interface {
	Struct(s any) error
}

type EventKind string

const (
	SignedIn  EventKind = "signed_in"
	SignedOut EventKind = "signed_out"
)

// Event reports an auth state change. ShopperSession is the anonymous
// shopper session the request carried, if any.
type Event struct {
	Kind           EventKind
	UserID         string
	ShopperSession string
}

type Listener func(ctx context.Context, evt Event)

type Issued struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type AuthService struct {
	users    UserRepository
	validate Validator
	secret   []byte
	ttl      time.Duration
	cost     int
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	revoked   map[string]time.Time
	listeners []Listener
}

func NewAuthService(users UserRepository, validate Validator, secret string, ttl time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		validate: validate,
		secret:   []byte(secret),
		ttl:      ttl,
		cost:     bcrypt.DefaultCost,
		logger:   logger,
		now:      time.Now,
		revoked:  make(map[string]time.Time),
	}
}

// Subscribe registers fn for every later sign-in and sign-out.
func (s *AuthService) Subscribe(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *AuthService) SignUp(ctx context.Context, req dto.SignUpRequest) (*domain.User, error) {
	req.Email = normalizeEmail(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	// bcrypt reads at most 72 bytes; multi-byte passwords can pass the rune check.
	if len(req.Password) > maxPasswordBytes {
		return nil, apperrors.NewValidationError("invalid sign-up", apperrors.ValidationDetail{
			Field:   "password",
			Message: "password is too long",
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("account created", zap.String("userId", user.ID))
	return user, nil
}

func (s *AuthService) SignIn(ctx context.Context, req dto.SignInRequest) (*Issued, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if _, ok := apperrors.IsNotFoundError(err); ok {
		return nil, apperrors.NewUnauthorizedError("invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.NewUnauthorizedError("invalid email or password")
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := sessionClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			Audience:  jwt.ClaimStrings{sessionAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("signing session token: %w", err)
	}

	s.emit(ctx, Event{Kind: SignedIn, UserID: user.ID})
	return &Issued{Token: token, ExpiresAt: expiresAt.UTC(), User: *user}, nil
}

// SignOut revokes token until it would have expired anyway.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	now := s.now()
	for jti, exp := range s.revoked {
		if !exp.After(now) {
			delete(s.revoked, jti)
		}
	}
	s.revoked[claims.ID] = claims.ExpiresAt.Time
	s.mu.Unlock()

	s.emit(ctx, Event{Kind: SignedOut, UserID: claims.Subject})
	return nil
}

// Session resolves a live token to its user.
func (s *AuthService) Session(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	_, revoked := s.revoked[claims.ID]
	s.mu.Unlock()
	if revoked {
		return nil, apperrors.NewUnauthorizedError("session has been signed out")
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if _, ok := apperrors.IsNotFoundError(err); ok {
		return nil, apperrors.NewUnauthorizedError("account no longer exists")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ExpiresAt reports when token stops being accepted.
func (s *AuthService) ExpiresAt(token string) (time.Time, error) {
	claims, err := s.parse(token)
	if err != nil {
		return time.Time{}, err
	}
	return claims.ExpiresAt.Time.UTC(), nil
}

func (s *AuthService) parse(token string) (*sessionClaims, error) {
	if token == "" {
		return nil, apperrors.NewUnauthorizedError("sign in required")
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(sessionAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.NewUnauthorizedError("session expired")
		}
		return nil, apperrors.NewUnauthorizedError("invalid session token")
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, apperrors.NewUnauthorizedError("invalid session token")
	}
	return &claims, nil
}

func (s *AuthService) emit(ctx context.Context, evt Event) {
	if id, ok := session.FromContext(ctx); ok {
		evt.ShopperSession = id
	}

	s.mu.Lock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(ctx, evt)
	}
	s.logger.Info("auth state changed", zap.String("event", string(evt.Kind)), zap.String("userId", evt.UserID))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
