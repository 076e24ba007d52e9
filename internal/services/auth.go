package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/cesizen/cesizen-backend/internal/data/repos"
	types "github.com/cesizen/cesizen-backend/internal/domain"
	"github.com/cesizen/cesizen-backend/internal/platform/apierr"
	"github.com/cesizen/cesizen-backend/internal/platform/ctxutil"
	"github.com/cesizen/cesizen-backend/internal/platform/dbctx"
	"github.com/cesizen/cesizen-backend/internal/platform/logger"
)

const minPasswordLength = 8

var errInvalidCredentials = errors.New("invalid email or password")

type JWTClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type AuthService interface {
	RegisterUser(ctx context.Context, in RegisterInput) (*types.User, error)
	LoginUser(ctx context.Context, email, password string) (*TokenPair, error)
	RefreshUser(ctx context.Context, refreshToken string) (*TokenPair, error)
	LogoutUser(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func validateRegistration(in *RegisterInput) error {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if _, err := mail.ParseAddress(in.Email); err != nil || !strings.Contains(in.Email, "@") {
		return apierr.Validation("invalid email address")
	}
	if len(in.Password) < minPasswordLength {
		return apierr.Validation("password must be at least %d characters", minPasswordLength)
	}
	if in.FirstName == "" || in.LastName == "" {
		return apierr.Validation("first and last name are required")
	}
	return nil
}

func (as *authService) RegisterUser(ctx context.Context, in RegisterInput) (*types.User, error) {
	if err := validateRegistration(&in); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &types.User{
		Email:     in.Email,
		Password:  string(hash),
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		exists, err := as.userRepo.EmailExists(dbc, in.Email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if exists {
			return apierr.New(http.StatusConflict, "email_taken", errors.New("email already registered"))
		}
		if _, err := as.userRepo.Create(dbc, []*types.User{user}); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apierr.New(http.StatusConflict, "email_taken", errors.New("email already registered"))
			}
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	as.log.Info("User registered", "user_id", user.ID)
	return user, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apierr.Validation("email and password are required")
	}

	var pair *TokenPair
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		users, err := as.userRepo.GetByEmails(dbc, []string{email})
		if err != nil {
			return fmt.Errorf("load user by email: %w", err)
		}
		if len(users) == 0 {
			return apierr.Unauthorized(errInvalidCredentials)
		}
		user := users[0]
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
			return apierr.Unauthorized(errInvalidCredentials)
		}

		if _, err := as.userTokenRepo.PurgeExpired(dbc, time.Now().UTC()); err != nil {
			as.log.Warn("Failed to purge expired tokens", "error", err)
		}

		pair, err = as.issueTokens(dbc, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (as *authService) RefreshUser(ctx context.Context, refreshToken string) (*TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		if rd := ctxutil.GetRequestData(ctx); rd != nil {
			refreshToken = rd.RefreshToken
		}
	}
	if refreshToken == "" {
		return nil, apierr.Unauthorized(errors.New("refresh token required"))
	}

	var pair *TokenPair
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := as.userTokenRepo.FindByRefreshToken(dbc, refreshToken)
		if err != nil {
			return fmt.Errorf("load refresh token: %w", err)
		}
		if existing == nil {
			return apierr.Unauthorized(errors.New("unknown refresh token"))
		}
		if existing.Expired(time.Now().UTC()) {
			if _, err := as.userTokenRepo.Revoke(dbc, existing.ID); err != nil {
				return fmt.Errorf("delete expired token: %w", err)
			}
			return apierr.Unauthorized(errors.New("refresh token expired"))
		}
		users, err := as.userRepo.GetByIDs(dbc, []uuid.UUID{existing.UserID})
		if err != nil {
			return fmt.Errorf("load user for refresh: %w", err)
		}
		if len(users) == 0 {
			return apierr.Unauthorized(errors.New("no user for refresh token"))
		}
		next, err := as.newSession(users[0])
		if err != nil {
			return err
		}
		if err := as.userTokenRepo.Rotate(dbc, existing.ID, next); err != nil {
			if errors.Is(err, repos.ErrTokenConsumed) {
				return apierr.Unauthorized(err)
			}
			return fmt.Errorf("rotate session: %w", err)
		}
		pair = as.tokenPair(next)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return apierr.Unauthorized(errors.New("no session in context"))
	}
	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		session, err := as.userTokenRepo.FindByAccessToken(dbc, rd.TokenString)
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		if session == nil {
			return nil
		}
		if _, err := as.userTokenRepo.Revoke(dbc, session.ID); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
}

func (as *authService) issueTokens(dbc dbctx.Context, user *types.User) (*TokenPair, error) {
	session, err := as.newSession(user)
	if err != nil {
		return nil, err
	}
	if err := as.userTokenRepo.Create(dbc, session); err != nil {
		return nil, fmt.Errorf("create user token: %w", err)
	}
	return as.tokenPair(session), nil
}

func (as *authService) newSession(user *types.User) (*types.UserToken, error) {
	access, err := as.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &types.UserToken{
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: uuid.NewString(),
		ExpiresAt:    time.Now().UTC().Add(as.refreshTTL),
	}, nil
}

func (as *authService) tokenPair(session *types.UserToken) *TokenPair {
	return &TokenPair{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    int64(as.accessTTL.Seconds()),
	}
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

// SetContextFromToken verifies the JWT, checks the session row still exists
// and stores the caller on ctx. An empty token leaves ctx untouched.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, nil
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return ctx, apierr.Unauthorized(fmt.Errorf("parse token: %w", err))
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, apierr.Unauthorized(errors.New("invalid or expired token"))
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.Unauthorized(fmt.Errorf("invalid subject: %w", err))
	}

	session, err := as.userTokenRepo.FindByAccessToken(dbctx.Context{Ctx: ctx}, tokenString)
	if err != nil {
		as.log.Warn("Error fetching user token by access token", "error", err)
		return ctx, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return ctx, apierr.Unauthorized(errors.New("session revoked"))
	}

	rd := &ctxutil.RequestData{
		TokenString:  tokenString,
		RefreshToken: session.RefreshToken,
		UserID:       userID,
		Role:         claims.Role,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
