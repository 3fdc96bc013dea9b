package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/ai-tutor-api/services/tutor-service/internal/model"
	"github.com/vasapolrittideah/ai-tutor-api/services/tutor-service/internal/repository"
	"github.com/vasapolrittideah/ai-tutor-api/shared/provider"
	"github.com/vasapolrittideah/ai-tutor-api/shared/security"
)

// maxUsernameAttempts bounds the suffixed retries after the plain email local
// part turned out to be taken.
const maxUsernameAttempts = 5

// AuthUsecase defines the interface for authentication-related use cases.
type AuthUsecase interface {
	Register(ctx context.Context, params RegisterParams) (*model.User, error)
	Login(ctx context.Context, params LoginParams) (string, error)
	Authenticate(ctx context.Context, token string) (*model.User, error)
	LoginWithGoogle(ctx context.Context, accessToken string) (*GoogleLoginResult, error)
}

// RegisterParams defines the parameters for local signup.
type RegisterParams struct {
	Username string
	Email    string
	FullName string
	Password string
}

// LoginParams defines the parameters for password login.
type LoginParams struct {
	Username string
	Password string
}

// GoogleLoginResult is the outcome of a successful federated login.
type GoogleLoginResult struct {
	AccessToken string
	User        *model.User
	Created     bool
}

// TokenAuthenticator issues and validates bearer tokens.
type TokenAuthenticator interface {
	GenerateToken(subject string, ttl time.Duration) (string, error)
	ValidateToken(token string) (string, error)
}

// GoogleProfileProvider exchanges a Google access token for a profile.
type GoogleProfileProvider interface {
	GetUserInfo(ctx context.Context, accessToken string) (*provider.GoogleProfile, error)
}

type authUsecase struct {
	userRepo       repository.UserRepository
	jwtAuth        TokenAuthenticator
	googleProvider GoogleProfileProvider
	notifier       WelcomeNotifier
	logger         *zerolog.Logger
	tokenTTL       time.Duration
	randomSuffix   func() int
}

// AuthOption customises an authUsecase.
type AuthOption func(*authUsecase)

// WithWelcomeNotifier sends a welcome message for every newly created account.
func WithWelcomeNotifier(n WelcomeNotifier) AuthOption {
	return func(u *authUsecase) {
		u.notifier = n
	}
}

// WithUsernameSuffix replaces the random four digit suffix generator.
func WithUsernameSuffix(fn func() int) AuthOption {
	return func(u *authUsecase) {
		u.randomSuffix = fn
	}
}

func NewAuthUsecase(
	userRepo repository.UserRepository,
	jwtAuth TokenAuthenticator,
	googleProvider GoogleProfileProvider,
	logger *zerolog.Logger,
	tokenTTL time.Duration,
	opts ...AuthOption,
) AuthUsecase {
	u := &authUsecase{
		userRepo:       userRepo,
		jwtAuth:        jwtAuth,
		googleProvider: googleProvider,
		logger:         logger,
		tokenTTL:       tokenTTL,
		randomSuffix:   func() int { return 1000 + rand.IntN(9000) },
	}
	for _, opt := range opts {
		opt(u)
	}

	return u
}

func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Username:     params.Username,
		Email:        params.Email,
		FullName:     params.FullName,
		PasswordHash: passwordHash,
	})
	if err != nil {
		return nil, err
	}

	u.welcome(user)

	return user, nil
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (string, error) {
	user, err := u.userRepo.GetUserByUsername(ctx, params.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}

		return "", err
	}

	if !security.VerifyPassword(params.Password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	if user.Disabled {
		return "", ErrInactiveSubject
	}

	return u.jwtAuth.GenerateToken(user.Username, u.tokenTTL)
}

// Authenticate validates token and resolves its subject to an active user.
func (u *authUsecase) Authenticate(ctx context.Context, token string) (*model.User, error) {
	username, err := u.jwtAuth.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnknownSubject
		}

		return nil, err
	}

	if user.Disabled {
		return nil, ErrInactiveSubject
	}

	return user, nil
}

// LoginWithGoogle links or creates the account for a Google access token and
// issues a bearer token for it. Failures after the provider accepted the token
// are reported as ErrAuthenticationFailed wrapping the cause.
func (u *authUsecase) LoginWithGoogle(ctx context.Context, accessToken string) (*GoogleLoginResult, error) {
	profile, err := u.googleProvider.GetUserInfo(ctx, accessToken)
	if err != nil {
		if errors.Is(err, provider.ErrInvalidProviderToken) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}

	user, created, err := u.resolveGoogleUser(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}

	if user.Disabled {
		return nil, ErrInactiveSubject
	}

	token, err := u.jwtAuth.GenerateToken(user.Username, u.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}

	if created {
		u.welcome(user)
	}

	return &GoogleLoginResult{AccessToken: token, User: user, Created: created}, nil
}

// resolveGoogleUser looks the profile up by Google id, then by email (linking
// the account), and finally creates a new password-less account.
func (u *authUsecase) resolveGoogleUser(ctx context.Context, profile *provider.GoogleProfile) (*model.User, bool, error) {
	user, err := u.userRepo.GetUserByGoogleID(ctx, profile.GoogleID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, false, err
	}

	user, err = u.userRepo.GetUserByEmail(ctx, profile.Email)
	if err == nil {
		linked, err := u.userRepo.LinkGoogleIdentity(ctx, user.ID, repository.LinkGoogleIdentityParams{
			GoogleID: profile.GoogleID,
			Picture:  profile.Picture,
		})
		if err != nil {
			return nil, false, err
		}

		u.logger.Info().Int64("user_id", linked.ID).Msg("linked google account to existing user")
		return linked, false, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, false, err
	}

	user, err = u.createGoogleUser(ctx, profile)
	if err != nil {
		return nil, false, err
	}

	return user, true, nil
}

func (u *authUsecase) createGoogleUser(ctx context.Context, profile *provider.GoogleProfile) (*model.User, error) {
	base := usernameFromEmail(profile.Email)

	for attempt := 0; attempt <= maxUsernameAttempts; attempt++ {
		username := base
		if attempt > 0 {
			username = fmt.Sprintf("%s%04d", base, u.randomSuffix())
		}

		_, err := u.userRepo.GetUserByUsername(ctx, username)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}

		user, err := u.userRepo.CreateUser(ctx, &model.User{
			Username: username,
			Email:    profile.Email,
			FullName: profile.FullName,
			GoogleID: profile.GoogleID,
			Picture:  profile.Picture,
		})
		if errors.Is(err, repository.ErrDuplicateUsername) {
			// lost a race for the name
			continue
		}
		if err != nil {
			return nil, err
		}

		return user, nil
	}

	return nil, ErrUsernameGenerationExhausted
}

func (u *authUsecase) welcome(user *model.User) {
	if u.notifier == nil {
		return
	}

	go func() {
		if err := u.notifier.SendWelcome(user); err != nil {
			u.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to send welcome email")
		}
	}()
}

// usernameFromEmail returns the local part of email.
func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
