package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"raterocket/internal/model"
	"raterocket/internal/pkg/jwtutil"
	"raterocket/internal/pkg/mailer"
)

var (
	ErrEmailExists  = errors.New("user with this email already exists")
	ErrInvalidOTP   = errors.New("invalid or expired otp")
	ErrUserNotFound = errors.New("user not found")
)

// AuthService runs the email OTP login flow and user profile updates.
type AuthService struct {
	userStore     UserStore
	otpStore      OTPStore
	sender        mailer.Sender
	jwtSecret     string
	jwtExpiration time.Duration
}

type VerifyResult struct {
	Token        string
	User         *model.User
	IsFirstLogin bool
}

func NewAuthService(
	userStore UserStore,
	otpStore OTPStore,
	sender mailer.Sender,
	jwtSecret string,
	jwtExpiration time.Duration,
) *AuthService {
	return &AuthService{
		userStore:     userStore,
		otpStore:      otpStore,
		sender:        sender,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

// RequestOTP issues a login code and mails it. The code itself never
// leaves the mail channel.
func (s *AuthService) RequestOTP(ctx context.Context, email string) (time.Time, error) {
	email = normalizeEmail(email)
	if email == "" {
		return time.Time{}, ErrInvalidInput
	}

	otp, expiry, err := s.otpStore.Create(ctx, email)
	if err != nil {
		return time.Time{}, err
	}
	if err := s.sender.SendOTP(email, otp, int(s.otpStore.TTL().Minutes())); err != nil {
		return time.Time{}, err
	}
	return expiry, nil
}

// ResendOTP re-issues the code with a fresh expiry.
func (s *AuthService) ResendOTP(ctx context.Context, email string) (time.Time, error) {
	email = normalizeEmail(email)
	if email == "" {
		return time.Time{}, ErrInvalidInput
	}

	otp, expiry, err := s.otpStore.Extend(ctx, email)
	if err != nil {
		return time.Time{}, err
	}
	if err := s.sender.SendOTP(email, otp, int(s.otpStore.TTL().Minutes())); err != nil {
		return time.Time{}, err
	}
	return expiry, nil
}

// VerifyOTP checks the code, finds or creates the user and issues a
// bearer token.
func (s *AuthService) VerifyOTP(ctx context.Context, email, otp string) (*VerifyResult, error) {
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(otp) == "" {
		return nil, ErrInvalidInput
	}

	ok, err := s.otpStore.Verify(ctx, email, otp)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidOTP
	}

	user, err := s.userStore.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user, err = s.createUser(email)
		if err != nil {
			return nil, err
		}
	}

	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{
		Token:        token,
		User:         user,
		IsFirstLogin: user.Name == "",
	}, nil
}

func (s *AuthService) UpdateName(userID uint, name string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if userID == 0 || name == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.userStore.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if err := s.userStore.UpdateName(userID, name); err != nil {
		return nil, err
	}
	user.Name = name
	return user, nil
}

func (s *AuthService) GetUserByID(userID uint) (*model.User, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.userStore.GetByID(userID)
}

// createUser rejects duplicate emails instead of upserting.
func (s *AuthService) createUser(email string) (*model.User, error) {
	existing, err := s.userStore.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	user := &model.User{Email: email}
	if err := s.userStore.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
