package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/1mt4y/travelbuddy/pkg/db"
	"github.com/1mt4y/travelbuddy/pkg/metrics"
	"github.com/1mt4y/travelbuddy/pkg/models"
	"github.com/1mt4y/travelbuddy/pkg/utils"
)

const publicProfileTripLimit = 3

// bcrypt only looks at the first 72 bytes and refuses longer input.
const maxPasswordBytes = 72

// Identity owns user accounts and profiles.
type Identity struct {
	*core
	hasher *utils.PasswordHasher
}

type RegisterInput struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Email       string   `json:"email" validate:"required,email,max=254"`
	Password    string   `json:"password" validate:"required,min=8,max=72"`
	DateOfBirth string   `json:"dateOfBirth"`
	Nationality string   `json:"nationality" validate:"max=100"`
	Languages   []string `json:"languages" validate:"max=20"`
}

type ProfileInput struct {
	Name         string   `json:"name" validate:"required,max=100"`
	DateOfBirth  string   `json:"dateOfBirth"`
	Nationality  string   `json:"nationality" validate:"max=100"`
	Bio          string   `json:"bio" validate:"max=2000"`
	Languages    []string `json:"languages" validate:"max=20"`
	ProfileImage string   `json:"profileImage" validate:"max=2048"`
}

// Register creates an account. A second registration with the same email
// is a conflict and leaves the table untouched.
func (s *Identity) Register(ctx context.Context, in RegisterInput) (*Profile, error) {
	in.Name = s.validator.SanitizeInput(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Nationality = s.validator.SanitizeInput(in.Nationality)
	if err := s.validator.Struct(in); err != nil {
		return nil, ValidationError(err.Error())
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, ValidationErrorf("Password must be at most %d bytes", maxPasswordBytes)
	}

	dob, err := parseOptionalDate(in.DateOfBirth, "dateOfBirth")
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.CountUsersByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing > 0 {
		return nil, ConflictError("User with this email already exists")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.clock()
	user := &models.User{
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		DateOfBirth:  dob,
		Nationality:  in.Nationality,
		Languages:    models.NewStringList(s.validator.SanitizeList(in.Languages)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if db.IsDuplicate(err) {
			return nil, ConflictError("User with this email already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	metrics.UsersRegistered.Inc()
	s.logger.LogAuth(user.ID, user.Email, "register", true)

	return profileOf(user), nil
}

// Authenticate checks an email/password pair. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Identity) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ValidationError("Email and password are required")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if db.IsNotFound(err) {
			s.logger.LogAuth("", email, "login", false)
			return nil, AuthenticationError("Invalid email or password")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.logger.LogAuth(user.ID, email, "login", false)
		return nil, AuthenticationError("Invalid email or password")
	}

	s.logger.LogAuth(user.ID, email, "login", true)
	return user, nil
}

// Resolve loads the user behind an authenticated id. A token for a user
// that no longer exists is an authentication failure.
func (s *Identity) Resolve(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, AuthenticationError("Unauthorized")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *Identity) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, NotFoundError("User not found")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return profileOf(user), nil
}

func (s *Identity) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*Profile, error) {
	in.Name = s.validator.SanitizeInput(in.Name)
	in.Nationality = s.validator.SanitizeInput(in.Nationality)
	in.Bio = strings.TrimSpace(in.Bio)
	in.ProfileImage = strings.TrimSpace(in.ProfileImage)
	if err := s.validator.Struct(in); err != nil {
		return nil, ValidationError(err.Error())
	}
	if in.ProfileImage != "" && !s.validator.ValidateURL(in.ProfileImage) {
		return nil, ValidationError("profileImage must be an http(s) URL")
	}

	dob, err := parseOptionalDate(in.DateOfBirth, "dateOfBirth")
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, NotFoundError("User not found")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	user.Name = in.Name
	user.DateOfBirth = dob
	user.Nationality = in.Nationality
	user.Bio = in.Bio
	user.Languages = models.NewStringList(s.validator.SanitizeList(in.Languages))
	user.ProfileImage = in.ProfileImage
	user.UpdatedAt = s.clock()

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return profileOf(user), nil
}

// PublicProfile shows a user with their most recent open trips.
func (s *Identity) PublicProfile(ctx context.Context, userID string) (*PublicProfile, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, NotFoundError("User not found")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	trips, err := s.repo.GetRecentOpenTripsByCreator(ctx, userID, publicProfileTripLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load trips: %w", err)
	}

	return &PublicProfile{
		ID:           user.ID,
		Name:         user.Name,
		DateOfBirth:  user.DateOfBirth,
		Nationality:  user.Nationality,
		Bio:          user.Bio,
		Languages:    stringList(user.Languages),
		ProfileImage: user.ProfileImage,
		CreatedAt:    user.CreatedAt,
		Trips:        summarizeTrips(trips),
	}, nil
}

func parseOptionalDate(value, field string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := utils.ParseDate(value)
	if err != nil {
		return nil, ValidationErrorf("%s must be a date (YYYY-MM-DD)", field)
	}
	return &t, nil
}
