package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"slotbook/internal/auth"
	"slotbook/internal/config"
	"slotbook/internal/database"
	"slotbook/internal/domain"
	"slotbook/internal/models"
	"slotbook/internal/query"

	"github.com/rs/zerolog"
)

// Session is the result of a successful login.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// ProfileUpdate carries the optional fields of a self-service profile edit.
type ProfileUpdate struct {
	Name            *string
	Email           *string
	CurrentPassword string
	NewPassword     *string
}

// UserInput is an administrator-supplied account. Nil fields are left as is
// on update.
type UserInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *string
}

type UserService struct {
	repo   domain.Repository
	tokens *auth.TokenManager
	paging Paging
	logger *zerolog.Logger
}

func NewUserService(repo domain.Repository, tokens *auth.TokenManager, paging Paging, logger *zerolog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		tokens: tokens,
		paging: paging,
		logger: logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateName(name string) error {
	if name == "" {
		return domain.Validation("name is required")
	}
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return domain.Validation("email is invalid")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < auth.MinPasswordLength {
		return domain.Validation("password is too short")
	}
	return nil
}

func validateRole(role string) error {
	if role != models.RoleUser && role != models.RoleAdmin {
		return domain.Validation("role must be user or admin")
	}
	return nil
}

// Register creates a regular user account.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	role := models.RoleUser
	return s.create(ctx, UserInput{Name: &name, Email: &email, Password: &password, Role: &role})
}

// Login verifies credentials and issues an access token.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, storeErr(err, nil, "failed to load user")
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.Unexpected("failed to verify password", err)
	}

	token, expiresAt, err := s.tokens.Issue(domain.Identity{UserID: user.ID, Role: user.Role})
	if err != nil {
		return nil, domain.Unexpected("failed to issue token", err)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("User logged in")
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, domain.ErrUserNotFound, "failed to load user")
	}
	return user, nil
}

// UpdateProfile changes the caller's own account. Changing the email or the
// password requires the current password, and only one of them may change
// per request.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, upd ProfileUpdate) (*models.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	emailChange := upd.Email != nil && normalizeEmail(*upd.Email) != user.Email
	passwordChange := upd.NewPassword != nil && *upd.NewPassword != ""
	if emailChange && passwordChange {
		return nil, domain.Validation("email and password cannot be changed together")
	}
	if emailChange || passwordChange {
		if upd.CurrentPassword == "" {
			return nil, domain.Validation("current password is required")
		}
		if err := auth.CheckPassword(user.PasswordHash, upd.CurrentPassword); err != nil {
			if errors.Is(err, auth.ErrPasswordMismatch) {
				return nil, domain.ErrInvalidCredentials
			}
			return nil, domain.Unexpected("failed to verify password", err)
		}
	}
	if passwordChange && *upd.NewPassword == upd.CurrentPassword {
		return nil, domain.Validation("new password must differ from the current one")
	}

	return s.apply(ctx, user, UserInput{Name: upd.Name, Email: upd.Email, Password: upd.NewPassword})
}

// ListUsers returns regular users with their confirmed booking counts.
func (s *UserService) ListUsers(ctx context.Context, f ListFilter) (models.Page[models.UserSummary], error) {
	users, err := s.repo.ListUserSummaries(ctx, models.RoleUser)
	if err != nil {
		return models.Page[models.UserSummary]{}, storeErr(err, nil, "failed to list users")
	}
	search := normalizeSearch(f.Search)
	p := query.New[models.UserSummary]().
		Match(func(u models.UserSummary) bool { return query.ContainsFold(search, u.Name, u.Email) }).
		SortBy(func(a, b models.UserSummary) int { return strings.Compare(a.Name, b.Name) })
	return paginate(p, users, s.paging, f), nil
}

// CreateUser lets an administrator add an account of any role.
func (s *UserService) CreateUser(ctx context.Context, in UserInput) (*models.User, error) {
	if in.Role == nil {
		role := models.RoleUser
		in.Role = &role
	}
	return s.create(ctx, in)
}

func (s *UserService) UpdateUser(ctx context.Context, id int64, in UserInput) (*models.User, error) {
	user, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, user, in)
}

// DeleteUser removes the account together with its bookings.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return storeErr(err, domain.ErrUserNotFound, "failed to delete user")
	}
	s.logger.Info().Int64("user_id", id).Msg("User deleted")
	return nil
}

// EnsureBootstrapAdmin creates the configured administrator when no account
// with its email exists yet.
func (s *UserService) EnsureBootstrapAdmin(ctx context.Context, cfg config.BootstrapAdmin) error {
	if !cfg.Enabled() {
		return nil
	}
	_, err := s.repo.GetUserByEmail(ctx, normalizeEmail(cfg.Email))
	if err == nil {
		return nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return storeErr(err, nil, "failed to look up bootstrap admin")
	}

	role := models.RoleAdmin
	user, err := s.create(ctx, UserInput{Name: &cfg.Name, Email: &cfg.Email, Password: &cfg.Password, Role: &role})
	if err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("Bootstrap admin created")
	return nil
}

func (s *UserService) create(ctx context.Context, in UserInput) (*models.User, error) {
	var name, email, password, role string
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		email = normalizeEmail(*in.Email)
	}
	if in.Password != nil {
		password = *in.Password
	}
	if in.Role != nil {
		role = *in.Role
	}

	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if err := validateRole(role); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, 0, name, email); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, domain.Unexpected("failed to hash password", err)
	}
	user := &models.User{Name: name, Email: email, PasswordHash: hash, Role: role}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrUniqueViolation) {
			return nil, s.uniqueConflict(ctx, 0, name, email)
		}
		return nil, storeErr(err, nil, "failed to create user")
	}

	s.logger.Info().Int64("user_id", user.ID).Str("role", role).Msg("User created")
	return user, nil
}

func (s *UserService) apply(ctx context.Context, user *models.User, in UserInput) (*models.User, error) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validateName(name); err != nil {
			return nil, err
		}
		user.Name = name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if in.Role != nil {
		if err := validateRole(*in.Role); err != nil {
			return nil, err
		}
		user.Role = *in.Role
	}
	if in.Password != nil && *in.Password != "" {
		if err := validatePassword(*in.Password); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, domain.Unexpected("failed to hash password", err)
		}
		user.PasswordHash = hash
	}

	if err := s.checkUnique(ctx, user.ID, user.Name, user.Email); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrUniqueViolation) {
			return nil, s.uniqueConflict(ctx, user.ID, user.Name, user.Email)
		}
		return nil, storeErr(err, domain.ErrUserNotFound, "failed to update user")
	}
	return user, nil
}

// checkUnique fails when another account already uses name or email.
func (s *UserService) checkUnique(ctx context.Context, selfID int64, name, email string) error {
	if u, err := s.repo.GetUserByName(ctx, name); err == nil {
		if u.ID != selfID {
			return domain.ErrNameExists
		}
	} else if !errors.Is(err, database.ErrNotFound) {
		return storeErr(err, nil, "failed to check name")
	}
	if u, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		if u.ID != selfID {
			return domain.ErrEmailExists
		}
	} else if !errors.Is(err, database.ErrNotFound) {
		return storeErr(err, nil, "failed to check email")
	}
	return nil
}

// uniqueConflict resolves a store unique violation raced past checkUnique.
func (s *UserService) uniqueConflict(ctx context.Context, selfID int64, name, email string) error {
	if err := s.checkUnique(ctx, selfID, name, email); err != nil {
		return err
	}
	return domain.ErrEmailExists
}
