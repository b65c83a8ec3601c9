package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/condo-admin/backend/internal/scope"
	"github.com/condo-admin/backend/internal/storage/models"
)

// MinPasswordLength is the shortest password accepted.
const MinPasswordLength = 6

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	VerifyPassword(password, encoded string) (bool, error)
}

// TokenIssuer signs bearer tokens for authenticated principals.
type TokenIssuer interface {
	Issue(p scope.Principal) (token string, expiresAt time.Time, err error)
}

// Session is the result of a successful login.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// UserService manages accounts and logins.
type UserService struct {
	users  UserStore
	hasher PasswordHasher
	tokens TokenIssuer
}

// NewUserService creates a user service.
func NewUserService(users UserStore, hasher PasswordHasher, tokens TokenIssuer) *UserService {
	return &UserService{users: users, hasher: hasher, tokens: tokens}
}

// RegisterInput is a self-service sign-up.
type RegisterInput struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Cedula   string      `json:"cedula"`
	Phone    *string     `json:"phone"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// CreateUserInput is an account created by an administrator.
type CreateUserInput struct {
	RegisterInput
	Status models.UserStatus `json:"status"`
}

// UpdateUserInput is a partial account update by an administrator.
type UpdateUserInput struct {
	Name     Optional[string]            `json:"name"`
	Email    Optional[string]            `json:"email"`
	Cedula   Optional[string]            `json:"cedula"`
	Phone    Optional[string]            `json:"phone"`
	Role     Optional[models.Role]       `json:"role"`
	Status   Optional[models.UserStatus] `json:"status"`
	Password Optional[string]            `json:"password"`
}

// selfRoles are the roles a visitor may pick when signing up.
var selfRoles = map[models.Role]bool{
	models.RoleOwner:       true,
	models.RoleTenant:      true,
	models.RoleAirbnbGuest: true,
}

// Register creates a pending account that an administrator must approve.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.Role == "" {
		in.Role = models.RoleTenant
	}
	if !selfRoles[in.Role] {
		return nil, invalid("role %q cannot be chosen at sign-up", in.Role)
	}
	return s.create(ctx, in, models.UserStatusPending)
}

// Create adds an account with any role and status.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	if in.Status == "" {
		in.Status = models.UserStatusActive
	}
	if !in.Status.Valid() {
		return nil, invalid("invalid status %q", in.Status)
	}
	if !in.Role.Valid() {
		return nil, invalid("invalid role %q", in.Role)
	}
	return s.create(ctx, in.RegisterInput, in.Status)
}

func (s *UserService) create(ctx context.Context, in RegisterInput, status models.UserStatus) (*models.User, error) {
	user := &models.User{
		Name:   strings.TrimSpace(in.Name),
		Email:  models.NormalizeEmail(in.Email),
		Cedula: strings.TrimSpace(in.Cedula),
		Phone:  in.Phone,
		Role:   in.Role,
		Status: status,
	}
	if err := validateUser(user); err != nil {
		return nil, err
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, user); err != nil {
		return nil, err
	}

	hash, err := s.hasher.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	user.PasswordHash = hash

	if err := s.users.Create(ctx, user); err != nil {
		return nil, storeErr(err, "user", user.Email)
	}
	return user, nil
}

// Update applies a partial update, including an optional password reset.
func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, notFound("user", id)
	}

	in.Name.apply(&user.Name)
	in.Email.apply(&user.Email)
	in.Cedula.apply(&user.Cedula)
	in.Phone.applyPtr(&user.Phone)
	in.Role.apply(&user.Role)
	in.Status.apply(&user.Status)
	user.Name = strings.TrimSpace(user.Name)
	user.Email = models.NormalizeEmail(user.Email)
	user.Cedula = strings.TrimSpace(user.Cedula)

	if err := validateUser(user); err != nil {
		return nil, err
	}
	if !user.Role.Valid() {
		return nil, invalid("invalid role %q", user.Role)
	}
	if !user.Status.Valid() {
		return nil, invalid("invalid status %q", user.Status)
	}
	if in.Email.Set || in.Cedula.Set {
		if err := s.checkUnique(ctx, user); err != nil {
			return nil, err
		}
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, storeErr(err, "user", id)
	}

	if in.Password.Set {
		if in.Password.Value == nil {
			return nil, invalid("password cannot be cleared")
		}
		if err := s.setPassword(ctx, id, *in.Password.Value); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// ChangePassword replaces p's password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, p scope.Principal, current, next string) error {
	user, err := s.users.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if user == nil {
		return notFound("user", p.ID)
	}

	ok, err := s.hasher.VerifyPassword(current, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return invalid("current password is incorrect")
	}
	return s.setPassword(ctx, user.ID, next)
}

func (s *UserService) setPassword(ctx context.Context, id, password string) error {
	if err := checkPassword(password); err != nil {
		return err
	}
	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return storeErr(s.users.UpdatePassword(ctx, id, hash), "user", id)
}

// Authenticate checks credentials and issues a token. Unknown emails and wrong
// passwords fail the same way.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}

	ok, err := s.hasher.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}

	switch user.Status {
	case models.UserStatusPending:
		return nil, forbidden("account is awaiting approval")
	case models.UserStatusInactive:
		return nil, forbidden("account is inactive")
	}

	token, expires, err := s.tokens.Issue(scope.Principal{ID: user.ID, Role: user.Role, Cedula: user.Cedula})
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: expires, User: user}, nil
}

// Get returns a user.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, notFound("user", id)
	}
	return user, nil
}

// List returns every user.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// Delete removes a user. Administrators cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, p scope.Principal, id string) error {
	if p.ID == id {
		return invalid("you cannot delete your own account")
	}
	return storeErr(s.users.Delete(ctx, id), "user", id)
}

func validateUser(u *models.User) error {
	switch {
	case u.Name == "":
		return invalid("name is required")
	case u.Cedula == "":
		return invalid("cedula is required")
	case u.Email == "":
		return invalid("email is required")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return invalid("invalid email %q", u.Email)
	}
	return nil
}

func checkPassword(password string) error {
	if len(password) < MinPasswordLength {
		return invalid("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// checkUnique reports a conflict if another account uses u's email or cedula.
func (s *UserService) checkUnique(ctx context.Context, u *models.User) error {
	byEmail, err := s.users.GetByEmail(ctx, u.Email)
	if err != nil {
		return err
	}
	if byEmail != nil && byEmail.ID != u.ID {
		return fmt.Errorf("email %s is already registered: %w", u.Email, ErrConflict)
	}

	byCedula, err := s.users.GetByCedula(ctx, u.Cedula)
	if err != nil {
		return err
	}
	if byCedula != nil && byCedula.ID != u.ID {
		return fmt.Errorf("cedula %s is already registered: %w", u.Cedula, ErrConflict)
	}
	return nil
}
