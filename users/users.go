/*
Package users manages operator accounts and their report permissions.

PURPOSE:
  Reporting functions in the remittance package are permission-agnostic.
  This package decides who may call them: each user carries a role and a
  set of permission flags, and a signed token ties an HTTP request to one
  user.

BOOTSTRAP:
  When the user store is empty (first start, or the stored collection
  could not be read) a default administrator is created so the system is
  never locked out.

PASSWORDS:
  PasswordHash is a reversible placeholder encoding, not a real hash.
  Swapping in a real KDF only touches HashPassword/CheckPassword.

SEE ALSO:
  - token.go: JWT issue/verify
  - api/auth.go: HTTP middleware
*/
package users

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/warp/remittance-engine/generic"
)

// =============================================================================
// TYPES
// =============================================================================

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Permissions gate the report families.
type Permissions struct {
	CanEnterData          bool `json:"canEnterData"`
	CanQueryData          bool `json:"canQueryData"`
	CanViewStats          bool `json:"canViewStats"`
	CanViewUnpaid         bool `json:"canViewUnpaid"`
	CanEditDelete         bool `json:"canEditDelete"`
	CanViewClassification bool `json:"canViewClassification"`
}

// DefaultPermissions are granted to new non-admin users.
var DefaultPermissions = Permissions{CanEnterData: true, CanQueryData: true}

// AllPermissions are granted to administrators.
var AllPermissions = Permissions{
	CanEnterData:          true,
	CanQueryData:          true,
	CanViewStats:          true,
	CanViewUnpaid:         true,
	CanEditDelete:         true,
	CanViewClassification: true,
}

// Permission names one flag, for middleware checks.
type Permission string

const (
	PermEnterData          Permission = "enter_data"
	PermQueryData          Permission = "query_data"
	PermViewStats          Permission = "view_stats"
	PermViewUnpaid         Permission = "view_unpaid"
	PermEditDelete         Permission = "edit_delete"
	PermViewClassification Permission = "view_classification"
	PermAdmin              Permission = "admin"
)

type User struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Username     string      `json:"username"`
	PasswordHash string      `json:"passwordHash"`
	Role         Role        `json:"role"`
	Permissions  Permissions `json:"permissions"`
}

// Allows reports whether u holds p. Admins hold every permission.
func (u User) Allows(p Permission) bool {
	if u.Role == RoleAdmin {
		return true
	}
	switch p {
	case PermEnterData:
		return u.Permissions.CanEnterData
	case PermQueryData:
		return u.Permissions.CanQueryData
	case PermViewStats:
		return u.Permissions.CanViewStats
	case PermViewUnpaid:
		return u.Permissions.CanViewUnpaid
	case PermEditDelete:
		return u.Permissions.CanEditDelete
	case PermViewClassification:
		return u.Permissions.CanViewClassification
	}
	return false
}

// HashPassword is a placeholder encoding; see the package comment.
func HashPassword(password string) string {
	return base64.StdEncoding.EncodeToString([]byte(password))
}

// CheckPassword compares password against a placeholder hash.
func CheckPassword(hash, password string) bool {
	return hash == HashPassword(password)
}

// =============================================================================
// STORE
// =============================================================================

// Store persists users.
type Store interface {
	ListUsers(ctx context.Context) ([]User, error)
	// GetUser returns nil and no error when the id does not exist.
	GetUser(ctx context.Context, id string) (*User, error)
	// GetUserByUsername returns nil and no error when no user matches.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	SaveUser(ctx context.Context, u User) error
	// DeleteUser returns generic.ErrUserNotFound when the id does not exist.
	DeleteUser(ctx context.Context, id string) error
}

// =============================================================================
// SERVICE
// =============================================================================

// Default administrator created on an empty store.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin"
)

// Service implements account management on top of a Store.
type Service struct {
	store Store
	mu    sync.Mutex
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Bootstrap creates the default administrator when there are no users.
// Returns true when it did.
func (s *Service) Bootstrap(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.ListUsers(ctx)
	if err != nil {
		return false, generic.WrapStore("list users", err)
	}
	if len(existing) > 0 {
		return false, nil
	}
	admin := User{
		ID:           uuid.NewString(),
		Name:         "مدير النظام",
		Username:     DefaultAdminUsername,
		PasswordHash: HashPassword(DefaultAdminPassword),
		Role:         RoleAdmin,
		Permissions:  AllPermissions,
	}
	if err := s.store.SaveUser(ctx, admin); err != nil {
		return false, generic.WrapStore("save user", err)
	}
	return true, nil
}

// Authenticate returns the user matching the credentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return User{}, generic.WrapStore("get user", err)
	}
	if u == nil || !CheckPassword(u.PasswordHash, password) {
		return User{}, generic.ErrInvalidCredentials
	}
	return *u, nil
}

// NewUser is the input of Create.
type NewUser struct {
	Name        string
	Username    string
	Password    string
	Permissions Permissions
}

// Create adds a non-admin user. Name, username and password are required;
// usernames are unique.
func (s *Service) Create(ctx context.Context, in NewUser) (User, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Username) == "" {
		return User{}, &generic.ValidationError{Field: "username", Message: "name and username are required"}
	}
	if in.Password == "" {
		return User{}, &generic.ValidationError{Field: "password", Message: "required for a new user"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureUnique(ctx, in.Username, ""); err != nil {
		return User{}, err
	}
	u := User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Username:     in.Username,
		PasswordHash: HashPassword(in.Password),
		Role:         RoleUser,
		Permissions:  in.Permissions,
	}
	if err := s.store.SaveUser(ctx, u); err != nil {
		return User{}, generic.WrapStore("save user", err)
	}
	return u, nil
}

// UserUpdate changes an existing user. An empty Password keeps the old one.
type UserUpdate struct {
	Name        string
	Username    string
	Password    string
	Permissions Permissions
}

// Update modifies name, username, password and permissions. The role is
// never changed here.
func (s *Service) Update(ctx context.Context, id string, in UserUpdate) (User, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Username) == "" {
		return User{}, &generic.ValidationError{Field: "username", Message: "name and username are required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return User{}, generic.WrapStore("get user", err)
	}
	if u == nil {
		return User{}, fmt.Errorf("%w: %s", generic.ErrUserNotFound, id)
	}
	if err := s.ensureUnique(ctx, in.Username, id); err != nil {
		return User{}, err
	}
	u.Name = in.Name
	u.Username = in.Username
	u.Permissions = in.Permissions
	if in.Password != "" {
		u.PasswordHash = HashPassword(in.Password)
	}
	if err := s.store.SaveUser(ctx, *u); err != nil {
		return User{}, generic.WrapStore("save user", err)
	}
	return *u, nil
}

// Delete removes a user. A user cannot delete themself.
func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return &generic.ValidationError{Field: "id", Message: "cannot delete the current user"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.DeleteUser(ctx, id); err != nil {
		if generic.IsNotFound(err) {
			return err
		}
		return generic.WrapStore("delete user", err)
	}
	return nil
}

// Get returns the user with id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return User{}, generic.WrapStore("get user", err)
	}
	if u == nil {
		return User{}, fmt.Errorf("%w: %s", generic.ErrUserNotFound, id)
	}
	return *u, nil
}

// List returns every user.
func (s *Service) List(ctx context.Context) ([]User, error) {
	list, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, generic.WrapStore("list users", err)
	}
	return list, nil
}

func (s *Service) ensureUnique(ctx context.Context, username, selfID string) error {
	other, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return generic.WrapStore("get user", err)
	}
	if other != nil && other.ID != selfID {
		return fmt.Errorf("%w: %s", generic.ErrDuplicateUsername, username)
	}
	return nil
}
