package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/mail"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"task-tracker/config"
	"task-tracker/logging"
	"task-tracker/models"
	"task-tracker/repositories"
)

type UserService struct {
	repo       repositories.UserRepository
	JWTService *JWTService
	hashCost   int
}

func NewUserService(repo repositories.UserRepository, jwtService *JWTService) *UserService {
	return &UserService{repo: repo, JWTService: jwtService, hashCost: bcrypt.DefaultCost}
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || strings.ToLower(addr.Address) != email {
		return validationError("invalid email")
	}
	return nil
}

// ValidatePassword enforces length, an uppercase letter, a digit and one of
// the special characters.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return validationError("password must be at least 8 characters long")
	}
	if !strings.ContainsAny(password, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		return validationError("password must contain at least one uppercase letter")
	}
	if !strings.ContainsAny(password, "0123456789") {
		return validationError("password must contain at least one number")
	}
	if !strings.ContainsAny(password, "!@#$%^&*.,") {
		return validationError("password must contain at least one special character")
	}
	return nil
}

// Register creates a user-role account. Managers are provisioned through the
// seed file only.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	name := html.EscapeString(strings.TrimSpace(in.Name))
	if name == "" {
		return nil, validationError("name is required")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	return s.createUser(ctx, models.User{Name: name, Email: email, Role: models.RoleUser}, in.Password)
}

func (s *UserService) createUser(ctx context.Context, user models.User, password string) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashed)

	saved, err := s.repo.InsertUser(ctx, user)
	if errors.Is(err, repositories.ErrDuplicate) {
		return nil, fmt.Errorf("%w: email %s is already registered", ErrConflict, user.Email)
	}
	if err != nil {
		return nil, repositoryFault("save user", err)
	}
	saved.Password = ""
	return saved, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repo.FindUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	}
	if err != nil {
		return nil, repositoryFault("load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	}

	token, expires, err := s.JWTService.GenerateAuthToken(*user)
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return &Session{Token: token, ExpiresAt: expires, User: *user}, nil
}

// Me returns the account behind the actor.
func (s *UserService) Me(ctx context.Context, actor models.Actor) (*models.User, error) {
	user, err := s.repo.FindUserByID(ctx, actor.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: account no longer exists", ErrUnauthenticated)
	}
	if err != nil {
		return nil, repositoryFault("load user", err)
	}
	user.Password = ""
	return user, nil
}

// EnsureSeedUsers creates any seed account whose email is not registered yet.
func (s *UserService) EnsureSeedUsers(ctx context.Context, seed *config.Seed) (int, error) {
	created := 0
	for _, su := range seed.Users {
		email := normalizeEmail(su.Email)
		_, err := s.repo.FindUserByEmail(ctx, email)
		if err == nil {
			continue
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return created, repositoryFault("load user", err)
		}

		user := models.User{ID: primitive.NewObjectID(), Name: su.Name, Email: email, Role: models.Role(su.Role)}
		if _, err := s.createUser(ctx, user, su.Password); err != nil {
			return created, err
		}
		created++
		logging.Logger.Infof("Event ID: SEED_USER_CREATED, Description: seeded %s account %s", su.Role, email)
	}
	return created, nil
}
