package user

import (
	"database/sql"
	"errors"
	"task_tracker/internal/auth"
	"task_tracker/internal/utils"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

// PostgreSQL unique violation error code
const uniqueViolationCode = "23505"

type UserService struct {
	repo UserRepositoryInterface
	db   *sql.DB
}

type UserServiceInterface interface {
	Register(username, email, password string) (*User, error)
	LoginUser(username, password, jwtSecret string) (*auth.TokenPair, error)
	GetUserByID(id int) (*User, error)
}

func NewUserService(repo UserRepositoryInterface, db *sql.DB) UserServiceInterface {
	return &UserService{
		repo: repo,
		db:   db,
	}
}

// Register creates a new user, storing the password only as a bcrypt hash.
// The returned User carries the hash internally but it is never serialized.
func (s *UserService) Register(username, email, password string) (*User, error) {
	hashedPassword, err := auth.GeneratePasswordHash(password)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &User{
		Username: username,
		Email:    email,
		Password: hashedPassword,
	}

	if err := utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		id, err := s.repo.Create(tx, user)
		if err != nil {
			return err
		}
		user.ID = id
		return nil
	}); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		logrus.WithError(err).Error("Failed to create user")
		return nil, err
	}

	// Reload to pick up the server-assigned created_at
	created, err := s.repo.GetByID(s.db, user.ID)
	if err != nil {
		logrus.WithError(err).Warn("Failed to reload user after create")
		return user, nil
	}

	return created, nil
}

// LoginUser validates credentials and returns a JWT token pair.
// Unknown username and wrong password are indistinguishable.
func (s *UserService) LoginUser(username, password, jwtSecret string) (*auth.TokenPair, error) {
	user, err := s.repo.GetByUsername(s.db, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := auth.ComparePasswordHash([]byte(user.Password), password); err != nil {
		return nil, ErrInvalidCredentials
	}

	tokens, err := auth.GenerateTokenPair(user.ID, jwtSecret)
	if err != nil {
		return nil, err
	}

	return tokens, nil
}

// GetUserByID retrieves user by ID
func (s *UserService) GetUserByID(id int) (*User, error) {
	return s.repo.GetByID(s.db, id)
}

// isUniqueViolation checks whether err is a PostgreSQL unique constraint
// violation, which is how the store reports a taken username.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
