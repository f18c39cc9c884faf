package services

import (
	"context"
	"errors"
	"fmt"

	"usermgr/internal/models"

	"go.uber.org/zap"
)

// ErrUserNotFound matches every *NotFoundError via errors.Is.
var ErrUserNotFound = errors.New("user not found")

// NotFoundError is returned by UpdateUser and DeleteUser when no record has the id.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("user not found with id: %d", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrUserNotFound
}

// UserRepository is the persistence collaborator of UserService.
type UserRepository interface {
	FindAll(ctx context.Context) ([]models.User, error)
	// FindByID reports found == false for a missing id; that is not an error.
	FindByID(ctx context.Context, id int64) (*models.User, bool, error)
	// Save inserts when user.ID is zero and updates the stored record
	// otherwise. Save and Delete return *NotFoundError when the record is
	// gone, so a write never brings a deleted user back.
	Save(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, user *models.User) error
}

type UserService struct {
	Repo   UserRepository
	Logger *zap.Logger
}

func NewUserService(repo UserRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		Repo:   repo,
		Logger: logger,
	}
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.Repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.User, bool, error) {
	return s.Repo.FindByID(ctx, id)
}

// CreateUser persists user as a new record. Any id the caller set is discarded.
func (s *UserService) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	fresh := user.Clone()
	fresh.ID = 0
	saved, err := s.Repo.Save(ctx, fresh)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("User created", zap.Int64("id", saved.ID), zap.String("email", saved.Email))
	return saved, nil
}

// UpdateUser copies the full name, email and phone number from details onto
// the stored record, blanks included, and saves it.
func (s *UserService) UpdateUser(ctx context.Context, id int64, details *models.User) (*models.User, error) {
	user, found, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		s.Logger.Warn("Update of unknown user", zap.Int64("id", id))
		return nil, &NotFoundError{ID: id}
	}

	user.FullName = details.FullName
	user.Email = details.Email
	user.PhoneNumber = details.PhoneNumber

	saved, err := s.Repo.Save(ctx, user)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("User updated", zap.Int64("id", saved.ID))
	return saved, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	user, found, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		s.Logger.Warn("Delete of unknown user", zap.Int64("id", id))
		return &NotFoundError{ID: id}
	}
	if err := s.Repo.Delete(ctx, user); err != nil {
		return err
	}
	s.Logger.Info("User deleted", zap.Int64("id", id))
	return nil
}
