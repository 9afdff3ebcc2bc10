package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/canteen/internal/hash"
	"github.com/Skotchmaster/canteen/internal/models"
	"github.com/Skotchmaster/canteen/internal/repo"
)

type UserService struct {
	Repo   *repo.GormRepo
	Events Publisher
}

func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password required", ErrValidation)
	}

	hashed, err := hash.HashPassword(password)
	if err != nil {
		if errors.Is(err, hash.ErrTooLong) {
			return nil, fmt.Errorf("%w: password too long", ErrValidation)
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
	}

	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		taken, err := tx.EmailTaken(ctx, email)
		if err != nil {
			return storageErr(err, "user")
		}
		if taken {
			return fmt.Errorf("%w: email already registered", ErrConflict)
		}
		if err := tx.CreateUser(ctx, user); err != nil {
			return storageErr(err, "user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, TopicUserEvents, user.ID.String(), map[string]any{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	})

	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "user")
	}
	return user, nil
}
