package auth

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/swayaa-dev/storefront-backend/internal/users"
	"github.com/swayaa-dev/storefront-backend/pkg/config"
	"github.com/swayaa-dev/storefront-backend/pkg/db"
	"github.com/swayaa-dev/storefront-backend/pkg/db/models"
	"github.com/swayaa-dev/storefront-backend/pkg/enums"
	pkgerrors "github.com/swayaa-dev/storefront-backend/pkg/errors"
	"github.com/swayaa-dev/storefront-backend/pkg/outbox"
	"github.com/swayaa-dev/storefront-backend/pkg/outbox/payloads"
	"github.com/swayaa-dev/storefront-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// registrar owns account creation so the email uniqueness check, the hash,
// and the welcome event all commit or roll back together.
type registrar struct {
	repo   *users.Repository
	tx     txRunner
	outbox outboxPublisher
	pwCfg  config.PasswordConfig
}

// NewRegistrar builds the account creation helper used by the auth service.
func NewRegistrar(repo *users.Repository, tx txRunner, outboxSvc outboxPublisher, pwCfg config.PasswordConfig) (*registrar, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &registrar{repo: repo, tx: tx, outbox: outboxSvc, pwCfg: pwCfg}, nil
}

func (r *registrar) register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)
	if email == "" || name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and name are required")
	}

	hash, err := security.HashPassword(req.Password, r.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		IsActive:     true,
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		user.Phone = &phone
	}

	err = r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := users.NewRepository(tx).Create(ctx, user); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}

		event := outbox.DomainEvent{
			EventType:     enums.OutboxEventUserRegistered,
			AggregateType: enums.OutboxAggregateUser,
			AggregateID:   user.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: user.ID, Role: string(enums.RoleCustomer)},
			Data: payloads.UserRegisteredEvent{
				UserID: user.ID,
				Email:  user.Email,
				Name:   user.Name,
			},
		}
		if err := r.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit registration event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
