package service

import (
	"context"
	"log/slog"

	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/domain/model"
	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/domain/rbac"
	"github.com/gurmeetsingh567808-debug/ObitoStoreBot/internal/repository"
)

// RosterService — роли пользователей и управление реестром администраторов.
// Владелец задаётся конфигурацией и всегда имеет максимальные права.
type RosterService struct {
	admins   repository.AdminRepository
	registry repository.RegistryRepository
	ownerID  int64
	logger   *slog.Logger
}

// NewRosterService создаёт сервис ролей.
func NewRosterService(
	admins repository.AdminRepository,
	registry repository.RegistryRepository,
	ownerID int64,
	logger *slog.Logger,
) *RosterService {
	return &RosterService{
		admins:   admins,
		registry: registry,
		ownerID:  ownerID,
		logger:   logger.With(slog.String("component", "roster")),
	}
}

// Role возвращает роль пользователя (user / admin / owner).
func (s *RosterService) Role(ctx context.Context, userID int64) (string, error) {
	if userID == s.ownerID {
		return rbac.RoleOwner, nil
	}
	isAdmin, err := s.admins.IsAdmin(ctx, userID)
	if err != nil {
		return "", err
	}
	return rbac.Resolve(userID, s.ownerID, isAdmin), nil
}

// RequireAdmin возвращает ErrForbidden, если роль пользователя ниже admin.
func (s *RosterService) RequireAdmin(ctx context.Context, userID int64) error {
	role, err := s.Role(ctx, userID)
	if err != nil {
		return err
	}
	if !rbac.AtLeast(role, rbac.RoleAdmin) {
		return ErrForbidden
	}
	return nil
}

// RequireOwner возвращает ErrForbidden для всех, кроме владельца.
func (s *RosterService) RequireOwner(userID int64) error {
	if userID != s.ownerID {
		return ErrForbidden
	}
	return nil
}

// AddAdmin добавляет администратора. Только владелец.
func (s *RosterService) AddAdmin(ctx context.Context, actorID, userID int64) error {
	if err := s.RequireOwner(actorID); err != nil {
		return err
	}

	if err := s.admins.Add(ctx, userID, actorID); err != nil {
		return err
	}

	s.logger.Info("Администратор добавлен",
		slog.Int64("user_id", userID),
		slog.Int64("added_by", actorID),
	)
	return nil
}

// RemoveAdmin удаляет администратора. Только владелец; владельца
// удалить нельзя (ErrOwnerImmutable).
func (s *RosterService) RemoveAdmin(ctx context.Context, actorID, userID int64) error {
	if err := s.RequireOwner(actorID); err != nil {
		return err
	}
	if userID == s.ownerID {
		return ErrOwnerImmutable
	}

	if err := s.admins.Remove(ctx, userID); err != nil {
		return err
	}

	s.logger.Info("Администратор удалён",
		slog.Int64("user_id", userID),
		slog.Int64("removed_by", actorID),
	)
	return nil
}

// ListAdmins возвращает идентификаторы администраторов.
// Список открыт для всех пользователей.
func (s *RosterService) ListAdmins(ctx context.Context) ([]int64, error) {
	return s.admins.List(ctx)
}

// Stats возвращает статистику реестра. Только админы.
func (s *RosterService) Stats(ctx context.Context, actorID int64) (*model.RegistryStats, error) {
	if err := s.RequireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return s.registry.Stats(ctx)
}
