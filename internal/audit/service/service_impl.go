package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	auditdomain "github.com/studioops/billing/internal/audit/domain"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  auditdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) AuditLog(ctx context.Context, actorType auditdomain.ActorType, actorID *string, action, targetType string, targetID *string, metadata map[string]any) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}
	targetType = strings.TrimSpace(targetType)
	if targetType == "" {
		return auditdomain.ErrInvalidTargetType
	}
	if actorType == "" {
		actorType = auditdomain.ActorTypeSystem
	}

	fields := datatypes.JSONMap{}
	for key, value := range metadata {
		if strings.TrimSpace(key) == "" {
			continue
		}
		fields[key] = value
	}

	entry := &auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		ActorType:  string(actorType),
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   fields,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, s.db, entry); err != nil {
		s.log.Warn("audit log write failed", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}
