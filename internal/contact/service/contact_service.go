package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moaz267/furniture/internal/domain"
	"github.com/moaz267/furniture/internal/dto"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type MessageRepository interface {
	Create(ctx context.Context, m *domain.ContactMessage) error
	List(ctx context.Context, limit, offset int) ([]domain.ContactMessage, error)
	Counts(ctx context.Context) (total int, unread int, err error)
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type Validator interface {
	Struct(s any) error
}

type Inbox struct {
	Messages []domain.ContactMessage
	Total    int
	Unread   int
}

type ContactService struct {
	repo     MessageRepository
	validate Validator
	logger   *zap.Logger
	now      func() time.Time
}

func NewContactService(repo MessageRepository, validate Validator, logger *zap.Logger) *ContactService {
	return &ContactService{repo: repo, validate: validate, logger: logger, now: time.Now}
}

func (s *ContactService) Submit(ctx context.Context, req dto.ContactRequest) (*domain.ContactMessage, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	m := &domain.ContactMessage{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Subject:   req.Subject,
		Message:   req.Message,
		CreatedAt: s.now().UTC(),
	}
	if req.Phone != "" {
		m.Phone = &req.Phone
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.logger.Info("contact message received", zap.String("messageId", m.ID))
	return m, nil
}

func (s *ContactService) Inbox(ctx context.Context, limit, offset int) (*Inbox, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	messages, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	total, unread, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, err
	}
	return &Inbox{Messages: messages, Total: total, Unread: unread}, nil
}

func (s *ContactService) MarkRead(ctx context.Context, id string) error {
	return s.repo.MarkRead(ctx, id)
}

func (s *ContactService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("contact message deleted", zap.String("messageId", id))
	return nil
}
