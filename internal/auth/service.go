// Package auth はユーザー登録、パスワード認証、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/postboard/internal/model"
	"github.com/hitoshi/postboard/internal/repository"
	"github.com/hitoshi/postboard/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

// bcryptが扱えるパスワードの最大バイト数
const maxPasswordBytes = 72

// RegisterInput はユーザー登録の入力値。
type RegisterInput struct {
	Username string `validate:"required,alphanum,min=3,max=32" label:"Username"`
	Email    string `validate:"required,email,max=254" label:"Email"`
	Password string `validate:"required,min=8,max=72" label:"Password"`
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
	BcryptCost    int // パスワードハッシュのコスト
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// Register は入力を検証し、パスワードをハッシュ化してユーザーを作成する。
// usernameが既に使われている場合はDUPLICATE_USERNAMEのAppErrorを返し、何も作成しない。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	// validatorのmaxは文字数で判定するため、バイト数は別に確認する
	if len(in.Password) > maxPasswordBytes {
		return nil, model.NewValidationError("Password must be at most 72 bytes")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, model.NewDuplicateUsernameError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Authenticate はusernameとパスワードを照合する。
// ユーザー不在とパスワード不一致はどちらもINVALID_CREDENTIALSのAppErrorになる。
func (s *Service) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, model.NewInvalidCredentialsError()
		}
		return nil, fmt.Errorf("failed to compare password: %w", err)
	}

	return user, nil
}

// StartSession は新しいセッションを作成し永続化する。
// userIDが空の場合は匿名セッションになる。
func (s *Service) StartSession(ctx context.Context, userID string, data model.SessionData) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		Data:      data,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// Restore はセッションとログイン中ユーザーを取得する。
// セッションが存在しないか期限切れの場合はnilを返す。
// 匿名セッションの場合、ユーザーはnilになる。
func (s *Service) Restore(ctx context.Context, sessionID string) (*model.Session, *model.User, error) {
	if sessionID == "" {
		return nil, nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil || !session.IsAuthenticated() {
		return session, nil, nil
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		// ユーザーが消えたセッションは使わない
		return nil, nil, nil
	}

	return session, user, nil
}

// SaveSessionData はセッションの付随データを保存する。
func (s *Service) SaveSessionData(ctx context.Context, sessionID string, data model.SessionData) error {
	if err := s.sessionRepo.UpdateData(ctx, sessionID, data); err != nil {
		return fmt.Errorf("failed to save session data: %w", err)
	}
	return nil
}

// DestroySession はセッションを破棄する。
func (s *Service) DestroySession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
