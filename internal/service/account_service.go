package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/postjournal/internal/auth"
	"github.com/d60-Lab/postjournal/internal/model"
	"github.com/d60-Lab/postjournal/internal/repository"
	"github.com/d60-Lab/postjournal/pkg/logger"
	"github.com/d60-Lab/postjournal/pkg/validator"
)

const maxUsernameLen = 64

// RegisterInput 注册参数
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginResult 登录成功返回的令牌
type LoginResult struct {
	Token     string      `json:"access_token"`
	TokenType string      `json:"token_type"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// AccountService 账户：注册、登录、字段修改（带审计）、注销
type AccountService struct {
	db          *gorm.DB
	users       repository.UserRepository
	posts       repository.PostRepository
	journalRepo repository.JournalRepository
	journal     *Journal
	authority   *auth.Authority
	hashCost    int
}

func NewAccountService(db *gorm.DB, users repository.UserRepository, posts repository.PostRepository, journalRepo repository.JournalRepository, authority *auth.Authority) *AccountService {
	return &AccountService{
		db:          db,
		users:       users,
		posts:       posts,
		journalRepo: journalRepo,
		journal:     NewJournal(journalRepo),
		authority:   authority,
		hashCost:    bcrypt.DefaultCost,
	}
}

// SetHashCost 调整 bcrypt 代价，测试里用 bcrypt.MinCost
func (s *AccountService) SetHashCost(cost int) { s.hashCost = cost }

// Journal 审计日志查询入口
func (s *AccountService) Journal() *Journal { return s.journal }

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if !validator.Password(in.Password) {
		return nil, fmt.Errorf("%w: %s", ErrValidation, validator.PasswordRuleMessage)
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", ErrValidation)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: lookup email: %v", ErrPersistence, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{Username: username, Email: email, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("%w: create user: %v", ErrPersistence, err)
	}
	logger.Info("user registered", zap.String("user", u.ID))
	return u, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lookup email: %v", ErrPersistence, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	token, exp, err := s.authority.Issue(auth.Claims{UserID: u.ID, Username: u.Username, Email: u.Email}, 0)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{Token: token, TokenType: "bearer", ExpiresAt: exp, User: u}, nil
}

// Logout 吊销当前令牌
func (s *AccountService) Logout(ctx context.Context, token string) error {
	if err := s.authority.Revoke(ctx, token); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *AccountService) Me(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load user: %v", ErrPersistence, err)
	}
	return u, nil
}

// MeField 读取当前用户的单个字段；密码不可读
func (s *AccountService) MeField(ctx context.Context, userID, field string) (string, error) {
	u, err := s.Me(ctx, userID)
	if err != nil {
		return "", err
	}
	switch field {
	case "id":
		return u.ID, nil
	case "username":
		return u.Username, nil
	case "email":
		return u.Email, nil
	case "created_at":
		return model.FormatTime(u.CreatedAt), nil
	case "updated_at":
		return model.FormatTime(u.UpdatedAt), nil
	case "password", "password_hash":
		return "", fmt.Errorf("%w: field %q is not readable", ErrForbidden, field)
	}
	return "", fmt.Errorf("%w: unknown field %q", ErrValidation, field)
}

// fieldChange 一次字段修改：stored 写入 users 表，before/after 写入审计日志
// unchanged 时不写 users 表，审计记录照常追加
type fieldChange struct {
	stored    string
	before    string
	after     string
	unchanged bool
}

// applyChange 在一个事务里读取用户、更新字段并追加审计记录；每次成功调用都对应一条记录
func (s *AccountService) applyChange(ctx context.Context, userID string, field model.JournalField, compute func(tx *gorm.DB, u *model.User) (*fieldChange, error)) (*model.User, error) {
	var changed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		u, err := users.FindByIDForUpdate(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: user", ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("%w: load user: %v", ErrPersistence, err)
		}

		ch, err := compute(tx, u)
		if err != nil {
			return err
		}
		if !ch.unchanged {
			if err := users.UpdateField(ctx, u.ID, field, ch.stored); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return fmt.Errorf("%w: user", ErrNotFound)
				}
				return fmt.Errorf("%w: update %s: %v", ErrPersistence, field, err)
			}
			changed = true
		}
		_, err = s.journal.WithTx(tx).RecordFieldChange(ctx, u.ID, field, ch.before, ch.after)
		return err
	})
	if err != nil {
		return nil, err
	}
	if changed {
		logger.Info("user field updated", zap.String("user", userID), zap.String("field", string(field)))
	}
	return s.Me(ctx, userID)
}

func (s *AccountService) UpdateUsername(ctx context.Context, userID, newName string) (*model.User, error) {
	newName = strings.TrimSpace(newName)
	if err := validateUsername(newName); err != nil {
		return nil, err
	}
	return s.applyChange(ctx, userID, model.FieldUsername, func(_ *gorm.DB, u *model.User) (*fieldChange, error) {
		if u.Username == newName {
			return &fieldChange{before: newName, after: newName, unchanged: true}, nil
		}
		return &fieldChange{stored: newName, before: u.Username, after: newName}, nil
	})
}

func (s *AccountService) UpdateEmail(ctx context.Context, userID, newEmail string) (*model.User, error) {
	email, err := normalizeEmail(newEmail)
	if err != nil {
		return nil, err
	}
	return s.applyChange(ctx, userID, model.FieldEmail, func(tx *gorm.DB, u *model.User) (*fieldChange, error) {
		if u.Email == email {
			return &fieldChange{before: email, after: email, unchanged: true}, nil
		}
		other, err := s.users.WithTx(tx).FindByEmail(ctx, email)
		switch {
		case err == nil && other.ID != u.ID:
			return nil, fmt.Errorf("%w: email already registered", ErrValidation)
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("%w: lookup email: %v", ErrPersistence, err)
		}
		return &fieldChange{stored: email, before: u.Email, after: email}, nil
	})
}

func (s *AccountService) UpdatePassword(ctx context.Context, userID, newPassword string) (*model.User, error) {
	if !validator.Password(newPassword) {
		return nil, fmt.Errorf("%w: %s", ErrValidation, validator.PasswordRuleMessage)
	}
	return s.applyChange(ctx, userID, model.FieldPassword, func(_ *gorm.DB, u *model.User) (*fieldChange, error) {
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(newPassword)) == nil {
			return &fieldChange{before: model.RedactedValue, after: model.RedactedValue, unchanged: true}, nil
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.hashCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		return &fieldChange{stored: string(hash), before: model.RedactedValue, after: model.RedactedValue}, nil
	})
}

// DeleteAccount 删除用户及其审计日志、帖子和帖子下的评论，然后吊销当前令牌
func (s *AccountService) DeleteAccount(ctx context.Context, userID, token string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.journalRepo.WithTx(tx).DeleteBySubject(ctx, userID); err != nil {
			return fmt.Errorf("%w: delete journal: %v", ErrPersistence, err)
		}
		if _, err := s.posts.WithTx(tx).DeleteByAuthor(ctx, userID); err != nil {
			return fmt.Errorf("%w: delete posts: %v", ErrPersistence, err)
		}
		n, err := s.users.WithTx(tx).Delete(ctx, userID)
		if err != nil {
			return fmt.Errorf("%w: delete user: %v", ErrPersistence, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("user deleted", zap.String("user", userID))

	if token != "" {
		if err := s.authority.Revoke(ctx, token); err != nil {
			logger.Warn("revoke token after account deletion failed", zap.String("user", userID), zap.Error(err))
		}
	}
	return nil
}

func validateUsername(name string) error {
	if name == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if len(name) > maxUsernameLen {
		return fmt.Errorf("%w: username is too long", ErrValidation)
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validator.Email(email); err != nil {
		return "", fmt.Errorf("%w: invalid email", ErrValidation)
	}
	return email, nil
}
