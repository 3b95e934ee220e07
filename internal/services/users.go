package services

import (
	"context"
	"errors"
	"rewear/internal/apperr"
	"rewear/internal/models"
	"rewear/internal/utils"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var validate = validator.New()

type UserService struct {
	db           *gorm.DB
	log          logrus.FieldLogger
	welcomeBonus int
}

func NewUserService(db *gorm.DB, log logrus.FieldLogger, welcomeBonus int) *UserService {
	return &UserService{db: db, log: log, welcomeBonus: welcomeBonus}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

type ProfileUpdate struct {
	Name     *string
	Bio      *string
	Location *string
	Avatar   *string
}

type ProfileStats struct {
	TotalItems    int64 `json:"total_items"`
	ApprovedItems int64 `json:"approved_items"`
	TotalSwaps    int64 `json:"total_swaps"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and credits the welcome bonus.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || in.Password == "" || name == "" {
		return nil, apperr.Validation("Email, password and name are required")
	}
	if err := validate.Var(email, "email,max=120"); err != nil {
		return nil, apperr.Validation("Invalid email address")
	}
	if len(in.Password) < 6 {
		return nil, apperr.Validation("Password must be at least 6 characters")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("Registration failed", err)
	}

	user := models.User{
		Email:    email,
		Name:     name,
		Password: hash,
		Role:     models.RoleUser,
		IsActive: true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			if apperr.IsDuplicate(err) {
				return apperr.Conflict("Email already registered")
			}
			return err
		}
		if s.welcomeBonus > 0 {
			if err := AddPoints(tx, user.ID, s.welcomeBonus, ActionWelcomeBonus, nil); err != nil {
				return err
			}
			user.Points += s.welcomeBonus
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email}).Info("User registered")
	return &user, nil
}

// Authenticate checks credentials. Unknown email and wrong password share one
// message.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("Email and password are required")
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("Invalid email or password")
		}
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, apperr.Unauthorized("Invalid email or password")
	}
	if !user.IsActive {
		return nil, apperr.Forbidden("Account is deactivated")
	}
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile applies the non-nil fields.
func (s *UserService) UpdateProfile(ctx context.Context, id uint, in ProfileUpdate) (*models.User, error) {
	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("Name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Bio != nil {
		updates["bio"] = strings.TrimSpace(*in.Bio)
	}
	if in.Location != nil {
		updates["location"] = strings.TrimSpace(*in.Location)
	}
	if in.Avatar != nil {
		updates["avatar"] = strings.TrimSpace(*in.Avatar)
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

// Stats counts the user's listings and completed exchanges as a requester.
func (s *UserService) Stats(ctx context.Context, id uint) (ProfileStats, error) {
	var stats ProfileStats
	conn := s.db.WithContext(ctx)
	if err := conn.Model(&models.Item{}).Where("user_id = ?", id).Count(&stats.TotalItems).Error; err != nil {
		return stats, err
	}
	if err := conn.Model(&models.Item{}).
		Where("user_id = ? AND status = ?", id, models.ItemApproved).
		Count(&stats.ApprovedItems).Error; err != nil {
		return stats, err
	}
	err := conn.Model(&models.SwapRequest{}).
		Where("requester_id = ? AND status IN ?", id, []string{models.SwapAccepted, models.SwapCompleted}).
		Count(&stats.TotalSwaps).Error
	return stats, err
}

// PointHistory returns the point log, newest first.
func (s *UserService) PointHistory(ctx context.Context, id uint, limit int) ([]models.PointLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var logs []models.PointLog
	err := s.db.WithContext(ctx).
		Where("user_id = ?", id).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
