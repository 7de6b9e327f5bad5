package services

import (
	"context"
	"errors"
	"strings"

	"vehicle-vault-api/models"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 6

// Same rules gin applies to request bodies.
var validate = validator.New()

type UserService struct {
	db         *gorm.DB
	adminEmail string
	hashCost   int
	dummyHash  []byte
}

// NewUserService creates the account service. A user registering with
// adminEmail (if non-empty) starts as an admin.
func NewUserService(db *gorm.DB, adminEmail string) *UserService {
	return (&UserService{
		db:         db,
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
	}).WithHashCost(bcrypt.DefaultCost)
}

// WithHashCost sets the bcrypt cost (tests use bcrypt.MinCost).
func (s *UserService) WithHashCost(cost int) *UserService {
	s.hashCost = cost
	// Compared against when the email is unknown so both login failures cost the same.
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("vehicle-vault-timing"), cost)
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and returns it.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return nil, validationError("name is required")
	}
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, validationError("a valid email is required")
	}
	if len(password) < minPasswordLength {
		return nil, validationError("password must be at least %d characters", minPasswordLength)
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      s.adminEmail != "" && email == s.adminEmail,
	}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return &user, nil
}

// Login verifies credentials. Unknown email and wrong password yield the same error.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.db.WithContext(ctx).Order("name asc").Find(&users).Error
	return users, err
}

// SetAdmin sets the admin flag. Setting the current value again succeeds.
func (s *UserService) SetAdmin(ctx context.Context, id uint, isAdmin bool) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("is_admin", isAdmin).Error; err != nil {
		return nil, err
	}
	user.IsAdmin = isAdmin
	return user, nil
}

// UpdateProfile changes the display name.
func (s *UserService) UpdateProfile(ctx context.Context, actor Actor, id uint, name string) (*models.User, error) {
	if !actor.CanManage(id) {
		return nil, ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("name is required")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("name", name).Error; err != nil {
		return nil, err
	}
	user.Name = name
	return user, nil
}

// Delete removes the user together with their cars, messages and
// notifications, in one transaction.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").First(&user, id).Error; err != nil {
			return notFound(err, ErrUserNotFound)
		}
		if err := tx.Where("owner_id = ?", id).Delete(&models.Car{}).Error; err != nil {
			return err
		}
		if err := tx.Where("sender_id = ? OR receiver_id = ?", id, id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? OR requester_id = ?", id, id).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}
