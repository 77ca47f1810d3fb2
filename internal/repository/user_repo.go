package repository

import (
	"gorm.io/gorm"

	"github.com/screenpro/account-server/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *UserRepository) GetByID(id int64) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByProviderUID(provider, providerUID string) (*model.User, error) {
	var user model.User
	err := r.db.Where("provider = ? AND provider_uid = ?", provider, providerUID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByPaddleCustomerID(customerID string) (*model.User, error) {
	var user model.User
	err := r.db.Where("paddle_customer_id = ?", customerID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Update(user *model.User) error {
	return r.db.Save(user).Error
}

func (r *UserRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
}

// DeleteTx removes the user and everything owned by them inside tx.
// Deletion is all-or-nothing; a failed step rolls the whole thing back.
func (r *UserRepository) DeleteTx(tx *gorm.DB, userID int64) error {
	if err := tx.Where("user_id = ?", userID).Delete(&model.Session{}).Error; err != nil {
		return err
	}
	if err := tx.Where("user_id = ?", userID).Delete(&model.Subscription{}).Error; err != nil {
		return err
	}
	if err := tx.Where("user_id = ?", userID).Delete(&model.Device{}).Error; err != nil {
		return err
	}
	if err := tx.Where("user_id = ?", userID).Delete(&model.CancelFeedback{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", userID).Delete(&model.User{}).Error
}

// DB exposes the underlying handle for transaction scoping
func (r *UserRepository) DB() *gorm.DB {
	return r.db
}
