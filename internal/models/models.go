package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// Account covers both admins and students. Optional identity columns are
// pointers so that missing values land as NULL and never trip the unique
// indexes.
type Account struct {
	ID           string    `gorm:"primaryKey;size:36"          json:"id"`
	Email        string    `gorm:"uniqueIndex;not null;size:320" json:"email"`
	PasswordHash *string   `gorm:"size:100"                    json:"-"`
	Role         string    `gorm:"not null;size:16;index"      json:"role"`
	Name         *string   `gorm:"size:200"                    json:"name"`
	MobileNo     *string   `gorm:"uniqueIndex;size:32"         json:"mobileNo"`
	Age          *int      `                                   json:"age"`
	Gender       *string   `gorm:"size:32"                     json:"gender"`
	Aadhar       *string   `gorm:"uniqueIndex;size:32"         json:"aadhar"`
	Course       *string   `gorm:"size:200"                    json:"course"`
	College      *string   `gorm:"size:200"                    json:"college"`
	Depo         *string   `gorm:"size:200"                    json:"depo"`
	RollNumber   *string   `gorm:"uniqueIndex;size:64"         json:"rollNumber"`
	CreatedAt    time.Time `                                   json:"createdAt"`
	UpdatedAt    time.Time `                                   json:"updatedAt"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Role == "" {
		a.Role = RoleStudent
	}
	return nil
}

func (a *Account) IsAdmin() bool { return a.Role == RoleAdmin }

// Str turns "" into nil so optional columns stay NULL.
func Str(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Account{})
}
