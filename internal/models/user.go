package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin    = "admin"
	RolePengawas = "pengawas"
	RoleSiswa    = "siswa"
)

type User struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Username  string `gorm:"uniqueIndex"`
	FullName  string
	Email     string `gorm:"uniqueIndex"`
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
