package database

import (
	"log"

	"gorm.io/gorm"

	"github.com/zaqqye/seb_exam_gate/internal/config"
	"github.com/zaqqye/seb_exam_gate/internal/models"
	"github.com/zaqqye/seb_exam_gate/internal/utils"
)

func SeedAdmin(db *gorm.DB, cfg *config.Config) error {
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	username := cfg.AdminUsername
	if username == "" {
		username = "admin"
	}
	email := cfg.AdminEmail
	if email == "" {
		email = "admin@example.com"
	}
	fullName := cfg.AdminFullName
	if fullName == "" {
		fullName = "Administrator"
	}
	password := cfg.AdminPassword
	if password == "" {
		password = "admin123"
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		Username: username,
		FullName: fullName,
		Email:    email,
		Password: hashed,
		Role:     models.RoleAdmin,
		Active:   true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	log.Println("Seeded initial admin:", username)
	return nil
}
