package controllers

import "github.com/zaqqye/seb_exam_gate/internal/models"

var allowedRoles = map[string]struct{}{
	models.RoleAdmin:    {},
	models.RolePengawas: {},
	models.RoleSiswa:    {},
}

func IsValidRole(role string) bool {
	_, ok := allowedRoles[role]
	return ok
}
