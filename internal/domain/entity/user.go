package entity

import "strings"

// Roles válidos en los tokens. Solo admin actúa como aprobador privilegiado.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// Actor identifica a quien ejecuta una operación sobre el motor.
type Actor struct {
	UserID     string
	UnitID     string
	Role       string
	Privileged bool
}

// NewActor deriva el privilegio desde el rol.
func NewActor(userID, unitID, role string) Actor {
	return Actor{UserID: userID, UnitID: unitID, Role: role, Privileged: strings.EqualFold(role, RoleAdmin)}
}
