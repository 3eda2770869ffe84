package enums

import "fmt"

// ManagerRole identifies what a manager may do within a company.
type ManagerRole string

const (
	ManagerRoleAdmin      ManagerRole = "admin"
	ManagerRoleManager    ManagerRole = "manager"
	ManagerRoleAccountant ManagerRole = "accountant"
)

var validManagerRoles = []ManagerRole{
	ManagerRoleAdmin,
	ManagerRoleManager,
	ManagerRoleAccountant,
}

// String implements fmt.Stringer.
func (m ManagerRole) String() string {
	return string(m)
}

// IsValid reports whether the value is a known ManagerRole.
func (m ManagerRole) IsValid() bool {
	for _, candidate := range validManagerRoles {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseManagerRole converts raw input into a ManagerRole.
func ParseManagerRole(value string) (ManagerRole, error) {
	for _, candidate := range validManagerRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid manager role %q", value)
}
