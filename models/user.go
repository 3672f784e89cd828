package models

// PortalUser is an account as served by the upstream portal API.
type PortalUser struct {
	ID            int    `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email,omitempty"`
	ShopName      string `json:"shop_name,omitempty"`
	StaffName     string `json:"staff_name,omitempty"`
	MobileNumber  string `json:"mobile_number,omitempty"`
	Role          string `json:"role"`
	IsActive      bool   `json:"is_active"`
	CreatedAt     string `json:"created_at,omitempty"`
	PlainPassword string `json:"plain_password,omitempty"`
}

// Identity is the authenticated principal attached to a gateway session.
type Identity struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
