package guard

import "github.com/moaz267/furniture/internal/domain"

type Capability string

const (
	ViewOrders     Capability = "viewOrders"
	UpdateOrders   Capability = "updateOrders"
	DeleteOrders   Capability = "deleteOrders"
	ManageProducts Capability = "manageProducts"
	ReadMessages   Capability = "readMessages"
	ManageRoles    Capability = "manageRoles"
)

// Capabilities is the admin surface a role unlocks. It is computed once per
// request from the caller's strongest role.
type Capabilities struct {
	CanViewOrders     bool
	CanUpdateOrders   bool
	CanDeleteOrders   bool
	CanManageProducts bool
	CanReadMessages   bool
	CanManageRoles    bool
}

func For(role domain.Role) Capabilities {
	switch role {
	case domain.RoleOwner:
		return Capabilities{
			CanViewOrders:     true,
			CanUpdateOrders:   true,
			CanDeleteOrders:   true,
			CanManageProducts: true,
			CanReadMessages:   true,
			CanManageRoles:    true,
		}
	case domain.RoleAdmin:
		return Capabilities{
			CanViewOrders:     true,
			CanUpdateOrders:   true,
			CanManageProducts: true,
			CanReadMessages:   true,
		}
	}
	return Capabilities{}
}

func (c Capabilities) Has(capability Capability) bool {
	switch capability {
	case ViewOrders:
		return c.CanViewOrders
	case UpdateOrders:
		return c.CanUpdateOrders
	case DeleteOrders:
		return c.CanDeleteOrders
	case ManageProducts:
		return c.CanManageProducts
	case ReadMessages:
		return c.CanReadMessages
	case ManageRoles:
		return c.CanManageRoles
	}
	return false
}
