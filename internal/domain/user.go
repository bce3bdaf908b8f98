package domain

type Role string

const (
	RoleLessor Role = "LESSOR"
	RoleLessee Role = "LESSEE"
)

// Actor is the authenticated identity attached to every booking call. The
// auth layer derives it once per request; services trust it and check
// capabilities at their boundary instead of re-deriving roles per call site.
type Actor struct {
	ID   int32
	Role Role
}

// CanBook reports whether the actor may hold cart lines and place orders.
func (a Actor) CanBook() bool {
	return a.Role == RoleLessee
}

// CanManageEquipment reports whether the actor may list equipment and act on
// incoming orders (approve, reject, mark returned).
func (a Actor) CanManageEquipment() bool {
	return a.Role == RoleLessor
}
