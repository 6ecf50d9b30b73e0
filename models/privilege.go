package models

// PrivilegeTier is an ordered authorization level
type PrivilegeTier int

const (
	TierGeneral PrivilegeTier = iota + 1
	TierAdmin
	TierConsole
)

func (t PrivilegeTier) String() string {
	switch t {
	case TierGeneral:
		return "general"
	case TierAdmin:
		return "admin"
	case TierConsole:
		return "console"
	default:
		return "unknown"
	}
}

// Allows reports whether a caller at tier t may run something requiring min
func (t PrivilegeTier) Allows(min PrivilegeTier) bool {
	return t >= min
}
