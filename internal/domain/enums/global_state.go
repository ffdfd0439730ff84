package enums

// GlobalState is the account-wide lifecycle state. It gates which branch of
// the conversation tree an inbound event may reach at all.
type GlobalState string

const (
	GlobalStateNew          GlobalState = "new"
	GlobalStateRegistration GlobalState = "registration_process"
	GlobalStateActive       GlobalState = "active"
	GlobalStateBlocked      GlobalState = "blocked"
	GlobalStateBanned       GlobalState = "banned"
	GlobalStateRejected     GlobalState = "rejected"
	GlobalStateDeleted      GlobalState = "deleted"
)

// Restricted reports whether every inbound event must be answered with the
// fixed block-reason message instead of entering the state machine.
func (s GlobalState) Restricted() bool {
	switch s {
	case GlobalStateBlocked, GlobalStateBanned, GlobalStateRejected, GlobalStateDeleted:
		return true
	default:
		return false
	}
}
