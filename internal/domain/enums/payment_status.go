package enums

// PaymentStatus mirrors the provider's order lifecycle. The core only reacts
// to pending, success and the terminal failure states.
type PaymentStatus string

const (
	PaymentStatusNotRequired PaymentStatus = "not_required"
	PaymentStatusInProcess   PaymentStatus = "in_process"
	PaymentStatusSuccess     PaymentStatus = "success"
	PaymentStatusExpired     PaymentStatus = "expired"
	PaymentStatusHold        PaymentStatus = "hold"
)

// Terminal reports whether polling for this order may stop.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusSuccess, PaymentStatusExpired:
		return true
	default:
		return false
	}
}
