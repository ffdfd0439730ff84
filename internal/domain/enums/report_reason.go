package enums

import "strings"

type ReportReason string

const (
	ReportReasonFakeProfile   ReportReason = "fake_profile"
	ReportReasonSaleGoods     ReportReason = "sale_goods"
	ReportReasonInappropriate ReportReason = "inappropriate_content"
	ReportReasonMinorUser     ReportReason = "minor_user"
	ReportReasonThreats       ReportReason = "threats"
)

// ParseReportReason validates a wire value coming from a callback payload.
func ParseReportReason(raw string) (ReportReason, bool) {
	switch ReportReason(strings.ToLower(strings.TrimSpace(raw))) {
	case ReportReasonFakeProfile:
		return ReportReasonFakeProfile, true
	case ReportReasonSaleGoods:
		return ReportReasonSaleGoods, true
	case ReportReasonInappropriate:
		return ReportReasonInappropriate, true
	case ReportReasonMinorUser:
		return ReportReasonMinorUser, true
	case ReportReasonThreats:
		return ReportReasonThreats, true
	default:
		return "", false
	}
}
