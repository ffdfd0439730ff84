package enums

type BlockReason string

const (
	BlockReasonNone            BlockReason = ""
	BlockReasonSpam            BlockReason = "spam"
	BlockReasonOffensive       BlockReason = "offensive_behavior"
	BlockReasonInappropriate   BlockReason = "inappropriate_content"
	BlockReasonFraud           BlockReason = "fraud"
	BlockReasonImpersonation   BlockReason = "impersonation"
	BlockReasonCommunityRules  BlockReason = "community_rules_violation"
	BlockReasonInactivity      BlockReason = "inactivity"
	BlockReasonDeletedHimself  BlockReason = "deleted_himself"
	BlockReasonFaceNotDetected BlockReason = "face_not_detected"
	BlockReasonManyComplaints  BlockReason = "multiple_complaints"
)
