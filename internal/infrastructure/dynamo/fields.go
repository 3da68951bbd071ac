package dynamo

// DynamoDB attribute names used in update and condition expressions across repos.
const (
	fieldEnable           = "enable"
	fieldStatus           = "status"
	fieldUpdatedAt        = "updated_at"
	fieldRefreshDigest    = "refresh_digest"
	fieldRefreshExpiresAt = "refresh_expires_at"
	fieldClaimedBy        = "claimed_by"
	fieldClaimedAt        = "claimed_at"
	fieldSentCount        = "sent_count"
	fieldSentAt           = "sent_at"
	fieldProviderID       = "service_provider_id"
	fieldApprovedBy       = "approved_by"
	fieldRejectedBy       = "rejected_by"
	fieldRejectionReason  = "rejection_reason"
)
