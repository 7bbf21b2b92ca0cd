package policy

// Reason tags are the normalized facts the signal extractor can assert
// about a query. Rule conditions reference them by string value, so they
// live here next to the rules that consume them.
const (
	ReasonPhishing              = "phishing"
	ReasonMalware               = "malware"
	ReasonSpam                  = "spam"
	ReasonWhoisUnverified       = "whois_unverified"
	ReasonVerificationCompleted = "verification_completed"
	ReasonPaymentFailure        = "payment_failure"
	ReasonDuplicateCharge       = "duplicate_charge"
	ReasonChargeback            = "chargeback"
	ReasonRedemptionFee         = "redemption_fee"
	ReasonRenewalCompleted      = "renewal_completed"
	ReasonServiceOffline        = "service_offline"
	ReasonTransferLock          = "transfer_lock"
	ReasonCourtOrder            = "court_order"
	ReasonContentRemoved        = "content_removed"
)

// KnownReasons enumerates every reason tag, in a stable order. Used by
// the knowledge base's overlap probing and by extractor tests.
var KnownReasons = []string{
	ReasonPhishing,
	ReasonMalware,
	ReasonSpam,
	ReasonWhoisUnverified,
	ReasonVerificationCompleted,
	ReasonPaymentFailure,
	ReasonDuplicateCharge,
	ReasonChargeback,
	ReasonRedemptionFee,
	ReasonRenewalCompleted,
	ReasonServiceOffline,
	ReasonTransferLock,
	ReasonCourtOrder,
	ReasonContentRemoved,
}
