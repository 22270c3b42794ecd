package model

// SessionState is the lifecycle state of a SPYN session.
type SessionState string

const (
	SessionStateIdle     SessionState = "idle"
	SessionStateActive   SessionState = "active"
	SessionStateSettling SessionState = "settling"
	SessionStateEnded    SessionState = "ended"
)

// User types
type UserType string

const (
	UserTypeDJ         UserType = "dj"
	UserTypeProducer   UserType = "producer"
	UserTypeDJProducer UserType = "dj_producer"
	UserTypeLabel      UserType = "label"
)

var ValidUserTypes = []UserType{
	UserTypeDJ, UserTypeProducer, UserTypeDJProducer, UserTypeLabel,
}

// Track moderation status
type TrackStatus string

const (
	TrackStatusPending  TrackStatus = "pending"
	TrackStatusApproved TrackStatus = "approved"
	TrackStatusRejected TrackStatus = "rejected"
)

// VenueClassification says whether the current venue qualifies for
// session rewards.
type VenueClassification string

const (
	VenueValid   VenueClassification = "valid"
	VenueInvalid VenueClassification = "invalid"
	VenueUnknown VenueClassification = "unknown"
)

// Reward types and reasons
const (
	RewardTypeBlackDiamond = "black_diamond"
	RewardReasonSpynSet    = "spyn_set"
)

// Message types
const (
	MessageTypeText  = "text"
	MessageTypeVoice = "voice"
)
