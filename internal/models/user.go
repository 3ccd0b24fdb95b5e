package models

// User roles.
const (
	RoleMember = "MEMBER"
	RoleAdmin  = "ADMIN"
)

// Newsletter subscription frequencies. An empty string means unsubscribed.
const (
	NewsletterDaily  = "DAILY"
	NewsletterWeekly = "WEEKLY"
)

// Auth providers.
const (
	AuthProviderLocal  = "LOCAL"
	AuthProviderGoogle = "GOOGLE"
)

// User represents a registered community member.
type User struct {
	BaseModel
	Name         string  `json:"name"`
	Email        string  `gorm:"uniqueIndex" json:"email"`
	PasswordHash *string `json:"-"`
	Phone        string  `json:"phone"`
	Bio          string  `json:"bio"`
	Role         string  `gorm:"default:MEMBER" json:"role"`
	Newsletter   string  `json:"newsletter"`
	AuthProvider string  `gorm:"default:LOCAL" json:"auth_provider"`
	ProviderID   string  `json:"-"`

	Badges    []UserBadge `json:"badges,omitempty"`
	Donations []Donation  `json:"donations,omitempty"`
	RSVPs     []EventRSVP `json:"rsvps,omitempty"`
}
