package profiles

import (
	"time"

	"github.com/spring2life/telehealth-portal/internal/identity"
)

// Profile represents a portal account: patient, provider, or admin.
// Provider-specific fields are zero-valued for non-providers.
type Profile struct {
	ID         string        `json:"id"`
	Email      string        `json:"email"`
	FullName   string        `json:"full_name"`
	Role       identity.Role `json:"role"`
	Phone      string        `json:"phone,omitempty"`
	Timezone   string        `json:"timezone,omitempty"`
	AvatarURL  string        `json:"avatar_url,omitempty"`
	Bio        string        `json:"bio,omitempty"`
	Specialty  string        `json:"specialty,omitempty"`
	Telehealth bool          `json:"telehealth,omitempty"`
	HourlyRate int           `json:"hourly_rate,omitempty"`
	IsActive   bool          `json:"is_active"`
	CreatedAt  time.Time     `json:"created_at"`
}

// IsProvider reports whether the profile belongs to a provider account.
func (p *Profile) IsProvider() bool {
	return p.Role == identity.RoleProvider
}
