package users

// Profile is the client-side snapshot of the authenticated user. It is the
// subset of account data the backend returns from /user/me and from the
// auth exchange endpoints, and the shape persisted by the credential store.
type Profile struct {
	ID       string `json:"id,omitempty"`              // Unique identifier for the user
	Email    string `json:"email,omitempty"`           // User's email address
	Nickname string `json:"nickname,omitempty"`        // Display name shown in the app
	ImageURL string `json:"profileImageUrl,omitempty"` // Avatar URL
}

// DisplayName returns the best human-readable name for the profile.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.Nickname != "" {
		return p.Nickname
	}
	return p.Email
}
