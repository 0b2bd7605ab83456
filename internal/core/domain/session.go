package domain

// LinkedInProfile is the optional profile attached to a user.
type LinkedInProfile struct {
	ID        string `json:"id,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"emailAddress,omitempty"`
}

// UserMetadata holds descriptive user fields.
type UserMetadata struct {
	LinkedInProfile *LinkedInProfile `json:"linkedInProfile,omitempty"`
}

// User is the identity behind an API key, returned by the sessions endpoint.
type User struct {
	UserID   string       `json:"userId"`
	Metadata UserMetadata `json:"metadata"`
}

// DisplayName returns a human-readable name for the user.
func (u *User) DisplayName() string {
	if p := u.Metadata.LinkedInProfile; p != nil {
		switch {
		case p.FirstName != "" && p.LastName != "":
			return p.FirstName + " " + p.LastName
		case p.FirstName != "":
			return p.FirstName
		case p.Email != "":
			return p.Email
		}
	}
	return u.UserID
}
