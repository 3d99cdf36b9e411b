package models

// UserInfo is the authentication state reported to the calendar front end.
type UserInfo struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	Email         string `json:"email,omitempty"`
}

// WordPressUser is a user record normalised from the remote content system.
type WordPressUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}
