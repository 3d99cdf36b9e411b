package models

// ConnectionStatus is the outcome of a connectivity probe against WordPress.
type ConnectionStatus struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
	APIURL     string `json:"api_url"`
}

// AuthSession is returned by a successful WordPress login.
type AuthSession struct {
	Token string        `json:"token"`
	User  WordPressUser `json:"user"`
}

// RemoteReservation is a reservation document created in WordPress.
type RemoteReservation struct {
	ID     int64  `json:"id"`
	Status string `json:"status,omitempty"`
	Link   string `json:"link,omitempty"`
}

// URLCheck is the probe result for one WordPress URL.
type URLCheck struct {
	URL     string `json:"url"`
	Status  int    `json:"status"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// URLReport aggregates URL probes.
type URLReport struct {
	TotalURLs      int        `json:"total_urls"`
	SuccessfulURLs int        `json:"successful_urls"`
	Results        []URLCheck `json:"results"`
}

// ClientInfo describes the configured WordPress endpoints.
type ClientInfo struct {
	APIURL  string `json:"api_url"`
	HomeURL string `json:"home_url"`
}
