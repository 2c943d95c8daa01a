package models

// EngagementStats holds the monotonically non-decreasing viewer counters
// for one session. Counters reset to zero on each new session start.
type EngagementStats struct {
	Viewers  int `json:"viewers"`
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
}

// ChatMessage is a viewer chat line, synthetic or relayed.
type ChatMessage struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	IsNewUser bool   `json:"isNewUser"`
}

// Gift is a viewer gift event.
type Gift struct {
	Username string `json:"username"`
	GiftName string `json:"gift_name"`
	Count    int    `json:"count"`
}
