package models

import (
	"time"
)

// Deal - лид, созданный из беседы после того, как посетитель оставил контакты.
type Deal struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversationId"`
	SessionID      string     `json:"sessionId"`
	UserInfo       UserInfo   `json:"userInfo"`
	ProjectDetails string     `json:"projectDetails"`
	Budget         string     `json:"budget,omitempty"`
	Timeline       string     `json:"timeline,omitempty"`
	Status         string     `json:"status"`
	Notes          NullString `json:"notes"`
	ClosedAt       NullTime   `json:"closedAt"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// DealWithTranscript - сделка вместе с беседой, из которой она создана.
type DealWithTranscript struct {
	Deal         Deal         `json:"deal"`
	Conversation Conversation `json:"conversation"`
}
