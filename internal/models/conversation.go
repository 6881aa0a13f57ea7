package models

import "time"

// ChatMessage - одна реплика в беседе посетителя с ассистентом.
type ChatMessage struct {
	Role      string    `json:"role"` // constants.ROLE_USER или constants.ROLE_ASSISTANT
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// UserInfo - контактные данные посетителя.
type UserInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// IsEmpty сообщает, что контактные данные не заполнены.
func (u UserInfo) IsEmpty() bool {
	return u.Name == "" && u.Email == "" && u.Phone == ""
}

// Conversation - сохраненная беседа одной сессии.
// DealID, HasDeal и DealStatus - зеркало статуса связанной сделки,
// их записывает только менеджер сделок.
type Conversation struct {
	ID            string        `json:"id"`
	SessionID     string        `json:"sessionId"`
	Messages      []ChatMessage `json:"messages"`
	UserInfo      *UserInfo     `json:"userInfo,omitempty"`
	DealID        NullString    `json:"dealId"`
	HasDeal       bool          `json:"hasDeal"`
	DealStatus    NullString    `json:"dealStatus"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
	LastMessageAt time.Time     `json:"lastMessageAt"`
}

// ConversationStats - сводка для админской панели.
type ConversationStats struct {
	Total       int `json:"total"`
	WithDeal    int `json:"withDeal"`
	WithoutDeal int `json:"withoutDeal"`
}
