package constants

import "time"

// Статусы сделки (лида)
// Deal (lead) statuses
const (
	DEAL_STATUS_OPEN        = "open"
	DEAL_STATUS_IN_PROGRESS = "in-progress"
	DEAL_STATUS_CLOSED      = "closed"
	DEAL_STATUS_CANCELLED   = "cancelled"
)

// DealStatuses перечисляет все допустимые статусы в порядке жизненного цикла.
var DealStatuses = []string{
	DEAL_STATUS_OPEN,
	DEAL_STATUS_IN_PROGRESS,
	DEAL_STATUS_CLOSED,
	DEAL_STATUS_CANCELLED,
}

// IsValidDealStatus проверяет, входит ли статус в допустимый набор.
func IsValidDealStatus(status string) bool {
	for _, s := range DealStatuses {
		if s == status {
			return true
		}
	}
	return false
}

var DealStatusDisplayMap = map[string]string{
	DEAL_STATUS_OPEN:        "Open",
	DEAL_STATUS_IN_PROGRESS: "In progress",
	DEAL_STATUS_CLOSED:      "Closed",
	DEAL_STATUS_CANCELLED:   "Cancelled",
}

var DealStatusEmojiMap = map[string]string{
	DEAL_STATUS_OPEN:        "🆕",
	DEAL_STATUS_IN_PROGRESS: "🔧",
	DEAL_STATUS_CLOSED:      "✅",
	DEAL_STATUS_CANCELLED:   "❌",
}

// Роли сообщений в беседе
// Message roles in a conversation
const (
	ROLE_USER      = "user"
	ROLE_ASSISTANT = "assistant"
)

var RoleDisplayMap = map[string]string{
	ROLE_USER:      "Client",
	ROLE_ASSISTANT: "AI",
}

// Типы уведомлений
const (
	NOTIFY_KIND_NEW_LEAD    = "new_lead"
	NOTIFY_KIND_DEAL_CLOSED = "deal_closed"
	NOTIFY_KIND_CONTACT     = "contact"
)

// Ограничения и значения по умолчанию
const (
	DefaultProjectDetails = "No project details provided"
	DefaultUploadedBy     = "admin"

	MaxMessageLength   = 2000
	MaxSessionIDLength = 128

	// Сколько проектов показывает ответ о проектах и длина обрезки описания
	ProjectsPreviewLimit  = 4
	DescriptionPreviewLen = 100

	// Параметры поиска по базе знаний
	KnowledgeMinWordLen   = 4 // слова длиннее 3 символов
	KnowledgeMinMatches   = 2
	KnowledgeMaxSentences = 3

	DefaultAdminTokenTTL = 12 * time.Hour
	AdminSubject         = "admin"
)
