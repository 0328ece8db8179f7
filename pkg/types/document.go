package types

type DocumentStatus int8

const (
	DOCUMENT_STATUS_PENDING    DocumentStatus = 1
	DOCUMENT_STATUS_PROCESSING DocumentStatus = 2
	DOCUMENT_STATUS_READY      DocumentStatus = 3
	DOCUMENT_STATUS_FAILED     DocumentStatus = 4
)

type Document struct {
	ID         string         `json:"id" db:"id"`
	TenantID   string         `json:"tenant_id" db:"tenant_id"`
	CourseID   string         `json:"course_id" db:"course_id"`
	Title      string         `json:"title" db:"title"`
	Content    string         `json:"content" db:"content"`
	Status     DocumentStatus `json:"status" db:"status"`
	RetryTimes int            `json:"retry_times" db:"retry_times"`
	CreatedAt  int64          `json:"created_at" db:"created_at"`
	UpdatedAt  int64          `json:"updated_at" db:"updated_at"`
}

type UpdateDocumentArgs struct {
	Title   string
	Content string
}
