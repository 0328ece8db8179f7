package types

import "fmt"

type TableName string

func (s TableName) Name() string {
	return fmt.Sprintf("%s%s", TABLE_PREFIX, s)
}

const TABLE_PREFIX = "studyhall_"

const (
	TABLE_COURSE       = TableName("course")
	TABLE_DOCUMENT     = TableName("document")
	TABLE_CHUNK        = TableName("chunk")
	TABLE_VECTORS      = TableName("vectors")
	TABLE_CHAT_SESSION = TableName("chat_session")
	TABLE_CHAT_MESSAGE = TableName("chat_message")
	TABLE_QUIZ         = TableName("quiz")
	TABLE_QUIZ_ATTEMPT = TableName("quiz_attempt")
)

// VectorPartitionTable returns the per-tenant partition table holding a
// tenant's embeddings. Partitioning by table name instead of a WHERE
// filter makes a cross-tenant read structurally impossible: the query
// never touches another tenant's rows, corrupted filter or not.
func VectorPartitionTable(tenantID string) string {
	return fmt.Sprintf("%s_p_%s", TABLE_VECTORS.Name(), tenantID)
}
