package types

type Course struct {
	ID        string `json:"id" db:"id"`
	TenantID  string `json:"tenant_id" db:"tenant_id"`
	Name      string `json:"name" db:"name"`
	Desc      string `json:"desc" db:"description"`
	CreatedAt int64  `json:"created_at" db:"created_at"`
}
