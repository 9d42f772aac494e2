package leads

import "time"

// Lead is an archived, completed lead record.
type Lead struct {
	ID        int64     `db:"id"`
	ChatID    int64     `db:"chat_id"`
	Username  string    `db:"username"`
	Language  string    `db:"language"`
	Name      string    `db:"name"`
	Method    string    `db:"contact_method"`
	Phone     string    `db:"phone"`
	Note      string    `db:"note"`
	CreatedAt time.Time `db:"created_at"`
}
