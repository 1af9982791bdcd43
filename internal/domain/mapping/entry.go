package mapping

import (
	"database/sql"
	"time"
)

// Entry represents one valid (category, subcategory) pair, e.g. a line of
// business crossed with an application code. Identity is the pair itself;
// no duplicate pairs exist. Entries are immutable once created except by
// administrative replacement.
type Entry struct {
	ID          int64
	Category    string
	Subcategory string
	Description sql.NullString // Optional metadata
	CreatedAt   time.Time
}
