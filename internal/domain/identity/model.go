package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/consulthub/consulthub/internal/platform/auth"
)

// User is the minimal account record the rest of the system needs: display
// names for assignment views and addresses for notifications.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email" json:"email"`
	Role      auth.Role `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
