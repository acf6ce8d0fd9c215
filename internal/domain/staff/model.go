package staff

import (
	"time"

	"github.com/google/uuid"

	"github.com/careboard/careboard/internal/platform/authz"
)

// Member maps to the staff table. Role lives here, not in the session token,
// so a role change is effective on the member's next request.
type Member struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Email     string     `db:"email" json:"email"`
	FullName  string     `db:"full_name" json:"full_name"`
	Role      authz.Role `db:"role" json:"role"`
	Active    bool       `db:"active" json:"active"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}
