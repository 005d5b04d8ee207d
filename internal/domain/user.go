package domain

import "time"

// Roles carried by a Principal.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// SystemAuto is the approver id recorded when a seller releases escrow
// themselves with their PIN. It is not a real account and never receives
// commission.
const SystemAuto = "SYSTEM_AUTO"

// Principal is the canonical authenticated caller identity, resolved once at
// the HTTP boundary. Core logic never re-derives role from request shapes.
type Principal struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// User is a registered trader.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	// PinHash is the bcrypt hash of the seller's release PIN. Empty means the
	// PIN was never set; release is refused until it is.
	PinHash     string    `json:"-"`
	TrustScore  float64   `json:"trust_score"`
	RatingCount int       `json:"rating_count"`
	CreatedAt   time.Time `json:"created_at"`
}
