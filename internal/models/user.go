package models

// UserRole enumerates the roles a user can hold on the platform.
type UserRole string

// Supported roles. Stored as their canonical string form both in the database
// and in cache payloads.
const (
	RoleAdmin      UserRole = "admin"
	RoleUser       UserRole = "user"
	RoleSpecialist UserRole = "specialist"
)

// Valid reports whether the role is one of the supported values.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleSpecialist:
		return true
	}
	return false
}

// User describes a platform account. The ID is immutable after creation;
// username and email are unique natural keys and may change via update.
type User struct {
	BaseModel

	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	FullName string `json:"full_name"`

	// HashedPassword is opaque to this service; hashing happens upstream.
	HashedPassword string `gorm:"not null" json:"-"`

	Role     UserRole `gorm:"type:varchar(32);default:user" json:"role"`
	IsActive bool     `gorm:"default:true" json:"is_active"`

	Profile *UserProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}
