package entity

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleDriver   UserRole = "driver"
)

type User struct {
	Base
	Username     string   `db:"username"`
	PasswordHash string   `db:"password"`
	FullName     *string  `db:"full_name"`
	Email        *string  `db:"email"`
	PhoneNumber  *string  `db:"phone_number"`
	ProfileImage *string  `db:"profile_image"`
	Role         UserRole `db:"role"`
	IsActive     bool     `db:"is_active"`
}
