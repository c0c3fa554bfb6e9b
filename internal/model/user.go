package model

import "time"

// Roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account types. admin and regular share the individual review bucket.
const (
	AccountRegular  = "regular"
	AccountAdmin    = "admin"
	AccountBusiness = "business"
)

const DefaultAvatar = "avatar.jpg"

// User is a stored account.
type User struct {
	ID            string    `bson:"_id" db:"id" json:"id"`
	Fullname      string    `bson:"fullname" db:"fullname" json:"fullname"`
	Email         string    `bson:"email" db:"email" json:"email"`
	Password      string    `bson:"password" db:"password" json:"-"`
	Avatar        string    `bson:"avatar" db:"avatar" json:"avatar"`
	Role          string    `bson:"role" db:"role" json:"role"`
	TypeOfAccount string    `bson:"typeOfAccount" db:"type_of_account" json:"typeOfAccount"`
	CreatedAt     time.Time `bson:"createdAt" db:"created_at" json:"createdAt"`
}

// Identity is the user payload carried inside session tokens.
type Identity struct {
	ID            string `json:"id"`
	Fullname      string `json:"fullname"`
	Email         string `json:"email"`
	Avatar        string `json:"avatar"`
	Role          string `json:"role"`
	TypeOfAccount string `json:"typeOfAccount"`
}

func (u *User) Identity() Identity {
	return Identity{
		ID:            u.ID,
		Fullname:      u.Fullname,
		Email:         u.Email,
		Avatar:        u.Avatar,
		Role:          u.Role,
		TypeOfAccount: u.TypeOfAccount,
	}
}

// CategoryForAccount maps an account type to the review category it files
// under.
func CategoryForAccount(typeOfAccount string) (Category, bool) {
	switch typeOfAccount {
	case AccountAdmin, AccountRegular:
		return CategoryIndividual, true
	case AccountBusiness:
		return CategoryBusiness, true
	}
	return 0, false
}

// Session is the resolved caller of one request. A nil User means anonymous.
type Session struct {
	User      *Identity
	TokenID   string
	ExpiresAt time.Time
	Location  string
}

func (s Session) IsLoggedIn() bool { return s.User != nil }
