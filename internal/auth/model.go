package auth

import (
	"time"
)

type UserStatus string

const (
	StatusPending     UserStatus = "pending"
	StatusApproved    UserStatus = "approved"
	StatusDeactivated UserStatus = "deactivated"
	StatusExpired     UserStatus = "expired"
)

// SettingUserExpiryDays is the key of the process-wide expiry period.
const SettingUserExpiryDays = "user_expiry_days"

type User struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Username           string     `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash       string     `gorm:"not null" json:"-"`
	Status             UserStatus `gorm:"type:varchar(16);not null;default:pending" json:"status"`
	RegistrationDate   time.Time  `gorm:"not null;index" json:"registration_date"`
	ApprovalDate       *time.Time `json:"approval_date"`
	ExpiryDate         *time.Time `json:"expiry_date"`
	LastLoginIP        *string    `gorm:"column:last_login_ip" json:"last_login_ip"`
	ActiveSessionToken *string    `json:"-"`
}

func (User) TableName() string {
	return "users"
}

type Admin struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"not null" json:"-"`
}

func (Admin) TableName() string {
	return "admins"
}

// Setting is a versioned integer configuration record. Version is bumped on
// every write.
type Setting struct {
	Key       string `gorm:"primaryKey"`
	Value     int    `gorm:"not null"`
	Version   int    `gorm:"not null;default:1"`
	UpdatedAt time.Time
}

func (Setting) TableName() string {
	return "settings"
}

// UserUpdate is a partial update of a user record. Nil fields are left
// untouched.
type UserUpdate struct {
	Status             *UserStatus
	ApprovalDate       *time.Time
	ExpiryDate         *time.Time
	LastLoginIP        *string
	ActiveSessionToken *string
}

func (u UserUpdate) columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if u.Status != nil {
		cols["status"] = *u.Status
	}
	if u.ApprovalDate != nil {
		cols["approval_date"] = *u.ApprovalDate
	}
	if u.ExpiryDate != nil {
		cols["expiry_date"] = *u.ExpiryDate
	}
	if u.LastLoginIP != nil {
		cols["last_login_ip"] = *u.LastLoginIP
	}
	if u.ActiveSessionToken != nil {
		cols["active_session_token"] = *u.ActiveSessionToken
	}
	return cols
}

func (u UserUpdate) apply(user *User) {
	if u.Status != nil {
		user.Status = *u.Status
	}
	if u.ApprovalDate != nil {
		t := *u.ApprovalDate
		user.ApprovalDate = &t
	}
	if u.ExpiryDate != nil {
		t := *u.ExpiryDate
		user.ExpiryDate = &t
	}
	if u.LastLoginIP != nil {
		ip := *u.LastLoginIP
		user.LastLoginIP = &ip
	}
	if u.ActiveSessionToken != nil {
		tok := *u.ActiveSessionToken
		user.ActiveSessionToken = &tok
	}
}
