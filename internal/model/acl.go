package model

type PermType string

const (
	PermRead  PermType = "READ"
	PermWrite PermType = "WRITE"
)

// ACL grants a permission on a document to a target. A target is a user, a group
// or a share token
type ACL struct {
	ID         uint     `gorm:"primaryKey;autoIncrement"`
	Perm       PermType `gorm:"size:30;not null;index:idx_acl_lookup"`
	TargetID   string   `gorm:"size:36;not null;index:idx_acl_lookup"`
	DocumentID string   `gorm:"size:36;not null;index:idx_acl_lookup"`
}

type GroupMember struct {
	GroupID string `gorm:"primaryKey;size:36"`
	UserID  string `gorm:"primaryKey;size:36;index"`
}

// Share is a capability string granting read access to a document without
// authentication
type Share struct {
	ID   string `gorm:"primaryKey;size:36" json:"id"`
	Name string `gorm:"size:36" json:"name"`
}
