package model

// All lists every model that has to be migrated
func All() []any {
	return []any{
		&User{},
		&Stats{},
		&Document{},
		&File{},
		&Tag{},
		&DocumentTag{},
		&ACL{},
		&GroupMember{},
		&Share{},
	}
}
