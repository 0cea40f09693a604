package database

import (
	"strider/internal/concepts/authing"
	"strider/internal/concepts/autocaptioning"
	"strider/internal/concepts/commenting"
	"strider/internal/concepts/friending"
	"strider/internal/concepts/posting"
)

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Sessions live in Redis and have no table.
func PersistentModels() []interface{} {
	return []interface{}{
		&authing.UserDoc{},
		&posting.PostDoc{},
		&commenting.CommentDoc{},
		&friending.FriendRequestDoc{},
		&friending.FriendshipDoc{},
		&autocaptioning.AutoCaptionDoc{},
	}
}
