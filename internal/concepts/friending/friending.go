// Package friending owns friend requests and the friendships they turn into.
//
// Only pending requests are stored. Accepting, rejecting or withdrawing a request deletes
// it, so the terminal states are observable as "no request" plus, for acceptance, a
// friendship. Each unordered pair of users has at most one pending request, enforced by
// a unique pair key rather than a read-then-write check.
package friending

import (
	"context"
	"fmt"

	"strider/internal/models"
	"strider/internal/store"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatusPending is the only status a stored request can have.
const StatusPending = "pending"

// FriendRequestDoc is a pending request from From to To.
type FriendRequestDoc struct {
	models.BaseDoc
	From    uuid.UUID `gorm:"column:from_user;type:uuid;index;not null" json:"from"`
	To      uuid.UUID `gorm:"column:to_user;type:uuid;index;not null" json:"to"`
	Status  string    `gorm:"size:16;not null" json:"status"`
	PairKey string    `gorm:"size:80;uniqueIndex;not null" json:"-"`
}

func (FriendRequestDoc) TableName() string { return "friend_requests" }

// FriendshipDoc links two users. User1 always sorts before User2.
type FriendshipDoc struct {
	models.BaseDoc
	User1 uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_friendship_pair" json:"user1"`
	User2 uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_friendship_pair;index" json:"user2"`
}

func (FriendshipDoc) TableName() string { return "friendships" }

// Other returns the member of the friendship that is not user.
func (f *FriendshipDoc) Other(user uuid.UUID) uuid.UUID {
	if f.User1 == user {
		return f.User2
	}
	return f.User1
}

type Concept struct {
	requests    *store.Collection[FriendRequestDoc]
	friendships *store.Collection[FriendshipDoc]
}

func New(db *gorm.DB) *Concept {
	return &Concept{
		requests:    store.NewCollection[FriendRequestDoc](db, "friend_requests"),
		friendships: store.NewCollection[FriendshipDoc](db, "friendships"),
	}
}

// SendRequest opens a pending request unless the users are already friends or a request
// between them exists in either direction.
func (c *Concept) SendRequest(ctx context.Context, from, to uuid.UUID) (*FriendRequestDoc, error) {
	if from == to {
		return nil, models.NewBadRequestError("Cannot send a friend request to yourself")
	}
	if err := c.AssertNotFriends(ctx, from, to); err != nil {
		return nil, err
	}

	req := &FriendRequestDoc{From: from, To: to, Status: StatusPending, PairKey: pairKey(from, to)}
	created, err := c.requests.CreateOneIfAbsent(ctx, req)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, models.NewAlreadyExistsError(fmt.Sprintf("Friend request between %s and %s already exists", from, to))
	}
	return req, nil
}

// RemoveRequest withdraws a request from sent to to.
func (c *Concept) RemoveRequest(ctx context.Context, from, to uuid.UUID) error {
	return c.resolve(ctx, from, to)
}

// RejectRequest declines a request; no friendship is created.
func (c *Concept) RejectRequest(ctx context.Context, from, to uuid.UUID) error {
	return c.resolve(ctx, from, to)
}

// AcceptRequest removes the pending request and creates the friendship in one transaction.
// When an accept races a reject, only one of them deletes the request; the other gets
// NotFound and writes nothing.
func (c *Concept) AcceptRequest(ctx context.Context, from, to uuid.UUID) (*FriendshipDoc, error) {
	var friendship *FriendshipDoc
	err := c.requests.Transaction(ctx, func(tx *gorm.DB) error {
		deleted, err := c.requests.WithTx(tx).DeleteOne(ctx, pendingFilter(from, to))
		if err != nil {
			return err
		}
		if !deleted {
			return requestNotFound(from, to)
		}

		u1, u2 := ordered(from, to)
		friendship = &FriendshipDoc{User1: u1, User2: u2}
		return c.friendships.WithTx(tx).CreateOne(ctx, friendship)
	})
	if err != nil {
		return nil, err
	}
	return friendship, nil
}

func (c *Concept) RemoveFriend(ctx context.Context, user, friend uuid.UUID) error {
	u1, u2 := ordered(user, friend)
	deleted, err := c.friendships.DeleteOne(ctx, store.Filter{"user1": u1, "user2": u2})
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("Friendship between", fmt.Sprintf("%s and %s", user, friend))
	}
	return nil
}

// GetRequests lists pending requests the user sent or received.
func (c *Concept) GetRequests(ctx context.Context, user uuid.UUID) ([]FriendRequestDoc, error) {
	return c.requests.ReadManyOr(ctx, store.Filter{"from_user": user}, store.Filter{"to_user": user})
}

// GetFriends lists the ids of the user's friends.
func (c *Concept) GetFriends(ctx context.Context, user uuid.UUID) ([]uuid.UUID, error) {
	docs, err := c.friendships.ReadManyOr(ctx, store.Filter{"user1": user}, store.Filter{"user2": user})
	if err != nil {
		return nil, err
	}
	friends := make([]uuid.UUID, len(docs))
	for i := range docs {
		friends[i] = docs[i].Other(user)
	}
	return friends, nil
}

func (c *Concept) AssertNotFriends(ctx context.Context, a, b uuid.UUID) error {
	u1, u2 := ordered(a, b)
	existing, err := c.friendships.ReadOne(ctx, store.Filter{"user1": u1, "user2": u2})
	if err != nil {
		return err
	}
	if existing != nil {
		return models.NewAlreadyExistsError(fmt.Sprintf("%s and %s are already friends", a, b))
	}
	return nil
}

func (c *Concept) resolve(ctx context.Context, from, to uuid.UUID) error {
	deleted, err := c.requests.DeleteOne(ctx, pendingFilter(from, to))
	if err != nil {
		return err
	}
	if !deleted {
		return requestNotFound(from, to)
	}
	return nil
}

func pendingFilter(from, to uuid.UUID) store.Filter {
	return store.Filter{"from_user": from, "to_user": to, "status": StatusPending}
}

func requestNotFound(from, to uuid.UUID) error {
	return models.NewNotFoundError("Friend request", fmt.Sprintf("from %s to %s", from, to))
}

func ordered(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() < b.String() {
		return a, b
	}
	return b, a
}

func pairKey(a, b uuid.UUID) string {
	u1, u2 := ordered(a, b)
	return u1.String() + ":" + u2.String()
}
