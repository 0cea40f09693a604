// Package authing owns user accounts: credentials, usernames and profile preferences.
package authing

import (
	"context"
	"fmt"
	"time"

	"strider/internal/cache"
	"strider/internal/models"
	"strider/internal/store"
	"strider/internal/validation"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserDoc is a stored account. The password column only ever holds a bcrypt hash.
type UserDoc struct {
	models.BaseDoc
	Username string `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Password string `gorm:"not null" json:"-"`
	StepSize string `gorm:"size:32" json:"stepSize"`
}

func (UserDoc) TableName() string { return "users" }

// UserView is the public shape of an account.
type UserView struct {
	ID          uuid.UUID `json:"_id"`
	Username    string    `json:"username"`
	StepSize    string    `json:"stepSize"`
	DateCreated time.Time `json:"dateCreated"`
	DateUpdated time.Time `json:"dateUpdated"`
}

// View strips the password hash.
func (u *UserDoc) View() UserView {
	return UserView{
		ID:          u.ID,
		Username:    u.Username,
		StepSize:    u.StepSize,
		DateCreated: u.CreatedAt,
		DateUpdated: u.UpdatedAt,
	}
}

// Option configures a Concept.
type Option func(*Concept)

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) Option {
	return func(c *Concept) { c.hashCost = cost }
}

// Concept manages user accounts.
type Concept struct {
	users    *store.Collection[UserDoc]
	rdb      *redis.Client
	hashCost int
}

// New builds the concept over db. rdb caches id → username lookups and may be nil.
func New(db *gorm.DB, rdb *redis.Client, opts ...Option) *Concept {
	c := &Concept{
		users:    store.NewCollection[UserDoc](db, "users"),
		rdb:      rdb,
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create registers a new account.
func (c *Concept) Create(ctx context.Context, username, password string) (*UserDoc, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := c.AssertUsernameAvailable(ctx, username); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.hashCost)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("hash password: %w", err))
	}

	user := &UserDoc{Username: username, Password: string(hash)}
	if err := c.users.CreateOne(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if models.HasCode(err, models.CodeAlreadyExists) {
			return nil, usernameTaken(username)
		}
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials. Unknown users and wrong passwords are indistinguishable.
func (c *Concept) Authenticate(ctx context.Context, username, password string) (*UserDoc, error) {
	user, err := c.users.ReadOne(ctx, store.Filter{"username": username})
	if err != nil {
		return nil, err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, models.NewNotAllowedError("Username or password is incorrect")
	}
	return user, nil
}

func (c *Concept) GetUserByID(ctx context.Context, id uuid.UUID) (*UserDoc, error) {
	user, err := c.users.ReadOne(ctx, store.Filter{"id": id})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", id)
	}
	return user, nil
}

// GetProfile returns the public view of the account, served from Redis when cached.
func (c *Concept) GetProfile(ctx context.Context, id uuid.UUID) (*UserView, error) {
	var view UserView
	err := cache.Aside(ctx, c.rdb, cache.ProfileKey(id), &view, cache.ProfileTTL, func() error {
		user, err := c.GetUserByID(ctx, id)
		if err != nil {
			return err
		}
		view = user.View()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *Concept) GetUserByUsername(ctx context.Context, username string) (*UserDoc, error) {
	user, err := c.users.ReadOne(ctx, store.Filter{"username": username})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return user, nil
}

// GetUsers lists every account in username order.
func (c *Concept) GetUsers(ctx context.Context) ([]UserDoc, error) {
	return c.users.ReadMany(ctx, nil, store.Sort{Column: "username"})
}

// IDsToUsernames resolves ids positionally. Ids without an account map to
// validation.DeletedUsername.
func (c *Concept) IDsToUsernames(ctx context.Context, ids []uuid.UUID) ([]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	var misses []uuid.UUID
	for _, id := range ids {
		if _, seen := names[id]; seen {
			continue
		}
		var name string
		if found, err := cache.GetJSON(ctx, c.rdb, cache.UsernameKey(id), &name); err == nil && found {
			names[id] = name
			continue
		}
		names[id] = validation.DeletedUsername
		misses = append(misses, id)
	}

	if len(misses) > 0 {
		users, err := c.users.ReadIn(ctx, "id", misses)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			names[u.ID] = u.Username
			_ = cache.SetJSON(ctx, c.rdb, cache.UsernameKey(u.ID), u.Username, cache.UsernameTTL)
		}
	}

	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = names[id]
	}
	return out, nil
}

func (c *Concept) UpdateUsername(ctx context.Context, id uuid.UUID, username string) error {
	if err := validation.ValidateUsername(username); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := c.AssertUsernameAvailable(ctx, username); err != nil {
		return err
	}

	matched, err := c.users.PartialUpdateOne(ctx, store.Filter{"id": id}, store.Fields{"username": username})
	if models.HasCode(err, models.CodeAlreadyExists) {
		return usernameTaken(username)
	}
	if err != nil {
		return err
	}
	if !matched {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, c.rdb, id)
	return nil
}

// UpdatePassword replaces the password after checking the current one.
func (c *Concept) UpdatePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	user, err := c.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
		return models.NewNotAllowedError("The given current password is wrong")
	}
	if err := validation.ValidatePassword(next); err != nil {
		return models.NewValidationError(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), c.hashCost)
	if err != nil {
		return models.NewInternalError(fmt.Errorf("hash password: %w", err))
	}
	_, err = c.users.PartialUpdateOne(ctx, store.Filter{"id": id}, store.Fields{"password": string(hash)})
	if err != nil {
		return err
	}
	cache.InvalidateUser(ctx, c.rdb, id)
	return nil
}

func (c *Concept) UpdateStepSize(ctx context.Context, id uuid.UUID, stepSize string) error {
	if err := validation.ValidateStepSize(stepSize); err != nil {
		return models.NewValidationError(err.Error())
	}
	matched, err := c.users.PartialUpdateOne(ctx, store.Filter{"id": id}, store.Fields{"step_size": stepSize})
	if err != nil {
		return err
	}
	if !matched {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, c.rdb, id)
	return nil
}

// Delete removes the account. Content the user authored is left in place.
func (c *Concept) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := c.users.DeleteOne(ctx, store.Filter{"id": id})
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, c.rdb, id)
	return nil
}

func (c *Concept) AssertUsernameAvailable(ctx context.Context, username string) error {
	existing, err := c.users.ReadOne(ctx, store.Filter{"username": username})
	if err != nil {
		return err
	}
	if existing != nil {
		return usernameTaken(username)
	}
	return nil
}

func usernameTaken(username string) error {
	return models.NewAlreadyExistsError(fmt.Sprintf("User with username %s already exists", username))
}
