package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/gatekeeper/pkg/auth"
)

const (
	// DefaultAccountsCollection is the collection used when none is configured.
	DefaultAccountsCollection = "accounts"

	emailIndexName = "email_unique"
)

// accountDocument is the stored shape of auth.Account.
type accountDocument struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	Username     string    `bson:"username"`
	PasswordHash string    `bson:"password_hash,omitempty"`
	Provider     string    `bson:"provider,omitempty"`
	SessionRef   string    `bson:"session_ref,omitempty"`
	Image        string    `bson:"image,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (d accountDocument) toAccount() (auth.Account, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return auth.Account{}, fmt.Errorf("mongo: malformed account id %q: %w", d.ID, err)
	}
	return auth.Account{
		ID:           id,
		Email:        d.Email,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		Provider:     auth.Provider(d.Provider),
		SessionRef:   d.SessionRef,
		Image:        d.Image,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}, nil
}

// AccountDirectory is an auth.AccountDirectory backed by a MongoDB
// collection. Email uniqueness is enforced by a unique index, so concurrent
// creates for one email have exactly one winner.
type AccountDirectory struct {
	coll *mongo.Collection
	now  func() time.Time
}

// AccountDirectoryOption configures an AccountDirectory.
type AccountDirectoryOption func(*accountDirectoryConfig)

type accountDirectoryConfig struct {
	collection string
	now        func() time.Time
}

// WithCollection overrides the collection name.
func WithCollection(name string) AccountDirectoryOption {
	return func(c *accountDirectoryConfig) {
		if name != "" {
			c.collection = name
		}
	}
}

// WithClock overrides the time source for timestamps.
func WithClock(now func() time.Time) AccountDirectoryOption {
	return func(c *accountDirectoryConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// NewAccountDirectory returns a directory over db and ensures the unique
// email index exists.
func NewAccountDirectory(ctx context.Context, db *mongo.Database, opts ...AccountDirectoryOption) (*AccountDirectory, error) {
	cfg := &accountDirectoryConfig{
		collection: DefaultAccountsCollection,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	coll := db.Collection(cfg.collection)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(emailIndexName),
	})
	if err != nil {
		return nil, errors.Join(ErrIndex, err)
	}

	return &AccountDirectory{coll: coll, now: cfg.now}, nil
}

var _ auth.AccountDirectory = (*AccountDirectory)(nil)

func (d *AccountDirectory) FindByEmail(ctx context.Context, email string) (auth.Account, error) {
	return d.findOne(ctx, bson.D{{Key: "email", Value: auth.NormalizeEmail(email)}})
}

func (d *AccountDirectory) FindByID(ctx context.Context, id uuid.UUID) (auth.Account, error) {
	return d.findOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
}

func (d *AccountDirectory) Create(ctx context.Context, fields auth.NewAccount) (auth.Account, error) {
	email := auth.NormalizeEmail(fields.Email)
	if email == "" {
		return auth.Account{}, fmt.Errorf("%w: email is required", auth.ErrValidation)
	}
	if fields.PasswordHash == "" && fields.Provider == "" {
		return auth.Account{}, fmt.Errorf("%w: account needs a password or a provider", auth.ErrValidation)
	}

	// Mongo stores milliseconds.
	now := d.now().UTC().Truncate(time.Millisecond)
	doc := accountDocument{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     fields.Username,
		PasswordHash: fields.PasswordHash,
		Provider:     string(fields.Provider),
		Image:        fields.Image,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := d.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return auth.Account{}, auth.ErrDuplicateAccount
		}
		return auth.Account{}, fmt.Errorf("mongo: insert account: %w", err)
	}

	return doc.toAccount()
}

func (d *AccountDirectory) UpdateFields(ctx context.Context, id uuid.UUID, patch auth.AccountPatch) (auth.Account, error) {
	if patch.IsEmpty() {
		return d.FindByID(ctx, id)
	}

	set := bson.D{{Key: "updated_at", Value: d.now().UTC().Truncate(time.Millisecond)}}
	var unset bson.D

	// Empty strings clear omitempty fields so stored documents stay sparse.
	field := func(key string, v *string) {
		switch {
		case v == nil:
		case *v == "":
			unset = append(unset, bson.E{Key: key, Value: ""})
		default:
			set = append(set, bson.E{Key: key, Value: *v})
		}
	}
	if patch.Email != nil {
		set = append(set, bson.E{Key: "email", Value: auth.NormalizeEmail(*patch.Email)})
	}
	if patch.Username != nil {
		set = append(set, bson.E{Key: "username", Value: *patch.Username})
	}
	field("password_hash", patch.PasswordHash)
	field("session_ref", patch.SessionRef)
	field("image", patch.Image)

	update := bson.D{{Key: "$set", Value: set}}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}

	var doc accountDocument
	err := d.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id.String()}},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return auth.Account{}, auth.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return auth.Account{}, auth.ErrDuplicateAccount
	case err != nil:
		return auth.Account{}, fmt.Errorf("mongo: update account: %w", err)
	}

	return doc.toAccount()
}

func (d *AccountDirectory) findOne(ctx context.Context, filter bson.D) (auth.Account, error) {
	var doc accountDocument
	if err := d.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return auth.Account{}, auth.ErrNotFound
		}
		return auth.Account{}, fmt.Errorf("mongo: find account: %w", err)
	}
	return doc.toAccount()
}
