package mongo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/panyam/secrets"
)

const (
	DefaultDatabase = "userDB"
	CollectionName  = "users"
)

// accountDocument is the stored shape of secrets.Account
type accountDocument struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username,omitempty"`
	PasswordHash string    `bson:"hash,omitempty"`
	GoogleID     string    `bson:"googleId,omitempty"`
	FacebookID   string    `bson:"facebookId,omitempty"`
	Secret       string    `bson:"secret,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (d *accountDocument) toAccount() *secrets.Account {
	return &secrets.Account{
		ID:           d.ID,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		GoogleID:     d.GoogleID,
		FacebookID:   d.FacebookID,
		Secret:       d.Secret,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func toDocument(a *secrets.Account) *accountDocument {
	return &accountDocument{
		ID:           a.ID,
		Username:     a.Username,
		PasswordHash: a.PasswordHash,
		GoogleID:     a.GoogleID,
		FacebookID:   a.FacebookID,
		Secret:       a.Secret,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// AccountStore implements secrets.AccountStore on a MongoDB collection
type AccountStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Open connects to uri, checks the server is reachable and ensures the
// unique indexes exist
func Open(ctx context.Context, uri string) (*AccountStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	store := NewAccountStore(client, databaseName(uri))
	if err := store.EnsureIndexes(ctx); err != nil {
		client.Disconnect(ctx)
		return nil, err
	}
	return store, nil
}

func NewAccountStore(client *mongo.Client, database string) *AccountStore {
	if database == "" {
		database = DefaultDatabase
	}
	return &AccountStore{
		client:     client,
		collection: client.Database(database).Collection(CollectionName),
	}
}

func databaseName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return DefaultDatabase
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return DefaultDatabase
}

// EnsureIndexes creates the unique sparse indexes. It is safe to call on
// every start.
func (s *AccountStore) EnsureIndexes(ctx context.Context) error {
	unique := func(field string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName(field + "_unique"),
		}
	}
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		unique("username"),
		unique("googleId"),
		unique("facebookId"),
	})
	if err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}
	return nil
}

func (s *AccountStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Drop removes the collection. Used by tests.
func (s *AccountStore) Drop(ctx context.Context) error {
	return s.collection.Drop(ctx)
}

func (s *AccountStore) CreateAccount(ctx context.Context, account *secrets.Account) (*secrets.Account, error) {
	doc := toDocument(account)
	doc.ID = uuid.NewString()
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return nil, translateError(err)
	}
	return doc.toAccount(), nil
}

func (s *AccountStore) GetAccountByID(ctx context.Context, id string) (*secrets.Account, error) {
	return s.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (s *AccountStore) GetAccountByUsername(ctx context.Context, username string) (*secrets.Account, error) {
	return s.findOne(ctx, bson.D{{Key: "username", Value: username}})
}

func (s *AccountStore) findOne(ctx context.Context, filter bson.D) (*secrets.Account, error) {
	var doc accountDocument
	if err := s.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, secrets.ErrAccountNotFound
		}
		return nil, err
	}
	return doc.toAccount(), nil
}

func providerField(provider string) (string, error) {
	switch provider {
	case secrets.ProviderGoogle:
		return "googleId", nil
	case secrets.ProviderFacebook:
		return "facebookId", nil
	}
	return "", fmt.Errorf("%w: %s", secrets.ErrUnknownProvider, provider)
}

// FindOrCreateByProvider is a single upsert. When two logins race on an
// unseen id the loser hits the unique index and reads the winner's document.
func (s *AccountStore) FindOrCreateByProvider(ctx context.Context, provider, providerID string) (*secrets.Account, bool, error) {
	field, err := providerField(provider)
	if err != nil {
		return nil, false, err
	}
	if providerID == "" {
		return nil, false, fmt.Errorf("empty %s id", provider)
	}

	filter := bson.D{{Key: field, Value: providerID}}
	newID := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Millisecond)
	update := bson.D{{Key: "$setOnInsert", Value: bson.D{
		{Key: "_id", Value: newID},
		{Key: "created_at", Value: now},
		{Key: "updated_at", Value: now},
	}}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc accountDocument
	err = s.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			account, err := s.findOne(ctx, filter)
			return account, false, err
		}
		return nil, false, err
	}
	return doc.toAccount(), doc.ID == newID, nil
}

func (s *AccountStore) SetSecret(ctx context.Context, id, secret string) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "secret", Value: secret},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}}
	result, err := s.collection.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return secrets.ErrAccountNotFound
	}
	return nil
}

// ListAccountsWithSecrets returns accounts in creation order
func (s *AccountStore) ListAccountsWithSecrets(ctx context.Context) ([]*secrets.Account, error) {
	filter := bson.D{{Key: "secret", Value: bson.D{{Key: "$nin", Value: bson.A{nil, ""}}}}}
	cursor, err := s.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []accountDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]*secrets.Account, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toAccount())
	}
	return out, nil
}

// translateError maps unique index violations onto the store sentinels
func translateError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}
	if strings.Contains(err.Error(), "username") {
		return fmt.Errorf("%w: %v", secrets.ErrUsernameTaken, err)
	}
	return fmt.Errorf("%w: %v", secrets.ErrProviderIDTaken, err)
}
