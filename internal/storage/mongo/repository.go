// Package mongo stores each entity in its own MongoDB collection
// (expenses, income, profiles, users, sessions).
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"budgetly/internal/core"
	"budgetly/internal/storage"
)

const (
	profilesCollection = "profiles"
	usersCollection    = "users"
	sessionsCollection = "sessions"
)

type (
	transactionDoc struct {
		ID          string               `bson:"_id"`
		UserID      string               `bson:"user_id"`
		Title       string               `bson:"title"`
		Amount      primitive.Decimal128 `bson:"amount"`
		Category    string               `bson:"category"`
		Description string               `bson:"description,omitempty"`
		Date        time.Time            `bson:"date"`
		CreatedAt   time.Time            `bson:"created_at"`
	}

	userDoc struct {
		ID           string    `bson:"_id"`
		Email        string    `bson:"email"`
		EmailKey     string    `bson:"email_key"`
		PasswordHash []byte    `bson:"password_hash"`
		CreatedAt    time.Time `bson:"created_at"`
	}

	profileDoc struct {
		UserID    string `bson:"_id"`
		FirstName string `bson:"first_name"`
		LastName  string `bson:"last_name"`
		Email     string `bson:"email"`
		AvatarURL string `bson:"avatar_url"`
	}

	sessionDoc struct {
		ID        string    `bson:"_id"`
		UserID    string    `bson:"user_id"`
		CreatedAt time.Time `bson:"created_at"`
		ExpiresAt time.Time `bson:"expires_at"`
	}
)

type Repository struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ storage.Store = (*Repository)(nil)

// Connect establishes a connection to MongoDB and ensures the indexes.
func Connect(ctx context.Context, uri, database string) (*Repository, error) {
	slog.DebugContext(ctx, "Connecting to MongoDB", "database", database)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	r := &Repository{client: client, db: client.Database(database)}
	if err := r.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return r, nil
}

func (r *Repository) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email_key", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		sessionsCollection: {
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
		core.KindExpense.Collection(): {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: -1}}},
		},
		core.KindIncome.Collection(): {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: -1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := r.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

func (r *Repository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// Drop removes the database. Used by tests.
func (r *Repository) Drop(ctx context.Context) error {
	return r.db.Drop(ctx)
}

func (r *Repository) InsertTransaction(ctx context.Context, t core.Transaction) error {
	if !t.Kind.Valid() {
		return core.ErrInvalidKind
	}
	amount, err := primitive.ParseDecimal128(t.Amount.StringFixed(2))
	if err != nil {
		return fmt.Errorf("encode amount: %w", err)
	}
	doc := transactionDoc{
		ID:          t.ID.String(),
		UserID:      t.UserID.String(),
		Title:       t.Title,
		Amount:      amount,
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date.Time,
		CreatedAt:   t.CreatedAt,
	}
	if _, err := r.db.Collection(t.Kind.Collection()).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert %s: %w", t.Kind, mapErr(err))
	}
	return nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID uuid.UUID, kind core.Kind) ([]core.Transaction, error) {
	if !kind.Valid() {
		return nil, core.ErrInvalidKind
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: 1}})
	cur, err := r.db.Collection(kind.Collection()).Find(ctx, bson.M{"user_id": userID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", kind, err)
	}
	var docs []transactionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}

	out := make([]core.Transaction, 0, len(docs))
	for _, d := range docs {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			return nil, fmt.Errorf("parse %s id: %w", kind, err)
		}
		amount, err := decimal.NewFromString(d.Amount.String())
		if err != nil {
			return nil, fmt.Errorf("parse amount: %w", err)
		}
		out = append(out, core.Transaction{
			ID:          id,
			UserID:      userID,
			Kind:        kind,
			Title:       d.Title,
			Amount:      amount,
			Category:    d.Category,
			Description: d.Description,
			Date:        core.DateOf(d.Date.UTC()),
			CreatedAt:   d.CreatedAt.UTC(),
		})
	}
	return out, nil
}

func (r *Repository) GetProfile(ctx context.Context, userID uuid.UUID) (core.Profile, error) {
	var d profileDoc
	err := r.db.Collection(profilesCollection).FindOne(ctx, bson.M{"_id": userID.String()}).Decode(&d)
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile %s: %w", userID, mapErr(err))
	}
	return core.Profile{
		UserID:    userID,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Email:     d.Email,
		AvatarURL: d.AvatarURL,
	}, nil
}

func (r *Repository) UpdateProfile(ctx context.Context, p core.Profile) error {
	res, err := r.db.Collection(usersCollection).UpdateByID(ctx, p.UserID.String(),
		bson.M{"$set": bson.M{"email": p.Email, "email_key": emailKey(p.Email)}})
	if err != nil {
		return fmt.Errorf("update user email: %w", mapErr(err))
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("profile %s: %w", p.UserID, storage.ErrNotFound)
	}
	_, err = r.db.Collection(profilesCollection).ReplaceOne(ctx,
		bson.M{"_id": p.UserID.String()}, toProfileDoc(p), options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("update profile: %w", mapErr(err))
	}
	return nil
}

// CreateUser inserts the user then its profile. Standalone servers have no
// multi-document transactions, so a failed profile insert removes the user.
func (r *Repository) CreateUser(ctx context.Context, u core.User, p core.Profile) error {
	doc := userDoc{
		ID:           u.ID.String(),
		Email:        u.Email,
		EmailKey:     emailKey(u.Email),
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
	if _, err := r.db.Collection(usersCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert user: %w", mapErr(err))
	}
	p.UserID = u.ID
	if _, err := r.db.Collection(profilesCollection).InsertOne(ctx, toProfileDoc(p)); err != nil {
		if _, derr := r.db.Collection(usersCollection).DeleteOne(ctx, bson.M{"_id": doc.ID}); derr != nil {
			slog.ErrorContext(ctx, "Failed to roll back user insert", "user_id", doc.ID, "error", derr)
		}
		return fmt.Errorf("insert profile: %w", mapErr(err))
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (core.User, error) {
	u, err := r.findUser(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return core.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	u, err := r.findUser(ctx, bson.M{"email_key": emailKey(email)})
	if err != nil {
		return core.User{}, fmt.Errorf("get user %s: %w", email, err)
	}
	return u, nil
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash []byte) error {
	res, err := r.db.Collection(usersCollection).UpdateByID(ctx, id.String(),
		bson.M{"$set": bson.M{"password_hash": hash}})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (r *Repository) CreateSession(ctx context.Context, s core.Session) error {
	doc := sessionDoc{
		ID:        s.ID.String(),
		UserID:    s.UserID.String(),
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
	if _, err := r.db.Collection(sessionsCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert session: %w", mapErr(err))
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, id uuid.UUID) (core.Session, error) {
	var d sessionDoc
	err := r.db.Collection(sessionsCollection).FindOne(ctx, bson.M{"_id": id.String()}).Decode(&d)
	if err != nil {
		return core.Session{}, fmt.Errorf("get session %s: %w", id, mapErr(err))
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return core.Session{}, fmt.Errorf("parse session user: %w", err)
	}
	return core.Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: d.CreatedAt.UTC(),
		ExpiresAt: d.ExpiresAt.UTC(),
	}, nil
}

func (r *Repository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Collection(sessionsCollection).DeleteOne(ctx, bson.M{"_id": id.String()}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *Repository) findUser(ctx context.Context, filter bson.M) (core.User, error) {
	var d userDoc
	if err := r.db.Collection(usersCollection).FindOne(ctx, filter).Decode(&d); err != nil {
		return core.User{}, mapErr(err)
	}
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return core.User{}, fmt.Errorf("parse user id: %w", err)
	}
	return core.User{
		ID:           id,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
	}, nil
}

func toProfileDoc(p core.Profile) profileDoc {
	return profileDoc{
		UserID:    p.UserID.String(),
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		AvatarURL: p.AvatarURL,
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return storage.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", storage.ErrConflict, err)
	default:
		return err
	}
}
