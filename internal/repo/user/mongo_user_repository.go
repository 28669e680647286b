package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/onlineexam/examsvc/internal/domain"
	"github.com/onlineexam/examsvc/internal/infra/logging"
)

const (
	mongoEmailIndex     = "email_unique"
	mongoUsernameIndex  = "username_unique"
	mongoCountersName   = "counters"
	mongoConnectTimeout = 10 * time.Second
)

// MongoUserRepositoryConfig holds configuration for the MongoDB user repository.
type MongoUserRepositoryConfig struct {
	// URI is the MongoDB connection string
	URI string `env:"URI" envDefault:"mongodb://localhost:27017"`
	// Database is the name of the database holding the users collection
	Database string `env:"DATABASE" envDefault:"exam"`
	// Collection is the name of the users collection
	Collection string `env:"COLLECTION" envDefault:"users"`
}

// mongoUser is the document layout of a stored user.
type mongoUser struct {
	ID        int64  `bson:"_id"`
	Email     string `bson:"email"`
	Username  string `bson:"username"`
	FirstName string `bson:"firstName"`
	LastName  string `bson:"lastName"`
	Phone     string `bson:"phone"`
	Role      string `bson:"role"`
	Password  string `bson:"password"`
	CreatedAt int64  `bson:"createdAt"`
}

type mongoCounter struct {
	Seq int64 `bson:"seq"`
}

// MongoUserRepository implements Repository using MongoDB as the storage backend.
// IDs are allocated from a counter document so they stay integral like the SQL backends.
type MongoUserRepository struct {
	client   *mongo.Client
	users    *mongo.Collection
	counters *mongo.Collection
	counter  string
	log      logging.Logger
}

var _ Repository = (*MongoUserRepository)(nil)

// MongoUserRepositoryFactory creates a factory function that returns a new MongoUserRepository.
func MongoUserRepositoryFactory(cfg MongoUserRepositoryConfig) RepositoryFactory {
	return func() (Repository, error) {
		ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
		defer cancel()

		return NewMongoUserRepository(ctx, cfg)
	}
}

// NewMongoUserRepository connects to MongoDB and ensures the unique indexes exist.
func NewMongoUserRepository(ctx context.Context, cfg MongoUserRepositoryConfig) (*MongoUserRepository, error) {
	log := logging.GetLogger("repo.user.mongo_user_repository").With(
		logging.Group("db", "database", cfg.Database, "collection", cfg.Collection),
	)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())

		return nil, fmt.Errorf("ping: %w", err)
	}

	db := client.Database(cfg.Database)
	users := db.Collection(cfg.Collection)

	if _, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(mongoEmailIndex),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(mongoUsernameIndex),
		},
	}); err != nil {
		_ = client.Disconnect(context.Background())

		return nil, fmt.Errorf("create indexes: %w", err)
	}

	log.DebugContext(ctx, "user repository opened")

	return &MongoUserRepository{
		client:   client,
		users:    users,
		counters: db.Collection(mongoCountersName),
		counter:  cfg.Collection,
		log:      log,
	}, nil
}

// ExistsByEmail implements Repository.ExistsByEmail using MongoDB.
func (r *MongoUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, bson.M{"email": email})
}

// ExistsByUsername implements Repository.ExistsByUsername using MongoDB.
func (r *MongoUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, bson.M{"username": username})
}

func (r *MongoUserRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	n, err := r.users.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}

	return n > 0, nil
}

// Save implements Repository.Save using MongoDB.
func (r *MongoUserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	id, err := r.nextID(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("next id: %w", err)
	}

	user.ID = id
	user.CreatedAt = time.Now().Unix()

	if _, err := r.users.InsertOne(ctx, mongoUser{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
		Role:      user.Role,
		Password:  user.Password,
		CreatedAt: user.CreatedAt,
	}); err != nil {
		if dupErr := mongoDuplicateError(err, user); dupErr != nil {
			err = errors.Join(dupErr, err)
		}

		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

func (r *MongoUserRepository) nextID(ctx context.Context) (int64, error) {
	var counter mongoCounter

	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": r.counter},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("increment counter: %w", err)
	}

	return counter.Seq, nil
}

func mongoDuplicateError(err error, user domain.User) *domain.DuplicateError {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}

	msg := err.Error()

	switch {
	case strings.Contains(msg, mongoEmailIndex):
		return domain.NewDuplicateEmailError(user.Email)
	case strings.Contains(msg, mongoUsernameIndex):
		return domain.NewDuplicateUsernameError(user.Username)
	default:
		return nil
	}
}

// Close implements Repository.Close by disconnecting the client.
func (r *MongoUserRepository) Close() error {
	if err := r.client.Disconnect(context.Background()); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}

	return nil
}
