package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"task-tracker/logging"
	"task-tracker/models"
)

type MongoRepository struct {
	TasksCollection *mongo.Collection
	UsersCollection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database, tasksCollection, usersCollection string) *MongoRepository {
	return &MongoRepository{
		TasksCollection: db.Collection(tasksCollection),
		UsersCollection: db.Collection(usersCollection),
	}
}

// EnsureIndexes creates the unique email index and the lookup indexes used by
// user-scoped listings.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.UsersCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"email": 1},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create unique index on user email: %w", err)
	}

	_, err = r.TasksCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.M{"createdBy": 1}},
		{Keys: bson.M{"assignedTo": 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create task indexes: %w", err)
	}
	logging.Logger.Info("Event ID: DB_INDEXES_READY, Description: MongoDB indexes ensured for tasks and users")
	return nil
}

func taskFilterDocument(f TaskFilter) bson.M {
	filter := bson.M{}
	if !f.InvolvedUser.IsZero() {
		filter["$or"] = bson.A{
			bson.M{"createdBy": f.InvolvedUser},
			bson.M{"assignedTo": f.InvolvedUser},
		}
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return filter
}

func userFilterDocument(f UserFilter) bson.M {
	filter := bson.M{}
	if len(f.IDs) > 0 {
		filter["_id"] = bson.M{"$in": f.IDs}
	}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	return filter
}

func patchDocument(p models.TaskPatch, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.AssignedTo != nil {
		set["assignedTo"] = *p.AssignedTo
	}
	return bson.M{"$set": set}
}

func (r *MongoRepository) Find(ctx context.Context, f TaskFilter) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.TasksCollection.Find(ctx, taskFilterDocument(f), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := []models.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	return tasks, nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	err := r.TasksCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task %s: %w", id.Hex(), err)
	}
	return &task, nil
}

func (r *MongoRepository) Insert(ctx context.Context, task models.Task) (*models.Task, error) {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	result, err := r.TasksCollection.InsertOne(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	task.ID = result.InsertedID.(primitive.ObjectID)
	return &task, nil
}

// UpdateByID relies on FindOneAndUpdate for per-document atomicity.
func (r *MongoRepository) UpdateByID(ctx context.Context, id primitive.ObjectID, p models.TaskPatch) (*models.Task, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var task models.Task
	err := r.TasksCollection.FindOneAndUpdate(ctx, bson.M{"_id": id}, patchDocument(p, time.Now().UTC()), opts).Decode(&task)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update task %s: %w", id.Hex(), err)
	}
	return &task, nil
}

func (r *MongoRepository) DeleteByID(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.TasksCollection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("failed to delete task %s: %w", id.Hex(), err)
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoRepository) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOneUser(ctx, bson.M{"_id": id})
}

func (r *MongoRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOneUser(ctx, bson.M{"email": strings.ToLower(email)})
}

func (r *MongoRepository) findOneUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.UsersCollection.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (r *MongoRepository) FindUsers(ctx context.Context, f UserFilter) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetProjection(bson.M{"password": 0})
	cursor, err := r.UsersCollection.Find(ctx, userFilterDocument(f), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to parse users: %w", err)
	}
	return users, nil
}

func (r *MongoRepository) InsertUser(ctx context.Context, user models.User) (*models.User, error) {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.Email = strings.ToLower(user.Email)

	if _, err := r.UsersCollection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	return &user, nil
}
