package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"task-tracker/models"
)

func TestTaskFilterDocument(t *testing.T) {
	assert.Equal(t, bson.M{}, taskFilterDocument(TaskFilter{}))

	id := primitive.NewObjectID()
	doc := taskFilterDocument(TaskFilter{InvolvedUser: id, Status: models.StatusInProgress})
	assert.Equal(t, bson.A{bson.M{"createdBy": id}, bson.M{"assignedTo": id}}, doc["$or"])
	assert.Equal(t, models.StatusInProgress, doc["status"])
}

func TestUserFilterDocument(t *testing.T) {
	ids := []primitive.ObjectID{primitive.NewObjectID()}
	doc := userFilterDocument(UserFilter{IDs: ids, Role: models.RoleUser})
	assert.Equal(t, bson.M{"$in": ids}, doc["_id"])
	assert.Equal(t, models.RoleUser, doc["role"])
}

func TestPatchDocument_OnlySetsProvidedFields(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	title := "renamed"

	doc := patchDocument(models.TaskPatch{Title: &title}, now)
	set := doc["$set"].(bson.M)

	assert.Equal(t, "renamed", set["title"])
	assert.Equal(t, now, set["updatedAt"])
	assert.NotContains(t, set, "status")
	assert.NotContains(t, set, "assignedTo")
	assert.NotContains(t, set, "description")
}
