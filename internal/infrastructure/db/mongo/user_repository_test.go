package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/storefront/catalog-api/internal/core/domain"
)

func TestUserRepository_Create(t *testing.T) {
	mt := newMock(t)

	mt.Run("success", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		u, err := repo.Create(context.Background(), &domain.User{Username: "alice", Email: "a@x.com", PasswordHash: "h", CreatedAt: time.Now()})
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		if u.ID == "" || u.Email != "a@x.com" {
			t.Fatalf("unexpected user: %+v", u)
		}
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))

		if _, err := repo.Create(context.Background(), &domain.User{Email: "a@x.com"}); !errors.Is(err, domain.ErrDuplicateEmail) {
			t.Fatalf("expected ErrDuplicateEmail, got %v", err)
		}
	})
}

func TestUserRepository_Find(t *testing.T) {
	mt := newMock(t)

	mt.Run("by email", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "catalog.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "username", Value: "alice"},
			{Key: "email", Value: "a@x.com"},
			{Key: "password_hash", Value: "hash"},
		}))

		u, err := repo.FindByEmail(context.Background(), "a@x.com")
		if err != nil {
			t.Fatalf("FindByEmail returned error: %v", err)
		}
		if u.ID != id.Hex() || u.PasswordHash != "hash" {
			t.Fatalf("unexpected user: %+v", u)
		}
	})

	mt.Run("by id missing", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "catalog.users", mtest.FirstBatch))

		if _, err := repo.FindByID(context.Background(), primitive.NewObjectID().Hex()); !errors.Is(err, domain.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("by id malformed", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB)
		if _, err := repo.FindByID(context.Background(), "xyz"); !errors.Is(err, domain.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})
}
