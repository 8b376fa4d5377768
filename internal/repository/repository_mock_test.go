package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"polli-ahaar/internal/models"
)

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func updated(n int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

func TestOrderCancelMock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	id := primitive.NewObjectID()

	mt.Run("pending", func(mt *mtest.T) {
		mt.AddMockResponses(updated(1))
		assert.NoError(mt, NewOrderRepository(mt.Coll).Cancel(context.Background(), id.Hex()))
	})

	mt.Run("already delivered", func(mt *mtest.T) {
		mt.AddMockResponses(
			updated(0),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{
				{Key: "_id", Value: id},
				{Key: "status", Value: string(models.OrderDelivered)},
			}),
		)
		err := NewOrderRepository(mt.Coll).Cancel(context.Background(), id.Hex())
		assert.ErrorIs(mt, err, ErrNotPending)
	})

	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(
			updated(0),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch),
		)
		err := NewOrderRepository(mt.Coll).Cancel(context.Background(), id.Hex())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("bad id", func(mt *mtest.T) {
		err := NewOrderRepository(mt.Coll).Cancel(context.Background(), "123")
		assert.ErrorIs(mt, err, ErrInvalidID)
	})
}

func TestOrderSetStatusMock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		mt.AddMockResponses(updated(1))
		res, err := NewOrderRepository(mt.Coll).SetStatus(context.Background(), primitive.NewObjectID().Hex(), models.OrderShipped)
		require.NoError(mt, err)
		assert.EqualValues(mt, 1, res.ModifiedCount)
	})

	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(updated(0))
		_, err := NewOrderRepository(mt.Coll).SetStatus(context.Background(), primitive.NewObjectID().Hex(), models.OrderShipped)
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestUserRoleMock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("stored role", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "role", Value: models.RoleAdmin},
		}))
		role, err := NewUserRepository(mt.Coll).Role(context.Background(), "admin@example.com")
		require.NoError(mt, err)
		assert.Equal(mt, models.RoleAdmin, role)
	})

	mt.Run("unknown user", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))
		role, err := NewUserRepository(mt.Coll).Role(context.Background(), "ghost@example.com")
		require.NoError(mt, err)
		assert.Empty(mt, role)
	})

	mt.Run("lookup failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "boom"}))
		_, err := NewUserRepository(mt.Coll).Role(context.Background(), "admin@example.com")
		assert.Error(mt, err)
	})
}

func TestCreateIfAbsentMock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("new user", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: id}}}},
		))
		user := &models.User{Email: "new@example.com", Role: models.RoleAdmin}
		got, err := NewUserRepository(mt.Coll).CreateIfAbsent(context.Background(), user)
		require.NoError(mt, err)
		require.NotNil(mt, got)
		assert.Equal(mt, id, *got)
		assert.Equal(mt, models.RoleUser, user.Role)
	})

	mt.Run("existing user", func(mt *mtest.T) {
		mt.AddMockResponses(updated(1))
		got, err := NewUserRepository(mt.Coll).CreateIfAbsent(context.Background(), &models.User{Email: "old@example.com"})
		require.NoError(mt, err)
		assert.Nil(mt, got)
	})
}

func TestCartLoadMock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("no cart yet", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))
		c, err := NewCartRepository(mt.Coll).Load(context.Background(), "buyer@example.com")
		require.NoError(mt, err)
		assert.NotNil(mt, c.Items)
		assert.Empty(mt, c.Items)
	})

	mt.Run("drops invalid lines", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{
			{Key: "userEmail", Value: "buyer@example.com"},
			{Key: "items", Value: bson.A{
				bson.D{{Key: "productId", Value: "p1"}, {Key: "variantLabel", Value: "1 kg"}, {Key: "qty", Value: 2}},
				bson.D{{Key: "productId", Value: "p2"}, {Key: "variantLabel", Value: "1 kg"}, {Key: "qty", Value: 0}},
			}},
		}))
		c, err := NewCartRepository(mt.Coll).Load(context.Background(), "buyer@example.com")
		require.NoError(mt, err)
		require.Len(mt, c.Items, 1)
		assert.Equal(mt, "p1", c.Items[0].ProductID)
	})
}

func TestApplyOrderMock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	items := []models.OrderItem{{ProductID: primitive.NewObjectID(), Label: "1 kg", Qty: 2}}

	mt.Run("both batches succeed", func(mt *mtest.T) {
		mt.AddMockResponses(updated(1), updated(1))
		assert.NoError(mt, NewProductRepository(mt.Coll).ApplyOrder(context.Background(), items))
	})

	mt.Run("stock batch fails", func(mt *mtest.T) {
		mt.AddMockResponses(
			updated(1),
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "boom"}),
		)
		err := NewProductRepository(mt.Coll).ApplyOrder(context.Background(), items)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "decrement variant stock")
		assert.NotContains(mt, err.Error(), "increment order counts")
	})
}
