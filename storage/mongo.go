package storage

import (
	"context"

	"NS/configs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore keeps one node's table in a MongoDB collection.
type MongoStore struct {
	ctx    context.Context
	client *mongo.Client
	coll   *mongo.Collection
}

func newMongoStore(owner string) *MongoStore {
	res := &MongoStore{ctx: context.Background()}
	connCtx, cancel := context.WithTimeout(res.ctx, configs.BackendTimeout)
	defer cancel()
	client, err := mongo.Connect(connCtx, options.Client().ApplyURI(configs.MongoDBLink))
	configs.CheckError(err)
	configs.CheckError(client.Ping(connCtx, readpref.Primary()))
	res.client = client
	res.coll = client.Database("nodekv").Collection(owner)
	return res
}

func (c *MongoStore) Read(key string) (string, bool) {
	var row Row
	err := c.coll.FindOne(c.ctx, bson.M{"_id": key}).Decode(&row)
	if err == mongo.ErrNoDocuments {
		return "", false
	}
	configs.CheckError(err)
	return row.Value, true
}

func (c *MongoStore) Update(key string, value string) bool {
	_, err := c.coll.ReplaceOne(c.ctx, bson.M{"_id": key},
		&Row{Key: key, Value: value}, options.Replace().SetUpsert(true))
	configs.CheckError(err)
	return true
}

func (c *MongoStore) Delete(key string) bool {
	res, err := c.coll.DeleteOne(c.ctx, bson.M{"_id": key})
	configs.CheckError(err)
	return res.DeletedCount > 0
}

func (c *MongoStore) Purge() {
	configs.CheckError(c.coll.Drop(c.ctx))
}

func (c *MongoStore) Close() {
	configs.CheckError(c.client.Disconnect(c.ctx))
}
