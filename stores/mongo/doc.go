// Package mongo stores accounts as documents of a single MongoDB collection.
//
// # Collection
//
// All accounts live in the "users" collection of the database named in the
// connection string (userDB when none is given). username, googleId and
// facebookId carry unique sparse indexes, so an account without one of them
// does not collide with other such accounts.
//
// # Usage
//
//	store, err := mongo.Open(ctx, "mongodb://localhost:27017/userDB")
//	if err != nil { ... }
//	defer store.Close(ctx)
package mongo
