// Package gae stores accounts in Google Cloud Datastore. It supports
// multi-tenancy through Datastore namespaces.
//
// # Datastore Kinds
//
//   - Account: the account entity, keyed by its uuid
//   - Username, GoogleID, FacebookID: uniqueness markers keyed by the value
//     they reserve, each pointing at an Account
//
// Markers are written in the same transaction as the account so a value can
// never be held by two accounts.
//
// # Usage
//
//	client, _ := datastore.NewClient(ctx, projectID)
//	store := gae.NewAccountStore(client, "")  // default namespace
package gae
