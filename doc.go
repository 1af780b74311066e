// Package secrets implements a small secret-sharing web application with
// local and OAuth based sign in.
//
// # Architecture
//
// Account: The only persisted record. An account is created by local
// registration (username + bcrypt password hash) or by the first OAuth
// login for a provider id (Google or Facebook). Accounts carry one free-text
// secret; accounts with a secret are shown on the shared listing page.
//
// Strategy: A way of resolving a credential to an Account. LocalStrategy
// checks a username and password, OAuthStrategy performs find-or-create on a
// provider-scoped id. Different providers are never merged into one account.
//
// Sessions: Session state lives server side in an scs.SessionManager. The
// browser only holds an opaque, non-persistent session cookie. After sign in
// the session stores an Identity (account id plus display fields) which the
// Middleware loads into each request context.
//
// # Basic Usage
//
//	store, _ := stores.Open(ctx, "mongodb://localhost:27017/userDB")
//	sessions := secrets.NewSessions(memstore.New(), 24*time.Hour, false)
//
//	app := secrets.NewApp(secrets.AppConfig{
//	    Store:    store,
//	    Sessions: sessions,
//	    Logger:   logger,
//	})
//	app.AddProvider(oauth2.NewGoogleOAuth2(id, secret, callbackURL, app.HandleOAuthUser))
//
//	http.ListenAndServe(":3000", app.Handler())
//
// # Store Implementations
//
// The stores package selects a backend from a connection string: MongoDB
// (default), Cloud Datastore, PostgreSQL through GORM, or JSON files on
// disk for development and tests.
//
// # Testing
//
// Handlers can be tested without a running server using httptest. Tests use
// the file store in a temporary directory and an in-process fake OAuth
// provider.
package secrets
