// Package gorm stores accounts in a SQL table through GORM. Postgres is the
// supported dialect.
//
// # Tables
//
//   - accounts: one row per account. username, google_id and facebook_id are
//     nullable columns with unique indexes, so rows without a value never
//     collide.
//
// # Usage
//
//	db, _ := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
//	gormstore.AutoMigrate(db)
//	store := gormstore.NewAccountStore(db)
package gorm
