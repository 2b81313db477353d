package database

import "embed"

// EmbeddedMigrations, migrations/ altındaki SQL dosyalarını binary'ye gömer —
// deploy edilen tek binary'nin yanında ayrıca SQL dosyası taşınmaz.
// main.go, fs.Sub(EmbeddedMigrations, "migrations") ile New'a geçirir.
//
//go:embed migrations/*.sql
var EmbeddedMigrations embed.FS
