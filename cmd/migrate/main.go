package main

import (
	"errors"
	"flag"
	"log"

	"postboard/internal/pkg/config"
	"postboard/pkg/database"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	direction := flag.String("direction", "up", "up | down")
	steps := flag.Int("steps", 0, "number of migrations to apply, 0 means all")
	source := flag.String("source", "file://migrations", "migration source URL")
	flag.Parse()

	config.LoadConfig()

	m, err := migrate.New(*source, database.MigrateURL(config.GlobalConfig.Database))
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	if err := run(m, *direction, *steps); err != nil {
		// 上次迁移中断导致 dirty，回退到该版本的上一个版本后重试
		var dirty migrate.ErrDirty
		if !errors.As(err, &dirty) {
			log.Fatal(err)
		}
		log.Printf("Database is dirty at version %d, forcing version %d...", dirty.Version, dirty.Version-1)
		if err := m.Force(dirty.Version - 1); err != nil {
			log.Fatal("Failed to force version:", err)
		}
		if err := run(m, *direction, *steps); err != nil {
			log.Fatal(err)
		}
	}

	version, dirty, _ := m.Version()
	log.Printf("Migration successful, version %d (dirty=%v)", version, dirty)
}

func run(m *migrate.Migrate, direction string, steps int) error {
	var err error
	switch {
	case steps > 0 && direction == "down":
		err = m.Steps(-steps)
	case steps > 0:
		err = m.Steps(steps)
	case direction == "down":
		err = m.Down()
	default:
		err = m.Up()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
