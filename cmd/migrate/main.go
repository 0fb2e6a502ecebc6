package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/carenest/CareNest/internal/pkg/env"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	env.SetupEnvFile()

	dsn := fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true",
		env.GetEnv("DB_USER", "root"),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "localhost"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", "carenest"),
	)

	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		log.Fatalf("failed to initialize migrations: %v", err)
	}
	defer m.Close()

	switch os.Args[1] {
	case "up":
		if err := m.Up(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				fmt.Println("database is already up to date")
				return
			}
			log.Fatalf("migration up failed: %v", err)
		}
		fmt.Println("migrations applied")
	case "down":
		if err := m.Steps(-1); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				fmt.Println("nothing to roll back")
				return
			}
			log.Fatalf("migration down failed: %v", err)
		}
		fmt.Println("rolled back one migration")
	case "goto":
		if len(os.Args) < 3 {
			printUsage()
			os.Exit(1)
		}
		version, err := strconv.ParseUint(os.Args[2], 10, 64)
		if err != nil {
			log.Fatalf("invalid version %q: %v", os.Args[2], err)
		}
		if err := m.Migrate(uint(version)); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				fmt.Println("database is already at that version")
				return
			}
			log.Fatalf("migration to version %d failed: %v", version, err)
		}
		fmt.Printf("migrated to version %d\n", version)
	case "status":
		version, dirty, err := m.Version()
		if err != nil {
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Println("no migrations applied yet")
				return
			}
			log.Fatalf("failed to read migration status: %v", err)
		}
		fmt.Printf("version: %d, dirty: %t\n", version, dirty)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("usage: migrate <command>")
	fmt.Println()
	fmt.Println("commands:")
	fmt.Println("  up             apply all pending migrations")
	fmt.Println("  down           roll back the last migration")
	fmt.Println("  goto <version> migrate to a specific version")
	fmt.Println("  status         show the current migration version")
}
