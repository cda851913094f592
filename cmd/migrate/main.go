package main

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	_ = godotenv.Load()

	mode := flag.String("mode", "up", "migration mode: up, down or seed")
	seedDir := flag.String("seed-dir", "./data", "directory with products.csv, users.csv, orders.csv")
	flag.Parse()

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		log.Fatal("DB_URL not set in environment")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("failed to connect db: %v", err)
	}
	defer db.Close()

	switch *mode {
	case "seed":
		err = seed(db, *seedDir)
	default:
		err = run(db, *mode, "./migrations")
	}
	if err != nil {
		log.Fatal(err)
	}
}

func run(db *sql.DB, mode, migrationsDir string) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	sort.Strings(files)

	switch mode {
	case "up":
		return runMigrationsUp(db, files)
	case "down":
		return runMigrationsDown(db, files)
	default:
		return fmt.Errorf("unknown mode: %s (use 'up', 'down' or 'seed')", mode)
	}
}

func runMigrationsUp(db *sql.DB, files []string) error {
	for _, file := range files {
		version := filepath.Base(file)

		var exists bool
		err := db.QueryRow(`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if exists {
			fmt.Printf("skipping already applied migration: %s\n", version)
			continue
		}

		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}

		upSQL := extractMigrationPart(string(content), "Up")
		fmt.Printf("applying migration: %s\n", version)

		if _, err := db.Exec(upSQL); err != nil {
			return fmt.Errorf("migration failed (%s): %w", version, err)
		}

		if _, err := db.Exec(`INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			return fmt.Errorf("failed to record migration version: %w", err)
		}
	}
	fmt.Println("all new migrations applied successfully")
	return nil
}

func runMigrationsDown(db *sql.DB, files []string) error {
	var lastVersion string
	err := db.QueryRow(`SELECT version FROM schema_migrations ORDER BY applied_at DESC LIMIT 1`).Scan(&lastVersion)
	if err == sql.ErrNoRows {
		fmt.Println("no migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get last applied migration: %w", err)
	}

	filePath := ""
	for _, f := range files {
		if filepath.Base(f) == lastVersion {
			filePath = f
			break
		}
	}
	if filePath == "" {
		return fmt.Errorf("migration file not found for version: %s", lastVersion)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	downSQL := extractMigrationPart(string(content), "Down")
	fmt.Printf("rolling back migration: %s\n", lastVersion)

	if _, err := db.Exec(downSQL); err != nil {
		return fmt.Errorf("rollback failed (%s): %w", filePath, err)
	}

	if _, err := db.Exec(`DELETE FROM schema_migrations WHERE version = $1`, lastVersion); err != nil {
		return fmt.Errorf("failed to remove migration record: %w", err)
	}

	fmt.Println("rollback successful")
	return nil
}

func extractMigrationPart(content string, section string) string {
	lines := strings.Split(content, "\n")
	var part strings.Builder
	var inPart bool

	for _, line := range lines {
		if strings.Contains(line, "-- +migrate "+section) {
			inPart = true
			continue
		}
		if inPart && strings.HasPrefix(line, "-- +migrate") {
			break
		}
		if inPart {
			part.WriteString(line + "\n")
		}
	}
	return part.String()
}

// seed imports catalog data exported from the legacy store as CSV files.
func seed(db *sql.DB, dir string) error {
	if err := seedProducts(db, filepath.Join(dir, "products.csv")); err != nil {
		return err
	}
	if err := seedUsers(db, filepath.Join(dir, "users.csv")); err != nil {
		return err
	}
	if err := seedOrders(db, filepath.Join(dir, "orders.csv")); err != nil {
		return err
	}
	fmt.Println("seed completed")
	return nil
}

func readCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("skipping %s: file not found\n", path)
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func seedProducts(db *sql.DB, path string) error {
	rows, err := readCSV(path)
	if err != nil {
		return err
	}

	for _, row := range rows {
		price, err := strconv.ParseFloat(row["price"], 64)
		if err != nil {
			return fmt.Errorf("invalid price in %s: %q", path, row["price"])
		}
		stock, err := strconv.Atoi(row["stock"])
		if err != nil {
			return fmt.Errorf("invalid stock in %s: %q", path, row["stock"])
		}

		_, err = db.Exec(
			`INSERT INTO products (id, name, description, price_cents, stock, category)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.NewString(), row["name"], row["description"],
			int64(price*100), stock, row["category"],
		)
		if err != nil {
			return fmt.Errorf("failed to insert product %q: %w", row["name"], err)
		}
	}
	fmt.Printf("seeded %d products\n", len(rows))
	return nil
}

func seedUsers(db *sql.DB, path string) error {
	rows, err := readCSV(path)
	if err != nil {
		return err
	}

	for _, row := range rows {
		role := row["role"]
		if role == "" {
			role = "user"
		}
		// Password hashes are expected to be pre-computed in the export.
		_, err = db.Exec(
			`INSERT INTO users (id, username, email, password_hash, role)
			 VALUES ($1, $2, $3, $4, $5)`,
			uuid.NewString(), row["username"], row["email"], row["passwordHash"], role,
		)
		if err != nil {
			return fmt.Errorf("failed to insert user %q: %w", row["email"], err)
		}
	}
	fmt.Printf("seeded %d users\n", len(rows))
	return nil
}

type seedOrderItem struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

func seedOrders(db *sql.DB, path string) error {
	rows, err := readCSV(path)
	if err != nil {
		return err
	}

	for _, row := range rows {
		var items []seedOrderItem
		if err := json.Unmarshal([]byte(row["products"]), &items); err != nil {
			return fmt.Errorf("invalid products format in order row: %w", err)
		}

		total, err := strconv.ParseFloat(row["totalPrice"], 64)
		if err != nil {
			return fmt.Errorf("invalid totalPrice in %s: %q", path, row["totalPrice"])
		}

		status := row["status"]
		if status == "" {
			status = "pending"
		}
		createdAt, err := time.Parse(time.RFC3339, row["createdAt"])
		if err != nil {
			createdAt = time.Now().UTC()
		}

		orderID := uuid.NewString()
		_, err = db.Exec(
			`INSERT INTO orders (id, user_id, total_cents, status, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			orderID, row["userId"], int64(total*100), status, createdAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for _, item := range items {
			var priceCents int64
			err := db.QueryRow(`SELECT price_cents FROM products WHERE id = $1`, item.Product).Scan(&priceCents)
			if err != nil {
				return fmt.Errorf("unknown product %q in order seed: %w", item.Product, err)
			}
			_, err = db.Exec(
				`INSERT INTO order_items (order_id, product_id, quantity, price_cents)
				 VALUES ($1, $2, $3, $4)`,
				orderID, item.Product, item.Quantity, priceCents,
			)
			if err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
		}
	}
	fmt.Printf("seeded %d orders\n", len(rows))
	return nil
}
