package seed

import (
	"database/sql"
	"encoding/csv"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// LoadCatalog ingests the CSV into the categories and drugs tables,
// ignoring drugs whose code is already present. Expected columns:
// category, name, code, price, stock.
func LoadCatalog(db *sqlx.DB, csvPath string) {
	file, err := os.Open(csvPath)
	if err != nil {
		log.Printf("unable to load drug catalog %s: %v", csvPath, err)
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Skip header
	if _, err := reader.Read(); err != nil {
		log.Printf("unable to read catalog header: %v", err)
		return
	}

	tx, err := db.Beginx()
	if err != nil {
		log.Printf("unable to start catalog transaction: %v", err)
		return
	}

	now := time.Now().UTC().Truncate(time.Microsecond).UnixMicro()
	categoryIDs := make(map[string]int64)
	rows := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("unable to read catalog row: %v", err)
			continue
		}
		if len(record) < 5 {
			continue
		}
		categoryName := strings.TrimSpace(record[0])
		name := strings.TrimSpace(record[1])
		code := strings.TrimSpace(record[2])
		price, _ := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
		stock, _ := strconv.ParseInt(strings.TrimSpace(record[4]), 10, 64)

		if categoryName == "" || name == "" || code == "" {
			continue
		}

		categoryID, ok := categoryIDs[categoryName]
		if !ok {
			categoryID, err = resolveCategory(tx, categoryName, now)
			if err != nil {
				log.Printf("unable to resolve category %s: %v", categoryName, err)
				continue
			}
			categoryIDs[categoryName] = categoryID
		}

		res, err := tx.Exec(`INSERT OR IGNORE INTO drugs (name, code, price, stock, category_id, created_at, version) VALUES (?, ?, ?, ?, ?, ?, 0)`,
			name, code, price, stock, categoryID, now)
		if err != nil {
			log.Printf("unable to insert drug %s: %v", code, err)
			continue
		}
		if n, _ := res.RowsAffected(); n > 0 {
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("unable to commit catalog seed: %v", err)
	} else {
		log.Printf("seeded drug catalog with %d rows", rows)
	}
}

func resolveCategory(tx *sqlx.Tx, name string, now int64) (int64, error) {
	var id int64
	err := tx.Get(&id, `SELECT id FROM categories WHERE name = ?`, name)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	res, err := tx.Exec(`INSERT INTO categories (name, created_at, version) VALUES (?, ?, 0)`, name, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
