package questions

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PGBank reads categories from PostgreSQL.
type PGBank struct {
	conn *sql.DB
	log  *zap.Logger
}

func Connect(ctx context.Context, dsn string, log *zap.Logger) (*PGBank, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	log.Info("connected to postgres")
	return &PGBank{conn: conn, log: log}, nil
}

func (b *PGBank) Close() error {
	return b.conn.Close()
}

func (b *PGBank) Ping(ctx context.Context) error {
	return b.conn.PingContext(ctx)
}

func (b *PGBank) Migrate(ctx context.Context) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations dir: %w", err)
	}

	for _, entry := range entries {
		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}
		if _, err := b.conn.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", entry.Name(), err)
		}
		b.log.Debug("applied migration", zap.String("file", entry.Name()))
	}
	return nil
}

func (b *PGBank) Categories(ctx context.Context) ([]Category, error) {
	rows, err := b.conn.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	var cats []Category
	index := make(map[string]int)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		index[c.ID] = len(cats)
		cats = append(cats, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = b.conn.QueryContext(ctx, `
		SELECT category_id, id, kind, prompt, answers, correct, tolerance, time_limit_secs
		FROM questions
		ORDER BY category_id, position, id`)
	if err != nil {
		return nil, fmt.Errorf("querying questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			catID   string
			r       Record
			answers []byte
			correct []byte
		)
		if err := rows.Scan(&catID, &r.ID, &r.Type, &r.Question, &answers, &correct, &r.Tolerance, &r.TimeLimit); err != nil {
			return nil, fmt.Errorf("scanning question: %w", err)
		}
		if err := json.Unmarshal(answers, &r.Answers); err != nil {
			return nil, fmt.Errorf("question %s: decoding answers: %w", r.ID, err)
		}
		r.Correct = correct
		q, err := r.Decode(catID)
		if err != nil {
			b.log.Warn("skipping invalid question", zap.String("category", catID), zap.Error(err))
			continue
		}
		i, ok := index[catID]
		if !ok {
			continue
		}
		cats[i].Questions = append(cats[i].Questions, q)
	}
	return cats, rows.Err()
}

// Import writes cats into the bank, replacing categories with the same ids.
func (b *PGBank) Import(ctx context.Context, cats []Category) error {
	tx, err := b.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning import: %w", err)
	}
	defer tx.Rollback()

	for pos, c := range cats {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO categories (id, name, position) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, position = EXCLUDED.position`,
			c.ID, c.Name, pos); err != nil {
			return fmt.Errorf("importing category %s: %w", c.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE category_id = $1`, c.ID); err != nil {
			return fmt.Errorf("clearing category %s: %w", c.ID, err)
		}
		for qpos, q := range c.Questions {
			r := Encode(q)
			answers, err := json.Marshal(r.Answers)
			if err != nil {
				return err
			}
			if r.Answers == nil {
				answers = []byte("[]")
			}
			var correct any
			if len(r.Correct) > 0 {
				correct = []byte(r.Correct)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO questions (category_id, id, position, kind, prompt, answers, correct, tolerance, time_limit_secs)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				c.ID, r.ID, qpos, r.Type, r.Question, answers, correct, r.Tolerance, r.TimeLimit); err != nil {
				return fmt.Errorf("importing question %s: %w", r.ID, err)
			}
		}
	}
	return tx.Commit()
}

// SeedIfEmpty imports cats only when the bank has no categories yet.
func (b *PGBank) SeedIfEmpty(ctx context.Context, cats []Category) error {
	var n int
	if err := b.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return fmt.Errorf("counting categories: %w", err)
	}
	if n > 0 {
		return nil
	}
	b.log.Info("seeding empty question bank", zap.Int("categories", len(cats)))
	return b.Import(ctx, cats)
}
