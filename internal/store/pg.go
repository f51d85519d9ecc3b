package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	"github.com/oklog/ulid/v2"
)

// Postgres — дерево документов поверх одной таблицы store_nodes.
// Каждая строка — документ по полному пути; Get по префиксу собирает
// поддерево из строк. Запись ВНУТРЬ существующего документа делается
// через Update (merge полей), а не через Set по вложенному пути.
type Postgres struct {
	db *sql.DB

	mu      sync.Mutex
	entropy io.Reader
}

func OpenPostgres(url string) (*Postgres, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, err
	}
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	p := &Postgres{db: db, entropy: ulid.Monotonic(src, 0)}
	if err := p.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) Close() error { return p.db.Close() }

// init накатывает идемпотентный DDL. Дубликаты объектов не считаем ошибкой.
func (p *Postgres) init(ctx context.Context) error {
	ddl := `
create table if not exists store_nodes (
  path  text primary key,
  value jsonb not null
);
create index if not exists store_nodes_prefix_idx on store_nodes (path text_pattern_ops);
`
	if _, err := p.db.ExecContext(ctx, ddl); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "42710" {
			log.Printf("DDL skipped (already exists): %s", strings.TrimSpace(pgErr.Message))
			return nil
		}
		return fmt.Errorf("store: DDL apply failed: %w", err)
	}
	return nil
}

func (p *Postgres) newID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), p.entropy).String()
}

func cleanPath(path string) (string, error) {
	parts, err := splitPath(path)
	if err != nil {
		return "", err
	}
	return strings.Join(parts, "/"), nil
}

func (p *Postgres) Get(ctx context.Context, path string, dest any) (bool, error) {
	path, err := cleanPath(path)
	if err != nil {
		return false, err
	}

	// 1) точное совпадение — документ целиком
	var raw []byte
	err = p.db.QueryRowContext(ctx,
		`select value from store_nodes where path = $1`, path).Scan(&raw)
	if err == nil {
		if dest != nil {
			if err := json.Unmarshal(raw, dest); err != nil {
				return false, err
			}
		}
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	// 2) поддерево: собираем вложенную карту из строк с префиксом path/
	rows, err := p.db.QueryContext(ctx,
		`select path, value from store_nodes where path like $1 order by path`,
		path+"/%")
	if err != nil {
		return false, err
	}
	defer rows.Close()

	tree := make(map[string]any)
	found := false
	for rows.Next() {
		var rp string
		var rv []byte
		if err := rows.Scan(&rp, &rv); err != nil {
			return false, err
		}
		var v any
		if err := json.Unmarshal(rv, &v); err != nil {
			return false, err
		}
		rel := strings.Split(strings.TrimPrefix(rp, path+"/"), "/")
		node := tree
		for _, seg := range rel[:len(rel)-1] {
			child, ok := node[seg].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[seg] = child
			}
			node = child
		}
		node[rel[len(rel)-1]] = v
		found = true
	}
	if err := rows.Err(); err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	if dest != nil {
		raw, err := json.Marshal(tree)
		if err != nil {
			return false, err
		}
		if err := json.Unmarshal(raw, dest); err != nil {
			return false, err
		}
	}
	return true, nil
}

func setTx(ctx context.Context, tx *sql.Tx, path string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: value not serializable: %w", err)
	}
	// перезапись документа сносит и его поддерево
	if _, err := tx.ExecContext(ctx,
		`delete from store_nodes where path = $1 or path like $2`,
		path, path+"/%"); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`insert into store_nodes (path, value) values ($1, $2)`, path, raw)
	return err
}

func removeTx(ctx context.Context, tx *sql.Tx, path string) error {
	_, err := tx.ExecContext(ctx,
		`delete from store_nodes where path = $1 or path like $2`,
		path, path+"/%")
	return err
}

func (p *Postgres) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (p *Postgres) Set(ctx context.Context, path string, value any) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}
	if value == nil {
		return p.Remove(ctx, path)
	}
	return p.withTx(ctx, func(tx *sql.Tx) error {
		return setTx(ctx, tx, path, value)
	})
}

func (p *Postgres) Update(ctx context.Context, path string, fields map[string]any) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}
	return p.withTx(ctx, func(tx *sql.Tx) error {
		var raw []byte
		err := tx.QueryRowContext(ctx,
			`select value from store_nodes where path = $1 for update`, path).Scan(&raw)
		cur := make(map[string]any)
		switch {
		case err == nil:
			if err := json.Unmarshal(raw, &cur); err != nil {
				return err
			}
		case errors.Is(err, sql.ErrNoRows):
			// merge в отсутствующий узел создаёт его
		default:
			return err
		}
		for k, v := range fields {
			if v == nil {
				delete(cur, k)
				continue
			}
			cur[k] = v
		}
		return setTx(ctx, tx, path, cur)
	})
}

func (p *Postgres) Remove(ctx context.Context, path string) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}
	return p.withTx(ctx, func(tx *sql.Tx) error {
		return removeTx(ctx, tx, path)
	})
}

func (p *Postgres) Push(ctx context.Context, path string, value any) (string, error) {
	id := p.newID()
	if err := p.Set(ctx, path+"/"+id, value); err != nil {
		return "", err
	}
	return id, nil
}

func (p *Postgres) MultiUpdate(ctx context.Context, updates map[string]any) error {
	// стабильный порядок внутри транзакции
	paths := make([]string, 0, len(updates))
	for raw := range updates {
		paths = append(paths, raw)
	}
	sort.Strings(paths)

	return p.withTx(ctx, func(tx *sql.Tx) error {
		for _, raw := range paths {
			path, err := cleanPath(raw)
			if err != nil {
				return err
			}
			if updates[raw] == nil {
				if err := removeTx(ctx, tx, path); err != nil {
					return err
				}
				continue
			}
			if err := setTx(ctx, tx, path, updates[raw]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *Postgres) QueryEqual(ctx context.Context, path, child, value string, dest any) error {
	path, err := cleanPath(path)
	if err != nil {
		return err
	}
	// прямые дети коллекции: относительный путь без '/'
	rows, err := p.db.QueryContext(ctx, `
select path, value from store_nodes
 where path like $1
   and strpos(substr(path, length($2) + 2), '/') = 0
   and value ->> $3 = $4`,
		path+"/%", path, child, value)
	if err != nil {
		return err
	}
	defer rows.Close()

	matched := make(map[string]json.RawMessage)
	for rows.Next() {
		var rp string
		var rv []byte
		if err := rows.Scan(&rp, &rv); err != nil {
			return err
		}
		matched[strings.TrimPrefix(rp, path+"/")] = json.RawMessage(rv)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(matched)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
