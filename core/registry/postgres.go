package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/openbeheer/bff/core/csql"
)

// PostgresStore persists services as JSON rows, keyed by slug.
type PostgresStore struct {
	db *csql.DB

	mu    sync.Mutex
	hooks []func(slug string)
}

// NewPostgresStore creates the store and its table if necessary.
func NewPostgresStore(db *csql.DB) *PostgresStore {
	_, err := db.Exec(`CREATE table IF NOT EXISTS ` + db.Schema + `."_services_"
(slug varchar NOT NULL,
value json NOT NULL,
timestamp timestamp NOT NULL DEFAULT now(),
PRIMARY KEY(slug)
);`)
	if err != nil {
		panic(err)
	}
	return &PostgresStore{db: db}
}

// Get returns the service with the given slug.
func (s *PostgresStore) Get(ctx context.Context, slug string) (Service, error) {
	var rawValue json.RawMessage
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM `+s.db.Schema+`."_services_" WHERE slug=$1;`,
		slug).Scan(&rawValue)
	if err == csql.ErrNoRows {
		return Service{}, fmt.Errorf("%s: %w", slug, ErrNotConfigured)
	}
	if err != nil {
		return Service{}, fmt.Errorf("cannot read service '%s': %s", slug, err.Error())
	}
	var service Service
	err = json.Unmarshal(rawValue, &service)
	return service, err
}

// List returns all services, ordered by slug.
func (s *PostgresStore) List(ctx context.Context) ([]Service, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT value FROM `+s.db.Schema+`."_services_" ORDER BY slug;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []Service
	for rows.Next() {
		var rawValue json.RawMessage
		if err := rows.Scan(&rawValue); err != nil {
			return nil, err
		}
		var service Service
		if err := json.Unmarshal(rawValue, &service); err != nil {
			return nil, err
		}
		services = append(services, service)
	}
	return services, rows.Err()
}

// Put creates or updates a service. Subscribed hooks run after the row
// is written, so no new reader can keep a stale client.
func (s *PostgresStore) Put(ctx context.Context, service Service) error {
	body, err := json.Marshal(service)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO `+s.db.Schema+`."_services_"(slug,value,timestamp)
VALUES($1,$2,now())
ON CONFLICT (slug) DO UPDATE SET value=$2,timestamp=now();`,
		service.Slug, string(body))
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("could not write service %s", service.Slug)
	}
	s.notify(service.Slug)
	return nil
}

// Delete removes a service.
func (s *PostgresStore) Delete(ctx context.Context, slug string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM `+s.db.Schema+`."_services_" WHERE slug=$1;`, slug)
	if err != nil {
		return err
	}
	s.notify(slug)
	return nil
}

// Subscribe registers a change hook.
func (s *PostgresStore) Subscribe(hook func(slug string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

func (s *PostgresStore) notify(slug string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, hook := range s.hooks {
		hook(slug)
	}
}
