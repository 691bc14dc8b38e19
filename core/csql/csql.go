// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package csql connects the gateway to postgres. All gateway tables
// live in one schema so several deployments can share a database.
package csql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // load database driver for postgres

	"github.com/openbeheer/bff/core/logger"
)

// DB is a sql.DB bound to one schema.
type DB struct {
	*sql.DB
	Schema string
}

// ErrNoRows is returned by Scan when QueryRow selects no row.
var ErrNoRows = sql.ErrNoRows

// Open connects to postgres and selects the schema, creating it when it
// does not exist yet. An empty schema selects public.
func Open(ctx context.Context, dataSourceName, schema string) (*DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if schema == "" {
		schema = "public"
	} else if _, err := db.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS `+schema+`;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema %s: %w", schema, err)
	}
	logger.Default().Infoln("connected to postgres, schema:", schema)
	return &DB{DB: db, Schema: schema}, nil
}
