// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joeshaw/envdecode"

	"github.com/openbeheer/bff/core/csql"
	"github.com/openbeheer/bff/core/health"
	"github.com/openbeheer/bff/core/oas"
	"github.com/openbeheer/bff/core/registry"
)

// Service holds the configuration for the healthcheck command. It
// consumes the same environment as the gateway.
type Service struct {
	Postgres       string `env:"POSTGRES" description:"the connection string for the Postgres DB"`
	PostgresSchema string `env:"POSTGRES_SCHEMA,default=bff"`
	ServicesConfig string `env:"SERVICES_CONFIG" description:"path to a static services JSON, used without a database"`
}

func main() {
	withTraceback := flag.Bool("with-traceback", false, "print tracebacks for check panics")
	flag.Parse()

	service := &Service{}
	if err := envdecode.Decode(service); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var store registry.Store
	if service.Postgres != "" {
		db, err := csql.Open(context.Background(), service.Postgres, service.PostgresSchema)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer db.Close()
		store = registry.NewPostgresStore(db)
	} else {
		data, err := os.ReadFile(service.ServicesConfig)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		services, err := registry.LoadConfiguration(data)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		store = registry.NewMemoryStore(services...)
	}

	checker := health.NewChecker(registry.New(store), oas.NewRegistry())
	checker.WithTraceback = *withTraceback

	results := checker.Run(context.Background())
	for _, result := range results {
		status := "ok"
		if !result.Success {
			status = "FAILED"
		}
		fmt.Printf("%-40s %s\n", result.Check, status)
		for _, e := range result.Errors {
			fmt.Printf("  [%s] %s: %s\n", e.Severity, e.Code, e.Message)
			if e.Traceback != "" {
				fmt.Println(e.Traceback)
			}
		}
	}

	if !health.Healthy(results) {
		os.Exit(1)
	}
}
