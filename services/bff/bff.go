// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package main

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joeshaw/envdecode"
	"github.com/sirupsen/logrus"

	"github.com/openbeheer/bff/catalogs"
	"github.com/openbeheer/bff/core/access"
	"github.com/openbeheer/bff/core/csql"
	"github.com/openbeheer/bff/core/health"
	"github.com/openbeheer/bff/core/logger"
	"github.com/openbeheer/bff/core/oas"
	"github.com/openbeheer/bff/core/registry"
)

// Service holds the configuration for the gateway
//
// use POSTGRES="host=localhost port=5432 user=postgres password=docker dbname=postgres sslmode=disable"
// or SERVICES_CONFIG=services.json to run without a database
type Service struct {
	SecretKey           string `env:"SECRET_KEY,required" description:"signs session and CSRF cookies"`
	Postgres            string `env:"POSTGRES" description:"the connection string for the Postgres DB"`
	PostgresSchema      string `env:"POSTGRES_SCHEMA,default=bff" description:"the database schema"`
	ServicesConfig      string `env:"SERVICES_CONFIG" description:"path to a static services JSON, used without a database"`
	Port                string `env:"PORT,default=8000"`
	AllowedHosts        string `env:"ALLOWED_HOSTS" description:"comma separated CORS origins"`
	SessionCookieSecure bool   `env:"SESSION_COOKIE_SECURE,default=false"`
	OIDCEnabled         bool   `env:"OIDC_ENABLED,default=false"`
	OIDCLoginURL        string `env:"OIDC_LOGIN_URL"`
	LogLevel            string `env:"LOG_LEVEL,default=info"`
}

func main() {
	service := &Service{}
	if err := envdecode.Decode(service); err != nil {
		panic(err)
	}

	logLevel, err := logrus.ParseLevel(service.LogLevel)
	if err != nil {
		panic(err)
	}
	logger.InitLogger(logLevel)
	rlog := logger.Default()

	var db *csql.DB
	var serviceStore registry.Store
	var userStore access.UserStore
	if service.Postgres != "" {
		db, err = csql.Open(context.Background(), service.Postgres, service.PostgresSchema)
		if err != nil {
			panic(err)
		}
		defer db.Close()
		serviceStore = registry.NewPostgresStore(db)
		userStore, err = access.NewPostgresUserStore(db)
		if err != nil {
			panic(err)
		}
	} else {
		if service.ServicesConfig == "" {
			panic("neither POSTGRES nor SERVICES_CONFIG is configured")
		}
		data, err := os.ReadFile(service.ServicesConfig)
		if err != nil {
			panic(err)
		}
		services, err := registry.LoadConfiguration(data)
		if err != nil {
			panic(err)
		}
		serviceStore = registry.NewMemoryStore(services...)
		userStore = access.NewMemoryUserStore()
		rlog.Warningln("running without a database, accounts are in-memory only")
	}

	reg := registry.New(serviceStore)
	oasReg := oas.NewRegistry()
	sessions := access.NewSessions([]byte(service.SecretKey), userStore,
		service.SessionCookieSecure, access.OIDCConfig{
			Enabled:  service.OIDCEnabled,
			LoginURL: service.OIDCLoginURL,
		})

	router := mux.NewRouter().StrictSlash(true)
	logger.AddRequestID(router)
	api := router.PathPrefix("/api/v1").Subrouter()

	sessions.HandleAuthRoutes(api)
	health.NewChecker(reg, oasReg).HandleHealthRoute(api)

	resources := api.NewRoute().Subrouter()
	resources.Use(mux.MiddlewareFunc(sessions.Protect))
	if err := catalogs.Mount(resources, reg, oasReg); err != nil {
		panic(err)
	}

	protection := csrf.Protect([]byte(service.SecretKey),
		csrf.Secure(service.SessionCookieSecure),
		csrf.Path("/"),
		csrf.RequestHeader("X-CSRFToken"),
		csrf.CookieName("csrftoken"),
	)

	var handler http.Handler = protection(router)
	if service.AllowedHosts != "" {
		handler = handlers.CORS(
			handlers.AllowedOrigins(strings.Split(service.AllowedHosts, ",")),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Content-Type", "X-CSRFToken"}),
			handlers.AllowCredentials(),
		)(handler)
	}
	handler = handlers.CompressHandler(handler)

	rlog.Infoln("listen on port :" + service.Port)
	if err := http.ListenAndServe(":"+service.Port, handler); err != nil {
		panic(err)
	}
}
