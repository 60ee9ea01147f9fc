package main

import (
	"net/http"

	"github.com/joeshaw/envdecode"
	"github.com/sirupsen/logrus"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"

	"github.com/keeper-backend/keeper/core/access"
	"github.com/keeper-backend/keeper/core/backend"
	"github.com/keeper-backend/keeper/core/csql"
	"github.com/keeper-backend/keeper/core/logger"
)

// Service holds the configuration for this service
//
// use POSTGRES="host=localhost port=5432 user=postgres dbname=postgres sslmode=disable"
// and POSTGRES_PASSWORD="docker"
type Service struct {
	Postgres         string `env:"POSTGRES,required" description:"the connection string for the Postgres DB without password"`
	PostgresPassword string `env:"POSTGRES_PASSWORD,optional" description:"password to the Postgres DB"`
	Schema           string `env:"KEEPER_SCHEMA,optional,default=keeper" description:"the database schema"`
	JwtSecret        string `env:"JWT_SECRET,required" description:"the HMAC secret for validating access tokens"`
	JwtIssuer        string `env:"JWT_ISSUER,optional" description:"expected token issuer; empty disables the issuer check"`
	StreetViewAPIKey string `env:"STREETVIEW_API_KEY,optional" description:"API key for deriving property street-view images"`
	Port             string `env:"PORT,optional,default=3000" description:"the port the service listens on"`
}

func main() {
	service := &Service{}
	if err := envdecode.Decode(service); err != nil {
		panic(err)
	}
	logger.InitLogger(logrus.InfoLevel)

	db := csql.OpenWithSchema(service.Postgres, service.PostgresPassword, service.Schema)
	defer db.Close()

	router := mux.NewRouter()
	logger.AddRequestID(router)
	router.Use(access.NewJwtMiddleware(&access.JwtMiddlewareBuilder{
		Secret: service.JwtSecret,
		Issuer: service.JwtIssuer,
	}))

	backend.New(&backend.Builder{
		DB:               db,
		Router:           router,
		StreetViewAPIKey: service.StreetViewAPIKey,
		UpdateSchema:     true,
	})

	logger.Default().Infoln("listen on port :" + service.Port)
	logger.Default().Fatal(http.ListenAndServe(":"+service.Port, router))
}
