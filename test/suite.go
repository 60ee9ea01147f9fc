// Package test runs the keeper service end-to-end: a Postgres container,
// the real JWT middleware and a plain HTTP client.
package test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/keeper-backend/keeper/core/access"
	"github.com/keeper-backend/keeper/core/backend"
	"github.com/keeper-backend/keeper/core/client"
	"github.com/keeper-backend/keeper/core/csql"

	_ "github.com/lib/pq"
)

const jwtSecret = "integration-test-secret"
const jwtIssuer = "keeper-test"

type IntegrationTestSuite struct {
	suite.Suite

	postgresContainer testcontainers.Container
	dbConn            *csql.DB
	router            *mux.Router
	backend           *backend.Backend
	srv               *httptest.Server
}

func (s *IntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	postgresUser := "testuser"
	postgresPassword := "testpass"
	postgresDB := "testdb"

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:15",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     postgresUser,
			"POSTGRES_PASSWORD": postgresPassword,
			"POSTGRES_DB":       postgresDB,
		},
		WaitingFor: wait.ForListeningPort("5432/tcp"),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	s.Require().NoError(err)
	s.postgresContainer = pgC

	pgHost, err := pgC.Host(ctx)
	s.Require().NoError(err)
	pgPort, err := pgC.MappedPort(ctx, "5432")
	s.Require().NoError(err)

	s.dbConn = csql.OpenWithSchema(fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable",
		pgHost, pgPort.Port(), postgresUser, postgresDB), postgresPassword, "keeper")

	s.router = mux.NewRouter()
	s.router.Use(access.NewJwtMiddleware(&access.JwtMiddlewareBuilder{
		Secret: jwtSecret,
		Issuer: jwtIssuer,
	}))
	s.backend = backend.New(&backend.Builder{
		DB:           s.dbConn,
		Router:       s.router,
		UpdateSchema: true,
	})

	s.srv = httptest.NewServer(s.router)
}

func (s *IntegrationTestSuite) TearDownSuite() {
	ctx := context.Background()
	if s.srv != nil {
		s.srv.Close()
	}
	if s.dbConn != nil {
		s.dbConn.Close()
	}
	if s.postgresContainer != nil {
		err := s.postgresContainer.Terminate(ctx)
		s.Require().NoError(err)
	}
}

// clientForUser returns an HTTP client with a freshly signed token for the
// given user, exercising the full token path instead of a context shortcut.
func (s *IntegrationTestSuite) clientForUser(userID int64) client.Client {
	claims := struct {
		UserID int64 `json:"user_id"`
		jwt.RegisteredClaims
	}{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
	s.Require().NoError(err)
	return client.NewWithURL(s.srv.URL).WithToken(token)
}
