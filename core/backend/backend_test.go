package backend

import (
	"encoding/json"
	"os"
	"strconv"
	"testing"

	"github.com/gorilla/mux"
	"github.com/joeshaw/envdecode"

	"github.com/keeper-backend/keeper/core/client"
	"github.com/keeper-backend/keeper/core/csql"

	_ "github.com/lib/pq"
)

type TestService struct {
	Postgres         string `env:"POSTGRES,required" description:"the connection string for the Postgres DB without password"`
	PostgresPassword string `env:"POSTGRES_PASSWORD,optional" description:"password to the Postgres DB"`
	backend          *Backend
	client           client.Client // user 1
	clientOther      client.Client // user 2
	clientNoAuth     client.Client
}

var testService TestService

func asJSON(object interface{}) string {
	j, _ := json.Marshal(object)
	return string(j)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestMain(m *testing.M) {
	if err := envdecode.Decode(&testService); err != nil {
		panic(err)
	}

	db := csql.OpenWithSchema(testService.Postgres, testService.PostgresPassword, "_keeper_unit_test_")
	defer db.Close()
	db.ClearSchema()

	router := mux.NewRouter()
	testService.backend = New(&Builder{
		DB:           db,
		Router:       router,
		UpdateSchema: true,
	})
	testService.client = client.NewWithRouter(router).WithUser(1)
	testService.clientOther = client.NewWithRouter(router).WithUser(2)
	testService.clientNoAuth = client.NewWithRouter(router)

	code := m.Run()
	os.Exit(code)
}
