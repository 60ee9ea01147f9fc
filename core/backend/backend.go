package backend

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/keeper-backend/keeper/core/access"
	"github.com/keeper-backend/keeper/core/csql"
	"github.com/keeper-backend/keeper/core/logger"
	"github.com/keeper-backend/keeper/core/rest"
	"github.com/keeper-backend/keeper/core/schema"
)

//go:embed schemas
var schemaFS embed.FS

// Backend is the keeper rest backend. It owns the resource routers for
// properties and movies. It is constructed once at process start and
// injected into the router; there is no process-wide database state.
type Backend struct {
	db               *csql.DB
	router           *mux.Router
	jsonValidator    *schema.Validator
	streetViewAPIKey string
}

// Builder is a builder helper for the Backend
type Builder struct {
	// DB is a postgres database. This is mandatory.
	DB *csql.DB
	// Router is a mux router. This is mandatory.
	Router *mux.Router
	// StreetViewAPIKey enables derived street-view images for properties.
	// This is optional; without a key properties are created with an empty
	// image and a warning is logged.
	StreetViewAPIKey string
	// UpdateSchema creates the database relations at startup if they do
	// not exist yet.
	UpdateSchema bool
}

// New realizes the actual backend. It creates the sql relations (if
// requested) and adds the resource routes to the router.
func New(bb *Builder) *Backend {

	if bb.DB == nil {
		panic("DB is missing")
	}
	if bb.Router == nil {
		panic("Router is missing")
	}

	schemas, err := fs.Sub(schemaFS, "schemas")
	if err != nil {
		panic(err)
	}
	validator, err := schema.NewValidatorFromFS(schemas)
	if err != nil {
		panic(fmt.Errorf("invalid resource schemas: %w", err))
	}

	b := &Backend{
		db:               bb.DB,
		router:           bb.Router,
		jsonValidator:    validator,
		streetViewAPIKey: bb.StreetViewAPIKey,
	}

	if bb.UpdateSchema {
		b.updateSchema()
	}

	b.handleCORS()
	b.handleCompression()
	access.HandleAuthorizationRoute(b.router)
	b.handlePropertyRoutes(b.router)
	b.handleMovieRoutes(b.router)
	return b
}

// updateSchema bootstraps the two relations. Column types are the store's
// concern; everything the handlers round to integers is stored as bigint.
func (b *Backend) updateSchema() {
	nillog := logger.FromContext(nil)
	s := b.db.Schema

	createQuery := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s.property (
	property_id bigserial PRIMARY KEY,
	user_id bigint NOT NULL,
	formatted_address varchar NOT NULL,
	price bigint NOT NULL DEFAULT 0,
	price_range_low bigint NOT NULL DEFAULT 0,
	price_range_high bigint NOT NULL DEFAULT 0,
	property_type varchar NOT NULL DEFAULT 'Single Family',
	bedrooms double precision NOT NULL DEFAULT 0,
	bathrooms double precision NOT NULL DEFAULT 0,
	square_footage bigint NOT NULL DEFAULT 0,
	year_built bigint NOT NULL DEFAULT 0,
	last_sale varchar NOT NULL DEFAULT '',
	last_sale_price bigint NOT NULL DEFAULT 0,
	image varchar NOT NULL DEFAULT '',
	notes varchar,
	monthly_rent bigint,
	mortgage_payment bigint,
	mortgage_balance bigint,
	hoa_payment bigint,
	interest_rate bigint,
	timestamp timestamp NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS search_index_property_user_id ON %[1]s.property(user_id);
CREATE TABLE IF NOT EXISTS %[1]s.movie (
	movie_id bigserial PRIMARY KEY,
	user_id bigint NOT NULL,
	title varchar NOT NULL,
	summary varchar,
	imdb_link varchar NOT NULL,
	rating integer NOT NULL,
	timestamp timestamp NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS search_index_movie_user_id ON %[1]s.movie(user_id);
`, s)

	_, err := b.db.Exec(createQuery)
	if err != nil {
		nillog.WithError(err).Errorf("Error while updating schema when running: %s", createQuery)
		panic(fmt.Sprintf("invalid configuration updating: err: %v", err))
	}
}

// authenticate returns the caller's user id, or a 401 client error when the
// request carries no resolved identity. The check runs before any query.
func authenticate(r *http.Request) (int64, error) {
	userID, ok := access.UserIDFromContext(r.Context())
	if !ok {
		return 0, rest.Unauthorized("authentication required")
	}
	return userID, nil
}

// pathID parses the numeric path identifier. Zero and unparseable values
// are client errors.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id == 0 {
		return 0, rest.BadRequest("valid %s is required", name)
	}
	return id, nil
}
