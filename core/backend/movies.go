package backend

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/keeper-backend/keeper/core/csql"
	"github.com/keeper-backend/keeper/core/logger"
	"github.com/keeper-backend/keeper/core/rest"
)

// Movie is one row of the movie collection. The primary key is movie_id
// throughout, including the owner-guarded mutations.
type Movie struct {
	MovieID   int64     `json:"movie_id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Summary   *string   `json:"summary"`
	IMDBLink  string    `json:"imdb_link"`
	Rating    int64     `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}

func (m *Movie) scanValues() []interface{} {
	return []interface{}{
		&m.MovieID, &m.UserID, &m.Title, &m.Summary, &m.IMDBLink, &m.Rating, &m.Timestamp,
	}
}

const movieColumns = `movie_id, user_id, title, summary, imdb_link, rating, timestamp`

const movieSchemaID = "https://keeper-backend.github.io/schemas/movie.json"

// movieRequest serves both create and update; updates replace all fields.
type movieRequest struct {
	Title    string  `json:"title"`
	Summary  *string `json:"summary"`
	IMDBLink string  `json:"imdb_link"`
	Rating   *int64  `json:"rating"`
}

func (req *movieRequest) validate() error {
	if req.Title == "" {
		return rest.BadRequest("title is required")
	}
	if req.IMDBLink == "" {
		return rest.BadRequest("imdb_link is required")
	}
	if req.Rating == nil {
		return rest.BadRequest("rating is required")
	}
	if *req.Rating < 1 || *req.Rating > 5 {
		return rest.BadRequest("rating must be between 1 and 5")
	}
	return nil
}

func (b *Backend) handleMovieRoutes(router *mux.Router) {
	schema := b.db.Schema
	nillog := logger.FromContext(nil)
	nillog.Debugln("create collection: movie")
	nillog.Debugln("  handle movie routes: /movies GET,POST")
	nillog.Debugln("  handle movie routes: /movies/{movie_id} GET,PUT,DELETE")

	listQuery := fmt.Sprintf("SELECT %s FROM %s.movie WHERE user_id = $1 ORDER BY movie_id ASC;",
		movieColumns, schema)
	readQuery := fmt.Sprintf("SELECT %s FROM %s.movie WHERE movie_id = $1 AND user_id = $2;",
		movieColumns, schema)
	insertQuery := fmt.Sprintf(`INSERT INTO %s.movie (user_id, title, summary, imdb_link, rating)
VALUES($1,$2,$3,$4,$5) RETURNING %s;`, schema, movieColumns)
	updateQuery := fmt.Sprintf(`UPDATE %s.movie SET title = $1, summary = $2, imdb_link = $3, rating = $4
WHERE movie_id = $5 AND user_id = $6 RETURNING %s;`, schema, movieColumns)
	deleteQuery := fmt.Sprintf("DELETE FROM %s.movie WHERE movie_id = $1 AND user_id = $2 RETURNING movie_id;",
		schema)

	list := func(w http.ResponseWriter, r *http.Request) {
		rlog := logger.FromContext(r.Context())
		userID, err := authenticate(r)
		if err != nil {
			rest.WriteError(w, rlog, err)
			return
		}

		rows, err := b.db.QueryContext(r.Context(), listQuery, userID)
		if err != nil {
			rest.WriteError(w, rlog, fmt.Errorf("cannot query movies: %w", err))
			return
		}
		defer rows.Close()

		movies := []Movie{}
		for rows.Next() {
			var m Movie
			if err := rows.Scan(m.scanValues()...); err != nil {
				rest.WriteError(w, rlog, fmt.Errorf("cannot scan movie: %w", err))
				return
			}
			movies = append(movies, m)
		}
		if err := rows.Err(); err != nil {
			rest.WriteError(w, rlog, fmt.Errorf("cannot read movies: %w", err))
			return
		}
		rest.WriteJSON(w, http.StatusOK, movies)
	}

	getOne := func(w http.ResponseWriter, r *http.Request) {
		rlog := logger.FromContext(r.Context())
		userID, err := authenticate(r)
		if err != nil {
			rest.WriteError(w, rlog, err)
			return
		}
		id, err := pathID(r, "movie_id")
		if err != nil {
			rest.WriteError(w, rlog, err)
			return
		}

		var m Movie
		err = b.db.QueryRowContext(r.Context(), readQuery, id, userID).Scan(m.scanValues()...)
		if err == csql.ErrNoRows {
			rest.WriteError(w, rlog, rest.NotFound("movie with id %d not found", id))
			return
		}
		if err != nil {
			rest.WriteError(w, rlog, fmt.Errorf("cannot read movie %d: %w", id, err))
			return
		}
		rest.WriteJSON(w, http.StatusOK, m)
	}

	create := func(w http.ResponseWriter, r *http.Request) {
		rlog := logger.FromContext(r.Context())
		userID, err := authenticate(r)
		if err != nil {
			rest.WriteError(w, rlog, err)
			return
		}

		var req movieRequest
		body, err := rest.DecodeRaw(r, &req)
		if err != nil {
			rest.WriteError(w, rlog, err)
			return
		}
		if err := b.jsonValidator.ValidateString(string(body), movieSchemaID); err != nil {
			rest.WriteError(w, rlog, rest.BadRequest("%s", err))
			return
		}
		if err := req.validate(); err != nil {
			rest.WriteError(w, rlog, err)
			return
		}

		var m Movie
		err = b.db.QueryRowContext(r.Context(), insertQuery,
			userID, req.Title, req.Summary, req.IMDBLink, *req.Rating,
		).Scan(m.scanValues()...)
		if err != nil {
			rest.WriteError(w, rlog, fmt.Errorf("cannot insert movie: %w", err))
			return
		}
		rest.WriteJSON(w, http.StatusCreated, m)
	}

	update := func(w http.ResponseWriter, r *http.Request) {
		rlog := logger.FromContext(r.Context())
		userID, err := authenticate(r)
		if err != nil {
			rest.WriteError(w, rlog, err)
			return
		}
		id, err := pathID(r, "movie_id")
		if err != nil {
			rest.WriteError(w, rlog, err)
			return
		}

		var req movieRequest
		body, err := rest.DecodeRaw(r, &req)
		if err != nil {
			rest.WriteError(w, rlog, err)
			return
		}
		if err := b.jsonValidator.ValidateString(string(body), movieSchemaID); err != nil {
			rest.WriteError(w, rlog, rest.BadRequest("%s", err))
			return
		}
		if err := req.validate(); err != nil {
			rest.WriteError(w, rlog, err)
			return
		}

		var m Movie
		err = b.db.QueryRowContext(r.Context(), updateQuery,
			req.Title, req.Summary, req.IMDBLink, *req.Rating, id, userID,
		).Scan(m.scanValues()...)
		if err == csql.ErrNoRows {
			rest.WriteError(w, rlog, b.mutationError(r.Context(), "movie", "movie_id", id, "update"))
			return
		}
		if err != nil {
			rest.WriteError(w, rlog, fmt.Errorf("cannot update movie %d: %w", id, err))
			return
		}
		rest.WriteJSON(w, http.StatusOK, m)
	}

	deleteOne := func(w http.ResponseWriter, r *http.Request) {
		rlog := logger.FromContext(r.Context())
		userID, err := authenticate(r)
		if err != nil {
			rest.WriteError(w, rlog, err)
			return
		}
		id, err := pathID(r, "movie_id")
		if err != nil {
			rest.WriteError(w, rlog, err)
			return
		}

		var deletedID int64
		err = b.db.QueryRowContext(r.Context(), deleteQuery, id, userID).Scan(&deletedID)
		if err == csql.ErrNoRows {
			rest.WriteError(w, rlog, b.mutationError(r.Context(), "movie", "movie_id", id, "delete"))
			return
		}
		if err != nil {
			rest.WriteError(w, rlog, fmt.Errorf("cannot delete movie %d: %w", id, err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}

	router.HandleFunc("/movies", list).Methods(http.MethodGet)
	router.HandleFunc("/movies", create).Methods(http.MethodPost)
	router.HandleFunc("/movies/{movie_id}", getOne).Methods(http.MethodGet)
	router.HandleFunc("/movies/{movie_id}", update).Methods(http.MethodPut)
	router.HandleFunc("/movies/{movie_id}", deleteOne).Methods(http.MethodDelete)
}
