package backend

import (
	"net/http"
	"testing"
)

func TestMovieCreate(t *testing.T) {
	m := Movie{}
	status, err := testService.client.RawPost("/movies", map[string]interface{}{
		"title":     "Heat",
		"imdb_link": "https://www.imdb.com/title/tt0113277/",
		"rating":    3,
	}, &m)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusCreated {
		t.Fatal("expected status created, got:", status)
	}
	if m.MovieID == 0 {
		t.Fatal("no id")
	}
	if m.UserID != 1 || m.Title != "Heat" || m.Rating != 3 {
		t.Fatal("unexpected result:", asJSON(m))
	}
	if m.Summary != nil {
		t.Fatal("expected null summary, got:", asJSON(m))
	}
	if m.Timestamp.IsZero() {
		t.Fatal("no timestamp")
	}

	mGet := Movie{}
	if _, err := testService.client.RawGet("/movies/"+itoa(m.MovieID), &mGet); err != nil {
		t.Fatal(err)
	}
	if asJSON(mGet) != asJSON(m) {
		t.Fatal("unexpected result:", asJSON(mGet), "expected:", asJSON(m))
	}
}

func TestMovieRatingBounds(t *testing.T) {
	for _, rating := range []int{0, 6, -1} {
		status, _ := testService.client.RawPost("/movies", map[string]interface{}{
			"title":     t.Name(),
			"imdb_link": "https://www.imdb.com/title/tt0113277/",
			"rating":    rating,
		}, nil)
		if status != http.StatusBadRequest {
			t.Fatalf("rating %d: expected bad request, got: %d", rating, status)
		}
	}
	// the bounds themselves are valid
	for _, rating := range []int{1, 5} {
		status, err := testService.client.RawPost("/movies", map[string]interface{}{
			"title":     t.Name(),
			"imdb_link": "https://www.imdb.com/title/tt0113277/",
			"rating":    rating,
		}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if status != http.StatusCreated {
			t.Fatalf("rating %d: expected status created, got: %d", rating, status)
		}
	}
}

func TestMovieCreateValidation(t *testing.T) {
	testCases := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing title", map[string]interface{}{"imdb_link": "https://imdb.com/x", "rating": 3}},
		{"missing imdb_link", map[string]interface{}{"title": "x", "rating": 3}},
		{"missing rating", map[string]interface{}{"title": "x", "imdb_link": "https://imdb.com/x"}},
		{"non-integer rating", map[string]interface{}{"title": "x", "imdb_link": "https://imdb.com/x", "rating": "five"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := testService.client.RawPost("/movies", tc.body, nil)
			if status != http.StatusBadRequest {
				t.Fatal("expected bad request, got:", status)
			}
		})
	}
}

func TestMovieUpdateReplacesAllFields(t *testing.T) {
	summary := "bank heist goes wrong"
	m := Movie{}
	if _, err := testService.client.RawPost("/movies", map[string]interface{}{
		"title":     "Heat",
		"summary":   summary,
		"imdb_link": "https://www.imdb.com/title/tt0113277/",
		"rating":    4,
	}, &m); err != nil {
		t.Fatal(err)
	}

	updated := Movie{}
	_, err := testService.client.RawPut("/movies/"+itoa(m.MovieID), map[string]interface{}{
		"title":     "Heat (1995)",
		"imdb_link": m.IMDBLink,
		"rating":    5,
	}, &updated)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != "Heat (1995)" || updated.Rating != 5 {
		t.Fatal("unexpected result:", asJSON(updated))
	}
	// summary was absent in the update, so the replacement clears it
	if updated.Summary != nil {
		t.Fatal("summary not cleared:", asJSON(updated))
	}
	if updated.MovieID != m.MovieID || updated.UserID != m.UserID {
		t.Fatal("identity changed:", asJSON(updated))
	}
}

func TestMovieForeignAccess(t *testing.T) {
	m := Movie{}
	if _, err := testService.client.RawPost("/movies", map[string]interface{}{
		"title":     t.Name(),
		"imdb_link": "https://www.imdb.com/title/tt0113277/",
		"rating":    2,
	}, &m); err != nil {
		t.Fatal(err)
	}

	status, _ := testService.clientOther.RawGet("/movies/"+itoa(m.MovieID), nil)
	if status != http.StatusNotFound {
		t.Fatal("expected not found, got:", status)
	}
	status, _ = testService.clientOther.RawPut("/movies/"+itoa(m.MovieID), map[string]interface{}{
		"title":     "hijacked",
		"imdb_link": "https://imdb.com/x",
		"rating":    1,
	}, nil)
	if status != http.StatusForbidden {
		t.Fatal("expected forbidden, got:", status)
	}
	status, _ = testService.clientOther.RawDelete("/movies/" + itoa(m.MovieID))
	if status != http.StatusForbidden {
		t.Fatal("expected forbidden, got:", status)
	}

	// the owner still sees the original
	check := Movie{}
	if _, err := testService.client.RawGet("/movies/"+itoa(m.MovieID), &check); err != nil {
		t.Fatal(err)
	}
	if check.Title != t.Name() || check.Rating != 2 {
		t.Fatal("foreign mutation modified the row:", asJSON(check))
	}
}

func TestMovieDeleteTwice(t *testing.T) {
	m := Movie{}
	if _, err := testService.client.RawPost("/movies", map[string]interface{}{
		"title":     t.Name(),
		"imdb_link": "https://www.imdb.com/title/tt0113277/",
		"rating":    1,
	}, &m); err != nil {
		t.Fatal(err)
	}

	if _, err := testService.client.RawDelete("/movies/" + itoa(m.MovieID)); err != nil {
		t.Fatal(err)
	}
	status, _ := testService.client.RawDelete("/movies/" + itoa(m.MovieID))
	if status != http.StatusNotFound {
		t.Fatal("expected not found, got:", status)
	}
}

func TestMovieListOrderedByID(t *testing.T) {
	for _, title := range []string{"one", "two", "three"} {
		if _, err := testService.client.RawPost("/movies", map[string]interface{}{
			"title":     t.Name() + " " + title,
			"imdb_link": "https://imdb.com/x",
			"rating":    3,
		}, nil); err != nil {
			t.Fatal(err)
		}
	}
	var movies []Movie
	if _, err := testService.client.RawGet("/movies", &movies); err != nil {
		t.Fatal(err)
	}
	var lastID int64
	for _, m := range movies {
		if m.UserID != 1 {
			t.Fatal("foreign movie in list:", asJSON(m))
		}
		if m.MovieID <= lastID {
			t.Fatal("list not ordered by id")
		}
		lastID = m.MovieID
	}
}
