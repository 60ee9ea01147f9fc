/*
Package backend implements the keeper resource routers.

A backend manages two user-scoped collections in a Postgres database -
properties and movies - and provides a RESTful API for them. Every handler
is a shallow, linear sequence: validate the input, resolve the caller
identity, run one parameterized SQL statement, write a JSON response.

The backend creates these REST routes:

	GET    /properties
	POST   /properties
	GET    /properties/{property_id}
	PUT    /properties/{property_id}
	DELETE /properties/{property_id}
	GET    /movies
	POST   /movies
	GET    /movies/{movie_id}
	PUT    /movies/{movie_id}
	DELETE /movies/{movie_id}

Both collections are user-scoped: a row belongs to exactly one user, the
numeric identity resolved by the access middleware. List and read queries
filter by owner; absence and foreign ownership are indistinguishable on
read and yield a 404, so existence is not leaked to non-owners. Mutations
are single owner-guarded statements (UPDATE/DELETE ... WHERE id AND
user_id), so an ownership change between check and act cannot occur; when
the guard matches no row a follow-up probe distinguishes 403 (exists under
a different owner) from 404 (gone).

We can create a movie with a simple POST:

	curl http://localhost:3000/movies -H 'Authorization: Bearer <token>' \
	    -d'{"title":"Heat", "imdb_link":"https://www.imdb.com/title/tt0113277/", "rating":5}'
	{
	  "movie_id": 1,
	  "user_id": 42,
	  "title": "Heat",
	  "summary": null,
	  "imdb_link": "https://www.imdb.com/title/tt0113277/",
	  "rating": 5,
	  "timestamp": "2026-08-12T16:01:08.138302Z"
	}

Property creation derives a street-view image URL from the formatted
address when an API key is configured; without a key the image stays
empty and a warning is logged.

Request bodies are validated twice: structurally against the embedded
JSON schemas (types, rating range), then field by field in the handler
for the required-field messages. Optional numeric fields are pointers, so
an absent field, an explicit zero and an invalid value stay distinct.

You can check the authorization state of any token with a GET request to

	/authorization

which returns the authorization for the authenticated requester.
*/
package backend
