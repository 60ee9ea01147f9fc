package backend

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/keeper-backend/keeper/core/csql"
	"github.com/keeper-backend/keeper/core/logger"
	"github.com/keeper-backend/keeper/core/pointers"
	"github.com/keeper-backend/keeper/core/rest"
)

// Property is one row of the property collection. Every property belongs
// to exactly one user; only that user can read, update or delete it.
type Property struct {
	PropertyID       int64     `json:"property_id"`
	UserID           int64     `json:"user_id"`
	FormattedAddress string    `json:"formatted_address"`
	Price            int64     `json:"price"`
	PriceRangeLow    int64     `json:"price_range_low"`
	PriceRangeHigh   int64     `json:"price_range_high"`
	PropertyType     string    `json:"property_type"`
	Bedrooms         float64   `json:"bedrooms"`
	Bathrooms        float64   `json:"bathrooms"`
	SquareFootage    int64     `json:"square_footage"`
	YearBuilt        int64     `json:"year_built"`
	LastSale         string    `json:"last_sale"`
	LastSalePrice    int64     `json:"last_sale_price"`
	Image            string    `json:"image"`
	Notes            *string   `json:"notes"`
	MonthlyRent      *int64    `json:"monthly_rent"`
	MortgagePayment  *int64    `json:"mortgage_payment"`
	MortgageBalance  *int64    `json:"mortgage_balance"`
	HoaPayment       *int64    `json:"hoa_payment"`
	InterestRate     *int64    `json:"interest_rate"`
	Timestamp        time.Time `json:"timestamp"`
}

func (p *Property) scanValues() []interface{} {
	return []interface{}{
		&p.PropertyID, &p.UserID, &p.FormattedAddress,
		&p.Price, &p.PriceRangeLow, &p.PriceRangeHigh, &p.PropertyType,
		&p.Bedrooms, &p.Bathrooms, &p.SquareFootage, &p.YearBuilt,
		&p.LastSale, &p.LastSalePrice, &p.Image,
		&p.Notes, &p.MonthlyRent, &p.MortgagePayment, &p.MortgageBalance,
		&p.HoaPayment, &p.InterestRate, &p.Timestamp,
	}
}

const propertyColumns = `property_id, user_id, formatted_address, price, price_range_low, ` +
	`price_range_high, property_type, bedrooms, bathrooms, square_footage, year_built, ` +
	`last_sale, last_sale_price, image, notes, monthly_rent, mortgage_payment, ` +
	`mortgage_balance, hoa_payment, interest_rate, timestamp`

const propertySchemaID = "https://keeper-backend.github.io/schemas/property.json"

// propertyCreateRequest distinguishes absent optional fields from explicit
// zeros: absent means the documented default, present means the value
// rounded to the nearest integer, a non-numeric value is a 400.
type propertyCreateRequest struct {
	FormattedAddress string   `json:"formatted_address"`
	Price            *float64 `json:"price"`
	PriceRangeLow    *float64 `json:"price_range_low"`
	PriceRangeHigh   *float64 `json:"price_range_high"`
	PropertyType     *string  `json:"property_type"`
	Bedrooms         *float64 `json:"bedrooms"`
	Bathrooms        *float64 `json:"bathrooms"`
	SquareFootage    *float64 `json:"square_footage"`
	YearBuilt        *float64 `json:"year_built"`
	LastSale         *string  `json:"last_sale"`
	LastSalePrice    *float64 `json:"last_sale_price"`
}

// propertyUpdateRequest covers the mutable subset. Absent fields are
// written as NULL, full-replace semantics per field.
type propertyUpdateRequest struct {
	Notes           *string  `json:"notes"`
	MonthlyRent     *float64 `json:"monthly_rent"`
	MortgagePayment *float64 `json:"mortgage_payment"`
	MortgageBalance *float64 `json:"mortgage_balance"`
	HoaPayment      *float64 `json:"hoa_payment"`
	InterestRate    *float64 `json:"interest_rate"`
}

func roundOrZero(x *float64) int64 {
	return int64(math.Round(pointers.SafeFloat64(x)))
}

func roundPtr(x *float64) *int64 {
	if x == nil {
		return nil
	}
	return pointers.Int64Ptr(int64(math.Round(*x)))
}

func stringOrDefault(x *string, def string) string {
	if x == nil || *x == "" {
		return def
	}
	return *x
}

// streetViewImageURL derives the property image from the formatted address.
// Gated on the configured API key; absence is non-fatal.
func (b *Backend) streetViewImageURL(rlog *logrus.Entry, formattedAddress string) string {
	if b.streetViewAPIKey == "" {
		rlog.Warning("no street view API key configured for property images")
		return ""
	}
	return "https://maps.googleapis.com/maps/api/streetview?size=600x400&location=" +
		url.QueryEscape(formattedAddress) + "&key=" + b.streetViewAPIKey
}

// mutationError resolves the status for an owner-guarded mutation that
// matched no row: 403 when the row exists under a different owner, 404
// when it does not exist. The probe runs on the error path only; the
// mutation itself was a single atomic statement.
func (b *Backend) mutationError(ctx context.Context, resource, idColumn string, id int64, operation string) error {
	var one int
	probe := fmt.Sprintf("SELECT 1 FROM %s.%s WHERE %s = $1;", b.db.Schema, resource, idColumn)
	err := b.db.QueryRowContext(ctx, probe, id).Scan(&one)
	if err == csql.ErrNoRows {
		return rest.NotFound("%s with id %d not found", resource, id)
	}
	if err != nil {
		return fmt.Errorf("cannot probe %s %d: %w", resource, id, err)
	}
	return rest.Forbidden("not authorized to %s this %s", operation, resource)
}

func (b *Backend) handlePropertyRoutes(router *mux.Router) {
	schema := b.db.Schema
	nillog := logger.FromContext(nil)
	nillog.Debugln("create collection: property")
	nillog.Debugln("  handle property routes: /properties GET,POST")
	nillog.Debugln("  handle property routes: /properties/{property_id} GET,PUT,DELETE")

	listQuery := fmt.Sprintf("SELECT %s FROM %s.property WHERE user_id = $1 ORDER BY property_id ASC;",
		propertyColumns, schema)
	readQuery := fmt.Sprintf("SELECT %s FROM %s.property WHERE property_id = $1 AND user_id = $2;",
		propertyColumns, schema)
	insertQuery := fmt.Sprintf(`INSERT INTO %s.property (user_id, formatted_address, price,
price_range_low, price_range_high, property_type, bedrooms, bathrooms, square_footage,
year_built, last_sale, last_sale_price, image)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13) RETURNING %s;`, schema, propertyColumns)
	updateQuery := fmt.Sprintf(`UPDATE %s.property SET notes = $1, monthly_rent = $2,
mortgage_payment = $3, mortgage_balance = $4, hoa_payment = $5, interest_rate = $6
WHERE property_id = $7 AND user_id = $8 RETURNING %s;`, schema, propertyColumns)
	deleteQuery := fmt.Sprintf("DELETE FROM %s.property WHERE property_id = $1 AND user_id = $2 RETURNING property_id;",
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
			rest.WriteError(w, rlog, fmt.Errorf("cannot query properties: %w", err))
			return
		}
		defer rows.Close()

		properties := []Property{}
		for rows.Next() {
			var p Property
			if err := rows.Scan(p.scanValues()...); err != nil {
				rest.WriteError(w, rlog, fmt.Errorf("cannot scan property: %w", err))
				return
			}
			properties = append(properties, p)
		}
		if err := rows.Err(); err != nil {
			rest.WriteError(w, rlog, fmt.Errorf("cannot read properties: %w", err))
			return
		}
		rest.WriteJSON(w, http.StatusOK, properties)
	}

	getOne := func(w http.ResponseWriter, r *http.Request) {
		rlog := logger.FromContext(r.Context())
		userID, err := authenticate(r)
		if err != nil {
			rest.WriteError(w, rlog, err)
			return
		}
		id, err := pathID(r, "property_id")
		if err != nil {
			rest.WriteError(w, rlog, err)
			return
		}

		var p Property
		err = b.db.QueryRowContext(r.Context(), readQuery, id, userID).Scan(p.scanValues()...)
		if err == csql.ErrNoRows {
			// absence and foreign ownership are indistinguishable on read,
			// existence is not leaked to non-owners
			rest.WriteError(w, rlog, rest.NotFound("property with id %d not found", id))
			return
		}
		if err != nil {
			rest.WriteError(w, rlog, fmt.Errorf("cannot read property %d: %w", id, err))
			return
		}
		rest.WriteJSON(w, http.StatusOK, p)
	}

	create := func(w http.ResponseWriter, r *http.Request) {
		rlog := logger.FromContext(r.Context())
		userID, err := authenticate(r)
		if err != nil {
			rest.WriteError(w, rlog, err)
			return
		}

		var req propertyCreateRequest
		body, err := rest.DecodeRaw(r, &req)
		if err != nil {
			rest.WriteError(w, rlog, err)
			return
		}
		if err := b.jsonValidator.ValidateString(string(body), propertySchemaID); err != nil {
			rest.WriteError(w, rlog, rest.BadRequest("%s", err))
			return
		}
		if req.FormattedAddress == "" {
			rest.WriteError(w, rlog, rest.BadRequest("formatted_address is required"))
			return
		}

		image := b.streetViewImageURL(rlog, req.FormattedAddress)

		var p Property
		err = b.db.QueryRowContext(r.Context(), insertQuery,
			userID,
			req.FormattedAddress,
			roundOrZero(req.Price),
			roundOrZero(req.PriceRangeLow),
			roundOrZero(req.PriceRangeHigh),
			stringOrDefault(req.PropertyType, "Single Family"),
			pointers.SafeFloat64(req.Bedrooms),
			pointers.SafeFloat64(req.Bathrooms),
			roundOrZero(req.SquareFootage),
			roundOrZero(req.YearBuilt),
			stringOrDefault(req.LastSale, ""),
			roundOrZero(req.LastSalePrice),
			image,
		).Scan(p.scanValues()...)
		if err != nil {
			rest.WriteError(w, rlog, fmt.Errorf("cannot insert property: %w", err))
			return
		}
		rest.WriteJSON(w, http.StatusCreated, p)
	}

	update := func(w http.ResponseWriter, r *http.Request) {
		rlog := logger.FromContext(r.Context())
		userID, err := authenticate(r)
		if err != nil {
			rest.WriteError(w, rlog, err)
			return
		}
		id, err := pathID(r, "property_id")
		if err != nil {
			rest.WriteError(w, rlog, err)
			return
		}

		var req propertyUpdateRequest
		body, err := rest.DecodeRaw(r, &req)
		if err != nil {
			rest.WriteError(w, rlog, err)
			return
		}
		if err := b.jsonValidator.ValidateString(string(body), propertySchemaID); err != nil {
			rest.WriteError(w, rlog, rest.BadRequest("%s", err))
			return
		}

		var p Property
		err = b.db.QueryRowContext(r.Context(), updateQuery,
			req.Notes,
			roundPtr(req.MonthlyRent),
			roundPtr(req.MortgagePayment),
			roundPtr(req.MortgageBalance),
			roundPtr(req.HoaPayment),
			roundPtr(req.InterestRate),
			id, userID,
		).Scan(p.scanValues()...)
		if err == csql.ErrNoRows {
			rest.WriteError(w, rlog, b.mutationError(r.Context(), "property", "property_id", id, "update"))
			return
		}
		if err != nil {
			rest.WriteError(w, rlog, fmt.Errorf("cannot update property %d: %w", id, err))
			return
		}
		rest.WriteJSON(w, http.StatusOK, p)
	}

	deleteOne := func(w http.ResponseWriter, r *http.Request) {
		rlog := logger.FromContext(r.Context())
		userID, err := authenticate(r)
		if err != nil {
			rest.WriteError(w, rlog, err)
			return
		}
		id, err := pathID(r, "property_id")
		if err != nil {
			rest.WriteError(w, rlog, err)
			return
		}

		var deletedID int64
		err = b.db.QueryRowContext(r.Context(), deleteQuery, id, userID).Scan(&deletedID)
		if err == csql.ErrNoRows {
			rest.WriteError(w, rlog, b.mutationError(r.Context(), "property", "property_id", id, "delete"))
			return
		}
		if err != nil {
			rest.WriteError(w, rlog, fmt.Errorf("cannot delete property %d: %w", id, err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}

	router.HandleFunc("/properties", list).Methods(http.MethodGet)
	router.HandleFunc("/properties", create).Methods(http.MethodPost)
	router.HandleFunc("/properties/{property_id}", getOne).Methods(http.MethodGet)
	router.HandleFunc("/properties/{property_id}", update).Methods(http.MethodPut)
	router.HandleFunc("/properties/{property_id}", deleteOne).Methods(http.MethodDelete)
}
