package controllers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go-storefront/models"
	"go-storefront/utils"
)

// decodeJSON reads the request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return utils.ValidationError("Invalid input")
	}
	return nil
}

// parseListingParams reads GET /products query parameters, applying
// defaults for absent ones. Range checks happen in the catalog service.
func parseListingParams(q url.Values) (models.ListingParams, error) {
	params := models.DefaultListingParams()
	var fields []utils.FieldError

	if v := strings.TrimSpace(q.Get("page")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			fields = append(fields, utils.FieldError{Field: "page", Message: "Page must be a positive integer"})
		}
		params.Page = n
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			fields = append(fields, utils.FieldError{Field: "limit", Message: "Limit must be a positive integer"})
		}
		params.Limit = n
	}
	params.Search = strings.TrimSpace(q.Get("search"))
	params.Category = strings.TrimSpace(q.Get("category"))
	params.Sort = strings.TrimSpace(q.Get("sort"))

	if len(fields) > 0 {
		return params, utils.ValidationError("Validation failed", fields...)
	}
	return params, nil
}
