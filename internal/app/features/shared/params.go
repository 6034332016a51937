// Package shared holds small request helpers used by several features.
package shared

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"github.com/jsong1004/ai-service/internal/domain/derrors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PathID parses the chi URL param name as an ObjectID.
func PathID(r *http.Request, name string) (primitive.ObjectID, error) {
	raw := chi.URLParam(r, name)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s is not a valid id", derrors.ErrInvalidInput, name)
	}
	return id, nil
}

// QueryID parses an optional ObjectID query parameter. Absent means
// NilObjectID.
func QueryID(r *http.Request, name string) (primitive.ObjectID, error) {
	raw := query.Get(r, name)
	if raw == "" {
		return primitive.NilObjectID, nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s is not a valid id", derrors.ErrInvalidInput, name)
	}
	return id, nil
}

// QueryInt parses an optional integer query parameter.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := query.Get(r, name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", derrors.ErrInvalidInput, name)
	}
	return n, nil
}
