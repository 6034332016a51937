// Package validators attaches $jsonSchema validators to the core
// collections. Servers without collMod support (some DocumentDB versions)
// skip validation and log it.
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/jsong1004/ai-service/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates the collections if missing and sets their validators.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("affiliates", affiliatesSchema())
	ensure("clients", clientsSchema())
	ensure("negotiations", negotiationsSchema())
	ensure("contracts", contractsSchema())
	ensure("commissions", commissionsSchema())

	// No validator; created so the first write does not race index builds.
	ensure("activities", nil)
	ensure("oauth_states", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var number = bson.M{"bsonType": bson.A{"double", "int", "long", "decimal"}}

var nonNegative = bson.M{"bsonType": bson.A{"double", "int", "long", "decimal"}, "minimum": 0}

func enum[T ~string](vals ...T) bson.M {
	a := make(bson.A, 0, len(vals))
	for _, v := range vals {
		a = append(a, string(v))
	}
	return bson.M{"enum": a}
}

func object(required bson.A, props bson.M) bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType":   "object",
			"required":   required,
			"properties": props,
		},
	}
}

func usersSchema() bson.M {
	return object(bson.A{"email", "role", "status", "auth_provider"}, bson.M{
		"email":            bson.M{"bsonType": "string", "minLength": 3},
		"full_name":        bson.M{"bsonType": "string"},
		"role":             enum("", models.RoleAdmin, models.RoleAffiliate, models.RoleClient),
		"status":           enum("active", "disabled"),
		"auth_provider":    enum(models.AuthCredentials, models.AuthGoogle),
		"auth_return_id":   bson.M{"bsonType": bson.A{"string", "null"}},
		"profile_complete": bson.M{"bsonType": "bool"},
	})
}

func affiliatesSchema() bson.M {
	return object(bson.A{"user_id", "status", "commission_rate"}, bson.M{
		"user_id":          bson.M{"bsonType": "objectId"},
		"status":           enum(models.AffiliatePending, models.AffiliateActive, models.AffiliateInactive),
		"commission_rate":  bson.M{"bsonType": bson.A{"double", "int", "long", "decimal"}, "minimum": 0, "exclusiveMinimum": true, "maximum": 100},
		"total_earnings":   number,
		"pending_earnings": number,
		"paid_earnings":    number,
	})
}

func clientsSchema() bson.M {
	return object(bson.A{"company_name", "status"}, bson.M{
		"company_name": bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
		"status":       enum(models.ClientLead, models.ClientProspect, models.ClientActive, models.ClientInactive),
		"affiliate_id": bson.M{"bsonType": bson.A{"objectId", "null"}},
		"user_id":      bson.M{"bsonType": bson.A{"objectId", "null"}},
	})
}

func negotiationsSchema() bson.M {
	return object(bson.A{"client_id", "affiliate_id", "stage", "estimated_value", "version"}, bson.M{
		"client_id":       bson.M{"bsonType": "objectId"},
		"affiliate_id":    bson.M{"bsonType": "objectId"},
		"stage":           enum(models.Stages...),
		"estimated_value": nonNegative,
		"probability":     bson.M{"bsonType": bson.A{"double", "int", "long"}, "minimum": 0, "maximum": 100},
		"version":         bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1},
		"notes":           bson.M{"bsonType": "array"},
	})
}

func contractsSchema() bson.M {
	return object(bson.A{"contract_number", "client_id", "amount", "status"}, bson.M{
		"contract_number":   bson.M{"bsonType": "string", "minLength": 1},
		"client_id":         bson.M{"bsonType": "objectId"},
		"affiliate_id":      bson.M{"bsonType": bson.A{"objectId", "null"}},
		"amount":            nonNegative,
		"commission_amount": nonNegative,
		"status": enum(models.ContractDraft, models.ContractPending, models.ContractActive,
			models.ContractCompleted, models.ContractCancelled),
		"services":        bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
		"commission_paid": bson.M{"bsonType": "bool"},
	})
}

func commissionsSchema() bson.M {
	return object(bson.A{"affiliate_id", "contract_id", "amount", "percentage", "status"}, bson.M{
		"affiliate_id": bson.M{"bsonType": "objectId"},
		"contract_id":  bson.M{"bsonType": "objectId"},
		"amount":       nonNegative,
		"percentage":   bson.M{"bsonType": bson.A{"double", "int", "long", "decimal"}, "minimum": 0, "maximum": 100},
		"status": enum(models.CommissionPending, models.CommissionApproved,
			models.CommissionPaid, models.CommissionCancelled),
	})
}
