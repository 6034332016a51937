// Package indexes reconciles the MongoDB indexes the stores rely on. It runs
// at startup; every step is idempotent.
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	activitystore "github.com/jsong1004/ai-service/internal/app/store/activity"
	"github.com/jsong1004/ai-service/internal/app/store/oauthstate"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EnsureAll reconciles every collection and reports all failures together
// so startup can fail fast with the full picture.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	for _, step := range []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"affiliates", ensureAffiliates},
		{"clients", ensureClients},
		{"negotiations", ensureNegotiations},
		{"contracts", ensureContracts},
		{"commissions", ensureCommissions},
		{"activities", func(ctx context.Context, db *mongo.Database) error {
			return activitystore.New(db).EnsureIndexes(ctx)
		}},
		{"login_records", ensureLoginRecords},
		{"oauth_states", func(ctx context.Context, db *mongo.Database) error {
			return oauthstate.New(db).EnsureIndexes(ctx)
		}},
	} {
		if err := step.fn(ctx, db); err != nil {
			problems = append(problems, step.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Per-collection index sets                                                   */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// One account per external identity. Credential users have no
		// auth_return_id and are left out of the index.
		{
			Keys: bson.D{{Key: "auth_provider", Value: 1}, {Key: "auth_return_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_provider_subject").
				SetPartialFilterExpression(bson.M{"auth_return_id": bson.M{"$type": "string"}}),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_users_role_status"),
		},
	})
}

func ensureAffiliates(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("affiliates"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_affiliates_user"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_affiliates_status_created"),
		},
	})
}

func ensureClients(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("clients"), []mongo.IndexModel{
		// Leads created by affiliates carry no user; only signed-up clients do.
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_clients_user").
				SetPartialFilterExpression(bson.M{"user_id": bson.M{"$type": "objectId"}}),
		},
		{
			Keys:    bson.D{{Key: "affiliate_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_clients_affiliate_created"),
		},
		{
			Keys:    bson.D{{Key: "company_name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_clients_companyci_id"),
		},
	})
}

func ensureNegotiations(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("negotiations"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "client_id", Value: 1}, {Key: "affiliate_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_negotiations_client_affiliate"),
		},
		// Dashboard list: newest activity first.
		{
			Keys:    bson.D{{Key: "affiliate_id", Value: 1}, {Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_negotiations_affiliate_updated_id"),
		},
		// Analytics range scans.
		{
			Keys:    bson.D{{Key: "affiliate_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_negotiations_affiliate_created"),
		},
	})
}

func ensureContracts(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("contracts"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "contract_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_contracts_number"),
		},
		{
			Keys:    bson.D{{Key: "affiliate_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_contracts_affiliate_created"),
		},
		{
			Keys:    bson.D{{Key: "client_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_contracts_client_created"),
		},
	})
}

func ensureCommissions(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("commissions"), []mongo.IndexModel{
		// At most one commission per contract.
		{
			Keys:    bson.D{{Key: "contract_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_commissions_contract"),
		},
		{
			Keys:    bson.D{{Key: "affiliate_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_commissions_affiliate_created"),
		},
		{
			Keys:    bson.D{{Key: "affiliate_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_commissions_affiliate_status"),
		},
	})
}

// Sign-in history is kept for a year.
func ensureLoginRecords(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("login_records"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_login_records_user_created"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetName("ttl_login_records_created").SetExpireAfterSeconds(365 * 24 * 60 * 60),
		},
	})
}

/* -------------------------------------------------------------------------- */
/* Reconcile helper                                                            */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

// keySig renders an index key pattern as "a:1,b:-1".
func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, e := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", e.Key, e.Value))
	}
	return strings.Join(parts, ",")
}

func isUnique(b *bool) bool { return b != nil && *b }

func listIndexes(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index", zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

// ensureIndexSet makes coll carry each desired index. An index with the
// same keys and uniqueness is reused (renamed if needed); one whose
// uniqueness differs is dropped and rebuilt.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, want []mongo.IndexModel) error {
	existing, err := listIndexes(ctx, coll)
	if err != nil {
		// A missing collection lists as empty on modern servers; anything
		// else is logged and we fall through to plain creation.
		zap.L().Warn("list indexes failed", zap.String("collection", coll.Name()), zap.Error(err))
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range want {
		name := *m.Options.Name
		sig := keySig(m.Keys.(bson.D))
		unique := isUnique(m.Options.Unique)
		start := time.Now()

		ex, found := existing[sig]
		switch {
		case found && isUnique(ex.Unique) == unique && ex.Name == name:
			zap.L().Debug("reusing index", zap.String("collection", coll.Name()), zap.String("name", name))
			continue
		case found:
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop %s failed: %v", coll.Name(), name, ex.Name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if unique && mongo.IsDuplicateKeyError(err) {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index on %s, duplicates present", coll.Name(), name, sig))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			continue
		}
		zap.L().Info("index created",
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", unique),
			zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
