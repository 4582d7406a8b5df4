// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Index names are stable identifiers: the policy store parses them out of
// duplicate-key errors to decide which field a conflict belongs to. Keep
// these and the key paths below in sync with the validation layer.
const (
	IdxUserEmail          = "uniq_user_email"
	IdxMasterPolicyNumber = "uniq_master_policy_number"
	IdxCertificateNumber  = "uniq_certificate_number"
	IdxUniqueIDNumber     = "uniq_unique_identification_number"
	IdxMemberID           = "uniq_member_id"
)

// FieldForIndex maps a unique index name to its document field path.
// Unknown names return "".
func FieldForIndex(name string) string {
	switch name {
	case IdxUserEmail:
		return "email"
	case IdxMasterPolicyNumber:
		return "policy_details.master_policy_number"
	case IdxCertificateNumber:
		return "policy_details.certificate_number"
	case IdxUniqueIDNumber:
		return "proposer_details.unique_identification_number"
	case IdxMemberID:
		return "insured_person_details.member_id"
	}
	return ""
}

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Problems are aggregated so every broken index is visible and startup can
fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensurePolicies(ctx, db); err != nil {
		problems = append(problems, "policies: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(IdxUserEmail).SetUnique(true),
		},
	})
}

func ensurePolicies(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("policies"), []mongo.IndexModel{
		// Uniqueness invariants. The member_id index reaches into the
		// insured_person_details array, so it spans every person of every
		// policy.
		{
			Keys:    bson.D{{Key: "policy_details.master_policy_number", Value: 1}},
			Options: options.Index().SetName(IdxMasterPolicyNumber).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "policy_details.certificate_number", Value: 1}},
			Options: options.Index().SetName(IdxCertificateNumber).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "proposer_details.unique_identification_number", Value: 1}},
			Options: options.Index().SetName(IdxUniqueIDNumber).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "insured_person_details.member_id", Value: 1}},
			Options: options.Index().SetName(IdxMemberID).SetUnique(true),
		},
		// Query-shape indexes for list/search and owner scoping.
		{Keys: bson.D{{Key: "user_uuid", Value: 1}}},
		{Keys: bson.D{{Key: "proposer_details.proposer_email", Value: 1}}},
		{Keys: bson.D{{Key: "proposer_details.proposer_mobile", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_uuid", Value: 1}, {Key: "created_at", Value: -1}}},
	})
}

/* ------------------------- shared ensure helper ------------------------- */

type existingIndex struct {
	Name string `bson:"name"`
	Key  bson.D `bson:"key"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, kv.Key)
	}
	return strings.Join(parts, ",")
}

// ensureIndexSet creates any index in models whose key pattern does not
// exist yet. Existing indexes are left alone; an options conflict (same
// keys, different name/options from a prior deploy) is logged and skipped.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err == nil {
		defer cur.Close(ctx)
		for cur.Next(ctx) {
			var idx existingIndex
			if err := cur.Decode(&idx); err != nil {
				zap.L().Warn("failed to decode existing index",
					zap.String("collection", coll.Name()),
					zap.Error(err))
				continue
			}
			existing[keySig(idx.Key)] = idx
		}
	}

	var errs []string
	for _, m := range models {
		sig := keySig(m.Keys.(bson.D))
		if _, ok := existing[sig]; ok {
			continue
		}

		name := ""
		if m.Options != nil && m.Options.Name != nil {
			name = *m.Options.Name
		}
		zap.L().Info("creating index",
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig))

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isOptionsConflictErr(err) {
				zap.L().Warn("index exists with different options; leaving as-is",
					zap.String("collection", coll.Name()),
					zap.String("keys", sig),
					zap.Error(err))
				continue
			}
			errs = append(errs, coll.Name()+"("+sig+"): "+err.Error())
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

/* ----------------------- duplicate-key inspection ----------------------- */

// DupIndexName extracts the index name from a duplicate-key error. The
// server reports "... index: <name> dup key: ..."; this parses that shape
// out of the write error message. Returns "" when no name can be found.
func DupIndexName(err error) string {
	if err == nil {
		return ""
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				if name := parseIndexName(e.Message); name != "" {
					return name
				}
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return parseIndexName(ce.Message)
	}
	return parseIndexName(err.Error())
}

func parseIndexName(msg string) string {
	const marker = "index: "
	i := strings.Index(msg, marker)
	if i < 0 {
		return ""
	}
	rest := msg[i+len(marker):]
	if j := strings.IndexAny(rest, " \t"); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}

// DupKeyValue pulls the offending value out of a duplicate-key error
// message ("dup key: { <path>: \"<value>\" }"). Best-effort: returns ""
// when the message shape is unfamiliar.
func DupKeyValue(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				msg = e.Message
				break
			}
		}
	}
	const marker = "dup key: {"
	i := strings.Index(msg, marker)
	if i < 0 {
		return ""
	}
	rest := msg[i+len(marker):]
	if j := strings.Index(rest, "}"); j >= 0 {
		rest = rest[:j]
	}
	if k := strings.Index(rest, ":"); k >= 0 {
		rest = rest[k+1:]
	}
	return strings.Trim(strings.TrimSpace(rest), `"`)
}
