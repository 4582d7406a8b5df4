// Package policystore is the Mongo repository for insurance policies. It
// owns the cross-document uniqueness rules: friendly pre-checks run before
// each write, and the unique indexes in system/indexes backstop them, with
// duplicate-key errors translated into ConflictError.
package policystore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/dalemusser/coverhub/internal/app/system/indexes"
	"github.com/dalemusser/coverhub/internal/app/system/paging"
	"github.com/dalemusser/coverhub/internal/app/system/policycheck"
	"github.com/dalemusser/coverhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no policy matches the lookup.
var ErrNotFound = errors.New("policy not found")

// ConflictError reports a uniqueness violation. Field and Value are empty
// when the conflict cannot be pinned to a single field (the combined
// master/certificate pre-check).
type ConflictError struct {
	Field   string
	Value   string
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("policies")}
}

// Create inserts a validated policy owned by the given user. Conflicting
// master/certificate numbers and already-used member IDs are rejected with
// a ConflictError before the write; the unique indexes catch races.
func (s *Store) Create(ctx context.Context, userUUID string, p *models.Policy) (*models.Policy, error) {
	existing := s.c.FindOne(ctx, bson.M{"$or": bson.A{
		bson.M{"policy_details.master_policy_number": p.PolicyDetails.MasterPolicyNumber},
		bson.M{"policy_details.certificate_number": p.PolicyDetails.CertificateNumber},
	}})
	if err := existing.Err(); err == nil {
		return nil, &ConflictError{
			Message: "Policy with this master policy number or certificate number already exists",
		}
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	memberIDs := make([]string, 0, len(p.InsuredPersons))
	for _, person := range p.InsuredPersons {
		memberIDs = append(memberIDs, person.MemberID)
	}
	dup := s.c.FindOne(ctx, bson.M{
		"insured_person_details.member_id": bson.M{"$in": memberIDs},
	})
	if err := dup.Err(); err == nil {
		return nil, &ConflictError{
			Field:   "insured_person_details.member_id",
			Message: "One or more member IDs already exist. Please use unique member IDs",
		}
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	p.ID = primitive.NewObjectID()
	p.UserUUID = userUUID
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if conflict := conflictFromDup(err); conflict != nil {
			return nil, conflict
		}
		return nil, err
	}
	return p, nil
}

// GetByID loads one policy. Returns ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Policy, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) GetByMasterPolicyNumber(ctx context.Context, number string) (*models.Policy, error) {
	return s.findOne(ctx, bson.M{"policy_details.master_policy_number": number})
}

func (s *Store) GetByCertificateNumber(ctx context.Context, number string) (*models.Policy, error) {
	return s.findOne(ctx, bson.M{"policy_details.certificate_number": number})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.Policy, error) {
	var p models.Policy
	if err := s.c.FindOne(ctx, filter).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListFilter narrows a user's policy listing. String fields are partial,
// case-insensitive matches except ProposerMobile, which is exact.
type ListFilter struct {
	MasterPolicyNumber string
	CertificateNumber  string
	ProposerEmail      string
	ProposerMobile     string
}

// List returns one page of the user's policies, newest first, plus the
// total count for the same filter.
func (s *Store) List(ctx context.Context, userUUID string, f ListFilter, pg paging.Params) ([]models.Policy, int64, error) {
	filter := bson.M{"user_uuid": userUUID}
	if f.MasterPolicyNumber != "" {
		filter["policy_details.master_policy_number"] = ciRegex(f.MasterPolicyNumber)
	}
	if f.CertificateNumber != "" {
		filter["policy_details.certificate_number"] = ciRegex(f.CertificateNumber)
	}
	if f.ProposerEmail != "" {
		filter["proposer_details.proposer_email"] = ciRegex(f.ProposerEmail)
	}
	if f.ProposerMobile != "" {
		filter["proposer_details.proposer_mobile"] = f.ProposerMobile
	}
	return s.page(ctx, filter, pg)
}

// Search matches q as a case-insensitive partial string across the
// identifying fields of the user's policies.
func (s *Store) Search(ctx context.Context, userUUID, q string, pg paging.Params) ([]models.Policy, int64, error) {
	re := ciRegex(q)
	filter := bson.M{
		"user_uuid": userUUID,
		"$or": bson.A{
			bson.M{"policy_details.master_policy_number": re},
			bson.M{"policy_details.certificate_number": re},
			bson.M{"policy_details.product_name": re},
			bson.M{"master_policyholder.master_policyholder_name": re},
			bson.M{"proposer_details.proposer_name": re},
			bson.M{"proposer_details.proposer_email": re},
			bson.M{"proposer_details.proposer_mobile": re},
			bson.M{"proposer_details.unique_identification_number": re},
			bson.M{"insured_person_details.insured_name": re},
			bson.M{"insured_person_details.member_id": re},
			bson.M{"user_uuid": re},
		},
	}
	return s.page(ctx, filter, pg)
}

func (s *Store) page(ctx context.Context, filter bson.M, pg paging.Params) ([]models.Policy, int64, error) {
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(pg.Skip()).
		SetLimit(int64(pg.Limit))
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	policies := []models.Policy{}
	if err := cur.All(ctx, &policies); err != nil {
		return nil, 0, err
	}
	return policies, total, nil
}

// Update applies the supplied sections to an existing policy and returns
// the updated document. A changed policy_details section is pre-checked
// against every other policy's master/certificate numbers.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd *policycheck.PolicyUpdate) (*models.Policy, error) {
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if upd.PolicyDetails != nil {
		conflict := s.c.FindOne(ctx, bson.M{
			"_id": bson.M{"$ne": id},
			"$or": bson.A{
				bson.M{"policy_details.master_policy_number": upd.PolicyDetails.MasterPolicyNumber},
				bson.M{"policy_details.certificate_number": upd.PolicyDetails.CertificateNumber},
			},
		})
		if err := conflict.Err(); err == nil {
			return nil, &ConflictError{
				Message: "Policy with this master policy number or certificate number already exists",
			}
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
	}

	set := bson.M{"updated_at": time.Now()}
	if upd.PolicyDetails != nil {
		set["policy_details"] = upd.PolicyDetails
	}
	if upd.MasterPolicyholder != nil {
		set["master_policyholder"] = upd.MasterPolicyholder
	}
	if upd.ProposerDetails != nil {
		set["proposer_details"] = upd.ProposerDetails
	}
	if upd.InsuredPersons != nil {
		set["insured_person_details"] = upd.InsuredPersons
	}
	if upd.PremiumDetails != nil {
		set["premium_details"] = upd.PremiumDetails
	}
	if upd.ContactDetails != nil {
		set["contact_details"] = upd.ContactDetails
	}
	if upd.GrievanceRedressal != nil {
		set["grievance_redressal"] = upd.GrievanceRedressal
	}

	var updated models.Policy
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if conflict := conflictFromDup(err); conflict != nil {
			return nil, conflict
		}
		return nil, err
	}
	return &updated, nil
}

// Delete removes a policy and returns the deleted document, or ErrNotFound.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (*models.Policy, error) {
	var p models.Policy
	if err := s.c.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

/* ----------------------------- statistics ----------------------------- */

// BucketCount is one group in an aggregation, keyed by the grouped value.
type BucketCount struct {
	Label string `bson:"_id" json:"_id"`
	Count int64  `bson:"count" json:"count"`
}

// RecentPolicy is the trimmed projection used in the stats dashboard.
type RecentPolicy struct {
	ID            primitive.ObjectID `bson:"_id" json:"_id"`
	PolicyDetails struct {
		MasterPolicyNumber string `bson:"master_policy_number" json:"master_policy_number"`
		ProductName        string `bson:"product_name" json:"product_name"`
	} `bson:"policy_details" json:"policy_details"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

type Stats struct {
	TotalPolicies int64          `json:"totalPolicies"`
	ByProduct     []BucketCount  `json:"policiesByProduct"`
	ByState       []BucketCount  `json:"policiesByState"`
	Recent        []RecentPolicy `json:"recentPolicies"`
}

// Stats summarizes the whole collection: total count, group-by product and
// proposer state (largest groups first), and the five newest policies.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	total, err := s.c.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	byProduct, err := s.groupCount(ctx, "$policy_details.product_name")
	if err != nil {
		return nil, err
	}
	byState, err := s.groupCount(ctx, "$proposer_details.proposer_state")
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(5).
		SetProjection(bson.M{
			"policy_details.master_policy_number": 1,
			"policy_details.product_name":         1,
			"created_at":                          1,
		})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	recent := []RecentPolicy{}
	if err := cur.All(ctx, &recent); err != nil {
		return nil, err
	}

	return &Stats{
		TotalPolicies: total,
		ByProduct:     byProduct,
		ByState:       byState,
		Recent:        recent,
	}, nil
}

func (s *Store) groupCount(ctx context.Context, fieldRef string) ([]BucketCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   fieldRef,
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	buckets := []BucketCount{}
	if err := cur.All(ctx, &buckets); err != nil {
		return nil, err
	}
	return buckets, nil
}

/* ------------------------- conflict translation ------------------------- */

// conflictFromDup turns a duplicate-key write error into a ConflictError
// with a field-specific message. Index names are the contract here; see
// system/indexes. Returns nil for non-duplicate errors.
func conflictFromDup(err error) *ConflictError {
	if !wafflemongo.IsDup(err) {
		return nil
	}
	field := indexes.FieldForIndex(indexes.DupIndexName(err))
	value := indexes.DupKeyValue(err)

	var msg string
	switch field {
	case "policy_details.master_policy_number":
		msg = "A policy with this master policy number already exists"
	case "policy_details.certificate_number":
		msg = "A policy with this certificate number already exists"
	case "proposer_details.unique_identification_number":
		msg = "A policy with this unique identification number already exists"
	case "insured_person_details.member_id":
		msg = "A policy with this member ID already exists. Please use a different member ID"
	case "":
		msg = "Duplicate value found"
	default:
		msg = fmt.Sprintf("Duplicate value found for field: %s", field)
	}
	return &ConflictError{Field: field, Value: value, Message: msg}
}

// ciRegex builds a case-insensitive partial match. The input is quoted so
// user-supplied strings are matched literally, not as patterns.
func ciRegex(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}
