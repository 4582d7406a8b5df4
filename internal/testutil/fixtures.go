package testutil

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/coverhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user with the given email and password.
func (f *Fixtures) CreateUser(ctx context.Context, email, password string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash fixture password: %v", err)
	}

	now := time.Now().UTC()
	user := models.User{
		ID:           primitive.NewObjectID(),
		FirstName:    "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreatePolicy inserts a policy owned by userUUID whose unique identifiers
// are derived from n, so callers can mint non-conflicting documents.
func (f *Fixtures) CreatePolicy(ctx context.Context, userUUID string, n int) models.Policy {
	f.t.Helper()

	now := time.Now().UTC()
	policy := models.Policy{
		ID:       primitive.NewObjectID(),
		UserUUID: userUUID,
		PolicyDetails: models.PolicyDetails{
			MasterPolicyNumber: fmt.Sprintf("MP-%04d", n),
			CertificateNumber:  fmt.Sprintf("CERT-%04d", n),
			ProductName:        "Family Health Shield",
			ProductUIN:         "FHSHLIP25001V012425",
			CoverageType:       "Family Floater",
			PeriodOfInsurance:  "1 Year",
			StartDateTime:      "2025-04-01 00:00",
			ExpiryDateTime:     "2026-03-31 23:59",
			InceptionDate:      "2025-04-01",
			EndDate:            "2026-03-31",
		},
		MasterPolicyholder: models.MasterPolicyholder{
			MasterPolicyholderName: "Acme Finance Ltd",
		},
		ProposerDetails: models.ProposerDetails{
			ProposerName:               "Ravi Kumar",
			ProposerAddress:            "12 MG Road",
			ProposerCity:               "Bengaluru",
			ProposerState:              "Karnataka",
			ProposerPincode:            "560001",
			ProposerMobile:             "9876543210",
			ProposerEmail:              "ravi@example.com",
			UniqueIdentificationNumber: fmt.Sprintf("UIN-%04d", n),
		},
		InsuredPersons: []models.InsuredPerson{
			{
				InsuredName:         "Ravi Kumar",
				InsuredDOB:          "1985-06-15",
				InsuredGender:       "Male",
				InsuredRelationship: "Self",
				NomineeName:         "Priya Kumar",
				NomineeRelationship: "Spouse",
				SumInsured:          "500000",
				SuperNCBPercentage:  "50",
				SuperNCBAmount:      "250000",
				PreExistingDisease:  "None",
				MemberID:            fmt.Sprintf("MEM-%04d", n),
			},
		},
		PremiumDetails: models.PremiumDetails{
			NetPremium:         "10000",
			CGST9:              "900",
			SGSTUTGST9:         "900",
			IGST18:             "0",
			GrossPremium:       "11800",
			PremiumPaymentMode: "Annual",
		},
		ContactDetails: models.ContactDetails{
			ContactNumber:  "18002001234",
			ContactEmail:   "care@insurer.example.com",
			ContactAddress: "Insurer Tower, Mumbai",
		},
		GrievanceRedressal: models.GrievanceRedressal{
			GrievanceEmail:    "grievance@insurer.example.com",
			GrievanceTollFree: "18002005678",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("policies").InsertOne(ctx, policy); err != nil {
		f.t.Fatalf("failed to create test policy: %v", err)
	}
	return policy
}
