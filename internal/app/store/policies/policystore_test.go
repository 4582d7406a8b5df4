package policystore_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	policystore "github.com/dalemusser/coverhub/internal/app/store/policies"
	"github.com/dalemusser/coverhub/internal/app/system/indexes"
	"github.com/dalemusser/coverhub/internal/app/system/paging"
	"github.com/dalemusser/coverhub/internal/app/system/policycheck"
	"github.com/dalemusser/coverhub/internal/domain/models"
	"github.com/dalemusser/coverhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// makePolicy builds a valid policy whose unique identifiers are derived
// from n, so tests can mint non-conflicting documents cheaply.
func makePolicy(n int) *models.Policy {
	return &models.Policy{
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
	}
}

func setup(t *testing.T) (*policystore.Store, context.Context) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll indexes: %v", err)
	}
	return policystore.New(db), ctx
}

func TestStore_Create(t *testing.T) {
	store, ctx := setup(t)

	created, err := store.Create(ctx, "user-1", makePolicy(1))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.UserUUID != "user-1" {
		t.Errorf("UserUUID: got %q, want %q", created.UserUUID, "user-1")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Create_MasterOrCertificateConflict(t *testing.T) {
	store, ctx := setup(t)

	if _, err := store.Create(ctx, "user-1", makePolicy(1)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Same master policy number, everything else fresh.
	p := makePolicy(2)
	p.PolicyDetails.MasterPolicyNumber = "MP-0001"
	_, err := store.Create(ctx, "user-2", p)
	var conflict *policystore.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Message != "Policy with this master policy number or certificate number already exists" {
		t.Errorf("message = %q", conflict.Message)
	}
	if conflict.Field != "" {
		t.Errorf("field = %q, want empty (combined pre-check)", conflict.Field)
	}

	// Same certificate number triggers the same pre-check.
	p = makePolicy(3)
	p.PolicyDetails.CertificateNumber = "CERT-0001"
	if _, err := store.Create(ctx, "user-2", p); !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError for certificate, got %v", err)
	}
}

func TestStore_Create_MemberIDConflict(t *testing.T) {
	store, ctx := setup(t)

	if _, err := store.Create(ctx, "user-1", makePolicy(1)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	p := makePolicy(2)
	p.InsuredPersons[0].MemberID = "MEM-0001"
	_, err := store.Create(ctx, "user-1", p)
	var conflict *policystore.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Field != "insured_person_details.member_id" {
		t.Errorf("field = %q", conflict.Field)
	}
	if conflict.Message != "One or more member IDs already exist. Please use unique member IDs" {
		t.Errorf("message = %q", conflict.Message)
	}
}

func TestStore_Create_UINConflictViaIndex(t *testing.T) {
	store, ctx := setup(t)

	if _, err := store.Create(ctx, "user-1", makePolicy(1)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// The UIN is not pre-checked, so this conflict surfaces from the
	// unique index and exercises the duplicate-key translation.
	p := makePolicy(2)
	p.ProposerDetails.UniqueIdentificationNumber = "UIN-0001"
	_, err := store.Create(ctx, "user-1", p)
	var conflict *policystore.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Field != "proposer_details.unique_identification_number" {
		t.Errorf("field = %q", conflict.Field)
	}
	if conflict.Message != "A policy with this unique identification number already exists" {
		t.Errorf("message = %q", conflict.Message)
	}
	if conflict.Value != "UIN-0001" {
		t.Errorf("value = %q, want UIN-0001", conflict.Value)
	}
}

func TestStore_GetBy(t *testing.T) {
	store, ctx := setup(t)

	created, err := store.Create(ctx, "user-1", makePolicy(1))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	byID, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if byID.ID != created.ID {
		t.Errorf("GetByID: got %v, want %v", byID.ID, created.ID)
	}

	byMaster, err := store.GetByMasterPolicyNumber(ctx, "MP-0001")
	if err != nil {
		t.Fatalf("GetByMasterPolicyNumber failed: %v", err)
	}
	if byMaster.ID != created.ID {
		t.Errorf("GetByMasterPolicyNumber: wrong policy")
	}

	byCert, err := store.GetByCertificateNumber(ctx, "CERT-0001")
	if err != nil {
		t.Fatalf("GetByCertificateNumber failed: %v", err)
	}
	if byCert.ID != created.ID {
		t.Errorf("GetByCertificateNumber: wrong policy")
	}

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, policystore.ErrNotFound) {
		t.Errorf("missing ID: got %v, want ErrNotFound", err)
	}
	if _, err := store.GetByMasterPolicyNumber(ctx, "MP-NOPE"); !errors.Is(err, policystore.ErrNotFound) {
		t.Errorf("missing master: got %v, want ErrNotFound", err)
	}
}

func TestStore_List(t *testing.T) {
	store, ctx := setup(t)

	for i := 1; i <= 12; i++ {
		owner := "user-1"
		if i > 10 {
			owner = "user-2"
		}
		if _, err := store.Create(ctx, owner, makePolicy(i)); err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
	}

	// Owner scoping plus pagination.
	page1, total, err := store.List(ctx, "user-1", policystore.ListFilter{}, paging.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 10 {
		t.Errorf("total = %d, want 10", total)
	}
	if len(page1) != 10 {
		t.Errorf("page 1 size = %d, want 10", len(page1))
	}

	// Filters are partial and case-insensitive.
	got, total, err := store.List(ctx, "user-1",
		policystore.ListFilter{MasterPolicyNumber: "mp-000"},
		paging.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List with filter failed: %v", err)
	}
	if total != 9 {
		t.Errorf("filtered total = %d, want 9 (MP-0001..MP-0009)", total)
	}
	if len(got) != 9 {
		t.Errorf("filtered size = %d, want 9", len(got))
	}

	// Mobile is an exact match.
	_, total, err = store.List(ctx, "user-1",
		policystore.ListFilter{ProposerMobile: "98765"},
		paging.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List with mobile failed: %v", err)
	}
	if total != 0 {
		t.Errorf("partial mobile matched %d policies, want 0", total)
	}
}

func TestStore_List_NewestFirst(t *testing.T) {
	store, ctx := setup(t)

	// Spaced out so created_at differs even after Mongo's millisecond
	// truncation.
	for i := 1; i <= 4; i++ {
		if _, err := store.Create(ctx, "user-1", makePolicy(i)); err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	got, _, err := store.List(ctx, "user-1", policystore.ListFilter{}, paging.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d policies, want 4", len(got))
	}
	for i, p := range got {
		want := fmt.Sprintf("MP-%04d", 4-i)
		if p.PolicyDetails.MasterPolicyNumber != want {
			t.Errorf("list[%d] = %s, want %s", i, p.PolicyDetails.MasterPolicyNumber, want)
		}
		if i > 0 && p.CreatedAt.After(got[i-1].CreatedAt) {
			t.Errorf("list[%d] created after list[%d]", i, i-1)
		}
	}

	found, _, err := store.Search(ctx, "user-1", "mp-000", paging.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(found) != 4 {
		t.Fatalf("search got %d policies, want 4", len(found))
	}
	for i, p := range found {
		want := fmt.Sprintf("MP-%04d", 4-i)
		if p.PolicyDetails.MasterPolicyNumber != want {
			t.Errorf("search[%d] = %s, want %s", i, p.PolicyDetails.MasterPolicyNumber, want)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	for i, p := range stats.Recent {
		want := fmt.Sprintf("MP-%04d", 4-i)
		if p.PolicyDetails.MasterPolicyNumber != want {
			t.Errorf("recent[%d] = %s, want %s", i, p.PolicyDetails.MasterPolicyNumber, want)
		}
	}
}

func TestStore_Search(t *testing.T) {
	store, ctx := setup(t)

	if _, err := store.Create(ctx, "user-1", makePolicy(1)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, "user-2", makePolicy(2)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Matches by insured name, scoped to the owner.
	got, total, err := store.Search(ctx, "user-1", "ravi", paging.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if total != 1 || len(got) != 1 {
		t.Fatalf("got %d/%d results, want 1", len(got), total)
	}
	if got[0].UserUUID != "user-1" {
		t.Errorf("search leaked another user's policy")
	}

	// Regex metacharacters in the query are literal.
	_, total, err = store.Search(ctx, "user-1", ".*", paging.Params{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if total != 0 {
		t.Errorf("metacharacter query matched %d policies, want 0", total)
	}
}

func TestStore_Update(t *testing.T) {
	store, ctx := setup(t)

	created, err := store.Create(ctx, "user-1", makePolicy(1))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	upd := &policycheck.PolicyUpdate{
		ContactDetails: &models.ContactDetails{
			ContactNumber:  "18009998888",
			ContactEmail:   "newcare@insurer.example.com",
			ContactAddress: "New Tower, Pune",
		},
	}
	updated, err := store.Update(ctx, created.ID, upd)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.ContactDetails.ContactEmail != "newcare@insurer.example.com" {
		t.Errorf("contact email not updated: %q", updated.ContactDetails.ContactEmail)
	}
	// Untouched sections survive a partial update.
	if updated.PolicyDetails.MasterPolicyNumber != "MP-0001" {
		t.Errorf("policy details clobbered: %q", updated.PolicyDetails.MasterPolicyNumber)
	}
	if updated.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be set")
	}
}

func TestStore_Update_Conflict(t *testing.T) {
	store, ctx := setup(t)

	created, err := store.Create(ctx, "user-1", makePolicy(1))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, "user-1", makePolicy(2)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Moving policy 1's numbers onto policy 2's is rejected.
	upd := &policycheck.PolicyUpdate{
		PolicyDetails: &models.PolicyDetails{
			MasterPolicyNumber: "MP-0002",
			CertificateNumber:  "CERT-0001",
		},
	}
	_, err = store.Update(ctx, created.ID, upd)
	var conflict *policystore.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	// Re-saving its own numbers is fine; the pre-check excludes self.
	upd = &policycheck.PolicyUpdate{
		PolicyDetails: &models.PolicyDetails{
			MasterPolicyNumber: "MP-0001",
			CertificateNumber:  "CERT-0001",
			ProductName:        "Renamed Product",
		},
	}
	updated, err := store.Update(ctx, created.ID, upd)
	if err != nil {
		t.Fatalf("self-update failed: %v", err)
	}
	if updated.PolicyDetails.ProductName != "Renamed Product" {
		t.Errorf("product name not updated: %q", updated.PolicyDetails.ProductName)
	}
}

func TestStore_Update_NotFound(t *testing.T) {
	store, ctx := setup(t)

	upd := &policycheck.PolicyUpdate{
		ContactDetails: &models.ContactDetails{ContactNumber: "1"},
	}
	if _, err := store.Update(ctx, primitive.NewObjectID(), upd); !errors.Is(err, policystore.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestStore_Delete(t *testing.T) {
	store, ctx := setup(t)

	created, err := store.Create(ctx, "user-1", makePolicy(1))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	deleted, err := store.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if deleted.ID != created.ID {
		t.Errorf("deleted wrong policy")
	}

	if _, err := store.GetByID(ctx, created.ID); !errors.Is(err, policystore.ErrNotFound) {
		t.Errorf("policy still present after delete: %v", err)
	}
	if _, err := store.Delete(ctx, created.ID); !errors.Is(err, policystore.ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestStore_Stats(t *testing.T) {
	store, ctx := setup(t)

	products := []string{"Health Plus", "Health Plus", "Motor Secure"}
	states := []string{"Karnataka", "Kerala", "Karnataka"}
	for i, product := range products {
		p := makePolicy(i + 1)
		p.PolicyDetails.ProductName = product
		p.ProposerDetails.ProposerState = states[i]
		if _, err := store.Create(ctx, "user-1", p); err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalPolicies != 3 {
		t.Errorf("TotalPolicies = %d, want 3", stats.TotalPolicies)
	}
	if len(stats.ByProduct) != 2 || stats.ByProduct[0].Label != "Health Plus" || stats.ByProduct[0].Count != 2 {
		t.Errorf("ByProduct = %+v", stats.ByProduct)
	}
	if len(stats.ByState) != 2 || stats.ByState[0].Label != "Karnataka" {
		t.Errorf("ByState = %+v", stats.ByState)
	}
	if len(stats.Recent) != 3 {
		t.Errorf("Recent = %d entries, want 3", len(stats.Recent))
	}
	for _, r := range stats.Recent {
		if r.PolicyDetails.MasterPolicyNumber == "" {
			t.Error("recent policy missing master policy number projection")
		}
	}
}
