// internal/app/system/policycheck/policycheck.go
//
// Package policycheck validates incoming policy payloads before they reach
// the store. Validation is ordered and short-circuiting: sections are
// checked top to bottom, fields within a section in their declared order,
// and the first missing/empty/malformed field aborts with a message naming
// exactly that field. Client UIs depend on which single error appears
// first, so the order here is part of the contract.
package policycheck

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dalemusser/coverhub/internal/app/system/inputval"
	"github.com/dalemusser/coverhub/internal/domain/models"
)

// ValidationError is a client-correctable problem with a policy payload.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func failf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// createPayload mirrors models.Policy with pointer-valued sections so an
// absent or null section is distinguishable from an empty one.
type createPayload struct {
	PolicyDetails      *models.PolicyDetails      `json:"policy_details"`
	MasterPolicyholder *models.MasterPolicyholder `json:"master_policyholder"`
	ProposerDetails    *models.ProposerDetails    `json:"proposer_details"`
	InsuredPersons     *[]models.InsuredPerson    `json:"insured_person_details"`
	PremiumDetails     *models.PremiumDetails     `json:"premium_details"`
	ContactDetails     *models.ContactDetails     `json:"contact_details"`
	GrievanceRedressal *models.GrievanceRedressal `json:"grievance_redressal"`
}

// PolicyUpdate is a partial policy payload: only the sections present in
// the request body are non-nil, and only those replace the stored ones.
type PolicyUpdate struct {
	PolicyDetails      *models.PolicyDetails      `json:"policy_details,omitempty"`
	MasterPolicyholder *models.MasterPolicyholder `json:"master_policyholder,omitempty"`
	ProposerDetails    *models.ProposerDetails    `json:"proposer_details,omitempty"`
	InsuredPersons     *[]models.InsuredPerson    `json:"insured_person_details,omitempty"`
	PremiumDetails     *models.PremiumDetails     `json:"premium_details,omitempty"`
	ContactDetails     *models.ContactDetails     `json:"contact_details,omitempty"`
	GrievanceRedressal *models.GrievanceRedressal `json:"grievance_redressal,omitempty"`
}

type namedField struct {
	name  string
	value string
}

func firstEmpty(fields []namedField) (string, bool) {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return f.name, true
		}
	}
	return "", false
}

// ValidateCreate checks a raw JSON payload against the full policy schema
// and returns the normalized document on success: every string trimmed and
// the three email fields lowercased. Optional fields default to "".
func ValidateCreate(raw []byte) (*models.Policy, error) {
	var p createPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &ValidationError{Message: "Invalid JSON data"}
	}

	// Section presence, in fixed order.
	sections := []struct {
		name string
		nil_ bool
	}{
		{"policy_details", p.PolicyDetails == nil},
		{"master_policyholder", p.MasterPolicyholder == nil},
		{"proposer_details", p.ProposerDetails == nil},
		{"insured_person_details", p.InsuredPersons == nil},
		{"premium_details", p.PremiumDetails == nil},
		{"contact_details", p.ContactDetails == nil},
		{"grievance_redressal", p.GrievanceRedressal == nil},
	}
	for _, s := range sections {
		if s.nil_ {
			return nil, failf("Missing required section: %s", s.name)
		}
	}

	pd := p.PolicyDetails
	if name, missing := firstEmpty([]namedField{
		{"master_policy_number", pd.MasterPolicyNumber},
		{"certificate_number", pd.CertificateNumber},
		{"product_name", pd.ProductName},
		{"product_uin", pd.ProductUIN},
		{"coverage_type", pd.CoverageType},
		{"period_of_insurance", pd.PeriodOfInsurance},
		{"start_date_time", pd.StartDateTime},
		{"expiry_date_time", pd.ExpiryDateTime},
		{"inception_date", pd.InceptionDate},
		{"end_date", pd.EndDate},
	}); missing {
		return nil, failf("Missing required field in policy_details: %s", name)
	}

	if strings.TrimSpace(p.MasterPolicyholder.MasterPolicyholderName) == "" {
		return nil, failf("master_policyholder_name is required")
	}

	pr := p.ProposerDetails
	if name, missing := firstEmpty([]namedField{
		{"proposer_name", pr.ProposerName},
		{"proposer_address", pr.ProposerAddress},
		{"proposer_city", pr.ProposerCity},
		{"proposer_state", pr.ProposerState},
		{"proposer_pincode", pr.ProposerPincode},
		{"proposer_mobile", pr.ProposerMobile},
		{"proposer_email", pr.ProposerEmail},
		{"unique_identification_number", pr.UniqueIdentificationNumber},
	}); missing {
		return nil, failf("Missing required field in proposer_details: %s", name)
	}
	if !inputval.IsValidEmail(pr.ProposerEmail) {
		return nil, failf("Invalid email format in proposer_details")
	}
	if !inputval.IsValidMobile(pr.ProposerMobile) {
		return nil, failf("Invalid mobile number format in proposer_details (should be 10 digits)")
	}

	persons := *p.InsuredPersons
	if len(persons) == 0 {
		return nil, failf("insured_person_details must be a non-empty array")
	}
	seenMemberIDs := make(map[string]bool, len(persons))
	for i, person := range persons {
		if name, missing := firstEmpty([]namedField{
			{"insured_name", person.InsuredName},
			{"insured_dob", person.InsuredDOB},
			{"insured_gender", person.InsuredGender},
			{"insured_relationship", person.InsuredRelationship},
			{"nominee_name", person.NomineeName},
			{"nominee_relationship", person.NomineeRelationship},
			{"sum_insured", person.SumInsured},
			{"member_id", person.MemberID},
		}); missing {
			return nil, failf("Missing required field in insured_person_details[%d]: %s", i, name)
		}
		if !inputval.IsValidGender(person.InsuredGender) {
			return nil, failf("Invalid gender in insured_person_details[%d]. Must be one of: %s", i, inputval.GendersList())
		}
		// The unique index only spans documents, so duplicates inside one
		// payload must be caught here.
		memberID := strings.TrimSpace(person.MemberID)
		if seenMemberIDs[memberID] {
			return nil, failf("Duplicate member_id in insured_person_details: %s", memberID)
		}
		seenMemberIDs[memberID] = true
	}

	pm := p.PremiumDetails
	if name, missing := firstEmpty([]namedField{
		{"net_premium", pm.NetPremium},
		{"gross_premium", pm.GrossPremium},
		{"premium_payment_mode", pm.PremiumPaymentMode},
	}); missing {
		return nil, failf("Missing required field in premium_details: %s", name)
	}

	ct := p.ContactDetails
	if name, missing := firstEmpty([]namedField{
		{"contact_number", ct.ContactNumber},
		{"contact_email", ct.ContactEmail},
		{"contact_address", ct.ContactAddress},
	}); missing {
		return nil, failf("Missing required field in contact_details: %s", name)
	}
	if !inputval.IsValidEmail(ct.ContactEmail) {
		return nil, failf("Invalid email format in contact_details")
	}

	gr := p.GrievanceRedressal
	if name, missing := firstEmpty([]namedField{
		{"grievance_email", gr.GrievanceEmail},
		{"grievance_toll_free", gr.GrievanceTollFree},
	}); missing {
		return nil, failf("Missing required field in grievance_redressal: %s", name)
	}
	if !inputval.IsValidEmail(gr.GrievanceEmail) {
		return nil, failf("Invalid email format in grievance_redressal")
	}

	out := &models.Policy{
		PolicyDetails:      *pd,
		MasterPolicyholder: *p.MasterPolicyholder,
		ProposerDetails:    *pr,
		InsuredPersons:     persons,
		PremiumDetails:     *pm,
		ContactDetails:     *ct,
		GrievanceRedressal: *gr,
	}
	normalize(out)
	return out, nil
}

// ValidateUpdate checks only the fields present in a partial payload:
// format and enum checks apply, required checks do not. An empty string is
// treated as absent, matching create-side trimming semantics.
func ValidateUpdate(raw []byte) (*PolicyUpdate, error) {
	var u PolicyUpdate
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, &ValidationError{Message: "Invalid JSON data"}
	}

	if pr := u.ProposerDetails; pr != nil {
		if pr.ProposerEmail != "" && !inputval.IsValidEmail(pr.ProposerEmail) {
			return nil, failf("Invalid email format in proposer_details")
		}
		if pr.ProposerMobile != "" && !inputval.IsValidMobile(pr.ProposerMobile) {
			return nil, failf("Invalid mobile number format in proposer_details (should be 10 digits)")
		}
	}
	if ct := u.ContactDetails; ct != nil && ct.ContactEmail != "" && !inputval.IsValidEmail(ct.ContactEmail) {
		return nil, failf("Invalid email format in contact_details")
	}
	if gr := u.GrievanceRedressal; gr != nil && gr.GrievanceEmail != "" && !inputval.IsValidEmail(gr.GrievanceEmail) {
		return nil, failf("Invalid email format in grievance_redressal")
	}
	if u.InsuredPersons != nil {
		seenMemberIDs := make(map[string]bool, len(*u.InsuredPersons))
		for i, person := range *u.InsuredPersons {
			if person.InsuredGender != "" && !inputval.IsValidGender(person.InsuredGender) {
				return nil, failf("Invalid gender in insured_person_details[%d]. Must be one of: %s", i, inputval.GendersList())
			}
			memberID := strings.TrimSpace(person.MemberID)
			if memberID == "" {
				continue
			}
			if seenMemberIDs[memberID] {
				return nil, failf("Duplicate member_id in insured_person_details: %s", memberID)
			}
			seenMemberIDs[memberID] = true
		}
	}

	normalizeUpdate(&u)
	return &u, nil
}

func normalize(p *models.Policy) {
	pd := &p.PolicyDetails
	trimAll(
		&pd.MasterPolicyNumber, &pd.CertificateNumber, &pd.ProductName,
		&pd.ProductUIN, &pd.CoverageType, &pd.PeriodOfInsurance,
		&pd.StartDateTime, &pd.ExpiryDateTime, &pd.InceptionDate, &pd.EndDate,
	)
	trimAll(&p.MasterPolicyholder.MasterPolicyholderName)

	pr := &p.ProposerDetails
	trimAll(
		&pr.ProposerName, &pr.ProposerAddress, &pr.ProposerCity,
		&pr.ProposerState, &pr.ProposerPincode, &pr.ProposerMobile,
		&pr.ProposerEmail, &pr.UniqueIdentificationNumber,
	)
	pr.ProposerEmail = strings.ToLower(pr.ProposerEmail)

	for i := range p.InsuredPersons {
		ip := &p.InsuredPersons[i]
		trimAll(
			&ip.InsuredName, &ip.InsuredDOB, &ip.InsuredGender,
			&ip.InsuredRelationship, &ip.NomineeName, &ip.NomineeRelationship,
			&ip.SumInsured, &ip.SuperNCBPercentage, &ip.SuperNCBAmount,
			&ip.PreExistingDisease, &ip.MemberID,
		)
	}

	pm := &p.PremiumDetails
	trimAll(&pm.NetPremium, &pm.CGST9, &pm.SGSTUTGST9, &pm.IGST18, &pm.GrossPremium, &pm.PremiumPaymentMode)

	ct := &p.ContactDetails
	trimAll(&ct.ContactNumber, &ct.ContactEmail, &ct.ContactAddress)
	ct.ContactEmail = strings.ToLower(ct.ContactEmail)

	gr := &p.GrievanceRedressal
	trimAll(&gr.GrievanceEmail, &gr.GrievanceTollFree)
	gr.GrievanceEmail = strings.ToLower(gr.GrievanceEmail)
}

func normalizeUpdate(u *PolicyUpdate) {
	if u.ProposerDetails != nil {
		u.ProposerDetails.ProposerEmail = strings.ToLower(strings.TrimSpace(u.ProposerDetails.ProposerEmail))
	}
	if u.ContactDetails != nil {
		u.ContactDetails.ContactEmail = strings.ToLower(strings.TrimSpace(u.ContactDetails.ContactEmail))
	}
	if u.GrievanceRedressal != nil {
		u.GrievanceRedressal.GrievanceEmail = strings.ToLower(strings.TrimSpace(u.GrievanceRedressal.GrievanceEmail))
	}
}

func trimAll(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
