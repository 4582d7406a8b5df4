// internal/domain/models/policy.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Policy is a single insurance contract document. All domain values are
// opaque strings as supplied by the issuing system; dates are not parsed.
//
// Uniqueness across the whole collection (enforced by indexes, see
// system/indexes):
//   - policy_details.master_policy_number
//   - policy_details.certificate_number
//   - proposer_details.unique_identification_number
//   - insured_person_details.member_id (spans the nested array)
type Policy struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserUUID           string             `bson:"user_uuid" json:"user_uuid"`
	PolicyDetails      PolicyDetails      `bson:"policy_details" json:"policy_details"`
	MasterPolicyholder MasterPolicyholder `bson:"master_policyholder" json:"master_policyholder"`
	ProposerDetails    ProposerDetails    `bson:"proposer_details" json:"proposer_details"`
	InsuredPersons     []InsuredPerson    `bson:"insured_person_details" json:"insured_person_details"`
	PremiumDetails     PremiumDetails     `bson:"premium_details" json:"premium_details"`
	ContactDetails     ContactDetails     `bson:"contact_details" json:"contact_details"`
	GrievanceRedressal GrievanceRedressal `bson:"grievance_redressal" json:"grievance_redressal"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

type PolicyDetails struct {
	MasterPolicyNumber string `bson:"master_policy_number" json:"master_policy_number"`
	CertificateNumber  string `bson:"certificate_number" json:"certificate_number"`
	ProductName        string `bson:"product_name" json:"product_name"`
	ProductUIN         string `bson:"product_uin" json:"product_uin"`
	CoverageType       string `bson:"coverage_type" json:"coverage_type"`
	PeriodOfInsurance  string `bson:"period_of_insurance" json:"period_of_insurance"`
	StartDateTime      string `bson:"start_date_time" json:"start_date_time"`
	ExpiryDateTime     string `bson:"expiry_date_time" json:"expiry_date_time"`
	InceptionDate      string `bson:"inception_date" json:"inception_date"`
	EndDate            string `bson:"end_date" json:"end_date"`
}

type MasterPolicyholder struct {
	MasterPolicyholderName string `bson:"master_policyholder_name" json:"master_policyholder_name"`
}

type ProposerDetails struct {
	ProposerName               string `bson:"proposer_name" json:"proposer_name"`
	ProposerAddress            string `bson:"proposer_address" json:"proposer_address"`
	ProposerCity               string `bson:"proposer_city" json:"proposer_city"`
	ProposerState              string `bson:"proposer_state" json:"proposer_state"`
	ProposerPincode            string `bson:"proposer_pincode" json:"proposer_pincode"`
	ProposerMobile             string `bson:"proposer_mobile" json:"proposer_mobile"`
	ProposerEmail              string `bson:"proposer_email" json:"proposer_email"`
	UniqueIdentificationNumber string `bson:"unique_identification_number" json:"unique_identification_number"`
}

// InsuredPerson is one covered individual. MemberID is unique across every
// policy's insured_person_details array, not just within one policy.
type InsuredPerson struct {
	InsuredName          string `bson:"insured_name" json:"insured_name"`
	InsuredDOB           string `bson:"insured_dob" json:"insured_dob"`
	InsuredGender        string `bson:"insured_gender" json:"insured_gender"` // Male | Female | Other
	InsuredRelationship  string `bson:"insured_relationship" json:"insured_relationship"`
	NomineeName          string `bson:"nominee_name" json:"nominee_name"`
	NomineeRelationship  string `bson:"nominee_relationship" json:"nominee_relationship"`
	SumInsured           string `bson:"sum_insured" json:"sum_insured"`
	SuperNCBPercentage   string `bson:"super_no_claim_bonus_percentage" json:"super_no_claim_bonus_percentage"`
	SuperNCBAmount       string `bson:"super_no_claim_bonus_amount" json:"super_no_claim_bonus_amount"`
	PreExistingDisease   string `bson:"pre_existing_disease" json:"pre_existing_disease"`
	MemberID             string `bson:"member_id" json:"member_id"`
}

type PremiumDetails struct {
	NetPremium         string `bson:"net_premium" json:"net_premium"`
	CGST9              string `bson:"cgst_9" json:"cgst_9"`
	SGSTUTGST9         string `bson:"sgst_utgst_9" json:"sgst_utgst_9"`
	IGST18             string `bson:"igst_18" json:"igst_18"`
	GrossPremium       string `bson:"gross_premium" json:"gross_premium"`
	PremiumPaymentMode string `bson:"premium_payment_mode" json:"premium_payment_mode"`
}

type ContactDetails struct {
	ContactNumber  string `bson:"contact_number" json:"contact_number"`
	ContactEmail   string `bson:"contact_email" json:"contact_email"`
	ContactAddress string `bson:"contact_address" json:"contact_address"`
}

type GrievanceRedressal struct {
	GrievanceEmail    string `bson:"grievance_email" json:"grievance_email"`
	GrievanceTollFree string `bson:"grievance_toll_free" json:"grievance_toll_free"`
}
