package domain

import (
	"strings"
	"time"
)

// NotSpecified marks a field that could not be extracted. Stored and exported
// records never carry an empty field.
const NotSpecified = "Not Specified"

// CandidateRecord is one candidate as extracted from a resume and as stored
type CandidateRecord struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	Phone          string    `db:"phone" json:"phone"`
	College        string    `db:"college" json:"college"`
	Degree         string    `db:"degree" json:"degree"`
	Department     string    `db:"department" json:"department"`
	State          string    `db:"state" json:"state"`
	District       string    `db:"district" json:"district"`
	YearPassing    string    `db:"year_passing" json:"year_passing"`
	SourceFilename string    `db:"filename" json:"source_filename"`
	LastUpdated    time.Time `db:"updated_at" json:"last_updated"`
}

// NewCandidateRecord returns a record with every field set to NotSpecified
func NewCandidateRecord() *CandidateRecord {
	r := &CandidateRecord{}
	r.Normalize()
	return r
}

// Normalize trims every field and maps blanks and sentinel spellings to NotSpecified
func (r *CandidateRecord) Normalize() {
	for _, f := range r.fields() {
		*f = normalizeValue(*f)
	}
}

func (r *CandidateRecord) fields() []*string {
	return []*string{
		&r.Name, &r.Email, &r.Phone, &r.College, &r.Degree, &r.Department,
		&r.State, &r.District, &r.YearPassing, &r.SourceFilename,
	}
}

func normalizeValue(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, NotSpecified) {
		return NotSpecified
	}
	return v
}

// IsSpecified reports whether v carries a real value
func IsSpecified(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, NotSpecified)
}

// HasEmail reports whether the email can be used as an identity key
func (r *CandidateRecord) HasEmail() bool { return IsSpecified(r.Email) }

// HasPhone reports whether the phone can be used as an identity key
func (r *CandidateRecord) HasPhone() bool { return IsSpecified(r.Phone) }

// IdentityKeys returns the lock keys guarding this record's identity
func (r *CandidateRecord) IdentityKeys() []string {
	var keys []string
	if r.HasEmail() {
		keys = append(keys, "candidate:email:"+r.Email)
	}
	if r.HasPhone() {
		keys = append(keys, "candidate:phone:"+r.Phone)
	}
	return keys
}

// ReplaceFrom overwrites every extracted field with src's values, keeping
// the stored identity. Nothing from the previous version survives.
func (r *CandidateRecord) ReplaceFrom(src *CandidateRecord) {
	id := r.ID
	*r = *src
	r.ID = id
	r.Normalize()
}
