package student

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/shikkhaloy/shikkhaloy/core"
)

type Gender string

const (
	Male   Gender = "Male"
	Female Gender = "Female"
	Other  Gender = "Other"
)

var Genders = []Gender{Male, Female, Other}

type InstitutionType string

const (
	School  InstitutionType = "school"
	Madrasa InstitutionType = "madrasa"
)

// AllClasses is the class filter value matching every class.
const AllClasses = "All"

var (
	SchoolClasses  = []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12"}
	MadrasaClasses = []string{"Ibtidai 1", "Ibtidai 5", "Dakhil 6", "Dakhil 10", "Alim 1st Year", "Alim 2nd Year", "Fazil", "Kamil"}
)

// ParseInstitutionType defaults to Madrasa.
func ParseInstitutionType(s string) InstitutionType {
	if InstitutionType(strings.ToLower(strings.TrimSpace(s))) == School {
		return School
	}
	return Madrasa
}

// Classes returns the enumerated class list relevant to the institution type.
func Classes(inst InstitutionType) []string {
	src := MadrasaClasses
	if inst == School {
		src = SchoolClasses
	}
	classes := make([]string, len(src))
	copy(classes, src)
	return classes
}

// Student is a roster record. Optional fields are null when absent, never "".
type Student struct {
	ID           string      `json:"id" db:"id"`
	NameEN       string      `json:"name_en" db:"name_en"`
	NameBN       string      `json:"name_bn" db:"name_bn"`
	Roll         string      `json:"roll" db:"roll"`
	Class        string      `json:"class" db:"class"`
	Section      null.String `json:"section" db:"section"`
	Gender       Gender      `json:"gender" db:"gender"`
	DOB          null.String `json:"dob" db:"dob"`
	BirthID      null.String `json:"birth_id" db:"birth_id"`
	FatherNameEN null.String `json:"father_name_en" db:"father_name_en"`
	FatherNameBN null.String `json:"father_name_bn" db:"father_name_bn"`
	FatherID     null.String `json:"father_id" db:"father_id"`
	MotherNameEN null.String `json:"mother_name_en" db:"mother_name_en"`
	AddressBN    null.String `json:"address_bn" db:"address_bn"`
	Contact      null.String `json:"contact" db:"contact"`
	Grade        null.String `json:"grade" db:"grade"`
	Attendance   float64     `json:"attendance" db:"attendance"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"` // UTC
}

// DisplayName picks the name matching the UI language ("bn" or "en").
func (s Student) DisplayName(lang string) string {
	if lang == "bn" && s.NameBN != "" {
		return s.NameBN
	}
	if s.NameEN != "" {
		return s.NameEN
	}
	return s.NameBN
}

// Input contains the information needed to create or update a Student.
type Input struct {
	// Name is the legacy single-name shape; it fills both name fields when they are empty.
	Name         string      `json:"name,omitempty"`
	NameEN       string      `json:"name_en" validate:"required,max=255"`
	NameBN       string      `json:"name_bn" validate:"required,max=255"`
	Roll         string      `json:"roll" validate:"required,max=32"`
	Class        string      `json:"class" validate:"max=64"`
	Section      null.String `json:"section" validate:"omitempty,max=32"`
	Gender       Gender      `json:"gender" validate:"oneof=Male Female Other"`
	DOB          null.String `json:"dob" validate:"omitempty,max=32"`
	BirthID      null.String `json:"birth_id" validate:"omitempty,max=64"`
	FatherNameEN null.String `json:"father_name_en" validate:"omitempty,max=255"`
	FatherNameBN null.String `json:"father_name_bn" validate:"omitempty,max=255"`
	FatherID     null.String `json:"father_id" validate:"omitempty,max=64"`
	MotherNameEN null.String `json:"mother_name_en" validate:"omitempty,max=255"`
	AddressBN    null.String `json:"address_bn" validate:"omitempty,max=1024"`
	Contact      null.String `json:"contact" validate:"omitempty,max=32"`
	Grade        null.String `json:"grade" validate:"omitempty,max=8"`
	Attendance   float64     `json:"attendance"`
}

// Clean trims every field, migrates the legacy `name` and turns blank optionals into null.
func (in *Input) Clean() {
	in.Name = core.CleanString(in.Name)
	in.NameEN = core.CleanString(in.NameEN)
	in.NameBN = core.CleanString(in.NameBN)
	if in.Name != "" {
		if in.NameEN == "" {
			in.NameEN = in.Name
		}
		if in.NameBN == "" {
			in.NameBN = in.Name
		}
	}
	in.Name = ""
	in.Roll = core.CleanString(in.Roll)
	in.Class = core.CleanString(in.Class)
	if in.Gender == "" {
		in.Gender = Male
	}

	for _, fld := range in.optionals() {
		*fld = cleanNullString(*fld)
	}
}

func (in *Input) optionals() []*null.String {
	return []*null.String{
		&in.Section, &in.DOB, &in.BirthID, &in.FatherNameEN, &in.FatherNameBN,
		&in.FatherID, &in.MotherNameEN, &in.AddressBN, &in.Contact, &in.Grade,
	}
}

// CheckRequired reports ErrNameRollRequired when a name or the roll is missing.
func (in *Input) CheckRequired() error {
	legacy := strings.TrimSpace(in.Name)
	filled := func(s string) bool { return strings.TrimSpace(s) != "" || legacy != "" }
	if !filled(in.NameEN) || !filled(in.NameBN) || strings.TrimSpace(in.Roll) == "" {
		return ErrNameRollRequired
	}
	return nil
}

func (in *Input) Validate(validate *validator.Validate) error {
	in.Clean()
	return validate.Struct(in)
}

// apply copies the input onto `s`, leaving identity & timestamps alone.
func (in Input) apply(s Student) Student {
	s.NameEN = in.NameEN
	s.NameBN = in.NameBN
	s.Roll = in.Roll
	s.Class = in.Class
	s.Section = in.Section
	s.Gender = in.Gender
	s.DOB = in.DOB
	s.BirthID = in.BirthID
	s.FatherNameEN = in.FatherNameEN
	s.FatherNameBN = in.FatherNameBN
	s.FatherID = in.FatherID
	s.MotherNameEN = in.MotherNameEN
	s.AddressBN = in.AddressBN
	s.Contact = in.Contact
	s.Grade = in.Grade
	s.Attendance = in.Attendance
	return s
}

func cleanNullString(s null.String) null.String {
	if !s.Valid {
		return s
	}
	v := core.CleanString(s.String)
	return null.NewString(v, v != "")
}

type QueryFilter struct {
	Search string `query:"search"`
	Class  string `query:"class"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && (qf.Class == "" || qf.Class == AllClasses)
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Class = core.CleanString(qf.Class)
	if qf.Class == AllClasses {
		qf.Class = ""
	}
}
