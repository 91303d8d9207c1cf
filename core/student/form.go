package student

import (
	"github.com/volatiletech/null/v8"
)

// Form is the editable state of the create/edit form. Every text field is a plain string,
// an empty string meaning "not filled in".
type Form struct {
	NameEN       string
	NameBN       string
	Roll         string
	Class        string
	Section      string
	Gender       Gender
	DOB          string
	BirthID      string
	FatherNameEN string
	FatherNameBN string
	FatherID     string
	MotherNameEN string
	AddressBN    string
	Contact      string
	Grade        string
	Attendance   float64
}

// DefaultForm is the blank create form: first relevant class, section A, male, full attendance.
func DefaultForm(inst InstitutionType) Form {
	var class string
	if classes := Classes(inst); len(classes) > 0 {
		class = classes[0]
	}
	return Form{
		Class:      class,
		Section:    "A",
		Gender:     Male,
		Attendance: 100,
	}
}

// FormFrom loads a full record into form state.
func FormFrom(s Student) Form {
	return Form{
		NameEN:       s.NameEN,
		NameBN:       s.NameBN,
		Roll:         s.Roll,
		Class:        s.Class,
		Section:      s.Section.String,
		Gender:       s.Gender,
		DOB:          s.DOB.String,
		BirthID:      s.BirthID.String,
		FatherNameEN: s.FatherNameEN.String,
		FatherNameBN: s.FatherNameBN.String,
		FatherID:     s.FatherID.String,
		MotherNameEN: s.MotherNameEN.String,
		AddressBN:    s.AddressBN.String,
		Contact:      s.Contact.String,
		Grade:        s.Grade.String,
		Attendance:   s.Attendance,
	}
}

// Payload builds the submitted Input: optional fields left empty are sent as null.
func (f Form) Payload() Input {
	in := Input{
		NameEN:       f.NameEN,
		NameBN:       f.NameBN,
		Roll:         f.Roll,
		Class:        f.Class,
		Section:      optional(f.Section),
		Gender:       f.Gender,
		DOB:          optional(f.DOB),
		BirthID:      optional(f.BirthID),
		FatherNameEN: optional(f.FatherNameEN),
		FatherNameBN: optional(f.FatherNameBN),
		FatherID:     optional(f.FatherID),
		MotherNameEN: optional(f.MotherNameEN),
		AddressBN:    optional(f.AddressBN),
		Contact:      optional(f.Contact),
		Grade:        optional(f.Grade),
		Attendance:   f.Attendance,
	}
	in.Clean()
	return in
}

func optional(s string) null.String {
	return null.NewString(s, s != "")
}
