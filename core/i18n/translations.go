package i18n

// Translation is the label table of the portal UI.
type Translation struct {
	Dashboard          string `json:"dashboard"`
	Students           string `json:"students"`
	Attendance         string `json:"attendance"`
	Results            string `json:"results"`
	AddStudent         string `json:"addStudent"`
	StudentName        string `json:"studentName"`
	RollNo             string `json:"rollNo"`
	Class              string `json:"class"`
	Section            string `json:"section"`
	Gender             string `json:"gender"`
	Actions            string `json:"actions"`
	Save               string `json:"save"`
	Cancel             string `json:"cancel"`
	Edit               string `json:"edit"`
	Delete             string `json:"delete"`
	StatsTotalStudents string `json:"statsTotalStudents"`
	StatsPresentToday  string `json:"statsPresentToday"`
	StatsMale          string `json:"statsMale"`
	StatsFemale        string `json:"statsFemale"`
	StatsOther         string `json:"statsOther"`
	AverageAttendance  string `json:"averageAttendance"`
	AIInsights         string `json:"aiInsights"`
	AskAI              string `json:"askAi"`
	SchoolName         string `json:"schoolName"`
	MadrasaOption      string `json:"madrasaOption"`
	SchoolOption       string `json:"schoolOption"`
	InstitutionType    string `json:"institutionType"`
	Grade              string `json:"grade"`
	Contact            string `json:"contact"`
	Login              string `json:"login"`
	Register           string `json:"register"`
	FullName           string `json:"fullName"`
	MobileNumber       string `json:"mobileNumber"`
	Email              string `json:"email"`
	EmailOrMobile      string `json:"emailOrMobile"`
	Password           string `json:"password"`
	Logout             string `json:"logout"`
	NoAccount          string `json:"noAccount"`
	HaveAccount        string `json:"haveAccount"`
	WelcomeBack        string `json:"welcomeBack"`
	CreateNewAccount   string `json:"createNewAccount"`
}

var Translations = map[Language]Translation{
	EN: {
		Dashboard:          "Dashboard",
		Students:           "Students",
		Attendance:         "Attendance",
		Results:            "Results",
		AddStudent:         "Add Student",
		StudentName:        "Student Name",
		RollNo:             "Roll No.",
		Class:              "Class",
		Section:            "Section",
		Gender:             "Gender",
		Actions:            "Actions",
		Save:               "Save",
		Cancel:             "Cancel",
		Edit:               "Edit",
		Delete:             "Delete",
		StatsTotalStudents: "Total Students",
		StatsPresentToday:  "Present Today",
		StatsMale:          "Male Students",
		StatsFemale:        "Female Students",
		StatsOther:         "Other Students",
		AverageAttendance:  "Average Attendance",
		AIInsights:         "AI performance Insights",
		AskAI:              "Ask AI for Analysis",
		SchoolName:         "Amar Shikkhaloy",
		MadrasaOption:      "Madrasa",
		SchoolOption:       "School",
		InstitutionType:    "Institution Type",
		Grade:              "Grade",
		Contact:            "Contact",
		Login:              "Login",
		Register:           "Register",
		FullName:           "Full Name",
		MobileNumber:       "Mobile Number",
		Email:              "Email",
		EmailOrMobile:      "Email or Mobile",
		Password:           "Password",
		Logout:             "Logout",
		NoAccount:          "Don't have an account?",
		HaveAccount:        "Already have an account?",
		WelcomeBack:        "Welcome Back",
		CreateNewAccount:   "Create New Account",
	},
	BN: {
		Dashboard:          "ড্যাশবোর্ড",
		Students:           "শিক্ষার্থী",
		Attendance:         "উপস্থিতি",
		Results:            "ফলাফল",
		AddStudent:         "নতুন শিক্ষার্থী",
		StudentName:        "শিক্ষার্থীর নাম",
		RollNo:             "রোল নম্বর",
		Class:              "শ্রেণী",
		Section:            "শাখা",
		Gender:             "লিঙ্গ",
		Actions:            "কাজ",
		Save:               "সংরক্ষণ করুন",
		Cancel:             "বাতিল",
		Edit:               "সম্পাদনা",
		Delete:             "মুছে ফেলুন",
		StatsTotalStudents: "মোট শিক্ষার্থী",
		StatsPresentToday:  "আজকের উপস্থিতি",
		StatsMale:          "ছাত্র",
		StatsFemale:        "ছাত্রী",
		StatsOther:         "অন্যান্য",
		AverageAttendance:  "গড় উপস্থিতি",
		AIInsights:         "এআই কর্মক্ষমতা অন্তর্দৃষ্টি",
		AskAI:              "বিশ্লেষণের জন্য এআই ব্যবহার করুন",
		SchoolName:         "আমার শিক্ষালয়",
		MadrasaOption:      "মাদ্রাসা",
		SchoolOption:       "স্কুল",
		InstitutionType:    "প্রতিষ্ঠানের ধরন",
		Grade:              "গ্রেড",
		Contact:            "যোগাযোগ",
		Login:              "লগইন",
		Register:           "নিবন্ধন",
		FullName:           "পূর্ণ নাম",
		MobileNumber:       "মোবাইল নম্বর",
		Email:              "ইমেইল",
		EmailOrMobile:      "ইমেইল অথবা মোবাইল",
		Password:           "পাসওয়ার্ড",
		Logout:             "লগআউট",
		NoAccount:          "অ্যাকাউন্ট নেই?",
		HaveAccount:        "ইতিমধ্যে অ্যাকাউন্ট আছে?",
		WelcomeBack:        "স্বাগতম",
		CreateNewAccount:   "নতুন অ্যাকাউন্ট তৈরি করুন",
	},
}

// T returns the label table for `lang`, falling back to the default language.
func T(lang Language) Translation {
	if t, ok := Translations[lang]; ok {
		return t
	}
	return Translations[Default]
}
