package i18n

import "fmt"

// Messages are the notices shown to users: validation failures, results of remote calls, fallbacks.
type Messages struct {
	FillAllFields      string `json:"fillAllFields"`
	InvalidCredentials string `json:"invalidCredentials"`
	AccountExists      string `json:"accountExists"`
	AccountDeactivated string `json:"accountDeactivated"`
	UserNotFound       string `json:"userNotFound"`
	NotFound           string `json:"notFound"`
	ServerError        string `json:"serverError"`
	Unauthorized       string `json:"unauthorized"`
	PermissionDenied   string `json:"permissionDenied"`
	TooManyRequests    string `json:"tooManyRequests"`
	RefreshExpired     string `json:"refreshExpired"`
	InvalidResetLink   string `json:"invalidResetLink"`
	PasswordResetSent  string `json:"passwordResetSent"`
	PasswordResetDone  string `json:"passwordResetDone"`
	NameRollRequired   string `json:"nameRollRequired"`
	SavedSuccessfully  string `json:"savedSuccessfully"`
	SaveFailed         string `json:"saveFailed"`
	ConfirmDelete      string `json:"confirmDelete"`
	DeleteFailed       string `json:"deleteFailed"`
	NoStudentsFound    string `json:"noStudentsFound"`
	NothingToExport    string `json:"nothingToExport"`
	ExportFailed       string `json:"exportFailed"`
	Exported           string `json:"exported"`
	EditInformation    string `json:"editInformation"`
	InsightFallback    string `json:"insightFallback"`
	InsightUnavailable string `json:"insightUnavailable"`
	ConnectionTimeout  string `json:"connectionTimeout"`
	Retry              string `json:"retry"`
	Loading            string `json:"loading"`
}

var messages = map[Language]Messages{
	EN: {
		FillAllFields:      "Please fill all fields",
		InvalidCredentials: "Invalid identifier or password",
		AccountExists:      "Account already exists with this mobile or email",
		AccountDeactivated: "This account has been deactivated",
		UserNotFound:       "User not found",
		NotFound:           "Not found",
		ServerError:        "Server error occurred",
		Unauthorized:       "Please log in to continue",
		PermissionDenied:   "Permission denied",
		TooManyRequests:    "Too many requests, please try again later",
		RefreshExpired:     "Session has expired, please log in again",
		InvalidResetLink:   "The password reset link is invalid or has expired",
		PasswordResetSent: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
		PasswordResetDone:  "Password has been reset with the new password.",
		NameRollRequired:   "Please fill Name and Roll Number",
		SavedSuccessfully:  "Saved successfully",
		SaveFailed:         "Failed to save: %s",
		ConfirmDelete:      "Are you sure?",
		DeleteFailed:       "Failed to delete",
		NoStudentsFound:    "No students found",
		NothingToExport:    "No students to export",
		ExportFailed:       "Export failed",
		Exported:           "Exported %d students",
		EditInformation:    "Edit Information",
		InsightFallback:    "Sorry, could not generate insights at this time.",
		InsightUnavailable: "AI insights are not configured",
		ConnectionTimeout:  "Connection is taking too long. Please retry.",
		Retry:              "Retry",
		Loading:            "Loading...",
	},
	BN: {
		FillAllFields:      "সবগুলো ঘর পূরণ করুন",
		InvalidCredentials: "ভুল মোবাইল/ইমেইল বা পাসওয়ার্ড",
		AccountExists:      "এই নম্বর বা ইমেইল দিয়ে ইতিমধ্যে অ্যাকাউন্ট আছে",
		AccountDeactivated: "এই অ্যাকাউন্টটি নিষ্ক্রিয় করা হয়েছে",
		UserNotFound:       "ব্যবহারকারী পাওয়া যায়নি",
		NotFound:           "পাওয়া যায়নি",
		ServerError:        "সার্ভারে সমস্যা হয়েছে",
		Unauthorized:       "অনুগ্রহ করে লগইন করুন",
		PermissionDenied:   "অনুমতি নেই",
		TooManyRequests:    "অনেক বেশি অনুরোধ, কিছুক্ষণ পর আবার চেষ্টা করুন",
		RefreshExpired:     "সেশনের মেয়াদ শেষ, আবার লগইন করুন",
		InvalidResetLink:   "পাসওয়ার্ড রিসেট লিংকটি সঠিক নয় অথবা মেয়াদোত্তীর্ণ",
		PasswordResetSent:  "প্রদত্ত ইমেইলটি কোনো সক্রিয় অ্যাকাউন্টের হলে শীঘ্রই পাসওয়ার্ড রিসেটের নির্দেশনাসহ একটি ইমেইল পাবেন।",
		PasswordResetDone:  "নতুন পাসওয়ার্ড সংরক্ষিত হয়েছে।",
		NameRollRequired:   "অনুগ্রহ করে নাম এবং রোল নম্বর লিখুন",
		SavedSuccessfully:  "সফলভাবে সংরক্ষিত হয়েছে",
		SaveFailed:         "সেভ করা যায়নি: %s",
		ConfirmDelete:      "আপনি কি নিশ্চিত?",
		DeleteFailed:       "মুছে ফেলা সম্ভব হয়নি",
		NoStudentsFound:    "কোনো শিক্ষার্থী পাওয়া যায়নি",
		NothingToExport:    "এক্সপোর্ট করার মতো কোনো শিক্ষার্থী নেই",
		ExportFailed:       "এক্সপোর্ট করা যায়নি",
		Exported:           "%d জন শিক্ষার্থীর তথ্য এক্সপোর্ট হয়েছে",
		EditInformation:    "তথ্য সংশোধন",
		InsightFallback:    "দুঃখিত, তথ্য আনতে সমস্যা হয়েছে।",
		InsightUnavailable: "এআই বিশ্লেষণ চালু করা হয়নি",
		ConnectionTimeout:  "সংযোগে বেশি সময় লাগছে। আবার চেষ্টা করুন।",
		Retry:              "আবার চেষ্টা করুন",
		Loading:            "লোড হচ্ছে...",
	},
}

// M returns the notices for `lang`, falling back to the default language.
func M(lang Language) Messages {
	if m, ok := messages[lang]; ok {
		return m
	}
	return messages[Default]
}

func (m Messages) SaveFailedWith(reason string) string {
	return fmt.Sprintf(m.SaveFailed, reason)
}

func (m Messages) ExportedCount(n int) string {
	return fmt.Sprintf(m.Exported, n)
}
