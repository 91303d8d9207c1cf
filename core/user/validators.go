package user

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/shikkhaloy/shikkhaloy/core"
	appfs "github.com/shikkhaloy/shikkhaloy/fs"
)

var (
	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = core.LocalizedText{
		EN: fmt.Sprintf("password must contain at least %d characters", pwdMinLen),
		BN: fmt.Sprintf("পাসওয়ার্ডে কমপক্ষে %d টি অক্ষর থাকতে হবে", pwdMinLen),
	}

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = core.LocalizedText{
		EN: "password must not contain whitespace",
		BN: "পাসওয়ার্ডে ফাঁকা জায়গা থাকা যাবে না",
	}

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = core.LocalizedText{
		EN: "password cannot be entirely numeric",
		BN: "পাসওয়ার্ড শুধু সংখ্যা দিয়ে হতে পারবে না",
	}

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = core.LocalizedText{
		EN: "password cannot be similar to user attributes",
		BN: "পাসওয়ার্ড আপনার নাম, মোবাইল বা ইমেইলের মতো হতে পারবে না",
	}

	pwdNoCommonTag  = "pwdnocommon"
	pwdNoCommonText = core.LocalizedText{
		EN: "password is too common",
		BN: "পাসওয়ার্ডটি খুবই সাধারণ",
	}

	commonPasswords   = make([]string, 0, 160) // number of pwds in fs/common-passwords.txt.gz
	commonPasswordsMu sync.RWMutex
)

// InitValidators registers the account validations on `validate`.
func InitValidators(validate *validator.Validate, uni *ut.UniversalTranslator) {
	validate.RegisterStructValidation(registrationStructValidation, Registration{})
	validate.RegisterStructValidation(resetPasswordStructValidation, ResetUserPassword{})

	core.RegisterCustomTranslation(validate, uni, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, uni, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, uni, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(validate, uni, pwdAttrSimTag, pwdAttrSimText)
	core.RegisterCustomTranslation(validate, uni, pwdNoCommonTag, pwdNoCommonText)
}

// LoadCommonPasswords reads the embedded list of passwords too common to be accepted.
func LoadCommonPasswords(logger core.Logger) {
	file, err := appfs.FS.Open("common-passwords.txt.gz")
	if err != nil {
		logger.Error(fmt.Sprintf("opening common passwords: %v", err), err)
		return
	}
	defer file.Close()

	gzRdr, err := gzip.NewReader(file)
	if err != nil {
		logger.Error(fmt.Sprintf("reading common passwords: %v", err), err)
		return
	}
	pwds := make([]string, 0, cap(commonPasswords))
	scanner := bufio.NewScanner(gzRdr)
	for scanner.Scan() {
		if pwd := strings.TrimSpace(scanner.Text()); pwd != "" {
			pwds = append(pwds, pwd)
		}
	}
	sort.Strings(pwds)

	commonPasswordsMu.Lock()
	commonPasswords = pwds
	commonPasswordsMu.Unlock()
}

func isCommonPassword(pwd string) bool {
	commonPasswordsMu.RLock()
	defer commonPasswordsMu.RUnlock()
	lpwd := strings.ToLower(pwd)
	idx := sort.SearchStrings(commonPasswords, lpwd)
	return idx < len(commonPasswords) && commonPasswords[idx] == lpwd
}

// registrationStructValidation applies the password policy against the other registration fields.
func registrationStructValidation(sl validator.StructLevel) {
	reg := sl.Current().Interface().(Registration)
	if reg.Password == "" {
		return // reported by `required`
	}
	if tag := CheckPassword(reg.Password, reg.Name, reg.Mobile, reg.Email); tag != "" {
		sl.ReportError(reg.Password, "password", "Password", tag, "")
	}
}

func resetPasswordStructValidation(sl validator.StructLevel) {
	rp := sl.Current().Interface().(ResetUserPassword)
	if rp.Password == "" {
		return
	}
	if tag := CheckPassword(rp.Password); tag != "" {
		sl.ReportError(rp.Password, "password", "Password", tag, "")
	}
}

// CheckPassword applies the password policy to `pwd` and returns the tag of the first violated rule:
// - minLen: 8
// - no whitespace
// - not all numeric
// - not similar to the user attributes
// - not a common password
func CheckPassword(pwd string, attrs ...string) string {
	runes := []rune(pwd)
	if len(runes) < pwdMinLen {
		return pwdMinLenTag
	}

	var digitCount int
	for _, char := range runes {
		if unicode.IsSpace(char) {
			return pwdNoSpaceTag
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}
	if digitCount == len(runes) {
		return pwdNotAllNumTag
	}

	lpwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		if attr == "" {
			continue
		}
		ratio := difflib.NewMatcher(strings.Split(lpwd, ""), strings.Split(strings.ToLower(attr), "")).QuickRatio()
		if ratio >= pwdMaxSim {
			return pwdAttrSimTag
		}
	}

	if isCommonPassword(pwd) {
		return pwdNoCommonTag
	}
	return ""
}

// ValidatePassword checks `pwd` against the policy outside of a struct validation.
func ValidatePassword(uni *ut.UniversalTranslator, pwd string, attrs ...string) error {
	tag := CheckPassword(pwd, attrs...)
	if tag == "" {
		return nil
	}
	trans, _ := uni.GetTranslator("en")
	msg, err := trans.T(tag, "password", "")
	if err != nil {
		msg = tag
	}
	return core.NewValidationError(ErrWeakPassword, core.FieldError{Field: "password", Error: msg})
}
