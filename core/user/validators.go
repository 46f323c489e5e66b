package user

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/darasa/core"
	appfs "github.com/trezcool/darasa/fs"
)

var (
	allRolesTag  = "allroles"
	allRolesText = "invalid roles"

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdMaxLen     = 40
	pwdMaxLenTag  = "pwdmaxlen"
	pwdMaxLenText = fmt.Sprintf("password must contain at most %d characters", pwdMaxLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"

	pwdNoCommonTag  = "pwdnocommon"
	pwdNoCommonText = "password is too common"

	pwdTexts = map[string]string{
		pwdMinLenTag:    pwdMinLenText,
		pwdMaxLenTag:    pwdMaxLenText,
		pwdNoSpaceTag:   pwdNoSpaceText,
		pwdNotAllNumTag: pwdNotAllNumText,
		pwdAttrSimTag:   pwdAttrSimText,
		pwdNoCommonTag:  pwdNoCommonText,
	}

	commonPasswordsPath = "assets/common-passwords.txt.gz"
	commonPasswords     []string
	commonPwdOnce       sync.Once
	commonPwdErr        error
)

// InitValidators registers the user validations on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(allRolesTag, allRolesValidation)
	core.RegisterCustomTranslation(validate, translator, allRolesTag, allRolesText)

	validate.RegisterStructValidation(userStructValidation, NewUser{}, UpdateUser{}, UpdatePassword{}, ResetUserPassword{})
	for tag, text := range pwdTexts {
		core.RegisterCustomTranslation(validate, translator, tag, text)
	}
}

// LoadCommonPasswords reads the embedded list of common passwords. It is safe to call many times.
func LoadCommonPasswords() error {
	commonPwdOnce.Do(func() {
		commonPasswords, commonPwdErr = readCommonPasswords()
	})
	return commonPwdErr
}

func readCommonPasswords() ([]string, error) {
	file, err := appfs.FS.Open(commonPasswordsPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening common passwords")
	}
	defer file.Close()

	gzRdr, err := gzip.NewReader(file)
	if err != nil {
		return nil, errors.Wrap(err, "reading common passwords")
	}
	defer gzRdr.Close()

	pwds := make([]string, 0, 512)
	scanner := bufio.NewScanner(gzRdr)
	for scanner.Scan() {
		if pwd := strings.TrimSpace(scanner.Text()); pwd != "" {
			pwds = append(pwds, strings.ToLower(pwd))
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning common passwords")
	}
	sort.Strings(pwds)
	return pwds, nil
}

// Custom Validators

// allRolesValidation checks that provided user roles are all in AllRoles
func allRolesValidation(fl validator.FieldLevel) bool {
	roles, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	for _, role := range roles {
		if _, known := rolePriorities[role]; !known {
			return false
		}
	}
	return true
}

// userStructValidation applies the password policy on every struct carrying a new password.
func userStructValidation(sl validator.StructLevel) {
	switch usr := sl.Current().Interface().(type) {
	case NewUser:
		reportPassword(sl, usr.Password, "password", "Password", usr.FullName, usr.Email)
	case UpdateUser:
		if usr.Password != "" {
			reportPassword(sl, usr.Password, "password", "Password", usr.FullName, usr.Email)
		}
	case UpdatePassword:
		reportPassword(sl, usr.NewPassword, "new_password", "NewPassword", usr.fullName, usr.email)
	case ResetUserPassword:
		reportPassword(sl, usr.Password, "new_password", "Password")
	}
}

func reportPassword(sl validator.StructLevel, pwd, field, structField string, attrs ...string) {
	if pwd == "" { // reported by `required`
		return
	}
	if tag := passwordPolicyTag(pwd, attrs...); tag != "" {
		sl.ReportError(pwd, field, structField, tag, "")
	}
}

// passwordPolicyTag applies the password policy to pwd and returns the tag of the first broken rule:
// - length: 8 - 40
// - no whitespace
// - not all numeric
// - not similar to user attributes
// - not a common password
func passwordPolicyTag(pwd string, attrs ...string) string {
	pwdLen := utf8.RuneCountInString(pwd)
	if pwdLen < pwdMinLen {
		return pwdMinLenTag
	}
	if pwdLen > pwdMaxLen {
		return pwdMaxLenTag
	}

	var digitCount int
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			return pwdNoSpaceTag
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}
	if digitCount == pwdLen {
		return pwdNotAllNumTag
	}

	lpwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		if similarity(lpwd, strings.ToLower(attr)) >= pwdMaxSim {
			return pwdAttrSimTag
		}
	}

	_ = LoadCommonPasswords()
	if idx := sort.SearchStrings(commonPasswords, lpwd); idx < len(commonPasswords) && commonPasswords[idx] == lpwd {
		return pwdNoCommonTag
	}
	return ""
}

func similarity(pwd, attr string) float64 {
	if attr == "" {
		return 0
	}
	// compare with the local part of emails too
	ratio := difflib.NewMatcher(strings.Split(pwd, ""), strings.Split(attr, "")).QuickRatio()
	if at := strings.IndexByte(attr, '@'); at > 0 {
		if r := similarity(pwd, attr[:at]); r > ratio {
			ratio = r
		}
	}
	return ratio
}

// validatePasswordFor checks pwd against the policy and the attributes of usr.
func validatePasswordFor(usr User, pwd, field string) error {
	if tag := passwordPolicyTag(pwd, usr.FullName, usr.Email); tag != "" {
		return core.NewValidationError(nil, core.FieldError{Field: field, Error: pwdTexts[tag]})
	}
	return nil
}
