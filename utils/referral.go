package utils

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

// CodeType is the prefix that tells a code's owner apart
type CodeType string

const (
	StaffCodeType  CodeType = "STF"
	CouponCodeType CodeType = "CPN"
)

const codeLength = 6

// GenerateCode generates a code for the specified type.
// Format: {TYPE}-{RANDOM} where RANDOM is 6 uppercase alphanumeric characters, e.g. STF-ABC123
func GenerateCode(codeType CodeType) (string, error) {
	randomStr, err := randomCode(codeLength)
	if err != nil {
		return "", err
	}
	return string(codeType) + "-" + randomStr, nil
}

// GenerateStaffReferralCode generates a referral code for a staff member
func GenerateStaffReferralCode() (string, error) {
	return GenerateCode(StaffCodeType)
}

// GenerateCouponCode generates a coupon code without separator so it can be typed on a phone
func GenerateCouponCode() (string, error) {
	randomStr, err := randomCode(8)
	if err != nil {
		return "", err
	}
	return string(CouponCodeType) + randomStr, nil
}

func randomCode(n int) (string, error) {
	// 5 random bytes encode to 8 base32 characters
	randomBytes := make([]byte, (n*5+7)/8)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}

	randomStr := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	randomStr = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, strings.ToUpper(randomStr))

	if len(randomStr) < n {
		randomStr = randomStr + strings.Repeat("0", n-len(randomStr))
	}
	return randomStr[:n], nil
}

// NormalizeCode upper-cases and trims user supplied codes
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
