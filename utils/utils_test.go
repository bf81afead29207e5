package utils

import (
	"encoding/base64"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCodes(t *testing.T) {
	staff := regexp.MustCompile(`^STF-[A-Z0-9]{6}$`)
	coupon := regexp.MustCompile(`^CPN[A-Z0-9]{8}$`)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateStaffReferralCode()
		require.NoError(t, err)
		assert.Regexp(t, staff, code)
		seen[code] = true

		c, err := GenerateCouponCode()
		require.NoError(t, err)
		assert.Regexp(t, coupon, c)
	}
	assert.Greater(t, len(seen), 45)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "STF-ABC123", NormalizeCode("  stf-abc123\n"))
	assert.Equal(t, "", NormalizeCode("   "))
}

func TestSanitizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: ""},
		{in: "9876543210", want: "9876543210"},
		{in: "098765 43210", want: "9876543210"},
		{in: "+91 98765-43210", want: "9876543210"},
		{in: "12345", wantErr: true},
		{in: "+44 20 7946 0958", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := SanitizePhone(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeEmail(t *testing.T) {
	got, err := SanitizeEmail("  Staff.One@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "staff.one@example.com", got)

	_, err = SanitizeEmail("not-an-email")
	assert.Error(t, err)
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "Ravi &amp; Sons", SanitizeInput("  Ravi & Sons "))
	assert.Equal(t, "hello", SanitizeInput("hello<script>alert(1)</script>"))
	assert.Equal(t, "ab", SanitizeInput("a\x00b"))
}

func TestValidateFile(t *testing.T) {
	assert.NoError(t, ValidateFile("receipt.JPG", 1024))
	assert.Error(t, ValidateFile("receipt.svg", 1024))
	assert.Error(t, ValidateFile("receipt.exe", 1024))
	assert.Error(t, ValidateFile("receipt.png", maxFileSize+1))
}

func TestGenerateQRCode(t *testing.T) {
	link := ReferralLink("https://resellhub.example", "ref", "STF-ABC123")
	assert.Equal(t, "https://resellhub.example/signup?ref=STF-ABC123", link)

	dataURL, err := GenerateQRCode(link)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dataURL, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(raw[:4]))
}
