package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := RegisterUserRequest{
		Name:     "  Alice Maker  ",
		Email:    " alice@dfsp.example ",
		Password: "  pass1234  ",
		UserType: " dfsp ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "Alice Maker", req.Name)
	assert.Equal(t, "alice@dfsp.example", req.Email)
	assert.Equal(t, "pass1234", req.Password)
	assert.Equal(t, "dfsp", req.UserType)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := BulkTransitionRequest{
		IDs:    []int64{1},
		Reason: "missing <script>alert('x')</script> documents",
	}
	SanitizeStruct(&req)

	assert.Contains(t, req.Reason, "&lt;script&gt;")
	assert.NotContains(t, req.Reason, "<script>")
}

func TestSanitizeStruct_HandlesStringSlice(t *testing.T) {
	req := CreateMerchantRequest{
		TradingName:      " Corner Shop ",
		DFSPID:           10,
		CheckoutCounters: []string{"  Main till  ", "Back <b>till</b>"},
	}
	SanitizeStruct(&req)

	assert.Equal(t, "Corner Shop", req.TradingName)
	assert.Equal(t, "Main till", req.CheckoutCounters[0])
	assert.Equal(t, "Back &lt;b&gt;till&lt;/b&gt;", req.CheckoutCounters[1])
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

// --- Custom Validator tests ---

func TestSafeURL_ParsesSchemes(t *testing.T) {
	valid := []string{
		"https://registry.example/fsp",
		"http://localhost:8080/callback",
	}
	invalid := []string{
		"ftp://registry.example/fsp",
		"javascript:alert(1)",
		"not a url",
	}
	for _, tc := range valid {
		assert.True(t, safeURL(tc), "expected valid: %s", tc)
	}
	for _, tc := range invalid {
		assert.False(t, safeURL(tc), "expected invalid: %s", tc)
	}
}
