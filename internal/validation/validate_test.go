package validation

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		valid bool
	}{
		{
			name:  "plain address",
			email: "buyer@example.com",
			valid: true,
		},
		{
			name:  "subdomain",
			email: "seller@shop.example.org",
			valid: true,
		},
		{
			name:  "missing at sign",
			email: "buyer.example.com",
			valid: false,
		},
		{
			name:  "display name form",
			email: "Buyer <buyer@example.com>",
			valid: false,
		},
		{
			name:  "empty string",
			email: "",
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValidEmail(tt.email)
			if got != tt.valid {
				t.Fatalf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.valid)
			}
		})
	}
}

func TestIsValidPassword(t *testing.T) {
	if IsValidPassword("12345") {
		t.Fatalf("five-character password accepted")
	}
	if !IsValidPassword("123456") {
		t.Fatalf("six-character password rejected")
	}
}

func TestIsValidRating(t *testing.T) {
	for _, r := range []int{1, 3, 5} {
		if !IsValidRating(r) {
			t.Fatalf("IsValidRating(%d) = false, want true", r)
		}
	}
	for _, r := range []int{0, 6, -1} {
		if IsValidRating(r) {
			t.Fatalf("IsValidRating(%d) = true, want false", r)
		}
	}
}

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		valid bool
	}{
		{
			name:  "empty is optional",
			phone: "",
			valid: true,
		},
		{
			name:  "international format",
			phone: "+7 (900) 123-45-67",
			valid: true,
		},
		{
			name:  "letters rejected",
			phone: "call-me-maybe",
			valid: false,
		},
		{
			name:  "too few digits",
			phone: "+123",
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValidPhone(tt.phone)
			if got != tt.valid {
				t.Fatalf("IsValidPhone(%q) = %v, want %v", tt.phone, got, tt.valid)
			}
		})
	}
}
