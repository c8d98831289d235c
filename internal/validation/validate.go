// Package validation содержит функции валидации входных данных.
package validation

import (
	"net/mail"
	"strings"
	"unicode"
)

// IsValidEmail проверяет синтаксическую корректность email-адреса.
func IsValidEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email
}

// IsValidPassword проверяет минимальные требования к паролю.
func IsValidPassword(password string) bool {
	return len(password) >= 6
}

// IsValidName проверяет непустоту имени после обрезки пробелов.
func IsValidName(name string) bool {
	return strings.TrimSpace(name) != ""
}

// IsValidRating проверяет оценку отзыва.
func IsValidRating(rating int) bool {
	return rating >= 1 && rating <= 5
}

// IsValidCouponValue проверяет процент скидки купона.
func IsValidCouponValue(percent int) bool {
	return percent >= 1 && percent <= 100
}

// IsValidPhone допускает цифры, пробелы и знаки + - ( ). Пустой номер
// считается корректным, поле необязательное.
func IsValidPhone(phone string) bool {
	if phone == "" {
		return true
	}
	digits := 0
	for _, ch := range phone {
		switch {
		case unicode.IsDigit(ch):
			digits++
		case ch == '+' || ch == '-' || ch == '(' || ch == ')' || ch == ' ':
		default:
			return false
		}
	}
	return digits >= 5
}
