package model

import "strings"

// ValidateInstitutionalEmail 机构邮箱规则：域名等于 root，或以 "." + root 结尾
func ValidateInstitutionalEmail(email, root string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	root = strings.ToLower(strings.TrimSpace(root))
	if root == "" {
		return false
	}

	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]

	return domain == root || strings.HasSuffix(domain, "."+root)
}

// NormalizeEmail 统一邮箱大小写与空白
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
