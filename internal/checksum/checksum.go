package checksum

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateListingHash генерирует SHA256 хеш объявления
// Формула: SHA256(url|model|price|mileage)
func (g *Generator) GenerateListingHash(url, model, price, mileage string) string {
	content := strings.Join([]string{url, model, price, mileage}, "|")

	hash := sha256.Sum256([]byte(content))

	return fmt.Sprintf("%x", hash)
}

// VerifyListingHash проверяет соответствие хеша
func (g *Generator) VerifyListingHash(expectedHash, url, model, price, mileage string) bool {
	computed := g.GenerateListingHash(url, model, price, mileage)
	return computed == expectedHash
}
