package checksum

import (
	"testing"
)

func TestGenerateListingHash(t *testing.T) {
	gen := NewGenerator()

	url := "/details/2014-honda-civic/1001/"
	model := "Civic"
	price := "$12,500"
	mileage := "85,000 km"

	hash1 := gen.GenerateListingHash(url, model, price, mileage)
	hash2 := gen.GenerateListingHash(url, model, price, mileage)

	// Хеш должен быть детерминированным
	if hash1 != hash2 {
		t.Errorf("Hash not deterministic: %s != %s", hash1, hash2)
	}

	if len(hash1) != 64 {
		t.Errorf("Hash wrong length: %d, expected 64", len(hash1))
	}

	hash3 := gen.GenerateListingHash(url, model, "$11,900", mileage)
	if hash1 == hash3 {
		t.Errorf("Hash should change when price changes")
	}
}

func TestVerifyListingHash(t *testing.T) {
	gen := NewGenerator()

	hash := gen.GenerateListingHash("/details/1/", "Civic", "$12,500", "")

	if !gen.VerifyListingHash(hash, "/details/1/", "Civic", "$12,500", "") {
		t.Errorf("VerifyListingHash failed for correct data")
	}

	if gen.VerifyListingHash(hash, "/details/1/", "Civic", "$12,500", "90,000 km") {
		t.Errorf("VerifyListingHash should fail for different mileage")
	}
}
