package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/portlet/pkg/adapters/memory"
	"github.com/aretw0/portlet/pkg/persistence/middleware"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlyingStore := memory.NewStore()
	mw := middleware.NewPIIMiddleware([]string{"password", "^ssn"})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	key := "pii-prefs"
	values := map[string][]string{
		"username":      {"jdoe"},
		"user_password": {"secret123"},
		"ssn":           {"999", "99", "9999"},
		"my_ssn":        {"public"},
	}

	if err := secureStore.Save(ctx, key, values); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if values["user_password"][0] != "secret123" {
		t.Error("Middleware modified caller values in memory!")
	}

	stored, err := underlyingStore.Load(ctx, key)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}

	if stored["username"][0] != "jdoe" {
		t.Error("Username shouldn't be masked")
	}
	if stored["user_password"][0] != middleware.Mask {
		t.Errorf("Password should be masked, got: %v", stored["user_password"])
	}
	if len(stored["ssn"]) != 3 || stored["ssn"][2] != middleware.Mask {
		t.Errorf("Every SSN value should be masked, got: %v", stored["ssn"])
	}
	if stored["my_ssn"][0] != "public" {
		t.Errorf("Anchored pattern should not match my_ssn, got: %v", stored["my_ssn"])
	}
}
