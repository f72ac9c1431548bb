package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/darmiel/tokenizer/internal/core"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"Invalid Input", core.Errorf(core.KindInvalidInput, "op", "consumer id must not be empty"), 500, "consumer id must not be empty"},
		{"Decryption", core.Errorf(core.KindDecryption, "op", "ciphertext too short"), 500, "invalid credentials format"},
		{"Directory", core.Errorf(core.KindDirectory, "op", "dial tcp: refused"), 503, "communication failure with the identity service"},
		{"Network", core.E(core.KindNetwork, "op", context.DeadlineExceeded), 503, "communication failure with the identity service"},
		{"Wrapped Network", fmt.Errorf("verifying: %w", core.E(core.KindNetwork, "op", context.Canceled)), 503, "communication failure with the identity service"},
		{"Not Found", ErrIdentityNotFound, 403, "identity not found"},
		{"Policy", fmt.Errorf("rule 'x': %w", ErrPolicyDenied), 403, "access denied by policy"},
		{"Claims", core.Errorf(core.KindClaims, "op", "functional id is required"), 403, "functional id is required"},
		{"Signature", core.Errorf(core.KindSignature, "op", "bad"), 403, "invalid token signature"},
		{"Expired", core.Errorf(core.KindExpired, "op", "old"), 403, "token expired"},
		{"Malformed", core.Errorf(core.KindMalformed, "op", "junk"), 403, "malformed token"},
		{"Internal", core.Errorf(core.KindInternal, "op", "signing failed"), 403, "token operation failed"},
		{"Plain Error", errors.New("boom"), 403, "token operation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if got.StatusCode != tt.wantStatus || got.Message != tt.wantMsg {
				t.Errorf("classify() = %d %q, want %d %q", got.StatusCode, got.Message, tt.wantStatus, tt.wantMsg)
			}
			if !errors.Is(got, tt.err) {
				t.Error("classify() does not wrap the original error")
			}
		})
	}
}
