package otp

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"
)

// captureSink records every send so tests can read the generated code.
// It records before failing so tests can prove a failed delivery left no
// live code behind.
type captureSink struct {
	emails []string
	codes  []string
	err    error
}

func (s *captureSink) SendOTP(ctx context.Context, email, code string) error {
	s.emails = append(s.emails, email)
	s.codes = append(s.codes, code)
	return s.err
}

func (s *captureSink) lastCode() string {
	if len(s.codes) == 0 {
		return ""
	}
	return s.codes[len(s.codes)-1]
}

// TestIssueAndVerify verifies the happy path: an issued code verifies
// exactly once for its email.
func TestIssueAndVerify(t *testing.T) {
	sink := &captureSink{}
	issuer := NewIssuer(NewStore(), sink)

	if err := issuer.Issue(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(sink.codes) != 1 {
		t.Fatalf("expected 1 send, got %d", len(sink.codes))
	}

	if !issuer.Verify("a@x.com", sink.lastCode()) {
		t.Error("expected issued code to verify")
	}
}

// TestVerifyConsumesCode verifies that a successful verify deletes the
// record: the same code must not verify twice.
func TestVerifyConsumesCode(t *testing.T) {
	sink := &captureSink{}
	issuer := NewIssuer(NewStore(), sink)

	if err := issuer.Issue(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	code := sink.lastCode()

	if !issuer.Verify("a@x.com", code) {
		t.Fatal("first verify should succeed")
	}
	if issuer.Verify("a@x.com", code) {
		t.Error("second verify with the same code should fail")
	}
}

// TestVerifyWrongCode verifies that a near-miss candidate fails.
func TestVerifyWrongCode(t *testing.T) {
	sink := &captureSink{}
	issuer := NewIssuer(NewStore(), sink)

	if err := issuer.Issue(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Flip the last digit so the candidate is guaranteed to differ.
	code := sink.lastCode()
	last := code[len(code)-1]
	wrong := code[:len(code)-1] + string('0'+(last-'0'+1)%10)

	if issuer.Verify("a@x.com", wrong) {
		t.Error("wrong code should not verify")
	}
	// The mismatch must not have consumed the record.
	if !issuer.Verify("a@x.com", code) {
		t.Error("correct code should still verify after a failed attempt")
	}
}

// TestVerifyWithoutIssue verifies the fail-closed behavior for emails that
// never received a code.
func TestVerifyWithoutIssue(t *testing.T) {
	store := NewStore()
	if store.Verify("nobody@x.com", "123456") {
		t.Error("verify without prior issue should fail")
	}
}

// TestReissueInvalidatesPriorCode verifies that issuing a second code for
// the same email overwrites the first.
func TestReissueInvalidatesPriorCode(t *testing.T) {
	sink := &captureSink{}
	issuer := NewIssuer(NewStore(), sink)

	if err := issuer.Issue(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	first := sink.lastCode()

	if err := issuer.Issue(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	second := sink.lastCode()

	if first != second && issuer.Verify("a@x.com", first) {
		t.Error("first code should be invalidated by the reissue")
	}
	if !issuer.Verify("a@x.com", second) {
		t.Error("second code should verify")
	}
}

// TestCodeExpiry pins the store clock and verifies the code is accepted at
// the expiry instant and rejected just past it.
func TestCodeExpiry(t *testing.T) {
	base := time.Now()

	store := NewStore()
	store.now = func() time.Time { return base }
	store.Put("a@x.com", "123456")

	store.now = func() time.Time { return base.Add(CodeTTL) }
	if !store.Verify("a@x.com", "123456") {
		t.Error("code should still verify at the expiry instant")
	}

	store.now = func() time.Time { return base }
	store.Put("a@x.com", "654321")
	store.now = func() time.Time { return base.Add(CodeTTL + time.Nanosecond) }
	if store.Verify("a@x.com", "654321") {
		t.Error("code should not verify past expiry")
	}
}

// TestSinkFailureLeavesNoActiveCode verifies the write-after-send ordering:
// if delivery fails, the code never becomes live.
func TestSinkFailureLeavesNoActiveCode(t *testing.T) {
	sink := &captureSink{err: errors.New("smtp unavailable")}
	issuer := NewIssuer(NewStore(), sink)

	if err := issuer.Issue(context.Background(), "a@x.com"); err == nil {
		t.Fatal("Issue should surface the sink failure")
	}
	if issuer.Verify("a@x.com", sink.lastCode()) {
		t.Error("undelivered code must not be active")
	}
}

// TestGenerateCodeRange verifies codes are 6-digit numbers in
// [100000, 999999].
func TestGenerateCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generateCode: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("non-numeric code %q", code)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d out of range", n)
		}
	}
}
