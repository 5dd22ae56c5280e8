package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedToken(t, jwt.MapClaims{"sub": "operator-7", "exp": exp.Unix()})

	got, err := Expiry(token)
	if err != nil {
		t.Fatalf("expiry: %v", err)
	}
	if !got.Equal(exp) {
		t.Errorf("Expiry = %v, want %v", got, exp)
	}
}

func TestExpiry_NoClaim(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "operator-7"})

	if _, err := Expiry(token); !errors.Is(err, ErrNoExpiry) {
		t.Errorf("err = %v, want ErrNoExpiry", err)
	}
}

func TestExpiry_Garbage(t *testing.T) {
	if _, err := Expiry("not.a.jwt"); err == nil {
		t.Error("Expiry accepted garbage")
	}
}

func TestExpiry_SignatureNotVerified(t *testing.T) {
	// The client only reads claims; a token signed with any key parses.
	exp := time.Now().Add(time.Hour)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).
		SignedString([]byte("some-other-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Expiry(token); err != nil {
		t.Errorf("Expiry = %v, signature must not be checked", err)
	}
}

func TestUsable(t *testing.T) {
	now := time.Now()
	live := signedToken(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()})
	dead := signedToken(t, jwt.MapClaims{"exp": now.Add(-time.Hour).Unix()})
	noExp := signedToken(t, jwt.MapClaims{"sub": "x"})

	cases := []struct {
		name  string
		token string
		want  bool
	}{
		{"live", live, true},
		{"expired", dead, false},
		{"no expiry claim", noExp, false},
		{"empty", "", false},
		{"garbage", "zzz", false},
	}
	for _, tc := range cases {
		if got := Usable(tc.token, now); got != tc.want {
			t.Errorf("%s: Usable = %v, want %v", tc.name, got, tc.want)
		}
	}
}
