package alink

import "testing"

// Known-answer vector computed independently with the reference HMAC-SHA1
// implementation; guards against accidental reordering of the canonical
// concatenation.
func TestSign_KnownAnswer(t *testing.T) {
	got := Sign("pk1.dev1", "pk1", "dev1", "test-secret")
	want := "751a41a535d431ce9b5a258000bba89da736a845"

	if got != want {
		t.Errorf("Sign() = %q, want %q", got, want)
	}
}

func TestMQTTCredentials_TLS(t *testing.T) {
	creds := MQTTCredentials("pk1", "dev1", "test-secret", true)

	if creds.Username != "dev1&pk1" {
		t.Errorf("Username = %q, want %q", creds.Username, "dev1&pk1")
	}
	if creds.ClientID != "pk1.dev1|securemode=2,signmethod=hmacsha1|" {
		t.Errorf("ClientID = %q, want securemode=2 suffix", creds.ClientID)
	}
	if creds.Password != "751a41a535d431ce9b5a258000bba89da736a845" {
		t.Errorf("Password = %q, want signature over bare client id", creds.Password)
	}
}

func TestMQTTCredentials_Plaintext(t *testing.T) {
	creds := MQTTCredentials("pk1", "dev1", "test-secret", false)

	if creds.ClientID != "pk1.dev1|securemode=3,signmethod=hmacsha1|" {
		t.Errorf("ClientID = %q, want securemode=3 suffix", creds.ClientID)
	}

	// The signature covers the bare client id only; transport mode must not
	// change the password.
	tls := MQTTCredentials("pk1", "dev1", "test-secret", true)
	if creds.Password != tls.Password {
		t.Error("Password differs between TLS and plaintext; securemode must not be signed")
	}
}

func TestTopoSign_KnownAnswer(t *testing.T) {
	got := TopoSign("spk", "sdn", "sub-secret", "spk.sdn", "1700000000000")
	want := "33cf192744fefda1ac597d933eb94ff64ed39e4a"

	if got != want {
		t.Errorf("TopoSign() = %q, want %q", got, want)
	}
}

func TestSign_DistinctSecretsDistinctSignatures(t *testing.T) {
	a := Sign("pk.dn", "pk", "dn", "secret-a")
	b := Sign("pk.dn", "pk", "dn", "secret-b")

	if a == b {
		t.Error("signatures with different secrets must differ")
	}
}
