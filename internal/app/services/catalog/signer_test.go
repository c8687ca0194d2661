package catalog

import (
	"strings"
	"testing"
	"time"

	"github.com/linkcart/affiliate_backend/internal/app/domain/catalog"
)

func testSignInput() signInput {
	return signInput{
		Method:    "POST",
		Path:      "/paapi5/searchitems",
		Host:      "webservices.amazon.com",
		Operation: "SearchItems",
		Payload:   []byte(`{"Keywords":"laptop"}`),
		Timestamp: time.Date(2024, 3, 15, 10, 30, 45, 123456789, time.UTC),
		Creds: catalog.Credentials{
			AccessKey:   "AKIAEXAMPLE",
			SecretKey:   "secret",
			PartnerTag:  "tag-20",
			Marketplace: "www.amazon.com",
		},
	}
}

func TestSign_Deterministic(t *testing.T) {
	in := testSignInput()
	first := sign(in)
	second := sign(in)
	if first != second {
		t.Fatalf("same input produced different signatures:\n%s\n%s", first, second)
	}
}

func TestSign_HeaderShape(t *testing.T) {
	in := testSignInput()
	header := sign(in)

	if !strings.HasPrefix(header, "AWS4-HMAC-SHA256 ") {
		t.Fatalf("missing algorithm prefix: %s", header)
	}
	wantCred := "Credential=AKIAEXAMPLE/20240315/us-east-1/ProductAdvertisingAPI/aws4_request"
	if !strings.Contains(header, wantCred) {
		t.Fatalf("credential scope wrong: %s", header)
	}
	wantHeaders := "SignedHeaders=content-encoding;content-type;host;x-amz-date;x-amz-target"
	if !strings.Contains(header, wantHeaders) {
		t.Fatalf("signed headers wrong: %s", header)
	}
	idx := strings.Index(header, "Signature=")
	if idx < 0 {
		t.Fatalf("missing signature: %s", header)
	}
	sig := header[idx+len("Signature="):]
	if len(sig) != 64 {
		t.Fatalf("signature should be 64 hex chars, got %d: %s", len(sig), sig)
	}
	for _, c := range sig {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Fatalf("signature not lowercase hex: %s", sig)
		}
	}
}

func TestSign_SensitiveToEveryInput(t *testing.T) {
	base := sign(testSignInput())

	mutations := map[string]func(*signInput){
		"payload":   func(in *signInput) { in.Payload = []byte(`{"Keywords":"tablet"}`) },
		"timestamp": func(in *signInput) { in.Timestamp = in.Timestamp.Add(time.Second) },
		"operation": func(in *signInput) { in.Operation = "GetItems" },
		"path":      func(in *signInput) { in.Path = "/paapi5/getitems" },
		"secret":    func(in *signInput) { in.Creds.SecretKey = "other" },
		"host":      func(in *signInput) { in.Host = "webservices.amazon.co.uk" },
	}
	for name, mutate := range mutations {
		in := testSignInput()
		mutate(&in)
		if sign(in) == base {
			t.Fatalf("changing %s did not change the signature", name)
		}
	}
}

func TestAmzTimestamp(t *testing.T) {
	ts := time.Date(2024, 3, 15, 10, 30, 45, 999999999, time.FixedZone("JST", 9*3600))
	got := amzTimestamp(ts)
	if got != "20240315T013045Z" {
		t.Fatalf("timestamp not compact UTC: %s", got)
	}
}

func TestCanonicalHeaders_SortedAndTrimmed(t *testing.T) {
	block, signed := canonicalHeaders(map[string]string{
		"x-amz-date": "20240315T103045Z",
		"host":       "  webservices.amazon.com  ",
		"a-header":   "v",
	})
	if signed != "a-header;host;x-amz-date" {
		t.Fatalf("signed header list not sorted: %s", signed)
	}
	want := "a-header:v\nhost:webservices.amazon.com\nx-amz-date:20240315T103045Z\n"
	if block != want {
		t.Fatalf("canonical header block wrong:\n%q\nwant\n%q", block, want)
	}
}

func TestCredentialScope_UsesSignatureDate(t *testing.T) {
	in := testSignInput()
	scope := credentialScope(in)
	if scope != "20240315/us-east-1/ProductAdvertisingAPI/aws4_request" {
		t.Fatalf("unexpected scope: %s", scope)
	}

	in.Creds.Marketplace = "www.amazon.co.jp"
	scope = credentialScope(in)
	if !strings.Contains(scope, "/us-west-2/") {
		t.Fatalf("scope should follow marketplace region: %s", scope)
	}
}
