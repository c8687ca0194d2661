package catalog

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/linkcart/affiliate_backend/internal/app/domain/catalog"
)

const (
	signingAlgorithm = "AWS4-HMAC-SHA256"
	signingService   = "ProductAdvertisingAPI"
	targetPrefix     = "com.amazon.paapi5.v1.ProductAdvertisingAPIv1."
	apiBasePath      = "/paapi5"
)

// signInput is everything the signature depends on. Signing is a pure
// function of this value: the same input always yields the same
// Authorization header.
type signInput struct {
	Method    string
	Path      string
	Host      string
	Operation string
	Payload   []byte
	Timestamp time.Time
	Creds     catalog.Credentials
}

// amzTimestamp renders the compact ISO-8601 form the signature requires:
// no punctuation, no sub-second digits, always UTC.
func amzTimestamp(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// signedHeaderSet returns the header set included in the signature, keyed by
// lower-cased header name with values trimmed.
func signedHeaderSet(in signInput) map[string]string {
	return map[string]string{
		"content-encoding": "amz-1.0",
		"content-type":     "application/json; charset=utf-8",
		"host":             strings.TrimSpace(in.Host),
		"x-amz-date":       amzTimestamp(in.Timestamp),
		"x-amz-target":     targetPrefix + in.Operation,
	}
}

// canonicalHeaders renders the sorted name:value block (each line newline
// terminated) and the semicolon-joined signed-headers list.
func canonicalHeaders(headers map[string]string) (string, string) {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	var block strings.Builder
	for _, name := range names {
		block.WriteString(name)
		block.WriteString(":")
		block.WriteString(strings.TrimSpace(headers[name]))
		block.WriteString("\n")
	}
	return block.String(), strings.Join(names, ";")
}

// canonicalRequest assembles the canonical request string. The query string
// is always empty for this API.
func canonicalRequest(in signInput, headerBlock, signedHeaders string) string {
	payloadHash := sha256.Sum256(in.Payload)
	return strings.Join([]string{
		in.Method,
		in.Path,
		"", // canonical query string
		headerBlock,
		signedHeaders,
		hex.EncodeToString(payloadHash[:]),
	}, "\n")
}

// credentialScope is date/region/service/aws4_request, date being the first
// eight characters of the timestamp.
func credentialScope(in signInput) string {
	return strings.Join([]string{
		amzTimestamp(in.Timestamp)[:8],
		in.Creds.Region(),
		signingService,
		"aws4_request",
	}, "/")
}

func stringToSign(in signInput, canonical string) string {
	canonicalHash := sha256.Sum256([]byte(canonical))
	return strings.Join([]string{
		signingAlgorithm,
		amzTimestamp(in.Timestamp),
		credentialScope(in),
		hex.EncodeToString(canonicalHash[:]),
	}, "\n")
}

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// derivedSigningKey chains four HMAC-SHA256 operations seeded with
// "AWS4" + secret key, folding in date, region, service and the terminator.
func derivedSigningKey(in signInput) []byte {
	kDate := hmacSHA256([]byte("AWS4"+in.Creds.SecretKey), []byte(amzTimestamp(in.Timestamp)[:8]))
	kRegion := hmacSHA256(kDate, []byte(in.Creds.Region()))
	kService := hmacSHA256(kRegion, []byte(signingService))
	return hmacSHA256(kService, []byte("aws4_request"))
}

// sign computes the Authorization header value for the input. Any deviation
// in header casing or whitespace invalidates the signature, so callers must
// send exactly the headers returned by signedHeaderSet.
func sign(in signInput) string {
	headers := signedHeaderSet(in)
	headerBlock, signedHeaders := canonicalHeaders(headers)
	canonical := canonicalRequest(in, headerBlock, signedHeaders)
	signature := hex.EncodeToString(hmacSHA256(derivedSigningKey(in), []byte(stringToSign(in, canonical))))

	return fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		signingAlgorithm, in.Creds.AccessKey, credentialScope(in), signedHeaders, signature)
}
