package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/linkcart/affiliate_backend/internal/app/domain/catalog"
)

func testCreds() catalog.Credentials {
	return catalog.Credentials{
		AccessKey:   "AKIAEXAMPLE",
		SecretKey:   "secret",
		PartnerTag:  "tag-20",
		Marketplace: "www.amazon.com",
	}
}

func asAPIError(t *testing.T, err error) *catalog.APIError {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	apiErr, ok := err.(*catalog.APIError)
	if !ok {
		t.Fatalf("expected *catalog.APIError, got %T: %v", err, err)
	}
	return apiErr
}

func TestSearchItems_MissingCredentialsShortCircuits(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := New(catalog.Credentials{Marketplace: "www.amazon.com"}, nil).WithBaseURL(srv.URL)
	_, err := c.SearchItems(context.Background(), catalog.SearchParams{Keywords: "laptop"})

	apiErr := asAPIError(t, err)
	if apiErr.Kind != catalog.KindMissingCredentials {
		t.Fatalf("kind = %s, want MissingCredentials", apiErr.Kind)
	}
	if apiErr.HTTPStatus != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", apiErr.HTTPStatus)
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatal("request reached the network despite missing credentials")
	}
}

func TestSearchItems_EmptyKeywords(t *testing.T) {
	c := New(testCreds(), nil)
	_, err := c.SearchItems(context.Background(), catalog.SearchParams{Keywords: "   "})
	apiErr := asAPIError(t, err)
	if apiErr.Kind != catalog.KindBadRequest {
		t.Fatalf("kind = %s, want BadRequest", apiErr.Kind)
	}
}

func TestSearchItems_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/paapi5/searchitems" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Amz-Target"); got != "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.SearchItems" {
			t.Errorf("x-amz-target = %s", got)
		}
		if got := r.Header.Get("Authorization"); got == "" {
			t.Error("missing Authorization header")
		}
		if got := r.Header.Get("Content-Encoding"); got != "amz-1.0" {
			t.Errorf("content-encoding = %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"SearchResult": {
				"TotalResultCount": 1,
				"Items": [{
					"ASIN": "B08N5WRWNW",
					"DetailPageURL": "https://www.amazon.com/dp/B08N5WRWNW",
					"ItemInfo": {
						"Title": {"DisplayValue": "Echo Dot"},
						"ByLineInfo": {"Brand": {"DisplayValue": "Amazon"}}
					},
					"Images": {"Primary": {"Medium": {"URL": "https://img/medium.jpg"}}},
					"Offers": {"Listings": [{"Price": {"Amount": 49.99, "Currency": "USD"}, "Availability": {"Type": "Now"}}]}
				}]
			}
		}`))
	}))
	defer srv.Close()

	c := New(testCreds(), nil).WithBaseURL(srv.URL)
	result, err := c.SearchItems(context.Background(), catalog.SearchParams{Keywords: "echo dot"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if result.TotalCount != 1 || len(result.Items) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	item := result.Items[0]
	if item.ASIN != "B08N5WRWNW" || item.Title != "Echo Dot" || item.Brand != "Amazon" {
		t.Fatalf("item not mapped: %+v", item)
	}
	if item.Price != 49.99 || !item.Available {
		t.Fatalf("offer not mapped: %+v", item)
	}
	if result.SearchIndex != "All" {
		t.Fatalf("empty index should resolve to All, got %s", result.SearchIndex)
	}
}

func TestSearchItems_HTMLResponseIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<!DOCTYPE html><html><head><title>Service Maintenance</title></head><body>down</body></html>"))
	}))
	defer srv.Close()

	c := New(testCreds(), nil).WithBaseURL(srv.URL)
	_, err := c.SearchItems(context.Background(), catalog.SearchParams{Keywords: "laptop"})

	apiErr := asAPIError(t, err)
	if apiErr.Kind != catalog.KindInvalidResponse {
		t.Fatalf("kind = %s, want InvalidResponse for HTML in 200", apiErr.Kind)
	}
	if apiErr.Message != "Service Maintenance" {
		t.Fatalf("title not extracted: %q", apiErr.Message)
	}
}

func TestSearchItems_EmbeddedErrorsIn200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Errors":[{"Code":"InvalidParameterValue","Message":"ItemCount out of range"}]}`))
	}))
	defer srv.Close()

	c := New(testCreds(), nil).WithBaseURL(srv.URL)
	_, err := c.SearchItems(context.Background(), catalog.SearchParams{Keywords: "laptop"})

	apiErr := asAPIError(t, err)
	if apiErr.Kind != catalog.KindBadRequest {
		t.Fatalf("kind = %s, want BadRequest", apiErr.Kind)
	}
	if apiErr.Code != "InvalidParameterValue" {
		t.Fatalf("remote code not carried: %q", apiErr.Code)
	}
}

func TestSearchItems_Throttled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"Errors":[{"Code":"TooManyRequests","Message":"slow down"}]}`))
	}))
	defer srv.Close()

	c := New(testCreds(), nil).WithBaseURL(srv.URL)
	_, err := c.SearchItems(context.Background(), catalog.SearchParams{Keywords: "laptop"})

	apiErr := asAPIError(t, err)
	if apiErr.Kind != catalog.KindTooManyRequests {
		t.Fatalf("kind = %s, want TooManyRequests", apiErr.Kind)
	}
	if apiErr.Kind.Retryable() {
		t.Fatal("throttling must not be reported retryable as-is")
	}
	if apiErr.HTTPStatus != http.StatusTooManyRequests {
		t.Fatalf("status = %d", apiErr.HTTPStatus)
	}
}

func TestSearchItems_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately, so the address refuses connections

	c := New(testCreds(), nil).WithBaseURL(srv.URL)
	_, err := c.SearchItems(context.Background(), catalog.SearchParams{Keywords: "laptop"})

	apiErr := asAPIError(t, err)
	if apiErr.Kind != catalog.KindNetworkError {
		t.Fatalf("kind = %s, want NetworkError", apiErr.Kind)
	}
	if !apiErr.Kind.Retryable() {
		t.Fatal("network errors must be retryable")
	}
}

func TestSearchItems_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		srv.Close()
	}()

	c := New(testCreds(), nil).
		WithBaseURL(srv.URL).
		WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond})
	_, err := c.SearchItems(context.Background(), catalog.SearchParams{Keywords: "laptop"})

	apiErr := asAPIError(t, err)
	if apiErr.Kind != catalog.KindTimeoutError {
		t.Fatalf("kind = %s, want TimeoutError", apiErr.Kind)
	}
	if apiErr.HTTPStatus != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", apiErr.HTTPStatus)
	}
}

func TestSearchItems_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"Errors":[{"Code":"InternalFailure","Message":"boom"}]}`))
	}))
	defer srv.Close()

	c := New(testCreds(), nil).WithBaseURL(srv.URL)
	_, err := c.SearchItems(context.Background(), catalog.SearchParams{Keywords: "laptop"})

	apiErr := asAPIError(t, err)
	if apiErr.Kind != catalog.KindServerError {
		t.Fatalf("kind = %s, want ServerError", apiErr.Kind)
	}
	if !apiErr.Kind.Retryable() {
		t.Fatal("server errors must be retryable")
	}
}

func TestGetItems_RequiresIDs(t *testing.T) {
	c := New(testCreds(), nil)
	_, err := c.GetItems(context.Background(), []string{"  ", ""})
	apiErr := asAPIError(t, err)
	if apiErr.Kind != catalog.KindBadRequest {
		t.Fatalf("kind = %s, want BadRequest", apiErr.Kind)
	}
}

func TestGetBrowseNodes_MapsHierarchy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"BrowseNodesResult": {
				"BrowseNodes": [{
					"Id": "172282",
					"DisplayName": "Electronics",
					"Ancestor": {"Id": "1", "DisplayName": "Departments"},
					"Children": [{"Id": "172541", "DisplayName": "Televisions"}]
				}]
			}
		}`))
	}))
	defer srv.Close()

	c := New(testCreds(), nil).WithBaseURL(srv.URL)
	result, err := c.GetBrowseNodes(context.Background(), []string{"172282"})
	if err != nil {
		t.Fatalf("browse nodes: %v", err)
	}
	if len(result.Nodes) != 1 {
		t.Fatalf("nodes = %d", len(result.Nodes))
	}
	node := result.Nodes[0]
	if node.Name != "Electronics" || node.Ancestor == nil || node.Ancestor.Name != "Departments" {
		t.Fatalf("hierarchy not mapped: %+v", node)
	}
	if len(node.Children) != 1 || node.Children[0].Name != "Televisions" {
		t.Fatalf("children not mapped: %+v", node.Children)
	}
}
