// Package catalog implements the signed outbound client for the remote
// product-catalog API. Every failure mode (transport, HTTP, embedded
// error-in-200, HTML error page) is normalized into *catalog.APIError; no
// raw transport error ever escapes this package.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/linkcart/affiliate_backend/internal/app/domain/catalog"
	"github.com/linkcart/affiliate_backend/internal/app/metrics"
	"github.com/linkcart/affiliate_backend/internal/httputil"
	"github.com/linkcart/affiliate_backend/pkg/logger"
)

const (
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 8 << 20
)

// Client executes authenticated calls against the remote catalog API.
type Client struct {
	creds   catalog.Credentials
	httpc   *http.Client
	baseURL string
	log     *logger.Logger
	now     func() time.Time
}

// New constructs a client for the given credential set. The credentials are
// immutable for the client's lifetime.
func New(creds catalog.Credentials, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewDefault("catalog-client")
	}
	return &Client{
		creds:   creds,
		httpc:   &http.Client{Timeout: defaultTimeout},
		baseURL: "https://" + creds.Host(),
		log:     log,
		now:     time.Now,
	}
}

// WithHTTPClient overrides the transport, primarily for tests.
func (c *Client) WithHTTPClient(httpc *http.Client) *Client {
	if httpc != nil {
		c.httpc = httpc
	}
	return c
}

// WithBaseURL overrides the endpoint, primarily for tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	if baseURL != "" {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
	return c
}

// WithClock overrides the timestamp source, primarily for tests.
func (c *Client) WithClock(now func() time.Time) *Client {
	if now != nil {
		c.now = now
	}
	return c
}

// --- operations ----------------------------------------------------------------

var searchResources = []string{
	"ItemInfo.Title",
	"ItemInfo.ByLineInfo",
	"Images.Primary.Medium",
	"Offers.Listings.Price",
	"Offers.Listings.Availability.Type",
	"SearchRefinements",
}

var itemResources = []string{
	"ItemInfo.Title",
	"ItemInfo.ByLineInfo",
	"ItemInfo.Features",
	"Images.Primary.Large",
	"Offers.Listings.Price",
	"Offers.Listings.Availability.Type",
}

var browseNodeResources = []string{
	"BrowseNodes.Ancestor",
	"BrowseNodes.Children",
}

// SearchItems searches the remote catalog. The search index defaults to the
// wildcard index; the item count defaults to 10 and pages are clamped to the
// remote API's 1-10 window.
func (c *Client) SearchItems(ctx context.Context, params catalog.SearchParams) (catalog.SearchResult, error) {
	keywords := strings.TrimSpace(params.Keywords)
	if keywords == "" {
		return catalog.SearchResult{}, &catalog.APIError{
			Kind:       catalog.KindBadRequest,
			Message:    "keywords are required",
			HTTPStatus: http.StatusBadRequest,
		}
	}

	index := strings.TrimSpace(params.SearchIndex)
	if index == "" || !ValidSearchIndex(index) {
		index = ResolveSearchIndex(index)
	}

	count := params.ItemCount
	if count <= 0 {
		count = 10
	}
	if count > 10 {
		count = 10
	}
	page := params.ItemPage
	if page < 1 {
		page = 1
	}
	if page > 10 {
		page = 10
	}

	payload := map[string]interface{}{
		"Keywords":    keywords,
		"SearchIndex": index,
		"ItemCount":   count,
		"ItemPage":    page,
		"PartnerTag":  c.creds.PartnerTag,
		"PartnerType": "Associates",
		"Marketplace": c.creds.MarketplaceID(),
		"Resources":   searchResources,
	}
	if params.MinPrice > 0 {
		payload["MinPrice"] = int(params.MinPrice * 100)
	}
	if params.MaxPrice > 0 {
		payload["MaxPrice"] = int(params.MaxPrice * 100)
	}
	if brand := strings.TrimSpace(params.Brand); brand != "" {
		payload["Brand"] = brand
	}

	body, apiErr := c.call(ctx, "SearchItems", payload)
	if apiErr != nil {
		return catalog.SearchResult{}, apiErr
	}

	var wire struct {
		SearchResult struct {
			Items            []wireItem `json:"Items"`
			TotalResultCount int        `json:"TotalResultCount"`
		} `json:"SearchResult"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return catalog.SearchResult{}, invalidResponse("decode search result", err)
	}

	result := catalog.SearchResult{
		Items:       make([]catalog.Item, 0, len(wire.SearchResult.Items)),
		TotalCount:  wire.SearchResult.TotalResultCount,
		SearchIndex: index,
	}
	for _, item := range wire.SearchResult.Items {
		result.Items = append(result.Items, item.toDomain())
	}
	return result, nil
}

// GetItems looks up one or more items by ASIN.
func (c *Client) GetItems(ctx context.Context, asins []string) (catalog.GetItemsResult, error) {
	cleaned := make([]string, 0, len(asins))
	for _, asin := range asins {
		if trimmed := strings.TrimSpace(asin); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return catalog.GetItemsResult{}, &catalog.APIError{
			Kind:       catalog.KindBadRequest,
			Message:    "at least one item id is required",
			HTTPStatus: http.StatusBadRequest,
		}
	}

	payload := map[string]interface{}{
		"ItemIds":     cleaned,
		"PartnerTag":  c.creds.PartnerTag,
		"PartnerType": "Associates",
		"Marketplace": c.creds.MarketplaceID(),
		"Resources":   itemResources,
	}

	body, apiErr := c.call(ctx, "GetItems", payload)
	if apiErr != nil {
		return catalog.GetItemsResult{}, apiErr
	}

	var wire struct {
		ItemsResult struct {
			Items []wireItem `json:"Items"`
		} `json:"ItemsResult"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return catalog.GetItemsResult{}, invalidResponse("decode items result", err)
	}

	result := catalog.GetItemsResult{Items: make([]catalog.Item, 0, len(wire.ItemsResult.Items))}
	for _, item := range wire.ItemsResult.Items {
		result.Items = append(result.Items, item.toDomain())
	}
	return result, nil
}

// GetBrowseNodes fetches hierarchical category metadata.
func (c *Client) GetBrowseNodes(ctx context.Context, nodeIDs []string) (catalog.BrowseNodesResult, error) {
	cleaned := make([]string, 0, len(nodeIDs))
	for _, id := range nodeIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return catalog.BrowseNodesResult{}, &catalog.APIError{
			Kind:       catalog.KindBadRequest,
			Message:    "at least one browse node id is required",
			HTTPStatus: http.StatusBadRequest,
		}
	}

	payload := map[string]interface{}{
		"BrowseNodeIds": cleaned,
		"PartnerTag":    c.creds.PartnerTag,
		"PartnerType":   "Associates",
		"Marketplace":   c.creds.MarketplaceID(),
		"Resources":     browseNodeResources,
	}

	body, apiErr := c.call(ctx, "GetBrowseNodes", payload)
	if apiErr != nil {
		return catalog.BrowseNodesResult{}, apiErr
	}

	var wire struct {
		BrowseNodesResult struct {
			BrowseNodes []wireBrowseNode `json:"BrowseNodes"`
		} `json:"BrowseNodesResult"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return catalog.BrowseNodesResult{}, invalidResponse("decode browse nodes", err)
	}

	result := catalog.BrowseNodesResult{Nodes: make([]catalog.BrowseNode, 0, len(wire.BrowseNodesResult.BrowseNodes))}
	for _, node := range wire.BrowseNodesResult.BrowseNodes {
		result.Nodes = append(result.Nodes, node.toDomain())
	}
	return result, nil
}

// --- request execution and failure normalization --------------------------------

// call signs and executes one request, returning the raw JSON body of a
// successful response or the normalized failure.
func (c *Client) call(ctx context.Context, operation string, payload interface{}) (json.RawMessage, *catalog.APIError) {
	start := c.now()
	body, apiErr := c.doCall(ctx, operation, payload)
	outcome := "success"
	if apiErr != nil {
		outcome = string(apiErr.Kind)
		c.log.WithField("operation", operation).
			WithField("kind", string(apiErr.Kind)).
			WithField("status", apiErr.HTTPStatus).
			Warn("catalog call failed: " + apiErr.Message)
	}
	metrics.RecordCatalogCall(operation, outcome, time.Since(start))
	return body, apiErr
}

func (c *Client) doCall(ctx context.Context, operation string, payload interface{}) (json.RawMessage, *catalog.APIError) {
	if !c.creds.Complete() {
		return nil, &catalog.APIError{
			Kind:       catalog.KindMissingCredentials,
			Message:    "access key, secret key and partner tag must all be configured",
			HTTPStatus: http.StatusServiceUnavailable,
		}
	}

	rawPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, &catalog.APIError{
			Kind:       catalog.KindUnknownError,
			Message:    "encode request payload: " + err.Error(),
			HTTPStatus: http.StatusInternalServerError,
		}
	}

	path := apiBasePath + "/" + strings.ToLower(operation)
	in := signInput{
		Method:    http.MethodPost,
		Path:      path,
		Host:      c.creds.Host(),
		Operation: operation,
		Payload:   rawPayload,
		Timestamp: c.now(),
		Creds:     c.creds,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(rawPayload))
	if err != nil {
		return nil, &catalog.APIError{
			Kind:       catalog.KindUnknownError,
			Message:    "build request: " + err.Error(),
			HTTPStatus: http.StatusInternalServerError,
		}
	}
	// The signed header set must go on the wire exactly as it was signed.
	for name, value := range signedHeaderSet(in) {
		if name == "host" {
			continue // net/http sets Host from the URL
		}
		req.Header.Set(name, value)
	}
	req.Header.Set("Authorization", sign(in))

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := httputil.ReadAllStrict(resp.Body, maxResponseSize)
	if err != nil {
		return nil, &catalog.APIError{
			Kind:       catalog.KindInvalidResponse,
			Message:    "read response body: " + err.Error(),
			HTTPStatus: resp.StatusCode,
		}
	}

	return normalizeResponse(resp.StatusCode, raw)
}

// transportError distinguishes timeouts from other connection failures and
// synthesizes the HTTP status the failure would have carried.
func transportError(ctx context.Context, err error) *catalog.APIError {
	var netErr net.Error
	timedOut := errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout())
	if ctx.Err() == context.DeadlineExceeded {
		timedOut = true
	}
	if timedOut {
		return &catalog.APIError{
			Kind:       catalog.KindTimeoutError,
			Message:    "request to catalog API timed out",
			HTTPStatus: http.StatusGatewayTimeout,
		}
	}
	return &catalog.APIError{
		Kind:       catalog.KindNetworkError,
		Message:    "catalog API unreachable: " + err.Error(),
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

var titlePattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

// normalizeResponse applies the response classification policy: HTML bodies
// are failures regardless of status, 2xx bodies can still embed an Errors
// array, and anything else must be valid JSON.
func normalizeResponse(status int, raw []byte) (json.RawMessage, *catalog.APIError) {
	trimmed := strings.TrimSpace(string(raw))

	// The remote API occasionally serves HTML error pages with status 200.
	if hasDoctypePrefix(trimmed) {
		message := "catalog API returned an HTML error page"
		if m := titlePattern.FindStringSubmatch(trimmed); len(m) == 2 {
			if title := strings.TrimSpace(m[1]); title != "" {
				message = title
			}
		}
		return nil, &catalog.APIError{
			Kind:       catalog.KindForStatus(status),
			Message:    message,
			HTTPStatus: status,
		}
	}

	var envelope struct {
		Errors []struct {
			Code    string `json:"Code"`
			Message string `json:"Message"`
		} `json:"Errors"`
	}
	jsonErr := json.Unmarshal(raw, &envelope)

	if status >= 400 {
		apiErr := &catalog.APIError{
			Kind:       catalog.KindForStatus(status),
			Message:    http.StatusText(status),
			HTTPStatus: status,
		}
		if jsonErr == nil && len(envelope.Errors) > 0 {
			apiErr.Code = envelope.Errors[0].Code
			apiErr.Message = envelope.Errors[0].Message
		} else if trimmed != "" {
			apiErr.Message = trimmed
		}
		return nil, apiErr
	}

	if jsonErr != nil {
		apiErr := invalidResponse("catalog API returned malformed JSON", jsonErr)
		apiErr.HTTPStatus = status
		return nil, apiErr
	}

	// A 200 response can still embed errors.
	if len(envelope.Errors) > 0 {
		first := envelope.Errors[0]
		return nil, &catalog.APIError{
			Kind:       kindForErrorCode(first.Code),
			Message:    first.Message,
			Code:       first.Code,
			HTTPStatus: status,
		}
	}

	return json.RawMessage(raw), nil
}

func hasDoctypePrefix(body string) bool {
	const doctype = "<!DOCTYPE"
	return len(body) >= len(doctype) && strings.EqualFold(body[:len(doctype)], doctype)
}

// kindForErrorCode classifies the remote API's embedded error codes.
func kindForErrorCode(code string) catalog.ErrorKind {
	switch {
	case strings.Contains(code, "Throttl"), code == "TooManyRequests":
		return catalog.KindTooManyRequests
	case strings.HasPrefix(code, "AccessDenied"), strings.Contains(code, "Signature"),
		code == "UnrecognizedClient", code == "InvalidAssociate":
		return catalog.KindUnauthorized
	case strings.HasPrefix(code, "Invalid"), strings.HasPrefix(code, "Missing"),
		code == "ItemsNotFound", code == "NoResults":
		return catalog.KindBadRequest
	case code == "InternalFailure", code == "ServiceUnavailable":
		return catalog.KindServerError
	default:
		return catalog.KindUnknownError
	}
}

func invalidResponse(message string, err error) *catalog.APIError {
	if err != nil {
		message += ": " + err.Error()
	}
	return &catalog.APIError{
		Kind:       catalog.KindInvalidResponse,
		Message:    message,
		HTTPStatus: http.StatusOK,
	}
}

// --- wire types -----------------------------------------------------------------

type wireItem struct {
	ASIN          string `json:"ASIN"`
	DetailPageURL string `json:"DetailPageURL"`
	ItemInfo      struct {
		Title struct {
			DisplayValue string `json:"DisplayValue"`
		} `json:"Title"`
		ByLineInfo struct {
			Brand struct {
				DisplayValue string `json:"DisplayValue"`
			} `json:"Brand"`
		} `json:"ByLineInfo"`
	} `json:"ItemInfo"`
	Images struct {
		Primary struct {
			Medium struct {
				URL string `json:"URL"`
			} `json:"Medium"`
			Large struct {
				URL string `json:"URL"`
			} `json:"Large"`
		} `json:"Primary"`
	} `json:"Images"`
	Offers struct {
		Listings []struct {
			Price struct {
				Amount   float64 `json:"Amount"`
				Currency string  `json:"Currency"`
			} `json:"Price"`
			Availability struct {
				Type string `json:"Type"`
			} `json:"Availability"`
		} `json:"Listings"`
	} `json:"Offers"`
}

func (w wireItem) toDomain() catalog.Item {
	item := catalog.Item{
		ASIN:  w.ASIN,
		Title: w.ItemInfo.Title.DisplayValue,
		URL:   w.DetailPageURL,
		Brand: w.ItemInfo.ByLineInfo.Brand.DisplayValue,
	}
	if w.Images.Primary.Large.URL != "" {
		item.ImageURL = w.Images.Primary.Large.URL
	} else {
		item.ImageURL = w.Images.Primary.Medium.URL
	}
	if len(w.Offers.Listings) > 0 {
		listing := w.Offers.Listings[0]
		item.Price = listing.Price.Amount
		item.Currency = listing.Price.Currency
		item.Available = listing.Availability.Type == "" || listing.Availability.Type == "Now"
	}
	return item
}

type wireBrowseNode struct {
	ID          string           `json:"Id"`
	DisplayName string           `json:"DisplayName"`
	Children    []wireBrowseNode `json:"Children"`
	Ancestor    *wireBrowseNode  `json:"Ancestor"`
}

func (w wireBrowseNode) toDomain() catalog.BrowseNode {
	node := catalog.BrowseNode{ID: w.ID, Name: w.DisplayName}
	for _, child := range w.Children {
		node.Children = append(node.Children, child.toDomain())
	}
	if w.Ancestor != nil {
		ancestor := w.Ancestor.toDomain()
		node.Ancestor = &ancestor
	}
	return node
}
