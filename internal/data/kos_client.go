package data

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"KosBridge/internal/conf"
	pkgerrors "KosBridge/pkg/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-resty/resty/v2"
)

// KOS endpoint names. The client decides HTTP method and parameter
// handling per endpoint, mirroring the upstream contract.
const (
	EndpointBillingStatus = "billing-status"
	EndpointBillingInfo   = "info"
	EndpointCustomerInfo  = "customer-info"
	EndpointProductInfo   = "product-info"
	EndpointProductChange = "change"
)

// Parameter extraction patterns for GET endpoints. The upstream accepts
// query parameters, so the relevant fields are lifted out of the XML
// request payload.
var (
	phoneNumberPattern  = regexp.MustCompile(`<phoneNumber>(\d+)</phoneNumber>`)
	billingMonthPattern = regexp.MustCompile(`<billingMonth>(\d+)</billingMonth>`)
	productCodePattern  = regexp.MustCompile(`<productCode>([^<]+)</productCode>`)
)

// KOSClient sends raw XML requests to the provisioning system and
// returns raw XML responses. Encoding and decoding live elsewhere.
type KOSClient interface {
	Send(ctx context.Context, endpoint string, requestXML string) (string, error)
}

// kosHTTPClient is the resty-based implementation of KOSClient.
type kosHTTPClient struct {
	client      *resty.Client
	contextPath string
	logger      *log.Helper
}

// NewKOSClient creates a KOS HTTP client from configuration.
// In real mode requests go to the production system under /real/billings/,
// otherwise to the mock under /mock/billings/.
func NewKOSClient(c *conf.Kos, logger log.Logger) KOSClient {
	baseURL := ensureHTTPURL(c.BaseUrl)
	contextPath := "/mock/billings/"
	if c.UseReal {
		baseURL = ensureHTTPURL(c.RealBaseUrl)
		contextPath = "/real/billings/"
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(c.Timeout.AsDuration()).
		SetHeader("Accept", "text/xml")

	return &kosHTTPClient{
		client:      client,
		contextPath: contextPath,
		logger:      log.NewHelper(logger),
	}
}

// Send dispatches one request to the named KOS endpoint.
// Query-style endpoints extract their parameters from the request XML;
// the change endpoint posts the XML body as-is.
func (c *kosHTTPClient) Send(ctx context.Context, endpoint string, requestXML string) (string, error) {
	req := c.client.R().SetContext(ctx)
	path := c.contextPath + endpoint

	var resp *resty.Response
	var err error

	switch endpoint {
	case EndpointBillingStatus, EndpointCustomerInfo:
		req.SetQueryParam("phoneNumber", extractPattern(phoneNumberPattern, requestXML))
		resp, err = req.Get(path)
	case EndpointBillingInfo:
		req.SetQueryParam("phoneNumber", extractPattern(phoneNumberPattern, requestXML))
		if month := extractPattern(billingMonthPattern, requestXML); month != "" {
			req.SetQueryParam("billingMonth", month)
		}
		resp, err = req.Get(path)
	case EndpointProductInfo:
		req.SetQueryParam("productCode", extractPattern(productCodePattern, requestXML))
		resp, err = req.Get(path)
	default:
		// change and any future endpoints carry the XML payload in the body
		req.SetHeader("Content-Type", "application/xml")
		req.SetBody(requestXML)
		resp, err = req.Post(path)
	}

	if err != nil {
		c.logger.Warnw("msg", "provisioning system request failed",
			"endpoint", endpoint,
			"error", err.Error())
		return "", pkgerrors.NewTransport(endpoint, 0, err)
	}

	if resp.IsError() {
		c.logger.Warnw("msg", "provisioning system returned error status",
			"endpoint", endpoint,
			"status", resp.StatusCode())
		return "", pkgerrors.NewTransport(endpoint, resp.StatusCode(),
			fmt.Errorf("unexpected status %d", resp.StatusCode()))
	}

	body := resp.String()
	c.logger.Debugw("msg", "provisioning system response received",
		"endpoint", endpoint,
		"length", len(body))
	return body, nil
}

// extractPattern pulls the first capture group out of the XML payload.
func extractPattern(pattern *regexp.Regexp, requestXML string) string {
	m := pattern.FindStringSubmatch(requestXML)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// ensureHTTPURL prefixes bare host:port values with http://.
func ensureHTTPURL(url string) string {
	if url == "" {
		return "http://localhost:8084"
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "http://" + url
	}
	return url
}
