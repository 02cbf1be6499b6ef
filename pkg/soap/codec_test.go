package soap

import (
	"encoding/xml"
	"strings"
	"testing"

	pkgerrors "KosBridge/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusRequest struct {
	XMLName     xml.Name `xml:"billingStatusRequest"`
	PhoneNumber string   `xml:"phoneNumber"`
}

type statusResponse struct {
	PhoneNumber         string `xml:"phoneNumber"`
	CurrentBillingMonth string `xml:"currentBillingMonth"`
	BillingGenerated    bool   `xml:"billingGenerated"`
}

func TestEncode_WrapsEnvelope(t *testing.T) {
	c := NewCodec()

	data, err := c.Encode(&statusRequest{PhoneNumber: "01012345678"})
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"`)
	assert.Contains(t, s, "<soap:Body>")
	assert.Contains(t, s, "<billingStatusRequest><phoneNumber>01012345678</phoneNumber></billingStatusRequest>")
	assert.Contains(t, s, "</soap:Body></soap:Envelope>")
}

func TestDecode_ExtractsBody(t *testing.T) {
	c := NewCodec()
	responseXML := `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Header><traceId>abc-123</traceId></soap:Header>
  <soap:Body>
    <billingStatusResponse>
      <phoneNumber>01012345678</phoneNumber>
      <currentBillingMonth>202403</currentBillingMonth>
      <billingGenerated>true</billingGenerated>
    </billingStatusResponse>
  </soap:Body>
</soap:Envelope>`

	var out statusResponse
	require.NoError(t, c.Decode("billing-status", []byte(responseXML), &out))
	assert.Equal(t, "01012345678", out.PhoneNumber)
	assert.Equal(t, "202403", out.CurrentBillingMonth)
	assert.True(t, out.BillingGenerated)
}

func TestDecode_ToleratesUnprefixedEnvelope(t *testing.T) {
	c := NewCodec()
	responseXML := `<Envelope><Body><resp><phoneNumber>01012345678</phoneNumber></resp></Body></Envelope>`

	var out statusResponse
	require.NoError(t, c.Decode("billing-status", []byte(responseXML), &out))
	assert.Equal(t, "01012345678", out.PhoneNumber)
}

func TestDecode_BarePayloadWithoutEnvelope(t *testing.T) {
	c := NewCodec()
	responseXML := `<billingStatusResponse><phoneNumber>01012345678</phoneNumber><billingGenerated>false</billingGenerated></billingStatusResponse>`

	var out statusResponse
	require.NoError(t, c.Decode("billing-status", []byte(responseXML), &out))
	assert.Equal(t, "01012345678", out.PhoneNumber)
	assert.False(t, out.BillingGenerated)
}

func TestDecode_MissingBodyIsDecodeError(t *testing.T) {
	c := NewCodec()
	responseXML := `<Envelope><Header/></Envelope>`

	var out statusResponse
	err := c.Decode("billing-status", []byte(responseXML), &out)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsDecode(err))
	assert.False(t, pkgerrors.IsTransport(err))
}

func TestDecode_FaultBodyIsDecodeError(t *testing.T) {
	c := NewCodec()
	responseXML := `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <soap:Fault>
      <faultcode>soap:Server</faultcode>
      <faultstring>internal provisioning error</faultstring>
    </soap:Fault>
  </soap:Body>
</soap:Envelope>`

	var out statusResponse
	err := c.Decode("product-change", []byte(responseXML), &out)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsDecode(err))
	assert.Contains(t, err.Error(), "internal provisioning error")
	assert.Contains(t, err.Error(), "soap:Server")

	// a fault never leaks through as a zero-valued success response
	assert.Empty(t, out.PhoneNumber)
}

func TestDecode_FaultWithoutDetail(t *testing.T) {
	c := NewCodec()
	responseXML := `<Envelope><Body><Fault/></Body></Envelope>`

	var out statusResponse
	err := c.Decode("info", []byte(responseXML), &out)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsDecode(err))
	assert.Contains(t, err.Error(), "unspecified fault")
}

func TestDecode_MalformedXMLIsDecodeError(t *testing.T) {
	c := NewCodec()

	var out statusResponse
	err := c.Decode("info", []byte("<Envelope><Body><resp><unclosed></Body>"), &out)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsDecode(err))

	var de *pkgerrors.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "info", de.Endpoint)
}

func TestDecode_EmptyInput(t *testing.T) {
	c := NewCodec()

	var out statusResponse
	err := c.Decode("info", nil, &out)
	assert.True(t, pkgerrors.IsDecode(err))
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	c := NewCodec()

	enveloped, err := c.Encode(&statusRequest{PhoneNumber: "01098765432"})
	require.NoError(t, err)

	// Response-side decoding of the request envelope finds the same payload.
	var out struct {
		PhoneNumber string `xml:"phoneNumber"`
	}
	require.NoError(t, c.Decode("billing-status", enveloped, &out))
	assert.Equal(t, "01098765432", out.PhoneNumber)
	assert.True(t, strings.HasPrefix(string(enveloped), xml.Header))
}
