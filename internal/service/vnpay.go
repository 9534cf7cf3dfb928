package service

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	v1 "storefront/pkg/api/v1"
)

const (
	DefaultVNPayURL = "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"
	vnpSecureHash   = "vnp_SecureHash"
	vnpHashType     = "vnp_SecureHashType"
	vnpSuccessCode  = "00"
)

// VNPaySigner builds and checks VNPay redirect parameters with HMAC-SHA512
// over the sorted, URL-encoded query.
type VNPaySigner struct {
	tmnCode   string
	secret    []byte
	payURL    string
	returnURL string
}

func NewVNPaySigner(tmnCode, secret, payURL, returnURL string) *VNPaySigner {
	if payURL == "" {
		payURL = DefaultVNPayURL
	}
	return &VNPaySigner{tmnCode: tmnCode, secret: []byte(secret), payURL: payURL, returnURL: returnURL}
}

func (v *VNPaySigner) sign(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == vnpSecureHash || k == vnpHashType {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params.Get(k)))
	}
	mac := hmac.New(sha512.New, v.secret)
	mac.Write([]byte(b.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

// PaymentURL returns the gateway redirect for an order. amount is in VND.
func (v *VNPaySigner) PaymentURL(txnRef string, amount int64, info string) string {
	params := url.Values{
		"vnp_Version":    {"2.1.0"},
		"vnp_Command":    {"pay"},
		"vnp_TmnCode":    {v.tmnCode},
		"vnp_Amount":     {strconv.FormatInt(amount*100, 10)},
		"vnp_CurrCode":   {"VND"},
		"vnp_TxnRef":     {txnRef},
		"vnp_OrderInfo":  {info},
		"vnp_Locale":     {"vn"},
		"vnp_CreateDate": {time.Now().Format("20060102150405")},
	}
	if v.returnURL != "" {
		params.Set("vnp_ReturnUrl", v.returnURL)
	}
	params.Set(vnpSecureHash, v.sign(params))
	return v.payURL + "?" + params.Encode()
}

// ReturnParams produces what VNPay appends to the return URL, signed.
func (v *VNPaySigner) ReturnParams(txnRef string, amount int64, responseCode string) url.Values {
	params := url.Values{
		"vnp_TmnCode":      {v.tmnCode},
		"vnp_TxnRef":       {txnRef},
		"vnp_Amount":       {strconv.FormatInt(amount*100, 10)},
		"vnp_OrderInfo":    {"Order " + txnRef},
		"vnp_ResponseCode": {responseCode},
	}
	params.Set(vnpSecureHash, v.sign(params))
	return params
}

func (v *VNPaySigner) Verify(query map[string][]string) v1.PaymentResult {
	params := url.Values(query)
	got := params.Get(vnpSecureHash)
	want := v.sign(params)
	if got == "" || !hmac.Equal([]byte(strings.ToLower(got)), []byte(want)) {
		return v1.PaymentResult{Success: false, Message: "Invalid payment signature"}
	}

	res := v1.PaymentResult{
		TxnRef:       params.Get("vnp_TxnRef"),
		OrderInfo:    params.Get("vnp_OrderInfo"),
		ResponseCode: params.Get("vnp_ResponseCode"),
	}
	if amount, err := strconv.ParseInt(params.Get("vnp_Amount"), 10, 64); err == nil {
		res.Amount = amount / 100
	}
	res.Success = res.ResponseCode == vnpSuccessCode
	if res.Success {
		res.Message = "Payment successful"
	} else {
		res.Message = "Payment failed"
	}
	return res
}
