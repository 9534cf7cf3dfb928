package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	v1 "storefront/pkg/api/v1"
)

type PaymentService struct {
	gw *Gateway
}

// VerifyVNPay forwards the query parameters VNPay appended to the return URL
// and reports the backend's verdict.
func (s *PaymentService) VerifyVNPay(ctx context.Context, params url.Values) (*v1.PaymentResult, error) {
	resp, err := s.gw.Do(ctx, &Request{Method: get, Path: "/payment/vnpay/callback", Query: params})
	if err != nil {
		// A bad signature comes back as 400 with the same envelope.
		var res v1.PaymentResult
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
			if jerr := (&Response{Body: apiErr.Body}).Decode(&res); jerr == nil && res.Message != "" {
				return &res, nil
			}
		}
		return nil, err
	}
	var res v1.PaymentResult
	if err := resp.Decode(&res); err != nil {
		return nil, err
	}
	return &res, nil
}
