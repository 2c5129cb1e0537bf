package backend

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type otpVerification struct {
	User struct {
		Token string `json:"token"`
	} `json:"user"`
}

func (c *Client) SendOTP(ctx context.Context, mobile string) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/send-otp",
		body:   map[string]string{"mobile": mobile},
	}, nil)
}

// VerifyOTP exchanges a one-time code for a bearer token.
func (c *Client) VerifyOTP(ctx context.Context, code int) (string, error) {
	var out otpVerification
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/verify-otp",
		body:   map[string]int{"code": code},
	}, &out)
	if err != nil {
		return "", err
	}
	if out.User.Token == "" {
		return "", &RemoteError{StatusCode: http.StatusBadGateway, Message: "verification returned no token"}
	}
	return out.User.Token, nil
}

func (c *Client) WhoAmI(ctx context.Context, token string) (*domain.WhoAmI, error) {
	var who domain.WhoAmI
	if err := c.do(ctx, call{method: http.MethodGet, path: "/user/whoAmI", token: token}, &who); err != nil {
		return nil, err
	}
	return &who, nil
}
