package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

func newClient(base string, userID int64) *resty.Client {
	return resty.New().
		SetBaseURL(base).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-User-ID", fmt.Sprintf("%d", userID)).
		SetTimeout(30 * time.Second)
}

// checkStatus turns a non-2xx response into an error carrying the body.
func checkStatus(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}
	return fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String())
}
