package network

import (
	"math/rand"
	"net/http"

	"golang.org/x/time/rate"
)

var UserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:138.0) Gecko/20100101 Firefox/138.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36",
}

func RandomUserAgent() string {
	return UserAgents[rand.Intn(len(UserAgents))]
}

// PacedClient waits on a token bucket before each outbound request.
type PacedClient struct {
	client  HTTPClient
	limiter *rate.Limiter
}

// NewPacedClient returns client unchanged when rps is not positive.
func NewPacedClient(client HTTPClient, rps float64, burst int) HTTPClient {
	if rps <= 0 {
		return client
	}
	if burst < 1 {
		burst = 1
	}
	return &PacedClient{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (c *PacedClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return c.client.Do(req)
}
