package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"time"

	"clbench/pkg/mandel"
)

// Client requests renders from a generator Server
type Client struct {
	URL  string // full URL of the generate endpoint
	HTTP *http.Client
}

// NewClient returns a client for url
func NewClient(url string) *Client {
	return &Client{URL: url, HTTP: &http.Client{Timeout: RenderTimeout}}
}

// Generate asks the remote host to render the patch. The patch passed in
// contains only the parameters; on success its data is filled in from the
// response.
func (c *Client) Generate(ctx context.Context, patch *mandel.Patch) error {
	buf, err := json.Marshal(patch)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		log.Println("[client] request for generation failed:", err)
		return err
	}
	defer resp.Body.Close()

	b, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("generate %s: %s: %s", patch, resp.Status, bytes.TrimSpace(b))
	}

	return json.Unmarshal(b, patch)
}

// Render renders a whole frame remotely as a single patch
func (c *Client) Render(ctx context.Context, p mandel.Params) (*mandel.Result, error) {
	patch := &mandel.Patch{Frame: "remote", Count: 1, Params: p}

	ts := time.Now()
	if err := c.Generate(ctx, patch); err != nil {
		return nil, err
	}

	if len(patch.Data) != p.Width*p.Height {
		return nil, fmt.Errorf("generate: got %d pixels for %dx%d", len(patch.Data), p.Width, p.Height)
	}

	return &mandel.Result{
		Params: p,
		Pix:    patch.Data,
		Device: c.URL,
		Wall:   time.Since(ts),
	}, nil
}
