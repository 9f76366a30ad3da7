package generator

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"

	"clbench/pkg/mandel"

	"github.com/go-chi/valve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func smallParams() mandel.Params {
	p := mandel.DefaultParams()
	p.Width, p.Height, p.Step = 32, 24, 0.1
	return p
}

func request(method, uri string, body []byte) *fasthttp.RequestCtx {
	req := &fasthttp.Request{}
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	req.SetBody(body)

	ctx := &fasthttp.RequestCtx{}
	ctx.Init(req, nil, nil)
	return ctx
}

func TestHandlerGenerate(t *testing.T) {
	s := NewServer(valve.New())

	body, err := json.Marshal(&mandel.Patch{Frame: "f", Count: 1, Params: smallParams()})
	require.NoError(t, err)

	ctx := request("POST", "/generate", body)
	s.Handler(ctx)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))

	out := &mandel.Patch{}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), out))
	assert.Equal(t, mandel.Sequential(smallParams()), out.Data)
}

func TestHandlerErrors(t *testing.T) {
	s := NewServer(valve.New())

	tests := []struct {
		name   string
		method string
		uri    string
		body   string
		status int
	}{
		{"wrong method", "GET", "/generate", "", fasthttp.StatusMethodNotAllowed},
		{"bad json", "POST", "/generate", "{", fasthttp.StatusBadRequest},
		{"bad params", "POST", "/generate", `{"params":{"width":0}}`, fasthttp.StatusBadRequest},
		{"overflowing frame", "POST", "/generate", `{"params":{"x0":-2,"y0":1,"step":0.1,"maxIter":10,"width":4294967296,"height":4294967296}}`, fasthttp.StatusBadRequest},
		{"too many pixels", "POST", "/generate", `{"params":{"x0":-2,"y0":1,"step":0.1,"maxIter":10,"width":8192,"height":8192}}`, fasthttp.StatusBadRequest},
		{"unknown path", "GET", "/nope", "", fasthttp.StatusNotFound},
		{"health", "GET", "/health", "", fasthttp.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := request(tt.method, tt.uri, []byte(tt.body))
			s.Handler(ctx)
			assert.Equal(t, tt.status, ctx.Response.StatusCode())
		})
	}
}

func TestClientRender(t *testing.T) {
	ln := fasthttputil.NewInmemoryListener()
	defer ln.Close()

	s := NewServer(valve.New())
	go fasthttp.Serve(ln, s.Handler)

	c := NewClient("http://generator/generate")
	c.HTTP.Transport = &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return ln.Dial()
		},
	}

	p := smallParams()
	r, err := c.Render(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, mandel.Sequential(p), r.Pix)

	bad := p
	bad.Step = 0
	_, err = c.Render(context.Background(), bad)
	assert.Error(t, err)
}
