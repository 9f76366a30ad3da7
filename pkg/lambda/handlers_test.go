package lambda

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
Cross-origin resource sharing (CORS)
CORS is required to call your API from a webpage that isn’t hosted on the same domain.
To enable CORS for a REST API, set the Access-Control-Allow-Origin header in the
response object that you return from your function code.
*/
func TestHandler(t *testing.T) {
	req := events.APIGatewayProxyRequest{
		Body: `{"x0":-2,"y0":1.5,"step":0.1,"maxIter":64,"width":30,"height":30}`,
	}

	resp, err := RenderFrame(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])

	var out RenderFrameResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &out))
	assert.EqualValues(t, 64, out.Params.MaxIter)

	b, err := base64.StdEncoding.DecodeString(out.Image)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 30, img.Bounds().Dx())
}

func TestHandlerBadRequest(t *testing.T) {
	for _, body := range []string{"{", `{"step":0}`, `{"width":10000,"height":10000}`, `{"width":4294967296,"height":4294967296}`} {
		resp, err := RenderFrame(context.Background(), events.APIGatewayProxyRequest{Body: body})
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}
