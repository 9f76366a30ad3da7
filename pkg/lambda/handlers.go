// Package lambda renders Mandelbrot frames behind AWS API Gateway.
package lambda

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image/png"
	"log"
	"net/http"

	"clbench/pkg/mandel"
	"clbench/pkg/palette"
	"clbench/pkg/report"

	"github.com/aws/aws-lambda-go/events"
)

// MaxPixels caps the frame a single invocation renders
const MaxPixels = 2048 * 2048

// RenderFrameResponse is the JSON body of a successful response
type RenderFrameResponse struct {
	Params mandel.Params `json:"params"`
	Device string        `json:"device"`
	Time   string        `json:"time"`
	Image  string        `json:"image"` // base64 PNG
}

type errorResponse struct {
	Error string `json:"error"`
}

// RenderFrame renders the posted Params as a base64 encoded PNG. Fields
// left out of the body keep their DefaultParams value. Bad parameters are
// answered with 400, failed renders with 500.
func RenderFrame(ctx context.Context, req events.APIGatewayProxyRequest) (*events.APIGatewayProxyResponse, error) {
	p := mandel.DefaultParams()
	if req.Body != "" {
		if err := json.Unmarshal([]byte(req.Body), &p); err != nil {
			log.Println("Error unmarshalling params: ", err)
			return respond(http.StatusBadRequest, errorResponse{err.Error()})
		}
	}

	log.Println("Lambda received:", p)
	if err := p.Validate(); err != nil {
		return respond(http.StatusBadRequest, errorResponse{err.Error()})
	}
	if p.Width*p.Height > MaxPixels {
		return respond(http.StatusBadRequest, errorResponse{"frame too large"})
	}

	res, err := mandel.Render(ctx, p)
	if err != nil {
		log.Println("Error while rendering: ", err)
		return respond(statusOf(err), errorResponse{err.Error()})
	}

	img, err := palette.Default.Image(p.Width, p.Height, res.Pix)
	if err != nil {
		return respond(http.StatusInternalServerError, errorResponse{err.Error()})
	}

	buffer := new(bytes.Buffer)
	if err := png.Encode(buffer, img); err != nil {
		log.Println("Unable to encode image: ", err)
		return nil, err
	}

	return respond(http.StatusOK, RenderFrameResponse{
		Params: p,
		Device: res.Device,
		Time:   report.Millis(res.Wall),
		Image:  base64.StdEncoding.EncodeToString(buffer.Bytes()),
	})
}

func statusOf(err error) int {
	if errors.Is(err, mandel.ErrParams) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func respond(status int, body interface{}) (*events.APIGatewayProxyResponse, error) {
	b, err := json.Marshal(body)
	if err != nil {
		log.Println("Error marshaling result: ", err)
		return nil, err
	}

	return &events.APIGatewayProxyResponse{
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
		},
		StatusCode: status,
		Body:       string(b),
	}, nil
}
