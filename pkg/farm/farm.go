// Package farm spreads Mandelbrot frames over a pool of generators through
// NSQ.
//
// A Requester splits a frame into patches and publishes them on
// RequestTopic. Every Generator renders the patches it receives and
// publishes them, with data, on ResponseTopic. A Store saves each patch as
// a bitmap and, once every patch of a frame arrived, the stitched frame.
//
// A patch can be requested by hand with:
//
//	curl -d '{"frame":"f","index":0,"count":1,"params":{"x0":-2,"y0":1.75,"step":0.0025,"maxIter":255,"width":1000,"height":1000}}' 'http://127.0.0.1:4151/pub?topic=render-request'
package farm

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io/ioutil"

	"clbench/pkg/mandel"
)

const (
	// RequestTopic carries patches to render
	RequestTopic = "render-request"
	// ResponseTopic carries rendered patches
	ResponseTopic = "render-response"
	// ErrorTopic receives requests whose result could not be published
	ErrorTopic = "render-errors"

	generateChan = "generate"
	storeChan    = "store"

	nsqMaxMsgSize = 1048576
)

// Starter is a basic interface that provides a Start() method
type Starter interface {
	Start()
}

// Publisher is the part of *nsq.Producer the roles use
type Publisher interface {
	Publish(topic string, body []byte) error
}

// Encode serializes the patch as gzip'd JSON
func Encode(p *mandel.Patch) ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return compress(b)
}

// Decode reads a patch published by Encode. Plain JSON is accepted as well
// so patches can be requested by hand.
func Decode(b []byte) (*mandel.Patch, error) {
	if len(b) > 1 && b[0] == 0x1f && b[1] == 0x8b {
		r, err := gzip.NewReader(bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		defer r.Close()

		if b, err = ioutil.ReadAll(r); err != nil {
			return nil, err
		}
	}

	p := &mandel.Patch{}
	if err := json.Unmarshal(b, p); err != nil {
		return nil, err
	}
	return p, nil
}

func compress(b []byte) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := gzip.NewWriter(buf)
	if _, err := w.Write(b); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
