package farm

import (
	"log"

	"clbench/pkg/mandel"

	"github.com/go-chi/valve"
)

// Requester publishes the patches of one frame and shuts the valve down
// when done
type Requester struct {
	producer Publisher
	valve    *valve.Valve
	frame    mandel.Params
	id       string
	n        int
}

// NewRequester splits frame into n by n patches named after id
func NewRequester(v *valve.Valve, p Publisher, id string, frame mandel.Params, n int) (*Requester, error) {
	if _, err := mandel.Split(id, frame, n); err != nil {
		return nil, err
	}

	return &Requester{
		producer: p,
		valve:    v,
		frame:    frame,
		id:       id,
		n:        n,
	}, nil
}

// Start publishes in the background
func (r *Requester) Start() {
	go func() {
		if _, err := r.Send(); err != nil {
			log.Println("[request]", err)
		}
		r.valve.Shutdown(0)
	}()
}

// Send publishes every patch and returns how many were sent. It stops
// early when the valve is shutting down.
func (r *Requester) Send() (int, error) {
	patches, err := mandel.Split(r.id, r.frame, r.n)
	if err != nil {
		return 0, err
	}

	log.Println("[request] frame", r.id, r.frame, "in", len(patches), "patches")

	sent := 0
	for i := range patches {
		select {
		case <-r.valve.Stop():
			return sent, nil
		default:
		}

		msg, err := Encode(&patches[i])
		if err != nil {
			log.Println("[request] failed to encode patch:", &patches[i], err)
			return sent, err
		}

		if err := r.producer.Publish(RequestTopic, msg); err != nil {
			log.Println("[request] failed to publish message:", err)
			return sent, err
		}
		sent++
	}

	log.Println("[request] frame", r.id, "done. sent:", sent)
	return sent, nil
}
