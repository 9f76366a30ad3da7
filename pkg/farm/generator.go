package farm

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"time"

	"clbench/pkg/mandel"
	"clbench/pkg/utils"

	"github.com/go-chi/valve"
	"github.com/nsqio/go-nsq"
)

// Generator renders requested patches on the local compute device and
// publishes the results
type Generator struct {
	producer Publisher
	valve    *valve.Valve
	touch    time.Duration
}

// NewGenerator constructs a Generator publishing through p
func NewGenerator(v *valve.Valve, p Publisher) *Generator {
	return &Generator{producer: p, valve: v, touch: utils.TouchSec * time.Second}
}

// Start starts the NSQ consumer. A single device renders one patch at a
// time unless the host has plenty of cores.
func (g *Generator) Start() {
	maxInFlight := 1
	if runtime.GOMAXPROCS(0) > 16 {
		maxInFlight = runtime.GOMAXPROCS(0) / 8
	}

	go func() {
		if err := utils.StartConsumer(g.valve.Context(), RequestTopic, generateChan, maxInFlight, g); err != nil {
			log.Fatal(err)
		}
	}()
}

// HandleMessage renders the requested patch. A non-nil error re-queues the
// message.
func (g *Generator) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		// an empty body is simply discarded
		return nil
	}

	if err := g.valve.Open(); err != nil {
		log.Println("[generate] failed to open valve:", err)
		return err
	}
	defer g.valve.Close()

	patch, err := Decode(m.Body)
	if err != nil {
		log.Println("[generate] failed to decode patch:", err)
		return err
	}

	start := time.Now()
	ticker := time.NewTicker(g.touch)
	defer ticker.Stop()

	done := make(chan error, 1)
	go func() {
		done <- patch.Render(g.valve.Context())
	}()

loop:
	for {
		select {
		case err := <-done:
			if errors.Is(err, mandel.ErrParams) {
				// bad parameters will never render, drop the message
				log.Println("[generate] dropping patch:", patch, err)
				return nil
			}
			if err != nil {
				log.Println("[generate] render failed:", patch, err)
				return err
			}
			break loop
		case <-ticker.C:
			log.Println("[generate] touching message")
			m.Touch()
		}
	}

	genTime := time.Since(start)

	msg, err := Encode(patch)
	if err != nil {
		return err
	}

	if len(msg) > nsqMaxMsgSize {
		log.Println("[generate] patch too large:", patch, len(msg), "bytes")
		if err := g.producer.Publish(ErrorTopic, m.Body); err != nil {
			log.Println("[generate] error publishing error message:", err)
			return err
		}
		return nil
	}

	if err := g.producer.Publish(ResponseTopic, msg); err != nil {
		log.Println("[generate] error publishing response:", err)
		return err
	}

	log.Println("[generate]", patch, "rendered in:", genTime, "total time:", time.Since(start))
	return nil
}

func (g *Generator) String() string {
	return fmt.Sprint("generator on ", RequestTopic, "/", generateChan)
}
