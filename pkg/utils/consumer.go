package utils

import (
	"context"
	"errors"
	"log"
	"net"
	"os"
	"strings"

	"github.com/nsqio/go-nsq"
)

const (
	// TouchSec is how often a long running handler touches its message
	TouchSec = 30

	defaultNSQD     = "127.0.0.1:4150"
	defaultLookupd = "4161"
)

func checkEnv() error {
	if os.Getenv("CLB_NSQLOOKUP") == "" {
		return errors.New("CLB_NSQLOOKUP environment not set")
	}
	return nil
}

// NSQDAddr is the nsqd producers publish to, CLB_NSQD or the local default
func NSQDAddr() string {
	if addr := os.Getenv("CLB_NSQD"); addr != "" {
		return addr
	}
	return defaultNSQD
}

// NewProducer connects a producer to NSQDAddr
func NewProducer() (*nsq.Producer, error) {
	return nsq.NewProducer(NSQDAddr(), nsq.NewConfig())
}

// LookupdAddrs parses CLB_NSQLOOKUP, a comma separated list of nsqlookupd
// hosts. Hosts without a port get the lookupd HTTP port.
func LookupdAddrs() []string {
	var addrs []string
	for _, host := range strings.Split(os.Getenv("CLB_NSQLOOKUP"), ",") {
		host = strings.TrimSpace(host)
		if host == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(host); err != nil {
			host = net.JoinHostPort(host, defaultLookupd)
		}
		addrs = append(addrs, host)
	}
	return addrs
}

// StartConsumer subscribes handler to topic/channel through every lookupd
// in LookupdAddrs and blocks until ctx is done. It returns once the
// consumer has drained its in-flight messages.
func StartConsumer(ctx context.Context, topic, channel string, maxInFlight int, handler nsq.Handler) error {
	if err := checkEnv(); err != nil {
		return err
	}

	config := nsq.NewConfig()
	config.MaxInFlight = maxInFlight
	consumer, err := nsq.NewConsumer(topic, channel, config)
	if err != nil {
		return err
	}
	consumer.SetLogger(log.New(os.Stderr, "[nsq] ", log.LstdFlags), nsq.LogLevelWarning)
	consumer.AddHandler(handler)

	if err := consumer.ConnectToNSQLookupds(LookupdAddrs()); err != nil {
		return err
	}

	<-ctx.Done()

	consumer.Stop()
	<-consumer.StopChan
	return nil
}
