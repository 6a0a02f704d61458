// Package statsd wraps the few datadog statsd calls the stores, worlds and snapshots make.
// Until Init succeeds every call goes to a no-op client.
package statsd

import (
	"strings"
	"time"

	ddstatsd "github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

const namespace = "sparse."

var client ddstatsd.ClientInterface = &ddstatsd.NoOpClient{}

func Client() ddstatsd.ClientInterface {
	return client
}

// EmitDuration reports the time elapsed since start under name.
func EmitDuration(start time.Time, name string, tags ...string) {
	if err := Client().Timing(name, time.Since(start), tags, 1); err != nil {
		log.Logger.Warn().Err(err).Msgf("failed to emit %s duration", name)
	}
}

// Count adds n to the counter name.
func Count(name string, n int64, tags ...string) {
	if err := Client().Count(name, n, tags, 1); err != nil {
		log.Logger.Warn().Err(err).Msgf("failed to emit %s count", name)
	}
}

func Init(address string, tags []string) error {
	if address == "" {
		return eris.New("address must not be empty")
	}
	opts := []ddstatsd.Option{
		ddstatsd.WithNamespace(namespace),
	}
	if len(tags) > 0 {
		opts = append(opts, ddstatsd.WithTags(tags))
	}

	newClient, err := ddstatsd.New(address, opts...)
	if err != nil {
		return eris.Wrap(err, "")
	}
	client = newClient
	return nil
}

// Attributes turns "key:value" metric tags into span attributes, so traces and metrics of
// the same call carry the same labels.
func Attributes(tags []string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(tags))
	for _, tag := range tags {
		key, value := tagToTraceTag(tag)
		if value == nil {
			attrs = append(attrs, attribute.Bool(key, true))
			continue
		}
		attrs = append(attrs, attribute.String(key, value.(string)))
	}
	return attrs
}

func tagToTraceTag(tag string) (string, any) {
	key, value, found := strings.Cut(tag, ":")
	if key == "" {
		return value, nil
	}
	if !found || value == "" {
		return key, nil
	}
	return key, value
}
