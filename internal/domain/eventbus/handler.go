package eventbus

import (
	"sync/atomic"

	"ai-image-gateway/internal/platform/errors"
	"ai-image-gateway/internal/platform/logging"
)

// Stats is a point-in-time copy of the upload counters.
type Stats struct {
	Received           int64 `json:"received"`
	Processed          int64 `json:"processed"`
	Rejected           int64 `json:"rejected"`
	UpstreamFailures   int64 `json:"upstream_failures"`
	UnexpectedFailures int64 `json:"unexpected_failures"`
}

// StatsCollector counts upload events. Counters only ever increase.
type StatsCollector struct {
	received   atomic.Int64
	processed  atomic.Int64
	rejected   atomic.Int64
	upstream   atomic.Int64
	unexpected atomic.Int64
}

// NewStatsCollector creates a collector subscribed synchronously to bus.
func NewStatsCollector(bus *Bus) (*StatsCollector, error) {
	c := &StatsCollector{}
	handlers := map[string]func(UploadEventData){
		EventUploadReceived:  func(UploadEventData) { c.received.Add(1) },
		EventUploadRejected:  func(UploadEventData) { c.rejected.Add(1) },
		EventUploadProcessed: func(UploadEventData) { c.processed.Add(1) },
		EventUploadFailed: func(data UploadEventData) {
			if data.Kind == string(errors.KindUpstream) {
				c.upstream.Add(1)
				return
			}
			c.unexpected.Add(1)
		},
	}
	for _, topic := range Topics {
		if err := bus.Subscribe(topic, handlers[topic]); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Snapshot 获取当前计数
func (c *StatsCollector) Snapshot() Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{
		Received:           c.received.Load(),
		Processed:          c.processed.Load(),
		Rejected:           c.rejected.Load(),
		UpstreamFailures:   c.upstream.Load(),
		UnexpectedFailures: c.unexpected.Load(),
	}
}

// AttachLogger logs every upload event asynchronously at debug level.
func AttachLogger(bus *Bus, logger *logging.Logger) error {
	for _, topic := range Topics {
		topic := topic
		err := bus.SubscribeAsync(topic, func(data UploadEventData) {
			logger.DebugTag("Events", "%s request_id=%s file=%s size=%d reason=%s kind=%s duration=%s",
				topic, data.RequestID, data.FileName, data.Size, data.Reason, data.Kind, data.Duration)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
